// internal/notify/notifier.go

// Package notify delivers application status notifications over SES and
// SNS. Delivery is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	appconfig "resume-matcher/internal/common/config"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/validation"
	"resume-matcher/internal/models"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Result reports what a notification attempt did.
type Result struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

type Notifier struct {
	config    appconfig.NotificationConfig
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func New(cfg appconfig.NotificationConfig, db *sql.DB, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		config:    cfg,
		db:        db,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClients builds a Notifier with injected AWS clients, used in tests.
func NewWithClients(cfg appconfig.NotificationConfig, db *sql.DB, log logger.Logger, sesClient SESService, snsClient SNSService) *Notifier {
	return &Notifier{
		config:    cfg,
		db:        db,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

var statusTemplates = map[string]map[string]string{
	models.ApplicationStatusReviewing: {
		"subject": "Your application for {{jobTitle}} is under review",
		"body":    "Hi {{name}},\n\nYour application for {{jobTitle}} at {{company}} is now being reviewed.\n\nGood luck!",
	},
	models.ApplicationStatusInterview: {
		"subject": "Interview invitation for {{jobTitle}}",
		"body":    "Hi {{name}},\n\nGreat news: you have been invited to interview for {{jobTitle}} at {{company}}. The recruiter will contact you with details.",
	},
	models.ApplicationStatusAccepted: {
		"subject": "Offer for {{jobTitle}}",
		"body":    "Hi {{name}},\n\nCongratulations! Your application for {{jobTitle}} at {{company}} was accepted.",
	},
	models.ApplicationStatusRejected: {
		"subject": "Update on your application for {{jobTitle}}",
		"body":    "Hi {{name}},\n\nThank you for applying to {{jobTitle}} at {{company}}. Unfortunately the recruiter decided not to move forward with your application.",
	},
}

// SendStatusChange notifies the applicant that their application moved
// to a new status. Statuses without a template are silently skipped.
func (n *Notifier) SendStatusChange(ctx context.Context, app *models.Application) (*Result, error) {
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	template, exists := statusTemplates[app.Status]
	if !exists {
		return &Result{NotificationID: notificationID, Status: StatusDisabled, SentAt: sentAt}, nil
	}

	name, email, phone, err := n.getApplicantContact(ctx, app.UserID)
	if err != nil {
		n.logger.Warn("applicant not found for notification", map[string]interface{}{
			"userId":        app.UserID,
			"applicationId": app.ID,
		})
		return &Result{NotificationID: notificationID, Status: StatusDisabled, SentAt: sentAt}, nil
	}

	data := map[string]interface{}{
		"name":     name,
		"jobTitle": app.JobTitle,
		"company":  app.JobCompany,
		"status":   app.Status,
	}

	subject := renderTemplate(template["subject"], data)
	body := renderTemplate(template["body"], data)

	emailSent := false
	smsSent := false

	if n.config.Email.Enabled && email != "" {
		if !validation.ValidateEmail(email) {
			n.logger.Warn("skipping email to malformed address", map[string]interface{}{
				"userId":        app.UserID,
				"applicationId": app.ID,
			})
			return &Result{NotificationID: notificationID, Status: StatusDisabled, SentAt: sentAt}, nil
		}
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": app.ID,
			})
			return &Result{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt},
				errors.NewNotificationSendFailedError("email", err)
		}
		emailSent = true
	}

	// SMS only for outcomes worth interrupting someone over
	smsWorthy := app.Status == models.ApplicationStatusAccepted || app.Status == models.ApplicationStatusInterview
	if n.config.SMS.Enabled && phone != "" && smsWorthy && validation.ValidatePhone(phone) {
		if err := n.sendSMS(ctx, phone, subject); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": app.ID,
			})
			return &Result{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt},
				errors.NewNotificationSendFailedError("sms", err)
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	return &Result{NotificationID: notificationID, Status: status, SentAt: sentAt}, nil
}

func (n *Notifier) getApplicantContact(ctx context.Context, userID string) (string, string, string, error) {
	var name, email string
	var phone sql.NullString

	query := `SELECT name, email, phone FROM users WHERE id = $1`
	err := n.db.QueryRowContext(ctx, query, userID).Scan(&name, &email, &phone)
	return name, email, phone.String, err
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remove any remaining placeholders
	for {
		start := strings.Index(result, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end < 0 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}

	return result
}
