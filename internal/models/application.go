// internal/models/application.go
package models

import "time"

// Application statuses.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusReviewing = "reviewing"
	ApplicationStatusInterview = "interview"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
)

type Application struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	JobID       string    `json:"jobId"`
	ResumeID    string    `json:"resumeId,omitempty"`
	CoverLetter string    `json:"coverLetter,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Joined job fields, populated on list queries.
	JobTitle   string `json:"jobTitle,omitempty"`
	JobCompany string `json:"jobCompany,omitempty"`
}

func IsValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusPending, ApplicationStatusReviewing,
		ApplicationStatusInterview, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}
