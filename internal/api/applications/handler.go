// internal/api/applications/handler.go

// Package applications serves the job application lifecycle: apply,
// list and recruiter status updates.
package applications

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
	"resume-matcher/internal/notify"
)

type Handler struct {
	db           *sql.DB
	notifier     *notify.Notifier
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(db *sql.DB, notifier *notify.Notifier, log logger.Logger) *Handler {
	return &Handler{
		db:           db,
		notifier:     notifier,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"handler": "applications",
		}),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/applications", h.List)
	rg.POST("/applications", h.Create)
	rg.PUT("/applications/:id/status", h.UpdateStatus)
	rg.DELETE("/applications/:id", h.Withdraw)
}

// List returns the caller's applications. Recruiters can pass jobId to
// see applications for one of their listings instead.
func (h *Handler) List(c *gin.Context) {
	jobID := c.Query("jobId")

	var apps []models.Application
	var err error
	if jobID != "" && middleware.IsRecruiter(c) {
		apps, err = h.listForJob(c, jobID)
	} else {
		apps, err = h.listForUser(c)
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{Applications: apps, Total: len(apps)})
}

// Create submits an application. A user can apply to a job at most
// once; a second attempt is rejected without touching the first one.
func (h *Handler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if err := req.validate(); err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	var jobStatus string
	err := h.db.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = $1`, req.JobID).Scan(&jobStatus)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("job", req.JobID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch job", err))
		return
	}
	if jobStatus != models.JobStatusActive {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("job is no longer accepting applications"))
		return
	}

	var resumeOwner string
	err = h.db.QueryRowContext(ctx, `SELECT user_id FROM resumes WHERE id = $1`, req.ResumeID).Scan(&resumeOwner)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("resume", req.ResumeID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch resume", err))
		return
	}
	if resumeOwner != userID {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("resume belongs to another user"))
		return
	}

	var exists bool
	err = h.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE user_id = $1 AND job_id = $2)`,
		userID, req.JobID).Scan(&exists)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("duplicate check", err))
		return
	}
	if exists {
		h.errorHandler.HandleRequestError(c, errors.NewDuplicateApplicationError(userID, req.JobID))
		return
	}

	app := models.Application{
		ID:          uuid.New().String(),
		UserID:      userID,
		JobID:       req.JobID,
		ResumeID:    req.ResumeID,
		CoverLetter: req.CoverLetter,
		Status:      models.ApplicationStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO applications (id, user_id, job_id, resume_id, cover_letter, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.UserID, app.JobID, app.ResumeID, app.CoverLetter, app.Status, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewDatabaseInsertFailedError(err))
		return
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"jobId":         app.JobID,
	})
	c.JSON(http.StatusCreated, app)
}

// UpdateStatus moves an application through its lifecycle. Only the
// recruiter who owns the listing may change it. The applicant is
// notified best effort.
func (h *Handler) UpdateStatus(c *gin.Context) {
	if !middleware.IsRecruiter(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("only recruiters can update application status"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if !models.IsValidApplicationStatus(req.Status) {
		h.errorHandler.HandleRequestError(c, errors.NewInvalidStatusError(req.Status))
		return
	}

	appID := c.Param("id")
	ctx := c.Request.Context()

	app, recruiterID, err := h.fetchApplication(c, appID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	if recruiterID != middleware.UserID(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("application belongs to another recruiter's listing"))
		return
	}

	app.Status = req.Status
	app.UpdatedAt = time.Now().UTC()

	_, err = h.db.ExecContext(ctx,
		`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`,
		app.Status, app.UpdatedAt, app.ID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("update application status", err))
		return
	}

	if h.notifier != nil {
		if _, nerr := h.notifier.SendStatusChange(ctx, app); nerr != nil {
			h.logger.WithError(nerr).Warn("status notification failed", map[string]interface{}{
				"applicationId": app.ID,
				"status":        app.Status,
			})
		}
	}

	h.logger.Info("application status updated", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	c.JSON(http.StatusOK, app)
}

// Withdraw removes the caller's own application.
func (h *Handler) Withdraw(c *gin.Context) {
	appID := c.Param("id")
	ctx := c.Request.Context()

	var ownerID string
	err := h.db.QueryRowContext(ctx, `SELECT user_id FROM applications WHERE id = $1`, appID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("application", appID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch application", err))
		return
	}
	if ownerID != middleware.UserID(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("application belongs to another user"))
		return
	}

	_, err = h.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, appID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("delete application", err))
		return
	}

	h.logger.Info("application withdrawn", map[string]interface{}{
		"applicationId": appID,
	})
	c.Status(http.StatusNoContent)
}

// ==========================
// Helpers
// ==========================

const applicationSelect = `SELECT a.id, a.user_id, a.job_id, a.resume_id, a.cover_letter, a.status,
	a.created_at, a.updated_at, j.title, j.company
	FROM applications a JOIN jobs j ON j.id = a.job_id`

func scanApplication(scanner interface{ Scan(dest ...interface{}) error }) (*models.Application, error) {
	var app models.Application
	err := scanner.Scan(&app.ID, &app.UserID, &app.JobID, &app.ResumeID, &app.CoverLetter,
		&app.Status, &app.CreatedAt, &app.UpdatedAt, &app.JobTitle, &app.JobCompany)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (h *Handler) listForUser(c *gin.Context) ([]models.Application, error) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		applicationSelect+` WHERE a.user_id = $1 ORDER BY a.created_at DESC`, middleware.UserID(c))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return collectApplications(rows)
}

func (h *Handler) listForJob(c *gin.Context, jobID string) ([]models.Application, error) {
	var recruiterID string
	err := h.db.QueryRowContext(c.Request.Context(), `SELECT recruiter_id FROM jobs WHERE id = $1`, jobID).Scan(&recruiterID)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("job", jobID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch job", err)
	}
	if recruiterID != middleware.UserID(c) {
		return nil, errors.NewForbiddenError("job belongs to another recruiter")
	}

	rows, err := h.db.QueryContext(c.Request.Context(),
		applicationSelect+` WHERE a.job_id = $1 ORDER BY a.created_at DESC`, jobID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]models.Application, error) {
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan application", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list applications", err)
	}
	return apps, nil
}

// fetchApplication also returns the recruiter owning the listing so
// callers can enforce ownership.
func (h *Handler) fetchApplication(c *gin.Context, appID string) (*models.Application, string, error) {
	row := h.db.QueryRowContext(c.Request.Context(),
		`SELECT a.id, a.user_id, a.job_id, a.resume_id, a.cover_letter, a.status, a.created_at, a.updated_at,
			j.title, j.company, j.recruiter_id
		 FROM applications a JOIN jobs j ON j.id = a.job_id WHERE a.id = $1`, appID)

	var app models.Application
	var recruiterID string
	err := row.Scan(&app.ID, &app.UserID, &app.JobID, &app.ResumeID, &app.CoverLetter,
		&app.Status, &app.CreatedAt, &app.UpdatedAt, &app.JobTitle, &app.JobCompany, &recruiterID)
	if err == sql.ErrNoRows {
		return nil, "", errors.NewNotFoundError("application", appID)
	}
	if err != nil {
		return nil, "", errors.NewQueryExecutionFailedError("fetch application", err)
	}
	return &app, recruiterID, nil
}
