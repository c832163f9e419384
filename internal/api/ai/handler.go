// internal/api/ai/handler.go

// Package ai serves the AI-backed operations: on-demand matching and
// resume improvement suggestions.
package ai

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/matching"
	"resume-matcher/internal/models"
)

// ImprovementsClient is the slice of the gemini client the
// improvements endpoint needs.
type ImprovementsClient interface {
	GenerateImprovements(ctx context.Context, resumeText, jobDescription string) (*models.ResumeImprovements, error)
}

type Handler struct {
	db           *sql.DB
	orchestrator *matching.Orchestrator
	improvements ImprovementsClient
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(db *sql.DB, orchestrator *matching.Orchestrator, improvements ImprovementsClient, log logger.Logger) *Handler {
	return &Handler{
		db:           db,
		orchestrator: orchestrator,
		improvements: improvements,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"handler": "ai",
		}),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/ai/match", h.Match)
	rg.POST("/ai/improvements", h.Improvements)
}

type matchRequest struct {
	ResumeID string   `json:"resumeId"`
	JobIDs   []string `json:"jobIds"`
}

type matchResponse struct {
	ResumeID string               `json:"resumeId"`
	Matches  []models.MatchResult `json:"matches"`
	Total    int                  `json:"total"`
}

// Match scores the caller's resume against the requested jobs, or
// against every active job when jobIds is omitted.
func (h *Handler) Match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if strings.TrimSpace(req.ResumeID) == "" {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("resumeId is required"))
		return
	}

	results, err := h.orchestrator.RequestMatches(c.Request.Context(), middleware.UserID(c), req.ResumeID, req.JobIDs)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, matchResponse{
		ResumeID: req.ResumeID,
		Matches:  results,
		Total:    len(results),
	})
}

type improvementsRequest struct {
	ResumeID string `json:"resumeId"`
	JobID    string `json:"jobId"`
}

// Improvements asks the model how to tailor the caller's resume to a
// specific listing.
func (h *Handler) Improvements(c *gin.Context) {
	var req improvementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if strings.TrimSpace(req.ResumeID) == "" || strings.TrimSpace(req.JobID) == "" {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("resumeId and jobId are required"))
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var ownerID, resumeText string
	err := h.db.QueryRowContext(ctx, `SELECT user_id, extracted_text FROM resumes WHERE id = $1`, req.ResumeID).
		Scan(&ownerID, &resumeText)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("resume", req.ResumeID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch resume", err))
		return
	}
	if ownerID != userID {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("resume belongs to another user"))
		return
	}

	var jobDescription string
	err = h.db.QueryRowContext(ctx, `SELECT description FROM jobs WHERE id = $1`, req.JobID).Scan(&jobDescription)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("job", req.JobID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch job", err))
		return
	}

	improvements, err := h.improvements.GenerateImprovements(ctx, resumeText, jobDescription)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	improvements.ResumeID = req.ResumeID
	improvements.JobID = req.JobID
	improvements.GeneratedAt = time.Now().UTC()

	c.JSON(http.StatusOK, improvements)
}
