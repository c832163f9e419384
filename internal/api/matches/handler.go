// internal/api/matches/handler.go

// Package matches exposes stored match results.
package matches

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/matching"
	"resume-matcher/internal/models"
)

type Handler struct {
	orchestrator *matching.Orchestrator
	errorHandler *errors.ErrorHandler
}

func NewHandler(orchestrator *matching.Orchestrator, log logger.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/matches", h.List)
	rg.POST("/matches", h.Compute)
}

type computeRequest struct {
	ResumeID string `json:"resumeId"`
}

type listResponse struct {
	ResumeID string               `json:"resumeId"`
	Matches  []models.MatchResult `json:"matches"`
	Total    int                  `json:"total"`
}

// List returns the stored results for one of the caller's resumes,
// best score first.
func (h *Handler) List(c *gin.Context) {
	resumeID := c.Query("resumeId")
	if resumeID == "" {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("resumeId query parameter is required"))
		return
	}

	results, err := h.orchestrator.GetMatches(c.Request.Context(), middleware.UserID(c), resumeID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{
		ResumeID: resumeID,
		Matches:  results,
		Total:    len(results),
	})
}

// Compute scores one of the caller's resumes against every active listing
// and returns the refreshed results.
func (h *Handler) Compute(c *gin.Context) {
	var req computeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("invalid request body"))
		return
	}
	if req.ResumeID == "" {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("resumeId is required"))
		return
	}

	results, err := h.orchestrator.RequestMatches(c.Request.Context(), middleware.UserID(c), req.ResumeID, nil)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{
		ResumeID: req.ResumeID,
		Matches:  results,
		Total:    len(results),
	})
}
