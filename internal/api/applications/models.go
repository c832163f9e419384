// internal/api/applications/models.go
package applications

import (
	"strings"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/models"
)

type createApplicationRequest struct {
	JobID       string `json:"jobId"`
	ResumeID    string `json:"resumeId"`
	CoverLetter string `json:"coverLetter"`
}

func (r *createApplicationRequest) validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.NewValidationFailedError("jobId is required")
	}
	if strings.TrimSpace(r.ResumeID) == "" {
		return errors.NewValidationFailedError("resumeId is required")
	}
	return nil
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type listResponse struct {
	Applications []models.Application `json:"applications"`
	Total        int                  `json:"total"`
}
