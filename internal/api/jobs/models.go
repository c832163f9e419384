// internal/api/jobs/models.go
package jobs

import (
	"strings"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/models"
)

type createJobRequest struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	SalaryMin    int      `json:"salaryMin"`
	SalaryMax    int      `json:"salaryMax"`
}

func (r *createJobRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.NewValidationFailedError("title is required")
	}
	if strings.TrimSpace(r.Company) == "" {
		return errors.NewValidationFailedError("company is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.NewValidationFailedError("description is required")
	}
	if !models.IsValidJobType(r.Type) {
		return errors.NewValidationFailedError("type must be one of full_time, part_time, contract, internship, remote")
	}
	if r.SalaryMin < 0 || r.SalaryMax < 0 || (r.SalaryMax > 0 && r.SalaryMin > r.SalaryMax) {
		return errors.NewValidationFailedError("salary range is invalid")
	}
	return nil
}

type updateJobRequest struct {
	createJobRequest
	Status string `json:"status"`
}

func (r *updateJobRequest) validate() error {
	if err := r.createJobRequest.validate(); err != nil {
		return err
	}
	if !models.IsValidJobStatus(r.Status) {
		return errors.NewValidationFailedError("status must be active or closed")
	}
	return nil
}

type listResponse struct {
	Jobs  []models.JobListing `json:"jobs"`
	Total int                 `json:"total"`
}
