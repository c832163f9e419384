// internal/models/job.go
package models

import "time"

// Job types.
const (
	JobTypeFullTime   = "full_time"
	JobTypePartTime   = "part_time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
	JobTypeRemote     = "remote"
)

// Job statuses.
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

type JobListing struct {
	ID           string    `json:"id"`
	RecruiterID  string    `json:"recruiterId"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Skills       []string  `json:"skills"`
	Location     string    `json:"location"`
	Type         string    `json:"type"`
	SalaryMin    int       `json:"salaryMin,omitempty"`
	SalaryMax    int       `json:"salaryMax,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// JobFilter narrows job listing queries.
type JobFilter struct {
	Search   string
	Type     string
	Location string
	Status   string
	Limit    int
	Offset   int
}

func IsValidJobType(jobType string) bool {
	switch jobType {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeRemote:
		return true
	}
	return false
}

func IsValidJobStatus(status string) bool {
	switch status {
	case JobStatusActive, JobStatusClosed:
		return true
	}
	return false
}
