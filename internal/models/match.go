// internal/models/match.go
package models

import "time"

// MatchResult is one scored resume/job pair. One result exists per
// (resumeId, jobId); re-matching overwrites it.
type MatchResult struct {
	ResumeID    string    `json:"resumeId"`
	JobID       string    `json:"jobId"`
	MatchScore  int       `json:"matchScore"`
	MatchReason string    `json:"matchReason"`
	MatchedAt   time.Time `json:"matchedAt"`

	// Joined job fields, populated on list queries.
	JobTitle   string `json:"jobTitle,omitempty"`
	JobCompany string `json:"jobCompany,omitempty"`
}

// ClampScore forces a match score into the valid 0..100 range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
