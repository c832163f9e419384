// internal/ai/gemini/models.go
package gemini

import "resume-matcher/internal/models"

// Request/response wire types for the Gemini generateContent endpoint.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// analysisPayload is the JSON document the model returns for resume analysis.
type analysisPayload struct {
	Skills         []string                 `json:"skills"`
	Experience     []models.ExperienceEntry `json:"experience"`
	Education      []models.EducationEntry  `json:"education"`
	Certifications []string                 `json:"certifications"`
	Summary        string                   `json:"summary"`
}

// matchPayload is one scored job in the model's match response.
type matchPayload struct {
	JobID       string `json:"jobId"`
	MatchScore  int    `json:"matchScore"`
	MatchReason string `json:"matchReason"`
}

// improvementsPayload is the JSON document the model returns for
// resume improvement suggestions.
type improvementsPayload struct {
	SkillSuggestions      []string `json:"skillSuggestions"`
	ExperienceSuggestions []string `json:"experienceSuggestions"`
	FormatSuggestions     []string `json:"formatSuggestions"`
	KeywordSuggestions    []string `json:"keywordSuggestions"`
}

// JobSummary is the minimal job view sent to the model for matching.
type JobSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
}

// JobScore is one scored resume/job pair returned by MatchResumeToJobs.
type JobScore struct {
	JobID       string `json:"jobId"`
	MatchScore  int    `json:"matchScore"`
	MatchReason string `json:"matchReason"`
}
