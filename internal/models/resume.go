// internal/models/resume.go
package models

import "time"

type Resume struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	StorageKey string    `json:"storageKey"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ResumeAnalysis is the structured profile the AI extracts from resume text.
type ResumeAnalysis struct {
	ResumeID       string            `json:"resumeId"`
	Skills         []string          `json:"skills"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Certifications []string          `json:"certifications"`
	Summary        string            `json:"summary,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzedAt"`
}

// ExperienceEntry is one position extracted from a resume.
type ExperienceEntry struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// EducationEntry is one qualification extracted from a resume.
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

// ResumeImprovements holds AI-suggested improvements for a resume
// against a specific job description.
type ResumeImprovements struct {
	ResumeID              string    `json:"resumeId"`
	JobID                 string    `json:"jobId,omitempty"`
	SkillSuggestions      []string  `json:"skillSuggestions"`
	ExperienceSuggestions []string  `json:"experienceSuggestions"`
	FormatSuggestions     []string  `json:"formatSuggestions"`
	KeywordSuggestions    []string  `json:"keywordSuggestions"`
	GeneratedAt           time.Time `json:"generatedAt"`
}
