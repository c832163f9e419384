// internal/ai/gemini/prompts.go
package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"resume-matcher/internal/models"
)

func buildAnalysisPrompt(resumeText string) string {
	var parts []string

	parts = append(parts, "You are an expert resume analyst. Analyze the following resume text and extract a structured profile.")
	parts = append(parts, "\nResume:")
	parts = append(parts, resumeText)
	parts = append(parts, "\nReturn ONLY a JSON object with this exact shape, no markdown, no explanations:")
	parts = append(parts, `{
  "skills": ["skill1", "skill2"],
  "experience": [{"company": "...", "title": "...", "duration": "...", "description": "..."}],
  "education": [{"institution": "...", "degree": "...", "field": "...", "year": "2020"}],
  "certifications": ["cert1", "cert2"],
  "summary": "2-3 sentence professional summary"
}`)
	parts = append(parts, "All values must be strings, including year. Use empty arrays and empty strings for sections the resume does not contain.")

	return strings.Join(parts, "\n")
}

func buildMatchPrompt(analysis *models.ResumeAnalysis, jobs []JobSummary) string {
	var parts []string

	analysisJSON, _ := json.MarshalIndent(map[string]interface{}{
		"skills":         analysis.Skills,
		"experience":     analysis.Experience,
		"education":      analysis.Education,
		"certifications": analysis.Certifications,
	}, "", "  ")
	jobsJSON, _ := json.MarshalIndent(jobs, "", "  ")

	parts = append(parts, "You are an expert recruiter. Score how well this candidate matches each job listing.")
	parts = append(parts, "\nCandidate profile:")
	parts = append(parts, string(analysisJSON))
	parts = append(parts, "\nJob listings:")
	parts = append(parts, string(jobsJSON))
	parts = append(parts, "\nFor every job in the list return one entry. Return ONLY a JSON array with this exact shape, no markdown, no explanations:")
	parts = append(parts, `[
  {"jobId": "...", "matchScore": 85, "matchReason": "one sentence explaining the score"}
]`)
	parts = append(parts, "matchScore must be an integer between 0 and 100.")

	return strings.Join(parts, "\n")
}

func buildImprovementsPrompt(resumeText, jobDescription string) string {
	var parts []string

	parts = append(parts, "You are an expert career coach. Suggest concrete improvements to this resume.")
	parts = append(parts, "\nResume:")
	parts = append(parts, resumeText)
	if jobDescription != "" {
		parts = append(parts, "\nTarget job description:")
		parts = append(parts, jobDescription)
		parts = append(parts, "\nTailor the suggestions to this job.")
	}
	parts = append(parts, "\nCover skills worth adding, experience worth emphasizing, format or structure fixes, and keywords worth including.")
	parts = append(parts, "Return ONLY a JSON object with this exact shape, no markdown, no explanations:")
	parts = append(parts, `{
  "skillSuggestions": ["..."],
  "experienceSuggestions": ["..."],
  "formatSuggestions": ["..."],
  "keywordSuggestions": ["..."]
}`)
	parts = append(parts, fmt.Sprintf("Return between %d and %d actionable suggestions per category.", 1, 5))

	return strings.Join(parts, "\n")
}
