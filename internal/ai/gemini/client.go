// internal/ai/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/metrics"
	"resume-matcher/internal/common/validation"
	"resume-matcher/internal/models"
)

const providerName = "gemini"

// Client calls the Gemini generateContent REST endpoint. All public
// methods send a single prompt and parse a strict-JSON reply.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config.withDefaults(),
		// No client timeout, the per-call context bounds the request
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "gemini",
		}),
	}
}

// AnalyzeResume extracts a structured candidate profile from raw resume text.
func (c *Client) AnalyzeResume(ctx context.Context, resumeID, resumeText string) (*models.ResumeAnalysis, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationFailedError("resume text is empty")
	}

	text, err := c.generate(ctx, buildAnalysisPrompt(resumeText), "analyze_resume")
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONObject(text)

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("analysis is not valid JSON: %s", err.Error()))
	}
	if err := c.validatePayload(doc, analysisSchema); err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.NewParseError(err.Error())
	}

	analysis := &models.ResumeAnalysis{
		ResumeID:       resumeID,
		Skills:         payload.Skills,
		Experience:     payload.Experience,
		Education:      payload.Education,
		Certifications: payload.Certifications,
		Summary:        payload.Summary,
		AnalyzedAt:     time.Now().UTC(),
	}
	if analysis.Skills == nil {
		analysis.Skills = []string{}
	}
	if analysis.Experience == nil {
		analysis.Experience = []models.ExperienceEntry{}
	}
	if analysis.Education == nil {
		analysis.Education = []models.EducationEntry{}
	}
	if analysis.Certifications == nil {
		analysis.Certifications = []string{}
	}

	c.logger.Info("resume analysis completed", map[string]interface{}{
		"resumeId":   resumeID,
		"skillCount": len(analysis.Skills),
	})

	return analysis, nil
}

// MatchResumeToJobs scores the candidate profile against each job in a
// single prompt. Scores outside 0..100 are clamped, entries for unknown
// job IDs are dropped.
func (c *Client) MatchResumeToJobs(ctx context.Context, analysis *models.ResumeAnalysis, jobs []JobSummary) ([]JobScore, error) {
	if len(jobs) == 0 {
		return []JobScore{}, nil
	}

	text, err := c.generate(ctx, buildMatchPrompt(analysis, jobs), "match_resume")
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONArray(text)

	var doc []interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("match result is not a JSON array: %s", err.Error()))
	}
	if err := c.validatePayload(doc, matchSchema); err != nil {
		return nil, err
	}

	var payload []matchPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.NewParseError(err.Error())
	}

	known := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		known[job.ID] = true
	}

	scores := make([]JobScore, 0, len(payload))
	for _, item := range payload {
		if !known[item.JobID] {
			c.logger.Warn("model returned unknown job id, dropping entry", map[string]interface{}{
				"jobId": item.JobID,
			})
			continue
		}
		score := models.ClampScore(item.MatchScore)
		if score != item.MatchScore {
			c.logger.Warn("match score out of range, clamped", map[string]interface{}{
				"jobId":    item.JobID,
				"original": item.MatchScore,
				"clamped":  score,
			})
		}
		scores = append(scores, JobScore{
			JobID:       item.JobID,
			MatchScore:  score,
			MatchReason: item.MatchReason,
		})
	}

	return scores, nil
}

// GenerateImprovements returns actionable resume improvement suggestions,
// optionally tailored to a job description.
func (c *Client) GenerateImprovements(ctx context.Context, resumeText, jobDescription string) (*models.ResumeImprovements, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationFailedError("resume text is empty")
	}

	text, err := c.generate(ctx, buildImprovementsPrompt(resumeText, jobDescription), "improvements")
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONObject(text)

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("improvements are not valid JSON: %s", err.Error()))
	}
	if err := c.validatePayload(doc, improvementsSchema); err != nil {
		return nil, err
	}

	var payload improvementsPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.NewParseError(err.Error())
	}

	total := len(payload.SkillSuggestions) + len(payload.ExperienceSuggestions) +
		len(payload.FormatSuggestions) + len(payload.KeywordSuggestions)
	if total == 0 {
		return nil, errors.NewParseError("model returned no suggestions")
	}

	return &models.ResumeImprovements{
		SkillSuggestions:      payload.SkillSuggestions,
		ExperienceSuggestions: payload.ExperienceSuggestions,
		FormatSuggestions:     payload.FormatSuggestions,
		KeywordSuggestions:    payload.KeywordSuggestions,
	}, nil
}

// generate sends one prompt and returns the raw candidate text.
func (c *Client) generate(ctx context.Context, prompt, operation string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.NewInternalError(err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), c.config.Model, c.config.APIKey)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	started := time.Now()
	defer func() {
		metrics.AIRequestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Apply exponential backoff
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.AIRequestsTotal.WithLabelValues(operation, "timeout").Inc()
				return "", errors.NewAITimeoutError(providerName)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", errors.NewInternalError(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}

			status := resp.StatusCode
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			resp = nil

			// Auth failures never succeed on retry
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				metrics.AIRequestsTotal.WithLabelValues(operation, "auth_error").Inc()
				return "", errors.NewUpstreamAuthError(providerName)
			}
			// Other 4xx are terminal too, except rate limiting
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				metrics.AIRequestsTotal.WithLabelValues(operation, "error").Inc()
				return "", errors.NewUpstreamError(providerName,
					fmt.Errorf("status %d: %s", status, truncate(string(respBody), 500)))
			}

			lastErr = fmt.Errorf("status %d", status)
		}

		if ctx.Err() != nil {
			metrics.AIRequestsTotal.WithLabelValues(operation, "timeout").Inc()
			return "", errors.NewAITimeoutError(providerName)
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			metrics.AIRequestsTotal.WithLabelValues(operation, "timeout").Inc()
			return "", errors.NewAITimeoutError(providerName)
		}
		metrics.AIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return "", errors.NewUpstreamError(providerName, lastErr)
	}

	if resp == nil {
		metrics.AIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return "", errors.NewUpstreamError(providerName, fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		metrics.AIRequestsTotal.WithLabelValues(operation, "parse_error").Inc()
		return "", errors.NewParseError(fmt.Sprintf("decode error: %s", err.Error()))
	}

	if apiResp.Error != nil {
		metrics.AIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return "", errors.NewUpstreamError(providerName,
			fmt.Errorf("api error %d: %s", apiResp.Error.Code, apiResp.Error.Message))
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		metrics.AIRequestsTotal.WithLabelValues(operation, "parse_error").Inc()
		return "", errors.NewParseError("response contains no candidates")
	}

	metrics.AIRequestsTotal.WithLabelValues(operation, "success").Inc()
	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) validatePayload(doc interface{}, schema map[string]interface{}) error {
	result, err := validation.ValidateDocument(doc, schema)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if !result.Valid {
		return errors.NewParseError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// cleanJSONObject strips markdown fences and recovers the outermost
// JSON object from a model reply.
func cleanJSONObject(text string) string {
	cleaned := stripFences(text)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

// cleanJSONArray is the array counterpart of cleanJSONObject.
func cleanJSONArray(text string) string {
	cleaned := stripFences(text)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
