// internal/matching/orchestrator.go

// Package matching coordinates resume-to-job matching: it loads the
// stored resume analysis, selects candidate jobs, calls the AI provider
// once for the whole batch and upserts the scored results.
package matching

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"resume-matcher/internal/ai/gemini"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/docstore"
	"resume-matcher/internal/models"
)

// AIClient is the slice of the gemini client the orchestrator needs.
type AIClient interface {
	MatchResumeToJobs(ctx context.Context, analysis *models.ResumeAnalysis, jobs []gemini.JobSummary) ([]gemini.JobScore, error)
}

type Orchestrator struct {
	db       *sql.DB
	analyses *docstore.AnalysisStore
	matches  *docstore.MatchStore
	ai       AIClient
	maxJobs  int
	logger   logger.Logger
}

func NewOrchestrator(db *sql.DB, analyses *docstore.AnalysisStore, matches *docstore.MatchStore, ai AIClient, maxJobs int, log logger.Logger) *Orchestrator {
	if maxJobs <= 0 {
		maxJobs = 100
	}
	return &Orchestrator{
		db:       db,
		analyses: analyses,
		matches:  matches,
		ai:       ai,
		maxJobs:  maxJobs,
		logger: log.With(map[string]interface{}{
			"component": "match-orchestrator",
		}),
	}
}

// RequestMatches scores the caller's resume against the given jobs, or
// against every active job when jobIDs is empty. Results are upserted
// per (resume, job) pair and returned sorted by score descending.
// Nothing is written when the resume has no stored analysis.
func (o *Orchestrator) RequestMatches(ctx context.Context, userID, resumeID string, jobIDs []string) ([]models.MatchResult, error) {
	if err := o.checkResumeOwnership(ctx, userID, resumeID); err != nil {
		return nil, err
	}

	analysis, err := o.analyses.Get(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	jobs, err := o.loadJobs(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return []models.MatchResult{}, nil
	}
	if len(jobs) > o.maxJobs {
		return nil, errors.NewValidationFailedError(
			fmt.Sprintf("requested %d jobs, limit is %d per match request", len(jobs), o.maxJobs))
	}

	summaries := make([]gemini.JobSummary, len(jobs))
	jobByID := make(map[string]*models.JobListing, len(jobs))
	for i := range jobs {
		summaries[i] = gemini.JobSummary{
			ID:           jobs[i].ID,
			Title:        jobs[i].Title,
			Company:      jobs[i].Company,
			Description:  jobs[i].Description,
			Requirements: jobs[i].Requirements,
			Skills:       jobs[i].Skills,
			Location:     jobs[i].Location,
			Type:         jobs[i].Type,
		}
		jobByID[jobs[i].ID] = &jobs[i]
	}

	o.logger.Info("requesting match scores", map[string]interface{}{
		"resumeId": resumeID,
		"jobCount": len(jobs),
	})

	scores, err := o.ai.MatchResumeToJobs(ctx, analysis, summaries)
	if err != nil {
		return nil, err
	}

	o.logger.Info("match scores received", map[string]interface{}{
		"resumeId":   resumeID,
		"scoreCount": len(scores),
	})

	now := time.Now().UTC()
	results := make([]models.MatchResult, 0, len(scores))
	for _, score := range scores {
		job := jobByID[score.JobID]
		if job == nil {
			continue
		}
		results = append(results, models.MatchResult{
			ResumeID:    resumeID,
			JobID:       score.JobID,
			MatchScore:  score.MatchScore,
			MatchReason: score.MatchReason,
			MatchedAt:   now,
			JobTitle:    job.Title,
			JobCompany:  job.Company,
		})
	}

	if err := o.matches.UpsertAll(ctx, resumeID, results); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].JobID < results[j].JobID
	})

	return results, nil
}

// GetMatches returns the stored results for the caller's resume, sorted
// by score descending.
func (o *Orchestrator) GetMatches(ctx context.Context, userID, resumeID string) ([]models.MatchResult, error) {
	if err := o.checkResumeOwnership(ctx, userID, resumeID); err != nil {
		return nil, err
	}
	return o.matches.GetAll(ctx, resumeID)
}

func (o *Orchestrator) checkResumeOwnership(ctx context.Context, userID, resumeID string) error {
	var ownerID string
	err := o.db.QueryRowContext(ctx, `SELECT user_id FROM resumes WHERE id = $1`, resumeID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("resume", resumeID)
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("resume ownership check", err)
	}
	if ownerID != userID {
		return errors.NewForbiddenError("resume belongs to another user")
	}
	return nil
}

// loadJobs fetches the requested jobs, or every active job when ids is
// empty. Requesting an unknown job ID is a NOT_FOUND error.
func (o *Orchestrator) loadJobs(ctx context.Context, ids []string) ([]models.JobListing, error) {
	var rows *sql.Rows
	var err error

	query := `SELECT id, recruiter_id, title, company, description, requirements, skills, location, type, status
		FROM jobs`

	if len(ids) == 0 {
		rows, err = o.db.QueryContext(ctx, query+` WHERE status = $1 ORDER BY created_at DESC`, models.JobStatusActive)
	} else {
		rows, err = o.db.QueryContext(ctx, query+` WHERE id = ANY($1)`, pq.Array(ids))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("load jobs", err)
	}
	defer rows.Close()

	var jobs []models.JobListing
	seen := make(map[string]bool)
	for rows.Next() {
		var job models.JobListing
		if err := rows.Scan(&job.ID, &job.RecruiterID, &job.Title, &job.Company, &job.Description,
			pq.Array(&job.Requirements), pq.Array(&job.Skills), &job.Location, &job.Type, &job.Status); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan job", err)
		}
		jobs = append(jobs, job)
		seen[job.ID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("load jobs", err)
	}

	for _, id := range ids {
		if !seen[id] {
			return nil, errors.NewNotFoundError("job", id)
		}
	}

	return jobs, nil
}
