// internal/matching/orchestrator_test.go
package matching

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"resume-matcher/internal/ai/gemini"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/docstore"
	"resume-matcher/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeAIClient struct {
	scores []gemini.JobScore
	err    error
	calls  int
}

func (f *fakeAIClient) MatchResumeToJobs(ctx context.Context, analysis *models.ResumeAnalysis, jobs []gemini.JobSummary) ([]gemini.JobScore, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func setupMiniredis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func setupStores(t *testing.T, rdb *redis.Client) (*docstore.AnalysisStore, *docstore.MatchStore) {
	log := logger.NewNoOpLogger()
	return docstore.NewAnalysisStore(rdb, time.Hour, log),
		docstore.NewMatchStore(rdb, time.Hour, log)
}

func testAnalysis(resumeID string) *models.ResumeAnalysis {
	return &models.ResumeAnalysis{
		ResumeID:   resumeID,
		Skills:     []string{"Go", "PostgreSQL"},
		Experience: []models.ExperienceEntry{{Company: "Acme", Title: "Backend Engineer", Duration: "4 years"}},
		Education:  []models.EducationEntry{{Institution: "MIT", Degree: "BSc", Field: "Computer Science", Year: "2019"}},
		Summary:    "Backend engineer with platform experience.",
		AnalyzedAt: time.Now().UTC(),
	}
}

func jobColumns() []string {
	return []string{"id", "recruiter_id", "title", "company", "description", "requirements", "skills", "location", "type", "status"}
}

func jobRow(rows *sqlmock.Rows, id, title, company string) *sqlmock.Rows {
	return rows.AddRow(id, "recruiter-1", title, company, "description", "{Go,SQL}", "{Go,PostgreSQL}", "Remote", models.JobTypeFullTime, models.JobStatusActive)
}

func expectOwnership(mock sqlmock.Sqlmock, resumeID, ownerID string) {
	mock.ExpectQuery(`SELECT user_id FROM resumes`).
		WithArgs(resumeID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(ownerID))
}

// ==========================
// RequestMatches Tests
// ==========================

func TestOrchestrator_RequestMatches_AllActiveJobs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rdb := setupMiniredis(t)
	analyses, matches := setupStores(t, rdb)

	ctx := context.Background()
	require.NoError(t, analyses.Save(ctx, testAnalysis("resume-1")))

	expectOwnership(mock, "resume-1", "user-1")
	rows := sqlmock.NewRows(jobColumns())
	jobRow(rows, "job-1", "Backend Engineer", "Acme")
	jobRow(rows, "job-2", "Platform Engineer", "Globex")
	mock.ExpectQuery(`SELECT id, recruiter_id, title, company(.+)WHERE status =`).
		WithArgs(models.JobStatusActive).
		WillReturnRows(rows)

	ai := &fakeAIClient{scores: []gemini.JobScore{
		{JobID: "job-1", MatchScore: 55, MatchReason: "partial skill overlap"},
		{JobID: "job-2", MatchScore: 91, MatchReason: "strong platform background"},
	}}

	orch := NewOrchestrator(db, analyses, matches, ai, 100, logger.NewNoOpLogger())

	results, err := orch.RequestMatches(ctx, "user-1", "resume-1", nil)

	assert.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, ai.calls)

	// Sorted by score descending.
	assert.Equal(t, "job-2", results[0].JobID)
	assert.Equal(t, 91, results[0].MatchScore)
	assert.Equal(t, "Platform Engineer", results[0].JobTitle)
	assert.Equal(t, "Globex", results[0].JobCompany)
	assert.Equal(t, "job-1", results[1].JobID)

	// Results were persisted.
	stored, err := matches.GetAll(ctx, "resume-1")
	assert.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, "job-2", stored[0].JobID)
}

func TestOrchestrator_RequestMatches_NoActiveJobs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rdb := setupMiniredis(t)
	analyses, matches := setupStores(t, rdb)

	ctx := context.Background()
	require.NoError(t, analyses.Save(ctx, testAnalysis("resume-1")))

	expectOwnership(mock, "resume-1", "user-1")
	mock.ExpectQuery(`SELECT id, recruiter_id, title, company(.+)WHERE status =`).
		WithArgs(models.JobStatusActive).
		WillReturnRows(sqlmock.NewRows(jobColumns()))

	ai := &fakeAIClient{}
	orch := NewOrchestrator(db, analyses, matches, ai, 100, logger.NewNoOpLogger())

	results, err := orch.RequestMatches(ctx, "user-1", "resume-1", nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, ai.calls)
}

func TestOrchestrator_RequestMatches_IdempotentUpsert(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rdb := setupMiniredis(t)
	analyses, matches := setupStores(t, rdb)

	ctx := context.Background()
	require.NoError(t, analyses.Save(ctx, testAnalysis("resume-1")))

	ai := &fakeAIClient{scores: []gemini.JobScore{
		{JobID: "job-1", MatchScore: 70, MatchReason: "initial run"},
	}}
	orch := NewOrchestrator(db, analyses, matches, ai, 100, logger.NewNoOpLogger())

	for _, score := range []int{70, 84} {
		expectOwnership(mock, "resume-1", "user-1")
		rows := sqlmock.NewRows(jobColumns())
		jobRow(rows, "job-1", "Backend Engineer", "Acme")
		mock.ExpectQuery(`SELECT id, recruiter_id, title, company(.+)WHERE id = ANY`).
			WillReturnRows(rows)

		ai.scores = []gemini.JobScore{{JobID: "job-1", MatchScore: score, MatchReason: "rerun"}}
		_, err := orch.RequestMatches(ctx, "user-1", "resume-1", []string{"job-1"})
		require.NoError(t, err)
	}

	// Second run overwrote the first, no duplicate entries.
	stored, err := matches.GetAll(ctx, "resume-1")
	assert.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 84, stored[0].MatchScore)
}

func TestOrchestrator_RequestMatches_MissingAnalysisWritesNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rdb := setupMiniredis(t)
	analyses, matches := setupStores(t, rdb)

	expectOwnership(mock, "resume-1", "user-1")

	ai := &fakeAIClient{}
	orch := NewOrchestrator(db, analyses, matches, ai, 100, logger.NewNoOpLogger())

	ctx := context.Background()
	_, err := orch.RequestMatches(ctx, "user-1", "resume-1", []string{"job-1"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotFound, stdErr.Code)
	assert.Equal(t, 0, ai.calls)

	stored, err := matches.GetAll(ctx, "resume-1")
	assert.NoError(t, err)
	assert.Empty(t, stored)
}

func TestOrchestrator_RequestMatches_Validation(t *testing.T) {
	tests := []struct {
		name         string
		ownerID      string
		jobIDs       []string
		maxJobs      int
		setupQueries func(mock sqlmock.Sqlmock)
		expectedCode errors.ErrorCode
	}{
		{
			name:         "resume owned by another user",
			ownerID:      "someone-else",
			jobIDs:       []string{"job-1"},
			maxJobs:      100,
			expectedCode: errors.ErrCodeForbidden,
		},
		{
			name:    "unknown job id",
			ownerID: "user-1",
			jobIDs:  []string{"job-1", "job-missing"},
			maxJobs: 100,
			setupQueries: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(jobColumns())
				jobRow(rows, "job-1", "Backend Engineer", "Acme")
				mock.ExpectQuery(`WHERE id = ANY`).WillReturnRows(rows)
			},
			expectedCode: errors.ErrCodeNotFound,
		},
		{
			name:    "too many jobs requested",
			ownerID: "user-1",
			jobIDs:  []string{"job-1", "job-2", "job-3"},
			maxJobs: 2,
			setupQueries: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(jobColumns())
				jobRow(rows, "job-1", "Backend Engineer", "Acme")
				jobRow(rows, "job-2", "Platform Engineer", "Globex")
				jobRow(rows, "job-3", "SRE", "Initech")
				mock.ExpectQuery(`WHERE id = ANY`).WillReturnRows(rows)
			},
			expectedCode: errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()

			rdb := setupMiniredis(t)
			analyses, matches := setupStores(t, rdb)

			ctx := context.Background()
			require.NoError(t, analyses.Save(ctx, testAnalysis("resume-1")))

			expectOwnership(mock, "resume-1", tt.ownerID)
			if tt.setupQueries != nil {
				tt.setupQueries(mock)
			}

			ai := &fakeAIClient{}
			orch := NewOrchestrator(db, analyses, matches, ai, tt.maxJobs, logger.NewNoOpLogger())

			_, err := orch.RequestMatches(ctx, "user-1", "resume-1", tt.jobIDs)

			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, 0, ai.calls)
		})
	}
}

func TestOrchestrator_GetMatches_SortedDescending(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rdb := setupMiniredis(t)
	_, matches := setupStores(t, rdb)

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, matches.UpsertAll(ctx, "resume-1", []models.MatchResult{
		{ResumeID: "resume-1", JobID: "job-1", MatchScore: 40, MatchedAt: now},
		{ResumeID: "resume-1", JobID: "job-2", MatchScore: 95, MatchedAt: now},
		{ResumeID: "resume-1", JobID: "job-3", MatchScore: 72, MatchedAt: now},
	}))

	expectOwnership(mock, "resume-1", "user-1")

	analyses, _ := setupStores(t, rdb)
	orch := NewOrchestrator(db, analyses, matches, &fakeAIClient{}, 100, logger.NewNoOpLogger())

	results, err := orch.GetMatches(ctx, "user-1", "resume-1")

	assert.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"job-2", "job-3", "job-1"},
		[]string{results[0].JobID, results[1].JobID, results[2].JobID})
}
