// internal/docstore/analyses.go

// Package docstore persists AI-derived documents (resume analyses and
// match results) in Redis, keyed per resume.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

const analysisKeyPrefix = "resume:analysis:"

// AnalysisStore stores one ResumeAnalysis document per resume.
type AnalysisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewAnalysisStore(redisClient *redis.Client, ttl time.Duration, log logger.Logger) *AnalysisStore {
	return &AnalysisStore{
		redis:  redisClient,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "analysis-store",
		}),
	}
}

func analysisKey(resumeID string) string {
	return analysisKeyPrefix + resumeID
}

// Save writes the analysis, replacing any previous one for the resume.
func (s *AnalysisStore) Save(ctx context.Context, analysis *models.ResumeAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return errors.NewInternalError(err)
	}

	if err := s.redis.Set(ctx, analysisKey(analysis.ResumeID), data, s.ttl).Err(); err != nil {
		return errors.NewCacheFailedError("save analysis", err)
	}

	s.logger.Debug("analysis saved", map[string]interface{}{
		"resumeId": analysis.ResumeID,
	})
	return nil
}

// Get returns the analysis for a resume, or NOT_FOUND if none exists.
func (s *AnalysisStore) Get(ctx context.Context, resumeID string) (*models.ResumeAnalysis, error) {
	data, err := s.redis.Get(ctx, analysisKey(resumeID)).Result()
	if err == redis.Nil {
		return nil, errors.NewNotFoundError("resume analysis", resumeID)
	}
	if err != nil {
		return nil, errors.NewCacheFailedError("get analysis", err)
	}

	var analysis models.ResumeAnalysis
	if err := json.Unmarshal([]byte(data), &analysis); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("corrupt analysis document for %s: %w", resumeID, err))
	}
	return &analysis, nil
}

// Delete removes the analysis for a resume. Missing keys are not an error.
func (s *AnalysisStore) Delete(ctx context.Context, resumeID string) error {
	if err := s.redis.Del(ctx, analysisKey(resumeID)).Err(); err != nil {
		return errors.NewCacheFailedError("delete analysis", err)
	}
	return nil
}
