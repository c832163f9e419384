// internal/docstore/matches.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/metrics"
	"resume-matcher/internal/models"
)

const matchKeyPrefix = "match:results:"

// MatchStore keeps one hash per resume, one field per job. Re-matching
// the same (resume, job) pair overwrites the field, so at most one
// result exists per pair.
type MatchStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewMatchStore(redisClient *redis.Client, ttl time.Duration, log logger.Logger) *MatchStore {
	return &MatchStore{
		redis:  redisClient,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "match-store",
		}),
	}
}

func matchKey(resumeID string) string {
	return matchKeyPrefix + resumeID
}

// Upsert writes a single match result.
func (s *MatchStore) Upsert(ctx context.Context, result *models.MatchResult) error {
	return s.UpsertAll(ctx, result.ResumeID, []models.MatchResult{*result})
}

// UpsertAll writes a batch of match results for one resume in a single
// pipeline round trip.
func (s *MatchStore) UpsertAll(ctx context.Context, resumeID string, results []models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(results))
	for i := range results {
		data, err := json.Marshal(&results[i])
		if err != nil {
			return errors.NewInternalError(err)
		}
		fields[results[i].JobID] = data
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, matchKey(resumeID), fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, matchKey(resumeID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewCacheFailedError("upsert matches", err)
	}

	metrics.MatchesUpserted.Add(float64(len(results)))
	s.logger.Debug("match results upserted", map[string]interface{}{
		"resumeId": resumeID,
		"count":    len(results),
	})
	return nil
}

// Get returns the result for one (resume, job) pair, or NOT_FOUND.
func (s *MatchStore) Get(ctx context.Context, resumeID, jobID string) (*models.MatchResult, error) {
	data, err := s.redis.HGet(ctx, matchKey(resumeID), jobID).Result()
	if err == redis.Nil {
		return nil, errors.NewNotFoundError("match result", resumeID+"/"+jobID)
	}
	if err != nil {
		return nil, errors.NewCacheFailedError("get match", err)
	}

	var result models.MatchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("corrupt match document for %s/%s: %w", resumeID, jobID, err))
	}
	return &result, nil
}

// GetAll returns every stored result for a resume, sorted by score
// descending. A resume with no results yields an empty slice.
func (s *MatchStore) GetAll(ctx context.Context, resumeID string) ([]models.MatchResult, error) {
	data, err := s.redis.HGetAll(ctx, matchKey(resumeID)).Result()
	if err != nil {
		return nil, errors.NewCacheFailedError("list matches", err)
	}

	results := make([]models.MatchResult, 0, len(data))
	for jobID, raw := range data {
		var result models.MatchResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			s.logger.Warn("skipping corrupt match document", map[string]interface{}{
				"resumeId": resumeID,
				"jobId":    jobID,
			})
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].JobID < results[j].JobID
	})

	return results, nil
}

// DeleteAll removes every result for a resume.
func (s *MatchStore) DeleteAll(ctx context.Context, resumeID string) error {
	if err := s.redis.Del(ctx, matchKey(resumeID)).Err(); err != nil {
		return errors.NewCacheFailedError("delete matches", err)
	}
	return nil
}

// DeleteJob removes the results referencing a job across the given
// resumes, used when a job listing is deleted.
func (s *MatchStore) DeleteJob(ctx context.Context, resumeIDs []string, jobID string) error {
	if len(resumeIDs) == 0 {
		return nil
	}
	pipe := s.redis.TxPipeline()
	for _, resumeID := range resumeIDs {
		pipe.HDel(ctx, matchKey(resumeID), jobID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewCacheFailedError("delete job matches", err)
	}
	return nil
}
