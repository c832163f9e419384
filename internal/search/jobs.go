// internal/search/jobs.go

// Package search maintains the Elasticsearch job index used for
// full-text job search. Indexing is best-effort: Postgres stays the
// source of truth and callers fall back to SQL filtering when the
// index is unavailable.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

type JobIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewJobIndex(client *elasticsearch.Client, index string, log logger.Logger) *JobIndex {
	return &JobIndex{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{
			"component": "job-index",
		}),
	}
}

// Index writes or overwrites a job document.
func (j *JobIndex) Index(ctx context.Context, job *models.JobListing) error {
	doc := map[string]interface{}{
		"title":        job.Title,
		"company":      job.Company,
		"description":  job.Description,
		"requirements": strings.Join(job.Requirements, " "),
		"skills":       strings.Join(job.Skills, " "),
		"location":     job.Location,
		"type":         job.Type,
		"status":       job.Status,
	}
	body, _ := json.Marshal(doc)

	req := esapi.IndexRequest{
		Index:      j.index,
		DocumentID: job.ID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, j.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(j.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError(j.index, fmt.Errorf("index returned %s", res.Status()))
	}
	return nil
}

// Delete removes a job document. A missing document is not an error.
func (j *JobIndex) Delete(ctx context.Context, jobID string) error {
	req := esapi.DeleteRequest{
		Index:      j.index,
		DocumentID: jobID,
	}

	res, err := req.Do(ctx, j.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(j.index, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.NewSearchQueryFailedError(j.index, fmt.Errorf("delete returned %s", res.Status()))
	}
	return nil
}

// Search runs a full-text query over the job index and returns matching
// job IDs, best first.
func (j *JobIndex) Search(ctx context.Context, filter models.JobFilter) ([]string, error) {
	queryBody := buildJobSearchQuery(filter)
	body, _ := json.Marshal(queryBody)

	size := filter.Limit
	if size <= 0 {
		size = 50
	}
	from := filter.Offset

	req := esapi.SearchRequest{
		Index: []string{j.index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, j.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(j.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, errors.NewIndexNotFoundError(j.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(j.index, fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(j.index, err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildJobSearchQuery builds the job search query dynamically.
func buildJobSearchQuery(filter models.JobFilter) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if filter.Search != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  filter.Search,
				"fields": []string{"title^3", "company^2", "skills^2", "description", "requirements"},
				"type":   "best_fields",
			},
		})
	}

	if filter.Type != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"type": filter.Type},
		})
	}

	if filter.Location != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"match": map[string]interface{}{"location": filter.Location},
		})
	}

	status := filter.Status
	if status == "" {
		status = models.JobStatusActive
	}
	filterClauses = append(filterClauses, map[string]interface{}{
		"term": map[string]interface{}{"status": status},
	})

	boolQuery := map[string]interface{}{
		"filter": filterClauses,
	}
	if len(mustClauses) > 0 {
		boolQuery["must"] = mustClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}
}
