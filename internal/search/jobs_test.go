// internal/search/jobs_test.go
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// newTestIndex points a real client at an httptest server standing in
// for the cluster.
func newTestIndex(t *testing.T, handler http.HandlerFunc) *JobIndex {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewJobIndex(client, "jobs", logger.NewNoOpLogger())
}

func clauses(query map[string]interface{}, key string) []interface{} {
	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	raw, ok := boolQuery[key]
	if !ok {
		return nil
	}
	return raw.([]interface{})
}

// ==========================
// Query Builder Tests
// ==========================

func TestBuildJobSearchQuery_DefaultsToActiveStatus(t *testing.T) {
	query := buildJobSearchQuery(models.JobFilter{})

	assert.Nil(t, clauses(query, "must"))

	filters := clauses(query, "filter")
	require.Len(t, filters, 1)
	term := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, models.JobStatusActive, term["status"])
}

func TestBuildJobSearchQuery_FreeText(t *testing.T) {
	query := buildJobSearchQuery(models.JobFilter{Search: "golang backend"})

	must := clauses(query, "must")
	require.Len(t, must, 1)

	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "golang backend", multiMatch["query"])
	assert.Equal(t, []string{"title^3", "company^2", "skills^2", "description", "requirements"},
		multiMatch["fields"])
}

func TestBuildJobSearchQuery_FilterCombinations(t *testing.T) {
	tests := []struct {
		name          string
		filter        models.JobFilter
		expectFilters int
		expectMust    bool
	}{
		{"type only", models.JobFilter{Type: models.JobTypeFullTime}, 2, false},
		{"location only", models.JobFilter{Location: "Berlin"}, 2, false},
		{"type and location", models.JobFilter{Type: models.JobTypeRemote, Location: "Berlin"}, 3, false},
		{"everything", models.JobFilter{Search: "go", Type: models.JobTypeFullTime, Location: "Berlin"}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := buildJobSearchQuery(tt.filter)

			assert.Len(t, clauses(query, "filter"), tt.expectFilters)
			if tt.expectMust {
				assert.Len(t, clauses(query, "must"), 1)
			} else {
				assert.Nil(t, clauses(query, "must"))
			}
		})
	}
}

func TestBuildJobSearchQuery_ExplicitStatus(t *testing.T) {
	query := buildJobSearchQuery(models.JobFilter{Status: models.JobStatusClosed})

	filters := clauses(query, "filter")
	require.Len(t, filters, 1)
	term := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, models.JobStatusClosed, term["status"])
}

// ==========================
// Search Tests
// ==========================

func TestJobIndex_Search_ReturnsIDsBestFirst(t *testing.T) {
	index := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": []map[string]interface{}{
					{"_id": "job-2"},
					{"_id": "job-1"},
				},
			},
		})
	})

	ids, err := index.Search(context.Background(), models.JobFilter{Search: "go"})

	require.NoError(t, err)
	assert.Equal(t, []string{"job-2", "job-1"}, ids)
}

func TestJobIndex_Search_MissingIndex(t *testing.T) {
	index := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "index_not_found_exception"})
	})

	_, err := index.Search(context.Background(), models.JobFilter{})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIndexNotFound, stdErr.Code)
}

func TestJobIndex_Search_ClusterError(t *testing.T) {
	index := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := index.Search(context.Background(), models.JobFilter{})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSearchQueryFailed, stdErr.Code)
}
