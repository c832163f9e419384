// internal/api/jobs/handler.go

// Package jobs serves the job listing CRUD and search endpoints.
package jobs

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/docstore"
	"resume-matcher/internal/models"
	"resume-matcher/internal/search"
)

const defaultPageSize = 20
const maxPageSize = 100

type Handler struct {
	db           *sql.DB
	index        *search.JobIndex
	matches      *docstore.MatchStore
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(db *sql.DB, index *search.JobIndex, matches *docstore.MatchStore, log logger.Logger) *Handler {
	return &Handler{
		db:           db,
		index:        index,
		matches:      matches,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"handler": "jobs",
		}),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.List)
	rg.GET("/jobs/:id", h.Get)
	rg.POST("/jobs", h.Create)
	rg.PUT("/jobs/:id", h.Update)
	rg.DELETE("/jobs/:id", h.Delete)
}

// List returns jobs matching the query parameters. Free-text search
// goes through Elasticsearch when available and falls back to SQL.
func (h *Handler) List(c *gin.Context) {
	filter := parseFilter(c)

	if filter.Search != "" && h.index != nil {
		ids, err := h.index.Search(c.Request.Context(), filter)
		if err == nil {
			jobs, qerr := h.fetchJobsByIDs(c, ids)
			if qerr != nil {
				h.errorHandler.HandleRequestError(c, qerr)
				return
			}
			c.JSON(http.StatusOK, listResponse{Jobs: jobs, Total: len(jobs)})
			return
		}
		h.logger.WithError(err).Warn("search index unavailable, falling back to sql", map[string]interface{}{
			"search": filter.Search,
		})
	}

	jobs, err := h.queryJobs(c, filter)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Jobs: jobs, Total: len(jobs)})
}

func (h *Handler) Get(c *gin.Context) {
	job, err := h.fetchJob(c, c.Param("id"))
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Create inserts a new listing. Recruiter role required.
func (h *Handler) Create(c *gin.Context) {
	if !middleware.IsRecruiter(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("only recruiters can create job listings"))
		return
	}

	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if err := req.validate(); err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	job := models.JobListing{
		ID:           uuid.New().String(),
		RecruiterID:  middleware.UserID(c),
		Title:        req.Title,
		Company:      req.Company,
		Description:  req.Description,
		Requirements: req.Requirements,
		Skills:       req.Skills,
		Location:     req.Location,
		Type:         req.Type,
		SalaryMin:    req.SalaryMin,
		SalaryMax:    req.SalaryMax,
		Status:       models.JobStatusActive,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err := h.db.ExecContext(c.Request.Context(),
		`INSERT INTO jobs (id, recruiter_id, title, company, description, requirements, skills, location, type, salary_min, salary_max, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		job.ID, job.RecruiterID, job.Title, job.Company, job.Description, pq.Array(job.Requirements),
		pq.Array(job.Skills), job.Location, job.Type, job.SalaryMin, job.SalaryMax, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewDatabaseInsertFailedError(err))
		return
	}

	h.indexJob(c, &job)
	h.logger.Info("job created", map[string]interface{}{
		"jobId":       job.ID,
		"recruiterId": job.RecruiterID,
	})

	c.JSON(http.StatusCreated, job)
}

// Update replaces a listing. Only the owning recruiter may update it.
func (h *Handler) Update(c *gin.Context) {
	jobID := c.Param("id")

	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if err := req.validate(); err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	job, err := h.fetchJob(c, jobID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	if job.RecruiterID != middleware.UserID(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("job belongs to another recruiter"))
		return
	}

	job.Title = req.Title
	job.Company = req.Company
	job.Description = req.Description
	job.Requirements = req.Requirements
	job.Skills = req.Skills
	job.Location = req.Location
	job.Type = req.Type
	job.SalaryMin = req.SalaryMin
	job.SalaryMax = req.SalaryMax
	job.Status = req.Status
	job.UpdatedAt = time.Now().UTC()

	_, err = h.db.ExecContext(c.Request.Context(),
		`UPDATE jobs SET title = $1, company = $2, description = $3, requirements = $4, skills = $5, location = $6,
			type = $7, salary_min = $8, salary_max = $9, status = $10, updated_at = $11
		 WHERE id = $12`,
		job.Title, job.Company, job.Description, pq.Array(job.Requirements), pq.Array(job.Skills), job.Location,
		job.Type, job.SalaryMin, job.SalaryMax, job.Status, job.UpdatedAt, job.ID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("update job", err))
		return
	}

	h.indexJob(c, job)
	c.JSON(http.StatusOK, job)
}

// Delete removes a listing along with its index entry and any stored
// match results that reference it.
func (h *Handler) Delete(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.fetchJob(c, jobID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	if job.RecruiterID != middleware.UserID(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("job belongs to another recruiter"))
		return
	}

	_, err = h.db.ExecContext(c.Request.Context(), `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("delete job", err))
		return
	}

	if h.index != nil {
		if err := h.index.Delete(c.Request.Context(), jobID); err != nil {
			h.logger.WithError(err).Warn("failed to remove job from search index", map[string]interface{}{
				"jobId": jobID,
			})
		}
	}
	h.cleanupMatches(c, jobID)

	h.logger.Info("job deleted", map[string]interface{}{
		"jobId": jobID,
	})
	c.Status(http.StatusNoContent)
}

// ==========================
// Helpers
// ==========================

func parseFilter(c *gin.Context) models.JobFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}

	status := c.Query("status")
	if !models.IsValidJobStatus(status) {
		status = models.JobStatusActive
	}

	return models.JobFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Type:     c.Query("type"),
		Location: c.Query("location"),
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	}
}

const jobSelect = `SELECT id, recruiter_id, title, company, description, requirements, skills, location, type,
	salary_min, salary_max, status, created_at, updated_at FROM jobs`

func scanJob(scanner interface{ Scan(dest ...interface{}) error }) (*models.JobListing, error) {
	var job models.JobListing
	err := scanner.Scan(&job.ID, &job.RecruiterID, &job.Title, &job.Company, &job.Description,
		pq.Array(&job.Requirements), pq.Array(&job.Skills), &job.Location, &job.Type, &job.SalaryMin, &job.SalaryMax,
		&job.Status, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (h *Handler) fetchJob(c *gin.Context, jobID string) (*models.JobListing, error) {
	row := h.db.QueryRowContext(c.Request.Context(), jobSelect+` WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("job", jobID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch job", err)
	}
	return job, nil
}

func (h *Handler) queryJobs(c *gin.Context, filter models.JobFilter) ([]models.JobListing, error) {
	query := jobSelect + ` WHERE status = $1`
	args := []interface{}{filter.Status}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		query += ` AND location ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (title ILIKE $` + n + ` OR company ILIKE $` + n + ` OR description ILIKE $` + n + `)`
	}

	args = append(args, filter.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := h.db.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list jobs", err)
	}
	defer rows.Close()

	jobs := []models.JobListing{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list jobs", err)
	}
	return jobs, nil
}

// fetchJobsByIDs loads the given jobs and preserves the input order,
// which carries the search relevance ranking.
func (h *Handler) fetchJobsByIDs(c *gin.Context, ids []string) ([]models.JobListing, error) {
	if len(ids) == 0 {
		return []models.JobListing{}, nil
	}

	rows, err := h.db.QueryContext(c.Request.Context(), jobSelect+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch jobs by id", err)
	}
	defer rows.Close()

	byID := make(map[string]models.JobListing, len(ids))
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan job", err)
		}
		byID[job.ID] = *job
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch jobs by id", err)
	}

	jobs := make([]models.JobListing, 0, len(byID))
	for _, id := range ids {
		if job, ok := byID[id]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// indexJob updates the search index best effort. Postgres stays the
// source of truth, so index failures only log.
func (h *Handler) indexJob(c *gin.Context, job *models.JobListing) {
	if h.index == nil {
		return
	}
	if err := h.index.Index(c.Request.Context(), job); err != nil {
		h.logger.WithError(err).Warn("failed to index job", map[string]interface{}{
			"jobId": job.ID,
		})
	}
}

// cleanupMatches drops stored match results that point at a deleted
// job so stale scores do not survive the listing.
func (h *Handler) cleanupMatches(c *gin.Context, jobID string) {
	rows, err := h.db.QueryContext(c.Request.Context(), `SELECT id FROM resumes`)
	if err != nil {
		h.logger.WithError(err).Warn("failed to list resumes for match cleanup", map[string]interface{}{
			"jobId": jobID,
		})
		return
	}
	defer rows.Close()

	var resumeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			h.logger.WithError(err).Warn("failed to scan resume id for match cleanup", nil)
			return
		}
		resumeIDs = append(resumeIDs, id)
	}
	if err := rows.Err(); err != nil {
		h.logger.WithError(err).Warn("failed to list resumes for match cleanup", nil)
		return
	}

	if err := h.matches.DeleteJob(c.Request.Context(), resumeIDs, jobID); err != nil {
		h.logger.WithError(err).Warn("failed to clean up match results", map[string]interface{}{
			"jobId": jobID,
		})
	}
}
