// internal/api/applications/handler_test.go
package applications

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHandler(db, nil, logger.NewNoOpLogger()), mock
}

func setupRouter(h *Handler, userID, role string) *gin.Engine {
	router := gin.New()
	group := router.Group("/api")
	group.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	})
	h.Register(group)
	return router
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var data []byte
	if body != nil {
		data, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func appColumns() []string {
	return []string{"id", "user_id", "job_id", "resume_id", "cover_letter", "status",
		"created_at", "updated_at", "title", "company"}
}

func addAppRow(rows *sqlmock.Rows, id, userID, status string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, userID, "job-1", "resume-1", "cover letter", status, now, now,
		"Backend Engineer", "Acme")
}

func expectJobStatus(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(`SELECT status FROM jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(status))
}

func expectResumeOwner(mock sqlmock.Sqlmock, ownerID string) {
	mock.ExpectQuery(`SELECT user_id FROM resumes`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(ownerID))
}

func expectDuplicateCheck(mock sqlmock.Sqlmock, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func applyBody() map[string]interface{} {
	return map[string]interface{}{
		"jobId":       "job-1",
		"resumeId":    "resume-1",
		"coverLetter": "I would be a great fit.",
	}
}

// ==========================
// Create Tests
// ==========================

func TestApplications_Create(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	expectJobStatus(mock, models.JobStatusActive)
	expectResumeOwner(mock, "user-1")
	expectDuplicateCheck(mock, false)
	mock.ExpectExec(`INSERT INTO applications`).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := perform(router, http.MethodPost, "/api/applications", applyBody())

	assert.Equal(t, http.StatusCreated, rec.Code)

	var app models.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "user-1", app.UserID)
}

func TestApplications_Create_Duplicate(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	expectJobStatus(mock, models.JobStatusActive)
	expectResumeOwner(mock, "user-1")
	expectDuplicateCheck(mock, true)

	rec := perform(router, http.MethodPost, "/api/applications", applyBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "DUPLICATE_APPLICATION")
}

func TestApplications_Create_ClosedJob(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	expectJobStatus(mock, models.JobStatusClosed)

	rec := perform(router, http.MethodPost, "/api/applications", applyBody())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplications_Create_UnknownJob(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT status FROM jobs`).WillReturnError(sql.ErrNoRows)

	rec := perform(router, http.MethodPost, "/api/applications", applyBody())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplications_Create_ForeignResume(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	expectJobStatus(mock, models.JobStatusActive)
	expectResumeOwner(mock, "someone-else")

	rec := perform(router, http.MethodPost, "/api/applications", applyBody())

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplications_Create_MissingFields(t *testing.T) {
	h, _ := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	rec := perform(router, http.MethodPost, "/api/applications", map[string]interface{}{"jobId": "job-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "resumeId")
}

// ==========================
// List Tests
// ==========================

func TestApplications_List_Own(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	rows := sqlmock.NewRows(appColumns())
	addAppRow(rows, "app-1", "user-1", models.ApplicationStatusPending)
	addAppRow(rows, "app-2", "user-1", models.ApplicationStatusReviewing)
	mock.ExpectQuery(`FROM applications a JOIN jobs j(.+)WHERE a.user_id =`).
		WithArgs("user-1").WillReturnRows(rows)

	rec := perform(router, http.MethodGet, "/api/applications", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "Backend Engineer", resp.Applications[0].JobTitle)
}

func TestApplications_List_RecruiterByJob(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "recruiter-1", models.RoleRecruiter)

	mock.ExpectQuery(`SELECT recruiter_id FROM jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"recruiter_id"}).AddRow("recruiter-1"))

	rows := sqlmock.NewRows(appColumns())
	addAppRow(rows, "app-1", "user-1", models.ApplicationStatusPending)
	mock.ExpectQuery(`FROM applications a JOIN jobs j(.+)WHERE a.job_id =`).
		WithArgs("job-1").WillReturnRows(rows)

	rec := perform(router, http.MethodGet, "/api/applications?jobId=job-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app-1")
}

func TestApplications_List_RecruiterForeignJob(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "recruiter-2", models.RoleRecruiter)

	mock.ExpectQuery(`SELECT recruiter_id FROM jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"recruiter_id"}).AddRow("recruiter-1"))

	rec := perform(router, http.MethodGet, "/api/applications?jobId=job-1", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ==========================
// UpdateStatus Tests
// ==========================

func expectFetchApplication(mock sqlmock.Sqlmock, recruiterID string) {
	now := time.Now()
	mock.ExpectQuery(`FROM applications a JOIN jobs j(.+)WHERE a.id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "job_id", "resume_id", "cover_letter",
			"status", "created_at", "updated_at", "title", "company", "recruiter_id"}).
			AddRow("app-1", "user-1", "job-1", "resume-1", "", models.ApplicationStatusPending,
				now, now, "Backend Engineer", "Acme", recruiterID))
}

func TestApplications_UpdateStatus(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "recruiter-1", models.RoleRecruiter)

	expectFetchApplication(mock, "recruiter-1")
	mock.ExpectExec(`UPDATE applications SET status`).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := perform(router, http.MethodPut, "/api/applications/app-1/status",
		map[string]string{"status": models.ApplicationStatusInterview})

	assert.Equal(t, http.StatusOK, rec.Code)

	var app models.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	assert.Equal(t, models.ApplicationStatusInterview, app.Status)
}

func TestApplications_UpdateStatus_InvalidStatus(t *testing.T) {
	h, _ := setupHandler(t)
	router := setupRouter(h, "recruiter-1", models.RoleRecruiter)

	rec := perform(router, http.MethodPut, "/api/applications/app-1/status",
		map[string]string{"status": "ghosted"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATUS")
}

func TestApplications_UpdateStatus_RequiresRecruiter(t *testing.T) {
	h, _ := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	rec := perform(router, http.MethodPut, "/api/applications/app-1/status",
		map[string]string{"status": models.ApplicationStatusAccepted})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplications_UpdateStatus_ForeignListing(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "recruiter-2", models.RoleRecruiter)

	expectFetchApplication(mock, "recruiter-1")

	rec := perform(router, http.MethodPut, "/api/applications/app-1/status",
		map[string]string{"status": models.ApplicationStatusAccepted})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ==========================
// Withdraw Tests
// ==========================

func TestApplications_Withdraw(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT user_id FROM applications`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))
	mock.ExpectExec(`DELETE FROM applications`).
		WithArgs("app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := perform(router, http.MethodDelete, "/api/applications/app-1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplications_Withdraw_ForeignApplication(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-2", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT user_id FROM applications`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	rec := perform(router, http.MethodDelete, "/api/applications/app-1", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplications_Withdraw_NotFound(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT user_id FROM applications`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	rec := perform(router, http.MethodDelete, "/api/applications/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
