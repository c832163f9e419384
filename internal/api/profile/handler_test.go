// internal/api/profile/handler_test.go
package profile

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
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
	"resume-matcher/internal/common/auth"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeDirectory struct {
	user  *auth.User
	err   error
	calls int
}

func (f *fakeDirectory) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	return setupHandlerWithDirectory(t, nil)
}

func setupHandlerWithDirectory(t *testing.T, directory UserDirectory) (*Handler, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHandler(db, directory, logger.NewNoOpLogger()), mock
}

func setupRouter(h *Handler, userID, email, role string) *gin.Engine {
	router := gin.New()
	group := router.Group("/api")
	group.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextEmail, email)
		c.Set(middleware.ContextRole, role)
		c.Next()
	})
	h.Register(group)
	return router
}

func userColumns() []string {
	return []string{"id", "email", "name", "role", "headline", "location", "phone", "created_at", "updated_at"}
}

func expectUserRow(mock sqlmock.Sqlmock, id, email, name string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, name, role(.+)FROM users`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(id, email, name, models.RoleJobSeeker, "Backend dev", "Berlin", "+4915500000", now, now))
}

// ==========================
// Tests
// ==========================

func TestProfile_Get(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", "jane@example.com", models.RoleJobSeeker)

	expectUserRow(mock, "user-1", "jane@example.com", "Jane")

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, "Berlin", user.Location)
}

func TestProfile_Get_CreatesOnFirstAccess(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-new", "new@example.com", models.RoleRecruiter)

	mock.ExpectQuery(`SELECT id, email, name, role(.+)FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user-new", user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, models.RoleRecruiter, user.Role)
}

func TestProfile_Get_BootstrapUsesDirectoryName(t *testing.T) {
	directory := &fakeDirectory{user: &auth.User{FirstName: "Jane", LastName: "Doe"}}
	h, mock := setupHandlerWithDirectory(t, directory)
	router := setupRouter(h, "user-new", "new@example.com", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT id, email, name, role(.+)FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("user-new", "new@example.com", "Jane Doe", models.RoleJobSeeker,
			"", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, directory.calls)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Jane Doe", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile_Get_BootstrapSurvivesDirectoryFailure(t *testing.T) {
	directory := &fakeDirectory{err: fmt.Errorf("keycloak unreachable")}
	h, mock := setupHandlerWithDirectory(t, directory)
	router := setupRouter(h, "user-new", "new@example.com", models.RoleJobSeeker)

	mock.ExpectQuery(`SELECT id, email, name, role(.+)FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Empty(t, user.Name)
}

func TestProfile_Get_BootstrapRejectsUnknownRole(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-new", "new@example.com", "superuser")

	mock.ExpectQuery(`SELECT id, email, name, role(.+)FROM users`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("user-new", "new@example.com", "", models.RoleJobSeeker,
			"", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, models.RoleJobSeeker, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile_Update_PartialFields(t *testing.T) {
	h, mock := setupHandler(t)
	router := setupRouter(h, "user-1", "jane@example.com", models.RoleJobSeeker)

	expectUserRow(mock, "user-1", "jane@example.com", "Jane")
	mock.ExpectExec(`UPDATE users SET name`).WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(map[string]string{"headline": "Staff Engineer"})
	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	// Untouched fields survive, identity stays the same.
	assert.Equal(t, "Staff Engineer", user.Headline)
	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
}

func TestProfile_Update_EmptyNameRejected(t *testing.T) {
	h, _ := setupHandler(t)
	router := setupRouter(h, "user-1", "jane@example.com", models.RoleJobSeeker)

	body, _ := json.Marshal(map[string]string{"name": ""})
	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
