// internal/api/profile/handler.go

// Package profile serves the caller's own user profile.
package profile

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/auth"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/models"
)

// UserDirectory is the slice of the Keycloak admin API used to enrich
// a freshly bootstrapped profile with the directory name.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

type Handler struct {
	db           *sql.DB
	directory    UserDirectory
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(db *sql.DB, directory UserDirectory, log logger.Logger) *Handler {
	return &Handler{
		db:           db,
		directory:    directory,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"handler": "profile",
		}),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.Get)
	rg.PUT("/profile", h.Update)
}

// Get returns the caller's profile, creating it from the token
// identity on first access.
func (h *Handler) Get(c *gin.Context) {
	user, err := h.fetchOrCreate(c)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update applies the mutable profile fields. ID, email, role and
// createdAt are immutable through this endpoint.
func (h *Handler) Update(c *gin.Context) {
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError(err.Error()))
		return
	}
	if req.Name != nil && *req.Name == "" {
		h.errorHandler.HandleRequestError(c, errors.NewValidationFailedError("name cannot be empty"))
		return
	}

	user, err := h.fetchOrCreate(c)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Headline != nil {
		user.Headline = *req.Headline
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = h.db.ExecContext(c.Request.Context(),
		`UPDATE users SET name = $1, headline = $2, location = $3, phone = $4, updated_at = $5 WHERE id = $6`,
		user.Name, user.Headline, user.Location, user.Phone, user.UpdatedAt, user.ID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("update profile", err))
		return
	}

	h.logger.Info("profile updated", map[string]interface{}{
		"userId": user.ID,
	})
	c.JSON(http.StatusOK, user)
}

func (h *Handler) fetchOrCreate(c *gin.Context) (*models.User, error) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var user models.User
	err := h.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, headline, location, phone, created_at, updated_at FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.Headline,
		&user.Location, &user.Phone, &user.CreatedAt, &user.UpdatedAt)
	if err == nil {
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, errors.NewQueryExecutionFailedError("fetch profile", err)
	}

	role := middleware.UserRole(c)
	if !models.IsValidRole(role) {
		role = models.RoleJobSeeker
	}

	now := time.Now().UTC()
	user = models.User{
		ID:        userID,
		Email:     middleware.UserEmail(c),
		Name:      h.directoryName(ctx, userID),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, headline, location, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Name, user.Role, user.Headline, user.Location, user.Phone,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("profile created", map[string]interface{}{
		"userId": user.ID,
		"role":   user.Role,
	})
	return &user, nil
}

// directoryName asks Keycloak for the user's name. Lookup failures
// only cost the pre-filled name, the profile is created regardless.
func (h *Handler) directoryName(ctx context.Context, userID string) string {
	if h.directory == nil {
		return ""
	}
	entry, err := h.directory.GetUser(ctx, userID)
	if err != nil {
		h.logger.Warn("directory lookup failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return ""
	}
	return strings.TrimSpace(entry.FirstName + " " + entry.LastName)
}
