// internal/api/middleware/middleware.go

// Package middleware holds the gin middleware shared by every API
// route: bearer-token authentication and request logging/metrics.
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/common/auth"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/metrics"
	"resume-matcher/internal/models"
)

const (
	ContextUserID = "userID"
	ContextRole   = "userRole"
	ContextEmail  = "userEmail"
)

// TokenValidator is the slice of the Keycloak client the auth
// middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.TokenInfo, error)
}

// Auth validates the bearer token against Keycloak and stores the
// caller's identity on the request context.
func Auth(validator TokenValidator, errorHandler *errors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			errorHandler.HandleRequestError(c, errors.NewUnauthorizedError("missing Authorization header"))
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			errorHandler.HandleRequestError(c, errors.NewUnauthorizedError("Authorization header must be a bearer token"))
			return
		}

		info, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			errorHandler.HandleRequestError(c, err)
			return
		}

		role := models.RoleJobSeeker
		if info.HasRole(models.RoleRecruiter) {
			role = models.RoleRecruiter
		}

		c.Set(ContextUserID, info.Sub)
		c.Set(ContextRole, role)
		c.Set(ContextEmail, info.Email)
		c.Next()
	}
}

// RequestRecorder is the slice of the observability layer the request
// middleware reports into, alongside the prometheus counters.
type RequestRecorder interface {
	RecordRequestProcessed(ctx context.Context, status string)
	RecordRequestDuration(ctx context.Context, duration time.Duration, status string)
}

// RequestMetrics logs every request and records the prometheus
// counters and OTel instruments for it.
func RequestMetrics(log logger.Logger, recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())
		if recorder != nil {
			recorder.RecordRequestProcessed(c.Request.Context(), strconv.Itoa(status))
			recorder.RecordRequestDuration(c.Request.Context(), duration, strconv.Itoa(status))
		}

		log.Info("request completed", map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": duration.Milliseconds(),
		})
	}
}

// UserID returns the authenticated caller's ID.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserRole returns the authenticated caller's role.
func UserRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// UserEmail returns the authenticated caller's email.
func UserEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// IsRecruiter reports whether the caller holds the recruiter role.
func IsRecruiter(c *gin.Context) bool {
	return UserRole(c) == models.RoleRecruiter
}
