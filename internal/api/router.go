// internal/api/router.go

// Package api assembles the HTTP surface: middleware, resource
// handlers and the operational endpoints.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/config"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
)

// RouteRegistrar is implemented by every resource handler.
type RouteRegistrar interface {
	Register(rg *gin.RouterGroup)
}

// NewRouter builds the gin engine with CORS, logging/metrics
// middleware, the health and metrics endpoints and the authenticated
// /api group.
func NewRouter(cfg *config.Config, log logger.Logger, validator middleware.TokenValidator, recorder middleware.RequestRecorder, handlers ...RouteRegistrar) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestMetrics(log, recorder))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	errorHandler := errors.NewErrorHandler(log)
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Auth(validator, errorHandler))

	for _, h := range handlers {
		h.Register(apiGroup)
	}

	return router
}
