// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"resume-matcher/internal/ai/gemini"
	"resume-matcher/internal/api"
	aihandler "resume-matcher/internal/api/ai"
	"resume-matcher/internal/api/applications"
	"resume-matcher/internal/api/jobs"
	"resume-matcher/internal/api/matches"
	"resume-matcher/internal/api/profile"
	"resume-matcher/internal/api/resumes"
	"resume-matcher/internal/common/auth"
	"resume-matcher/internal/common/aws"
	"resume-matcher/internal/common/config"
	"resume-matcher/internal/common/database"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/observability"
	"resume-matcher/internal/docstore"
	"resume-matcher/internal/matching"
	"resume-matcher/internal/notify"
	"resume-matcher/internal/search"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres with retry ---
	var pgClient *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pgClient, err = database.NewPostgres(cfg.Database.Postgres)
		return err
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pgClient.Close()
	db := pgClient.GetDB()

	// --- Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Elasticsearch, optional ---
	var jobIndex *search.JobIndex
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Warn("elasticsearch unavailable, job search falls back to sql", zap.Error(err))
	} else {
		jobIndex = search.NewJobIndex(esClient.Client, cfg.Database.Elasticsearch.JobIndex, log)
	}

	// --- S3 ---
	s3Client, err := aws.NewS3Client(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Endpoint)
	if err != nil {
		zapLog.Fatal("s3 init failed", zap.Error(err))
	}

	// --- Keycloak ---
	keycloakClient := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	// --- Gemini ---
	geminiClient := gemini.NewClient(gemini.FromAppConfig(cfg), log)

	// --- Document stores ---
	analysisStore := docstore.NewAnalysisStore(redisClient.GetClient(), config.GetDuration(cfg.Matching.AnalysisTTL*1000), log)
	matchStore := docstore.NewMatchStore(redisClient.GetClient(), config.GetDuration(cfg.Matching.ResultsTTL*1000), log)

	// --- Notifications ---
	notifier, err := notify.New(cfg.Notifications, db, log)
	if err != nil {
		zapLog.Warn("notifier init failed, status notifications disabled", zap.Error(err))
		notifier = nil
	}

	orchestrator := matching.NewOrchestrator(db, analysisStore, matchStore, geminiClient, cfg.Matching.MaxJobsPerMatch, log)

	router := api.NewRouter(cfg, log, keycloakClient, obs,
		jobs.NewHandler(db, jobIndex, matchStore, log),
		applications.NewHandler(db, notifier, log),
		matches.NewHandler(orchestrator, log),
		aihandler.NewHandler(db, orchestrator, geminiClient, log),
		resumes.NewHandler(db, s3Client, cfg.Storage.S3.Bucket, geminiClient, analysisStore, matchStore, cfg.Upload, log),
		profile.NewHandler(db, keycloakClient, log),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}
