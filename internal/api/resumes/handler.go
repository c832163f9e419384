// internal/api/resumes/handler.go

// Package resumes serves resume upload, listing and deletion. Uploads
// store the file in S3, extract its text and run the AI analysis that
// matching depends on.
package resumes

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-matcher/internal/api/middleware"
	"resume-matcher/internal/common/config"
	"resume-matcher/internal/common/errors"
	"resume-matcher/internal/common/logger"
	"resume-matcher/internal/common/metrics"
	"resume-matcher/internal/docstore"
	"resume-matcher/internal/extract"
	"resume-matcher/internal/models"
)

// ObjectStore is the slice of the S3 client the handler needs.
type ObjectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

// Analyzer is the slice of the gemini client the handler needs.
type Analyzer interface {
	AnalyzeResume(ctx context.Context, resumeID, resumeText string) (*models.ResumeAnalysis, error)
}

type Handler struct {
	db           *sql.DB
	store        ObjectStore
	bucket       string
	analyzer     Analyzer
	analyses     *docstore.AnalysisStore
	matches      *docstore.MatchStore
	upload       config.UploadConfig
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(db *sql.DB, store ObjectStore, bucket string, analyzer Analyzer,
	analyses *docstore.AnalysisStore, matches *docstore.MatchStore,
	upload config.UploadConfig, log logger.Logger) *Handler {
	return &Handler{
		db:           db,
		store:        store,
		bucket:       bucket,
		analyzer:     analyzer,
		analyses:     analyses,
		matches:      matches,
		upload:       upload,
		errorHandler: errors.NewErrorHandler(log),
		logger: log.With(map[string]interface{}{
			"handler": "resumes",
		}),
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.List)
	rg.GET("/resumes/:id/analysis", h.GetAnalysis)
	rg.POST("/resumes/upload", h.Upload)
	rg.DELETE("/resumes/:id", h.Delete)
}

type uploadResponse struct {
	Resume   models.Resume          `json:"resume"`
	Analysis *models.ResumeAnalysis `json:"analysis,omitempty"`
}

type listResponse struct {
	Resumes []models.Resume `json:"resumes"`
	Total   int             `json:"total"`
}

// List returns the caller's uploaded resumes.
func (h *Handler) List(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		`SELECT id, user_id, file_name, file_type, file_size, storage_key, uploaded_at
		 FROM resumes WHERE user_id = $1 ORDER BY uploaded_at DESC`, middleware.UserID(c))
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("list resumes", err))
		return
	}
	defer rows.Close()

	resumes := []models.Resume{}
	for rows.Next() {
		var r models.Resume
		if err := rows.Scan(&r.ID, &r.UserID, &r.FileName, &r.FileType, &r.FileSize, &r.StorageKey, &r.UploadedAt); err != nil {
			h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("scan resume", err))
			return
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("list resumes", err))
		return
	}

	c.JSON(http.StatusOK, listResponse{Resumes: resumes, Total: len(resumes)})
}

// GetAnalysis returns the stored AI analysis for one of the caller's
// resumes.
func (h *Handler) GetAnalysis(c *gin.Context) {
	resumeID := c.Param("id")

	if err := h.checkOwnership(c, resumeID); err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}

	analysis, err := h.analyses.Get(c.Request.Context(), resumeID)
	if err != nil {
		h.errorHandler.HandleRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Upload accepts a multipart resume file, stores it, extracts its text
// and runs the AI analysis. The file only becomes visible once its
// metadata row exists; a failed insert removes the stored object again.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.uploadFailed(c, errors.NewValidationFailedError("multipart field 'file' is required"))
		return
	}

	if fileHeader.Size > h.upload.MaxFileSize {
		h.uploadFailed(c, errors.NewFileTooLargeError(fileHeader.Size, h.upload.MaxFileSize))
		return
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if !h.typeAllowed(fileType) {
		h.uploadFailed(c, errors.NewUnsupportedFileTypeError(fileType))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.uploadFailed(c, errors.NewValidationFailedError("could not read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.upload.MaxFileSize+1))
	if err != nil {
		h.uploadFailed(c, errors.NewValidationFailedError("could not read uploaded file"))
		return
	}
	if int64(len(data)) > h.upload.MaxFileSize {
		h.uploadFailed(c, errors.NewFileTooLargeError(int64(len(data)), h.upload.MaxFileSize))
		return
	}

	text, err := extract.Text(data, fileType)
	if err != nil {
		h.uploadFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	resumeID := uuid.New().String()

	analysis, err := h.analyzer.AnalyzeResume(ctx, resumeID, text)
	if err != nil {
		h.uploadFailed(c, err)
		return
	}

	storageKey := fmt.Sprintf("resumes/%s/%s.%s", userID, resumeID, fileType)
	_, err = h.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket: awssdk.String(h.bucket),
		Key:    awssdk.String(storageKey),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		h.uploadFailed(c, errors.NewStorageFailedError("put resume object", err))
		return
	}

	resume := models.Resume{
		ID:         resumeID,
		UserID:     userID,
		FileName:   fileHeader.Filename,
		FileType:   fileType,
		FileSize:   int64(len(data)),
		StorageKey: storageKey,
		UploadedAt: time.Now().UTC(),
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, file_name, file_type, file_size, storage_key, extracted_text, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		resume.ID, resume.UserID, resume.FileName, resume.FileType, resume.FileSize,
		resume.StorageKey, text, resume.UploadedAt)
	if err != nil {
		h.deleteObject(ctx, storageKey)
		h.uploadFailed(c, errors.NewDatabaseInsertFailedError(err))
		return
	}

	if err := h.analyses.Save(ctx, analysis); err != nil {
		h.logger.WithError(err).Warn("failed to cache resume analysis", map[string]interface{}{
			"resumeId": resumeID,
		})
	}

	metrics.ResumeUploadsTotal.WithLabelValues("success").Inc()
	h.logger.Info("resume uploaded", map[string]interface{}{
		"resumeId": resumeID,
		"fileType": fileType,
		"fileSize": resume.FileSize,
	})

	c.JSON(http.StatusCreated, uploadResponse{Resume: resume, Analysis: analysis})
}

// Delete removes a resume, its stored object, its analysis and any
// match results derived from it.
func (h *Handler) Delete(c *gin.Context) {
	resumeID := c.Param("id")
	ctx := c.Request.Context()

	var ownerID, storageKey string
	err := h.db.QueryRowContext(ctx, `SELECT user_id, storage_key FROM resumes WHERE id = $1`, resumeID).
		Scan(&ownerID, &storageKey)
	if err == sql.ErrNoRows {
		h.errorHandler.HandleRequestError(c, errors.NewNotFoundError("resume", resumeID))
		return
	}
	if err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("fetch resume", err))
		return
	}
	if ownerID != middleware.UserID(c) {
		h.errorHandler.HandleRequestError(c, errors.NewForbiddenError("resume belongs to another user"))
		return
	}

	if _, err := h.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, resumeID); err != nil {
		h.errorHandler.HandleRequestError(c, errors.NewQueryExecutionFailedError("delete resume", err))
		return
	}

	h.deleteObject(ctx, storageKey)
	if err := h.analyses.Delete(ctx, resumeID); err != nil {
		h.logger.WithError(err).Warn("failed to delete resume analysis", map[string]interface{}{
			"resumeId": resumeID,
		})
	}
	if err := h.matches.DeleteAll(ctx, resumeID); err != nil {
		h.logger.WithError(err).Warn("failed to delete match results", map[string]interface{}{
			"resumeId": resumeID,
		})
	}

	h.logger.Info("resume deleted", map[string]interface{}{
		"resumeId": resumeID,
	})
	c.Status(http.StatusNoContent)
}

// ==========================
// Helpers
// ==========================

func (h *Handler) typeAllowed(fileType string) bool {
	for _, allowed := range h.upload.AllowedTypes {
		if fileType == allowed {
			return true
		}
	}
	return false
}

func (h *Handler) checkOwnership(c *gin.Context, resumeID string) error {
	var ownerID string
	err := h.db.QueryRowContext(c.Request.Context(), `SELECT user_id FROM resumes WHERE id = $1`, resumeID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("resume", resumeID)
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("resume ownership check", err)
	}
	if ownerID != middleware.UserID(c) {
		return errors.NewForbiddenError("resume belongs to another user")
	}
	return nil
}

func (h *Handler) deleteObject(ctx context.Context, storageKey string) {
	_, err := h.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awssdk.String(h.bucket),
		Key:    awssdk.String(storageKey),
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to delete resume object", map[string]interface{}{
			"storageKey": storageKey,
		})
	}
}

func (h *Handler) uploadFailed(c *gin.Context, err error) {
	metrics.ResumeUploadsTotal.WithLabelValues("failure").Inc()
	h.errorHandler.HandleRequestError(c, err)
}
