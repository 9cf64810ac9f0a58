package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"awardforge-backend/models"
	"awardforge-backend/service"
	"awardforge-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles HTTP requests for document interpretation
type DocumentHandler struct {
	pipeline         *service.PipelineOrchestrator
	storage          storage.Storage
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(pipeline *service.PipelineOrchestrator, fileStorage storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		pipeline:    pipeline,
		storage:     fileStorage,
		maxFileSize: 10 * 1024 * 1024, // 10MB
		allowedMimeTypes: map[string]bool{
			"application/pdf":   true,
			"application/x-pdf": true,
		},
	}
}

// InterpretDocument handles POST /api/documents/interpret
func (h *DocumentHandler) InterpretDocument(c *gin.Context) {
	userIDStr := c.PostForm("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_USER_ID",
				"message": "user_id is required",
			},
		})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user_id format",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" && strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		mimeType = "application/pdf"
	}
	if !h.allowedMimeTypes[mimeType] && !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	// Archive the original upload. Interpretation still proceeds when the
	// archive write fails; the record just carries no storage path.
	storagePath := ""
	if h.storage != nil {
		path, err := h.storage.Upload(c.Request.Context(), uuid.New(), fileHeader.Filename, bytes.NewReader(data))
		if err != nil {
			log.Printf("Warning: failed to archive uploaded file %s: %v", fileHeader.Filename, err)
		} else {
			storagePath = path
		}
	}

	doc := &models.RawDocument{
		Data:     data,
		Filename: fileHeader.Filename,
		MimeType: mimeType,
		Size:     fileHeader.Size,
	}

	outcome, err := h.pipeline.Interpret(c.Request.Context(), doc, userID)
	if err != nil {
		status := http.StatusInternalServerError
		code := "INTERPRETATION_FAILED"
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat):
			status = http.StatusBadRequest
			code = "UNSUPPORTED_FORMAT"
		case errors.Is(err, service.ErrSizeLimit):
			status = http.StatusBadRequest
			code = "FILE_TOO_LARGE"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"record":     outcome.Record,
			"validation": outcome.Validation,
			"is_valid":   outcome.Validation.IsValid(),
			"backend":    outcome.Backend,
			"signals":    outcome.Signals,
			"page_count": outcome.ExtractedText.PageCount,
			"provenance": outcome.Provenance(fileHeader.Filename, storagePath),
		},
	})
}
