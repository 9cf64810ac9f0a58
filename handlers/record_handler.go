package handlers

import (
	"errors"
	"net/http"

	"awardforge-backend/models"
	"awardforge-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecordHandler handles HTTP requests for canonical award records
type RecordHandler struct {
	pipeline *service.PipelineOrchestrator
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(pipeline *service.PipelineOrchestrator) *RecordHandler {
	return &RecordHandler{pipeline: pipeline}
}

type persistRequest struct {
	UserID     uuid.UUID               `json:"user_id" binding:"required"`
	Record     *models.CanonicalRecord `json:"record" binding:"required"`
	Provenance *models.Provenance      `json:"provenance,omitempty"`
}

type validateRequest struct {
	Record *models.CanonicalRecord `json:"record" binding:"required"`
}

// PersistRecord handles POST /api/records
func (h *RecordHandler) PersistRecord(c *gin.Context) {
	var req persistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	id, err := h.pipeline.Persist(c.Request.Context(), req.Record, req.Provenance, req.UserID)
	if err != nil {
		h.respondPersistError(c, err, req.Record)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id": id,
		},
	})
}

// UpdateRecord handles PUT /api/records/:id
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid record ID format",
			},
		})
		return
	}

	var req persistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	id, err := h.pipeline.PersistUpdate(c.Request.Context(), recordID, req.Record, req.Provenance, req.UserID)
	if err != nil {
		h.respondPersistError(c, err, req.Record)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id": id,
		},
	})
}

// ValidateRecord handles POST /api/records/validate
func (h *RecordHandler) ValidateRecord(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	fixed, result, err := h.pipeline.Revalidate(req.Record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"record":     fixed,
			"validation": result,
			"is_valid":   result.IsValid(),
		},
	})
}

// respondPersistError maps persistence failures onto the error envelope. An
// invalid record gets its validation result attached so the caller can show
// what to fix.
func (h *RecordHandler) respondPersistError(c *gin.Context, err error, record *models.CanonicalRecord) {
	if errors.Is(err, service.ErrRecordInvalid) {
		_, result, revalErr := h.pipeline.Revalidate(record)
		payload := gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RECORD_INVALID",
				"message": "record has validation errors and cannot be persisted",
			},
		}
		if revalErr == nil {
			payload["validation"] = result
		}
		c.JSON(http.StatusBadRequest, payload)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "PERSISTENCE_FAILED",
			"message": err.Error(),
		},
	})
}
