package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"awardforge-backend/models"
	"awardforge-backend/repository"
	"awardforge-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordRouter(store *repository.MemoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	pipeline := service.NewPipelineOrchestrator(
		service.WithExtractor(service.NewDocumentTextExtractor()),
		service.WithMapper(service.NewFieldMapper()),
		service.WithValidator(service.NewDataValidator()),
		service.WithWriter(repository.NewRecordRepository(store)),
	)
	handler := NewRecordHandler(pipeline)

	router := gin.New()
	router.POST("/api/records", handler.PersistRecord)
	router.PUT("/api/records/:id", handler.UpdateRecord)
	router.POST("/api/records/validate", handler.ValidateRecord)
	return router
}

func validRecordJSON() map[string]interface{} {
	return map[string]interface{}{
		"award_type":  "efficient_star",
		"title":       "Best Chapter 2026",
		"description": "Awarded to the chapter with the best results.",
		"deadline":    "2026-12-31",
		"efficient_star": map[string]interface{}{
			"no": 1,
		},
		"score_rules":        []interface{}{},
		"confidence":         0.9,
		"extracted_keywords": []string{"award"},
		"source_char_count":  500,
	}
}

func postJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPersistRecord(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newRecordRouter(store)

	w := postJSON(router, http.MethodPost, "/api/records", map[string]interface{}{
		"user_id": uuid.New().String(),
		"record":  validRecordJSON(),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEqual(t, uuid.Nil, resp.Data.ID)

	assert.Len(t, store.List(repository.CollectionRecords), 1)
}

func TestPersistRecordRejectsInvalid(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newRecordRouter(store)

	record := validRecordJSON()
	record["title"] = ""

	w := postJSON(router, http.MethodPost, "/api/records", map[string]interface{}{
		"user_id": uuid.New().String(),
		"record":  record,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
		Validation *models.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "RECORD_INVALID", resp.Error.Code)
	require.NotNil(t, resp.Validation)
	assert.NotEmpty(t, resp.Validation.Errors)

	assert.Empty(t, store.List(repository.CollectionRecords))
}

func TestPersistRecordRejectsMalformedBody(t *testing.T) {
	router := newRecordRouter(repository.NewMemoryStore())

	w := postJSON(router, http.MethodPost, "/api/records", map[string]interface{}{
		"record": validRecordJSON(), // no user_id
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestUpdateRecord(t *testing.T) {
	store := repository.NewMemoryStore()
	router := newRecordRouter(store)
	userID := uuid.New().String()

	w := postJSON(router, http.MethodPost, "/api/records", map[string]interface{}{
		"user_id": userID,
		"record":  validRecordJSON(),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	updated := validRecordJSON()
	updated["title"] = "Best Chapter 2027"

	w = postJSON(router, http.MethodPut, fmt.Sprintf("/api/records/%s", created.Data.ID), map[string]interface{}{
		"user_id": userID,
		"record":  updated,
	})
	require.Equal(t, http.StatusOK, w.Code)

	row, ok := store.Get(repository.CollectionRecords, created.Data.ID)
	require.True(t, ok)
	assert.Equal(t, "Best Chapter 2027", row["title"])
}

func TestUpdateRecordInvalidID(t *testing.T) {
	router := newRecordRouter(repository.NewMemoryStore())

	w := postJSON(router, http.MethodPut, "/api/records/not-a-uuid", map[string]interface{}{
		"user_id": uuid.New().String(),
		"record":  validRecordJSON(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
}

func TestValidateRecord(t *testing.T) {
	router := newRecordRouter(repository.NewMemoryStore())

	record := validRecordJSON()
	record["title"] = "  Best   Chapter  "
	record["deadline"] = "2026/12/31"

	w := postJSON(router, http.MethodPost, "/api/records/validate", map[string]interface{}{
		"record": record,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Record     *models.CanonicalRecord  `json:"record"`
			Validation *models.ValidationResult `json:"validation"`
			IsValid    bool                     `json:"is_valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Data.IsValid)
	assert.Equal(t, "Best Chapter", resp.Data.Record.Title)
	assert.Equal(t, "2026-12-31", resp.Data.Record.Deadline)
}

func TestValidateRecordReportsErrors(t *testing.T) {
	router := newRecordRouter(repository.NewMemoryStore())

	record := validRecordJSON()
	record["title"] = ""
	record["description"] = ""

	w := postJSON(router, http.MethodPost, "/api/records/validate", map[string]interface{}{
		"record": record,
	})
	require.Equal(t, http.StatusOK, w.Code, "validation always succeeds; invalid input is data")

	var resp struct {
		Data struct {
			Validation *models.ValidationResult `json:"validation"`
			IsValid    bool                     `json:"is_valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.IsValid)
	assert.NotEmpty(t, resp.Data.Validation.Errors)
}
