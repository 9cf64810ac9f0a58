package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"awardforge-backend/models"
	"awardforge-backend/repository"
	"awardforge-backend/service"
	"awardforge-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedBackend satisfies service.InterpretationBackend with a fixed proposal.
type cannedBackend struct {
	proposal *models.InterpretationProposal
}

func (b *cannedBackend) Interpret(ctx context.Context, text, filename string) *models.InterpretationProposal {
	return b.proposal
}

func (b *cannedBackend) Name() string { return "canned" }

func newDocumentRouter(t *testing.T, backend service.InterpretationBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)

	fileStorage, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	pipeline := service.NewPipelineOrchestrator(
		service.WithExtractor(service.NewDocumentTextExtractor()),
		service.WithBackend(backend),
		service.WithMapper(service.NewFieldMapper()),
		service.WithValidator(service.NewDataValidator()),
		service.WithWriter(repository.NewRecordRepository(repository.NewMemoryStore())),
	)
	handler := NewDocumentHandler(pipeline, fileStorage)

	router := gin.New()
	router.POST("/api/documents/interpret", handler.InterpretDocument)
	return router
}

func multipartUpload(t *testing.T, userID, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if userID != "" {
		require.NoError(t, writer.WriteField("user_id", userID))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestInterpretDocument(t *testing.T) {
	backend := &cannedBackend{
		proposal: &models.InterpretationProposal{
			AwardType: models.AwardTypeEfficientStar,
			BasicFields: models.BasicFields{
				Title:       "Best Chapter 2026",
				Description: "Awarded to the chapter with the best results.",
				Deadline:    "2026-12-31",
			},
			SpecificFields:    models.ProposalSpecifics{No: floatPtr(1)},
			Confidence:        0.9,
			ExtractedKeywords: []string{"award"},
		},
	}
	router := newDocumentRouter(t, backend)

	payload := append([]byte("%PDF-1.4\x00"), []byte("Award details with a deadline")...)
	body, contentType := multipartUpload(t, uuid.New().String(), "award.pdf", "application/pdf", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/interpret", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Record     *models.CanonicalRecord  `json:"record"`
			Validation *models.ValidationResult `json:"validation"`
			IsValid    bool                     `json:"is_valid"`
			Backend    string                   `json:"backend"`
			Provenance *models.Provenance       `json:"provenance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "canned", resp.Data.Backend)
	require.NotNil(t, resp.Data.Record)
	assert.Equal(t, "Best Chapter 2026", resp.Data.Record.Title)
	assert.True(t, resp.Data.IsValid)

	require.NotNil(t, resp.Data.Provenance)
	assert.Equal(t, "award.pdf", resp.Data.Provenance.SourceFilename)
	assert.NotEmpty(t, resp.Data.Provenance.StoragePath, "the upload is archived before interpretation")
	assert.Equal(t, "canned", resp.Data.Provenance.Backend)
}

func TestInterpretDocumentRequestValidation(t *testing.T) {
	router := newDocumentRouter(t, &cannedBackend{proposal: &models.InterpretationProposal{}})

	tests := []struct {
		name        string
		userID      string
		filename    string
		contentType string
		payload     []byte
		wantCode    string
	}{
		{
			name:     "missing user id",
			userID:   "",
			filename: "award.pdf",
			payload:  []byte("%PDF-1.4"),
			wantCode: "MISSING_USER_ID",
		},
		{
			name:     "bad user id",
			userID:   "not-a-uuid",
			filename: "award.pdf",
			payload:  []byte("%PDF-1.4"),
			wantCode: "INVALID_USER_ID",
		},
		{
			name:     "missing file",
			userID:   uuid.New().String(),
			filename: "",
			wantCode: "MISSING_FILE",
		},
		{
			name:        "wrong file type",
			userID:      uuid.New().String(),
			filename:    "notes.txt",
			contentType: "text/plain",
			payload:     []byte("plain text"),
			wantCode:    "INVALID_FILE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.userID, tt.filename, tt.contentType, tt.payload)

			req := httptest.NewRequest(http.MethodPost, "/api/documents/interpret", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func floatPtr(v float64) *float64 { return &v }
