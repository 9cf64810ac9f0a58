package service

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiBackendName(t *testing.T) {
	assert.Equal(t, "gemini", NewGeminiBackend(nil, "").Name())
}

func TestGeminiInterpretWithoutClient(t *testing.T) {
	backend := NewGeminiBackend(nil, "")

	proposal := backend.Interpret(context.Background(), "some text", "doc.pdf")
	require.NotNil(t, proposal)
	assert.Equal(t, fallbackConfidence, proposal.Confidence)
	assert.Contains(t, proposal.Notes, "doc.pdf")
}

func TestCollectResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: nil}},
			},
			want: "",
		},
		{
			name: "concatenates parts across candidates",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"award`)}}},
					{Content: &genai.Content{Parts: []genai.Part{genai.Text(`Type":"star_point"}`)}}},
				},
			},
			want: `{"awardType":"star_point"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectResponseText(tt.resp))
		})
	}
}
