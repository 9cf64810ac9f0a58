package service

import (
	"context"
	"log"

	"awardforge-backend/models"

	"github.com/google/generative-ai-go/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend interprets documents through the Gemini API. Primary backend.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini-backed interpreter. An empty model name
// selects the default model.
func NewGeminiBackend(client *genai.Client, model string) *GeminiBackend {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiBackend{client: client, model: model}
}

// Name identifies this backend in logs and audit rows.
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Interpret sends the extracted text to Gemini and parses the structured
// response. Every failure mode collapses into the default proposal.
func (b *GeminiBackend) Interpret(ctx context.Context, text, filename string) *models.InterpretationProposal {
	if b.client == nil {
		log.Printf("Warning: Gemini client not configured, returning default proposal")
		return defaultProposal(filename)
	}

	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(backendTemperature)
	model.SetMaxOutputTokens(maxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(buildInterpretationPrompt(text, filename)))
	if err != nil {
		log.Printf("Warning: Gemini generation failed: %v", err)
		return defaultProposal(filename)
	}

	raw := collectResponseText(resp)
	if raw == "" {
		log.Printf("Warning: Gemini returned no text candidates")
		return defaultProposal(filename)
	}

	proposal, ok := parseProposalResponse(raw)
	if !ok {
		log.Printf("Warning: Gemini response contained no parsable JSON object")
		return defaultProposal(filename)
	}
	return proposal
}

// collectResponseText concatenates the text parts of every candidate.
func collectResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var out string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}
