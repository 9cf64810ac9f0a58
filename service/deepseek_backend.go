package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"awardforge-backend/models"
)

const (
	defaultDeepSeekURL   = "https://api.deepseek.com/chat/completions"
	defaultDeepSeekModel = "deepseek-chat"
)

// DeepSeekBackend interprets documents through the DeepSeek chat-completions
// API. Secondary backend, selected by configuration.
type DeepSeekBackend struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// NewDeepSeekBackend creates a DeepSeek-backed interpreter. Empty apiURL and
// model select the hosted endpoint and default model.
func NewDeepSeekBackend(apiKey, apiURL, model string) *DeepSeekBackend {
	if apiURL == "" {
		apiURL = defaultDeepSeekURL
	}
	if model == "" {
		model = defaultDeepSeekModel
	}
	return &DeepSeekBackend{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Name identifies this backend in logs and audit rows.
func (b *DeepSeekBackend) Name() string {
	return "deepseek"
}

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

// Interpret sends the extracted text to DeepSeek and parses the structured
// response. Every failure mode collapses into the default proposal.
func (b *DeepSeekBackend) Interpret(ctx context.Context, text, filename string) *models.InterpretationProposal {
	raw, err := b.callChatAPI(ctx, buildInterpretationPrompt(text, filename))
	if err != nil {
		log.Printf("Warning: DeepSeek generation failed: %v", err)
		return defaultProposal(filename)
	}

	proposal, ok := parseProposalResponse(raw)
	if !ok {
		log.Printf("Warning: DeepSeek response contained no parsable JSON object")
		return defaultProposal(filename)
	}
	return proposal
}

// callChatAPI performs one chat-completions call. No retries: a failed
// attempt immediately yields the default proposal upstream.
func (b *DeepSeekBackend) callChatAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := deepSeekRequest{
		Model: b.model,
		Messages: []deepSeekMessage{
			{Role: "system", Content: "You return exactly one JSON object and nothing else."},
			{Role: "user", Content: prompt},
		},
		Temperature: backendTemperature,
		MaxTokens:   maxOutputTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("DeepSeek API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return "", &apiStatusError{status: resp.StatusCode}
	}

	var apiResp deepSeekResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Error.Message != "" {
		return "", &apiMessageError{message: apiResp.Error.Message}
	}
	if len(apiResp.Choices) == 0 {
		return "", &apiMessageError{message: "no choices returned"}
	}
	return apiResp.Choices[0].Message.Content, nil
}

type apiStatusError struct{ status int }

func (e *apiStatusError) Error() string {
	return http.StatusText(e.status)
}

type apiMessageError struct{ message string }

func (e *apiMessageError) Error() string {
	return e.message
}
