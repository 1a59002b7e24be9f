// Package llm talks to the hosted text-completion service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("llm: API key is missing")

// Request is a rendered prompt plus generation parameters.
type Request struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// Client is an interface for the text-completion service.
type Client interface {
	// Complete returns the generated text for the request.
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError reports a non-2xx response from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: unexpected status code %d: %s", e.StatusCode, e.Body)
}

// GeminiClient is an HTTP implementation of Client for the Gemini
// generateContent endpoint.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

// NewGeminiClient creates a new GeminiClient.
func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration) *GeminiClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Complete sends the prompt to the model and returns the concatenated text
// parts of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrNotConfigured
	}

	requestBody, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxOutputTokens,
			Temperature:     req.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("llm: prompt blocked: %s", decoded.PromptFeedback.BlockReason)
		}
		return "", errors.New("llm: response has no candidates")
	}

	var text strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
