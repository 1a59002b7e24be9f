// Package search provides the web-search client used to augment questions
// with context.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("search: API key is missing")

// Result is a single item returned by a search.
type Result struct {
	Title   string
	Content string
	URL     string
}

// Searcher executes a query and returns at most maxResults results.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	// Depth controls Tavily's search_depth parameter (basic or advanced).
	depth  string
	client *http.Client
}

// NewTavily constructs a Tavily search provider.
func NewTavily(baseURL, apiKey, depth string, timeout time.Duration) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Tavily{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		depth:   depth,
		client:  &http.Client{Timeout: timeout},
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query to Tavily. Results keep the provider's order.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(tavilyRequest{Query: query, SearchDepth: t.depth, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("tavily decode: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{Title: r.Title, Content: r.Content, URL: r.URL})
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
