// Package suggest implements the HTTP client for the backend AI-suggestion
// endpoint.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/cscx-ai/draftd/internal/application"
)

const suggestPath = "/api/cadg/document/suggest"

// Client posts section context to the suggestion endpoint. Each call is
// bounded by a timeout; there is no retry here, a failed fetch is surfaced
// and retried only by a fresh user action.
type Client struct {
	baseURL    string
	headers    map[string]string
	callLimit  time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint base URL. Headers are
// forwarded verbatim on every request.
func NewClient(baseURL string, headers map[string]string, callLimit time.Duration) *Client {
	if callLimit <= 0 {
		callLimit = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		headers:    headers,
		callLimit:  callLimit,
		httpClient: &http.Client{},
	}
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

// Suggest fetches one suggestion.
func (c *Client) Suggest(ctx context.Context, req application.SuggestionRequest) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("suggestion endpoint not configured")
	}

	t := timeout.New[string](timeout.Config{
		DefaultTimeout: c.callLimit,
	})

	return t.Execute(ctx, c.callLimit, func(ctx context.Context) (string, error) {
		return c.fetch(ctx, req)
	})
}

func (c *Client) fetch(ctx context.Context, req application.SuggestionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+suggestPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("suggestion endpoint returned status: %s", resp.Status)
	}

	var decoded suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	return decoded.Suggestion, nil
}
