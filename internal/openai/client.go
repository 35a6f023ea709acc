package openai

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

	"github.com/imje/scheduled-helper/internal/models"
)

// maxBodyBytes caps how much of a response is buffered.
const maxBodyBytes = 10 << 20

// ErrMissingAPIKey is returned before any request is made when no
// credential is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// APIError reports a non-success response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Unauthorized() {
		return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("responses api returned %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the API rejected the credential.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Client calls the Responses API with the web search tool enabled.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New instantiates a client. The timeout bounds the whole request,
// including reading the body.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Search issues one request and returns the raw response body.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("search response exceeds %d bytes", maxBodyBytes)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{StatusCode: res.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
