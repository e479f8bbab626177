// Package nexus is the typed client for the HR Nexus backend HTTP API. All persistence and
// business logic live behind that API; this package only moves JSON and streams.
package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client talks to one HR Nexus backend. It is safe for concurrent use; per-user credentials
// travel with each call via Session rather than living on the client.
type Client struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

// APIError is a backend-reported failure. Detail carries the backend's message verbatim so
// handlers can surface it to the user unchanged.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nexus: %s (status %d)", e.Detail, e.Status)
}

// NewClient creates a Client for the backend at baseURL. A trailing slash on baseURL is
// tolerated.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "nexus")),
	}
}

// BaseURL returns the backend address the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one JSON round trip. A nil body sends no payload, a nil out discards the
// response body. Non-2xx statuses decode into *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	return decodeJSON(resp.Body, out)
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// decodeAPIError reads the backend's error payload, falling back to the raw body and then to
// the status text when the `detail` field is absent.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	detail := strings.TrimSpace(string(body))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Detail: detail}
}
