// Package client implements the launchpad content API: image upload, metadata
// upload and deterministic-salt mining. The three calls are strictly ordered
// by their data dependencies (image URI feeds metadata, metadata URI feeds
// salt mining), but ordering is enforced by the packer, not here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	imagePath    = "/metadata/image"
	metadataPath = "/metadata/metadata"
	saltPath     = "/token/salt"

	defaultTimeout = 60 * time.Second
)

// Client talks to the launchpad content API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given API base URL. A zero timeout falls back
// to the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// post sends a request and decodes the JSON response into out. Non-2xx
// responses are turned into errors carrying the API's own error message when
// one can be extracted from the body.
func (c *Client) post(ctx context.Context, path string, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

// postJSON marshals payload and posts it as application/json.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(data), out)
}

// apiError extracts the API's error message from a non-2xx response body,
// falling back to the HTTP status text.
func apiError(resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr == nil && len(bodyBytes) > 0 {
		var errorResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
			if errorResp.Error != "" {
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, errorResp.Error)
			}
			if errorResp.Message != "" {
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, errorResp.Message)
			}
		}
	}
	return fmt.Errorf("API error: %s", http.StatusText(resp.StatusCode))
}
