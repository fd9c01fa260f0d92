package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Response is the subset of an HTTP response the callers need after the body
// has been fully read and the connection released.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client is a logging HTTP client for calls to external providers. Every
// request is logged with a short slug identifying the provider and the IDs of
// the records the call relates to, so a failed exchange can be traced back to
// the affected messages.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. A nil httpClient gets a default with the given timeout.
func New(logger *slog.Logger, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With("component", "httpclient"),
	}
}

// Post issues a POST with the given body and content type. Network failures
// are returned as errors; non-2xx statuses are not an error at this layer,
// the caller decides what a given status means for its protocol.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte, slug string, relatedIDs []int64) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", slug, err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	c.logger.DebugContext(ctx, "Sending HTTP request",
		"slug", slug, "url", url, "body_len", len(body), "related_ids", relatedIDs)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "HTTP request failed",
			"slug", slug, "url", url, "related_ids", relatedIDs, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to read HTTP response body",
			"slug", slug, "status_code", resp.StatusCode, "related_ids", relatedIDs, "error", err)
		return nil, fmt.Errorf("failed to read response body from %s: %w", slug, err)
	}

	c.logger.InfoContext(ctx, "HTTP request finished",
		"slug", slug,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"related_ids", relatedIDs,
	)

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
