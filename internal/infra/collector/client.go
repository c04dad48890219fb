// Package collector implements the HTTP client for the remote usage
// collector.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/domain"
)

// Client ships usage reports to the collector API. Transport-level failures
// are retried with backoff; an exhausted retry budget surfaces as an error
// to the batch pipeline, which reports it without re-queuing the batch.
type Client struct {
	baseURL string
	apiKey  string

	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a collector client with the given API key and base URL.
func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // suppress default logging

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    retryClient.StandardClient(),
		logger:  logger,
	}
}

// Ping verifies connectivity to the collector.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/ping", nil)
	return err
}

// SendReport publishes one batched usage report.
func (c *Client) SendReport(ctx context.Context, report domain.UsageReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = c.doRequest(ctx, http.MethodPost, "/v1/reports", body)
	return err
}

// --- internal ---

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("collector API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("collector %s %s returned %d: %s", method, path, resp.StatusCode, respBody)
	}

	return respBody, nil
}
