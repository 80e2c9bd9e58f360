// Package webhook provides an HTTP client for sending check reports to webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/ccollicutt/verixfer/pkg/output"
)

// DefaultTimeout is the default per-attempt HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultInitialInterval is the first delay between retries.
const DefaultInitialInterval = 500 * time.Millisecond

// Client sends check reports to webhook endpoints.
type Client struct {
	httpClient      *http.Client
	initialInterval time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}

// NewClient creates a new webhook client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		initialInterval: DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Per-attempt timeout (uses DefaultTimeout if zero)
	Retries int           // Extra attempts after a transient failure
}

// Response contains the result of a webhook delivery.
type Response struct {
	StatusCode int
	Body       string
	Attempts   int
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a check report to a webhook endpoint. Network errors and 5xx
// responses are retried with exponential backoff; 4xx responses are not.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}

	payload, err := json.Marshal(report)
	if err != nil {
		resp.Error = fmt.Errorf("failed to marshal report: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	retries := max(opts.Retries, 0)
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	op := func() error {
		resp.Attempts++
		status, body, err := c.post(ctx, opts, timeout, payload)
		resp.StatusCode = status
		resp.Body = body
		if err != nil {
			return err
		}
		if status >= 500 {
			return fmt.Errorf("webhook returned status %d", status)
		}
		if status >= 400 {
			return backoff.Permanent(fmt.Errorf("webhook returned status %d", status))
		}
		return nil
	}

	resp.Error = backoff.Retry(op, policy)
	resp.Duration = time.Since(start)
	return resp
}

func (c *Client) post(ctx context.Context, opts SendOptions, timeout time.Duration, payload []byte) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "verixfer-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1024*1024)) // Limit to 1MB
	if err != nil {
		return httpResp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}

	return httpResp.StatusCode, string(body), nil
}
