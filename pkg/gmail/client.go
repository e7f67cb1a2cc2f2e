// Package gmail provides a minimal client for the Gmail messages.send API.
package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Client sends raw RFC-2822 messages on behalf of the token owner.
type Client interface {
	// Send submits a base64url-encoded message. The access token is passed
	// per call because it is short-lived and owned by the caller.
	Send(ctx context.Context, accessToken, raw string) (*SendResponse, error)
}

// SendResponse is the message resource returned on a successful send.
type SendResponse struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds"`
}

// APIError is a non-2xx reply. Message is the provider's error.message.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail: send status %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the token was missing, invalid or expired.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Option configures the Gmail client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry envelope. Only rate-limited sends are
// retried so a slow 5xx never delivers the same email twice.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Gmail client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry: resilience.RetryConfig{
			Retries:        2,
			InitialBackoff: time.Second,
			MaxBackoff:     10 * time.Second,
			Multiplier:     2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.ShouldRetry = resilience.IsRateLimited
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("gmail", "send")
	}
	return c
}

func (c *httpClient) Send(ctx context.Context, accessToken, raw string) (*SendResponse, error) {
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return nil, eris.Wrap(err, "gmail: marshal request")
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SendResponse, error) {
		return c.send(ctx, accessToken, payload)
	})
}

func (c *httpClient) send(ctx context.Context, accessToken string, payload []byte) (*SendResponse, error) {
	url := c.baseURL + "/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, body)
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return nil, apiErr
	}

	var out SendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "gmail: unmarshal response")
	}
	return &out, nil
}

// decodeError extracts error.message from a Google API error body, falling
// back to the raw body.
func decodeError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		e.Message = eb.Error.Message
		e.Status = eb.Error.Status
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
