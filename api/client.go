// Package api is the client for the learning backend REST API.
// It carries access queries and progress updates and reports failures as typed *Error values.
package api

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

	"github.com/cenkalti/backoff/v5"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/constant"
	"github.com/coursecast/coursecast/key"
	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/network"
	"github.com/spf13/viper"
)

const (
	defaultTimeout = 15 * time.Second
	retryInitial   = 250 * time.Millisecond
	retryMax       = 2 * time.Second
)

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared network client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithRetries sets the number of extra attempts for idempotent GET requests.
func WithRetries(n int) Option {
	return func(cl *Client) { cl.retries = n }
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:8000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: network.Client,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 0 {
		c.retries = 0
	}
	return c
}

// FromConfig creates a client using the api.* configuration keys.
func FromConfig() *Client {
	return New(
		viper.GetString(key.APIBaseURL),
		WithTimeout(config.Seconds(key.APITimeout)),
		WithRetries(viper.GetInt(key.APIRetries)),
	)
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do performs a single attempt and decodes the envelope data into out (when non-nil).
// It returns the envelope message alongside, since some endpoints explain themselves there.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constant.UserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", networkError(fmt.Errorf("%s %s timed out after %s", method, endpoint, c.timeout))
		}
		return "", networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", networkError(fmt.Errorf("read body: %w", err))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return msg, &Error{Kind: kindOfStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return "", &Error{Kind: ServerError, Status: resp.StatusCode, Message: "malformed response", err: decodeErr}
	}

	if out != nil {
		data := env.Data
		// A few endpoints answer without the envelope.
		if env.Success == nil && len(data) == 0 {
			data = raw
		}
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, out); err != nil {
				return env.Message, &Error{Kind: ServerError, Status: resp.StatusCode, Message: "malformed response data", err: err}
			}
		}
	}

	return env.Message, nil
}

// get performs an idempotent request, retrying network and server failures with exponential backoff.
func (c *Client) get(ctx context.Context, endpoint, token string, out any) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitial
	b.MaxInterval = retryMax

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		msg, err := c.do(ctx, http.MethodGet, endpoint, token, nil, out)
		if err == nil {
			return msg, nil
		}

		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			log.Debugf("GET %s attempt %d failed: %v", endpoint, attempt, err)
			return msg, err
		}
		return msg, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.retries+1)))
}
