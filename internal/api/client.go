// Package api is the typed REST client for the campushub backend.
// It attaches the bearer token to every request when one is held and
// hands application-level errors (4xx) back as parsed *Error values;
// only network failures and 5xx responses surface as *TransportError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the current bearer token, or "" when unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, mostly useful in tests.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// Client sends requests to the backend.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	logger *slog.Logger
}

// New creates a client for the given base URL, e.g. "http://localhost:8001/api".
func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: defaultTimeout},
		tokens: tokens,
		logger: logger,
	}
}

// Response is a completed HTTP exchange with status below 500.
type Response struct {
	Status int
	Body   []byte
}

// send performs one request. Statuses in [200,500) come back as a Response so
// callers can branch on the payload; network failures and 5xx are returned as
// *TransportError. No retries, no caching.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	case *multipartBody:
		reader = b.buf
		contentType = b.contentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode >= 500 {
		c.logger.Debug("server error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, &TransportError{Status: resp.StatusCode}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// do performs a request and decodes a 2xx JSON body into out (which may be
// nil). Non-2xx responses are converted to *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return newError(resp.Status, resp.Body)
	}
	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
