// Package webdriver provides a minimal W3C WebDriver client covering the
// handful of endpoints the coordinate resolver needs: session lifecycle,
// navigation, and reading the current URL.
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the WebDriver operations used by the resolver.
type Client interface {
	// NewSession creates a browser session on the remote end.
	NewSession(ctx context.Context, opts ...SessionOption) (*Session, error)
	// Status reports whether the remote end is ready to create sessions.
	Status(ctx context.Context) error
}

// Session is one live browser session on a remote end.
type Session struct {
	ID     string
	client *httpClient
}

// SessionOption configures session creation.
type SessionOption func(*sessionOpts)

type sessionOpts struct {
	headless bool
}

// WithHeadless toggles headless Firefox capabilities. Defaults to true.
func WithHeadless(headless bool) SessionOption {
	return func(o *sessionOpts) {
		o.headless = headless
	}
}

// Option configures the WebDriver client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a WebDriver client for a remote end, e.g.
// "http://localhost:4444".
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the W3C response wrapper. Errors carry an object value with
// "error" and "message" fields; successes carry endpoint-specific values.
type envelope struct {
	Value json.RawMessage `json:"value"`
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProtocolError is a WebDriver-level error returned by the remote end.
type ProtocolError struct {
	Code    string
	Message string
	Status  int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("webdriver: %s: %s (status %d)", e.Code, e.Message, e.Status)
}

func (c *httpClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "webdriver: marshal request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "webdriver: create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "webdriver: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "webdriver: read response body")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return eris.Wrapf(err, "webdriver: unmarshal response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		var we wireError
		if err := json.Unmarshal(env.Value, &we); err == nil && we.Error != "" {
			return &ProtocolError{Code: we.Error, Message: we.Message, Status: resp.StatusCode}
		}
		return &ProtocolError{Code: "unknown error", Message: string(raw), Status: resp.StatusCode}
	}

	if out != nil {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return eris.Wrap(err, "webdriver: unmarshal value")
		}
	}
	return nil
}

type newSessionRequest struct {
	Capabilities capabilities `json:"capabilities"`
}

type capabilities struct {
	AlwaysMatch map[string]any `json:"alwaysMatch"`
}

type newSessionValue struct {
	SessionID string `json:"sessionId"`
}

// NewSession implements Client.
func (c *httpClient) NewSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	so := &sessionOpts{headless: true}
	for _, opt := range opts {
		opt(so)
	}

	match := map[string]any{}
	if so.headless {
		match["moz:firefoxOptions"] = map[string]any{
			"args": []string{"--headless"},
		}
	}

	var val newSessionValue
	err := c.do(ctx, http.MethodPost, "/session", newSessionRequest{
		Capabilities: capabilities{AlwaysMatch: match},
	}, &val)
	if err != nil {
		return nil, err
	}
	if val.SessionID == "" {
		return nil, eris.New("webdriver: remote end returned empty session id")
	}

	return &Session{ID: val.SessionID, client: c}, nil
}

type statusValue struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
}

// Status implements Client.
func (c *httpClient) Status(ctx context.Context) error {
	var val statusValue
	if err := c.do(ctx, http.MethodGet, "/status", nil, &val); err != nil {
		return err
	}
	if !val.Ready {
		return eris.Errorf("webdriver: remote end not ready: %s", val.Message)
	}
	return nil
}

type navigateRequest struct {
	URL string `json:"url"`
}

// Navigate points the session's browsing context at the given URL and blocks
// until the remote end finishes the navigation.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.client.do(ctx, http.MethodPost, "/session/"+s.ID+"/url", navigateRequest{URL: url}, nil)
}

// CurrentURL reads the URL of the session's current browsing context.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.client.do(ctx, http.MethodGet, "/session/"+s.ID+"/url", nil, &url); err != nil {
		return "", err
	}
	return url, nil
}

// Close deletes the session on the remote end.
func (s *Session) Close(ctx context.Context) error {
	return s.client.do(ctx, http.MethodDelete, "/session/"+s.ID, nil, nil)
}
