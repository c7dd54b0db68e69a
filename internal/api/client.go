// Package api is the typed client for the remote project/task/user API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	// RequestIDHeader carries a per-call id the server can log.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 8 << 20
)

// Observer records call outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveAPI(entity, op, outcome string, elapsed time.Duration)
}

// Client performs authenticated calls against the remote API. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	logger     *slog.Logger

	Projects  *Projects
	Tasks     *Tasks
	Users     *Users
	Auth      *Auth
	Dashboard *Dashboard
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its Timeout bounds every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver records every call.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base URL is required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base URL %q", baseURL)
	}

	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	c.Projects = newProjects(c)
	c.Tasks = newTasks(c)
	c.Users = newUsers(c)
	c.Auth = &Auth{c: c}
	c.Dashboard = &Dashboard{c: c}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one request.
type call struct {
	entity string
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	// unwrap lists object keys that may hold the payload, tried after "data".
	unwrap []string
}

// formBody is a pre-encoded request body such as multipart form data.
type formBody struct {
	contentType string
	data        []byte
}

// do sends the call and decodes the response into out, which may be nil.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	start := time.Now()
	requestID := uuid.NewString()
	status := 0
	defer func() {
		elapsed := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveAPI(cl.entity, cl.op, Outcome(err), elapsed)
		}
		c.logger.Debug("api call",
			"method", cl.method,
			"path", cl.path,
			"status", status,
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
			"outcome", Outcome(err),
		)
	}()

	fail := func(kind error, cause error, message string) error {
		return &Error{
			Kind:      kind,
			Status:    status,
			Message:   message,
			Method:    cl.method,
			Path:      cl.path,
			RequestID: requestID,
			Err:       cause,
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return fail(ErrNetwork, err, "")
	}
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(ErrNetwork, err, "")
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(ErrNetwork, fmt.Errorf("reading response: %w", err), "")
	}

	if kind := KindForStatus(status); kind != nil {
		return fail(kind, nil, serverMessage(body, status))
	}
	if out == nil {
		return nil
	}

	payload, err := unwrapEnvelope(body, cl.unwrap)
	if err != nil {
		return fail(ErrNetwork, err, "")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fail(ErrNetwork, fmt.Errorf("decoding response: %w", err), "")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := cl.body.(type) {
	case nil:
	case *formBody:
		reader = bytes.NewReader(b.data)
		contentType = b.contentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	return req, nil
}

// unwrapEnvelope accepts a bare value or one wrapped under "data", then under
// the first of keys present, and returns the raw JSON of the value.
func unwrapEnvelope(body []byte, keys []string) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, errors.New("response body is not JSON")
	}
	root := gjson.ParseBytes(trimmed)
	if r := root.Get("data"); root.IsObject() && r.Exists() && (r.IsObject() || r.IsArray()) {
		root = r
	}
	if root.IsObject() {
		for _, key := range keys {
			if r := root.Get(key); r.Exists() && r.IsObject() {
				return []byte(r.Raw), nil
			}
		}
	}
	return []byte(root.Raw), nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
