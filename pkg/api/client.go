// Package api is a client for the remote task API.
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

	"golang.org/x/oauth2"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// ErrNotFound matches a 404 from the API.
var ErrNotFound = errors.New("task not found")

// StatusError is returned when the API answers with a status >= 400.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks JSON to the task API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type options struct {
	httpClient *http.Client
	token      string
	timeout    time.Duration
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the underlying client. Its transport is wrapped, not
// replaced.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithTimeout bounds each request. Zero keeps the transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient creates a client rooted at baseURL, e.g. "http://localhost:4000".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	base := http.DefaultTransport
	if o.httpClient != nil && o.httpClient.Transport != nil {
		base = o.httpClient.Transport
	}
	transport := base
	if o.token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}
	if o.metrics != nil {
		transport = o.metrics.instrument(transport)
	}

	hc := &http.Client{Transport: transport, Timeout: o.timeout}
	if o.httpClient != nil {
		hc.Jar = o.httpClient.Jar
		hc.CheckRedirect = o.httpClient.CheckRedirect
		if o.timeout == 0 {
			hc.Timeout = o.httpClient.Timeout
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: hc,
		logger:     o.logger,
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListActive fetches the tasks that are not deleted.
func (c *Client) ListActive(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListDeleted fetches the soft-deleted tasks.
func (c *Client) ListDeleted(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/deleted", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task)
	return task, err
}

func (c *Client) Create(ctx context.Context, draft model.Draft) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPost, "/tasks", draft, &task)
	return task, err
}

// Patch sends a partial update.
func (c *Client) Patch(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id), patch, &task)
	return task, err
}

// Restore clears the deleted flag.
func (c *Client) Restore(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id)+"/restore", nil, &task)
	return task, err
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
