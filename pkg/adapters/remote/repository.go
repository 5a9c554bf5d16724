// Package remote implements core.Repository against a trilium server over
// HTTP.
package remote

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
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"

	"github.com/dominic-sylvester/trilium/pkg/core"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "trilium-go"

	loadPath  = "/api/tree/load"
	notesPath = "/api/notes/"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Config holds the remote repository settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client // overrides Timeout when set
	Logger     *slog.Logger
}

// Repository fetches rows and note bodies from a server.
type Repository struct {
	base       *url.URL
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	requests atomic.Int64
	failures atomic.Int64
}

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// NewRepository validates the base URL and builds a client.
func NewRepository(config Config) (*Repository, error) {
	if config.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", base.Scheme)
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		base:       base,
		config:     config,
		httpClient: client,
		logger:     logger.With("component", "remote"),
	}, nil
}

// HTTPClient returns the client used for requests.
func (r *Repository) HTTPClient() *http.Client { return r.httpClient }

// Initialize is a no-op; the server is contacted lazily.
func (r *Repository) Initialize(ctx context.Context) error { return nil }

// Load posts the request to the tree/load endpoint.
func (r *Repository) Load(ctx context.Context, req core.LoadRequest) (core.Rows, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return core.Rows{}, fmt.Errorf("failed to encode load request: %w", err)
	}

	var rows core.Rows
	if err := r.do(ctx, http.MethodPost, loadPath, body, &rows); err != nil {
		return core.Rows{}, err
	}
	return rows, nil
}

// Content fetches a note body. A 404 maps to core.ErrNotFound.
func (r *Repository) Content(ctx context.Context, noteID string) (string, error) {
	if noteID == "" {
		return "", core.ErrEmptyID
	}

	var out struct {
		Content string `json:"content"`
	}
	if err := r.do(ctx, http.MethodGet, notesPath+url.PathEscape(noteID), nil, &out); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
		}
		return "", err
	}
	return out.Content, nil
}

func (r *Repository) do(ctx context.Context, method, path string, body []byte, result any) error {
	target := r.base.String() + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.requests.Add(1)
	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.failures.Add(1)
		r.logger.Error("request failed", "method", method, "url", target, "error", err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	r.logger.Debug("request done",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.failures.Add(1)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		r.failures.Add(1)
		return fmt.Errorf("failed to decode response from %s: %w", target, err)
	}
	return nil
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	UserAgent string        `json:"user_agent"`
	Requests  int64         `json:"requests"`
	Failures  int64         `json:"failures"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return RepositoryState{
		BaseURL:   r.base.String(),
		Timeout:   r.config.Timeout,
		UserAgent: r.config.UserAgent,
		Requests:  r.requests.Load(),
		Failures:  r.failures.Load(),
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string { return "remote" }

var _ core.Repository = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
