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
	"strings"
	"time"

	"remix-console/internal/logx"
)

// DefaultBaseURL is the local backend address. The service binds all
// interfaces but clients talk to loopback.
const DefaultBaseURL = "http://127.0.0.1:8000"

const (
	defaultRequestTimeout = 30 * time.Second
	maxErrorBody          = 1 << 20
)

var ErrStreamFailed = errors.New("stream reported failure")

// Error carries a decoded backend failure response.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

type Options struct {
	BaseURL string
	// RequestTimeout bounds JSON endpoint calls. Uploads, downloads, and
	// socket streams run on the caller's context instead.
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client talks to the remix backend. The zero Options value targets the
// default local address.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	http           *http.Client
	logger         *slog.Logger
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		requestTimeout: opts.RequestTimeout,
		http:           opts.HTTPClient,
		logger:         opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}
	if c.http == nil {
		// No client-level timeout: long uploads and downloads own their
		// deadlines through context.
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logx.Nop()
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// responseError turns a non-2xx response into an *Error, pulling the
// detail string the backend puts in failure bodies.
func responseError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
			apiErr.Detail = payload.Detail
		} else if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
			apiErr.Detail = truncateDetail(string(trimmed), 200)
		}
	}
	return apiErr
}

func truncateDetail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// IsUnavailable reports whether an error smells like the backend simply
// not being there, so commands can suggest starting it.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	hints := []string{
		"connection refused",
		"no such host",
		"connection reset",
		"network is unreachable",
		"eof",
	}
	for _, hint := range hints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsNotFound matches backend 404 responses.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
