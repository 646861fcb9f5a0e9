package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/editsync/editsync/internal/session"
	"github.com/editsync/editsync/pkg/logger"
	"github.com/editsync/editsync/pkg/metrics"
)

// Error codes on a 401 response that force a global session invalidation.
var invalidationCodes = map[string]bool{
	"TOKEN_EXPIRED":  true,
	"INVALID_TOKEN":  true,
	"USER_NOT_FOUND": true,
}

const fallbackErrorMessage = "an error occurred"

// Client is the thin HTTP wrapper in front of the EditSync backend. It adds
// the bearer token from the session store to every request and translates
// HTTP failures into the typed errors of this package.
type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Store
	limiter *rate.Limiter
}

// Options tunes a Client beyond the required base URL and session store.
type Options struct {
	Timeout time.Duration
	// RateLimitRPS of zero disables client-side throttling.
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewClient(baseURL string, sess *session.Store, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		sess:    sess,
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return c
}

type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// do runs one JSON request/response round trip. out may be nil for calls
// whose body is ignored (204s and fire-and-forget posts).
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Status: 0, Message: "encode request: " + err.Error(), cause: err}
		}
		reader = bytes.NewReader(data)
	}
	return c.doRaw(ctx, op, method, path, reader, "application/json", out)
}

// doRaw is the shared transport path; import uploads call it directly with a
// multipart body.
func (c *Client) doRaw(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RemoteError{Status: 0, Message: "request throttled: " + err.Error(), cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RemoteError{Status: 0, Message: err.Error(), cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.sess.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues(op, "network_error").Inc()
		return &RemoteError{Status: 0, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.APIRequests.WithLabelValues(op, "ok").Inc()
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RemoteError{Status: resp.StatusCode, Message: "decode response: " + err.Error(), cause: err}
		}
		return nil
	}

	return c.decodeError(op, resp)
}

// decodeError converts a non-2xx response into the typed taxonomy, applying
// the global 401 invalidation rule.
func (c *Client) decodeError(op string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &eb)
	if eb.Message == "" {
		eb.Message = fallbackErrorMessage
	}

	if resp.StatusCode == http.StatusUnauthorized && invalidationCodes[eb.Code] {
		logger.Debugf("api %s: 401 %s, invalidating session", op, eb.Code)
		metrics.APIRequests.WithLabelValues(op, "session_invalid").Inc()
		c.sess.Invalidate(eb.Code, eb.Message)
		return &SessionInvalidError{Code: eb.Code, Message: eb.Message}
	}

	metrics.APIRequests.WithLabelValues(op, "remote_error").Inc()
	return &RemoteError{Status: resp.StatusCode, Code: eb.Code, Message: eb.Message, Data: eb.Data}
}
