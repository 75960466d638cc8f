package executor

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

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

// Call is one prepared upstream invocation.
type Call struct {
	Params    map[string]string // path + query parameters
	Body      map[string]any    // JSON body for POST operations
	AuthToken string
}

// Invoker performs a single upstream operation and reports its result. The
// executor depends on this interface so tests swap in a local fake and the
// in-process dispatcher can stand in for HTTP.
type Invoker interface {
	Invoke(ctx context.Context, op registry.Operation, call Call) state.OperationResult
}

// Client is the HTTP invoker for the upstream data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClient creates an upstream client. timeout covers one attempt.
func NewClient(baseURL string, timeout time.Duration, retry RetryPolicy) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// BuildURL substitutes {param} placeholders in the operation's path.
// An unresolved placeholder means the operation was selected with missing
// parameters; the call must not go out.
func BuildURL(baseURL string, op registry.Operation, params map[string]string) (string, error) {
	path := op.Path
	for _, name := range op.PathParams() {
		value, ok := params[name]
		if !ok || value == "" {
			return "", errors.Errorf("operation %s: unresolved path parameter {%s}", op.Name, name)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return strings.TrimRight(baseURL, "/") + path, nil
}

// Invoke runs the operation with bounded retry. 4xx responses and transport
// surprises are permanent; only 5xx and timeouts retry.
func (c *Client) Invoke(ctx context.Context, op registry.Operation, call Call) state.OperationResult {
	started := time.Now()
	result := state.OperationResult{
		Operation: op.Name,
		Path:      op.Path,
		Method:    op.Method,
		Params:    call.Params,
		Timestamp: started,
	}

	fullURL, err := BuildURL(c.baseURL, op, call.Params)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	attempts := 0
	operation := func() error {
		attempts++
		status, data, err := c.doRequest(ctx, op, fullURL, call)
		if err != nil {
			if status >= 400 && status < 500 {
				// Client errors won't heal on retry.
				result.StatusCode = status
				return backoff.Permanent(err)
			}
			if status == 0 && !isRetryableTransport(err) {
				return backoff.Permanent(err)
			}
			result.StatusCode = status
			slog.Warn("executor: attempt failed",
				"operation", op.Name, "attempt", attempts, "status", status, "error", err)
			return err
		}
		result.StatusCode = status
		result.Data = data
		return nil
	}

	err = backoff.Retry(operation, backoff.WithContext(c.retry.backOff(), ctx))
	result.Attempts = attempts
	result.ResponseTime = time.Since(started).Seconds()

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

func (c *Client) doRequest(ctx context.Context, op registry.Operation, fullURL string, call Call) (int, json.RawMessage, error) {
	var body io.Reader
	if op.Method == http.MethodPost {
		payload := map[string]any{}
		for _, name := range op.BodyParams {
			if v, ok := call.Body[name]; ok && v != nil {
				payload[name] = v
			}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errors.Wrap(err, "marshal request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, fullURL, body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}

	query := req.URL.Query()
	pathParams := make(map[string]bool)
	for _, p := range op.PathParams() {
		pathParams[p] = true
	}
	for _, name := range op.QueryParams() {
		if v, ok := call.Params[name]; ok && v != "" && !pathParams[name] {
			query.Set(name, v)
		}
	}
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+call.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // cleanup

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response body")
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, errors.Errorf("upstream returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	return resp.StatusCode, data, nil
}

// isRetryableTransport treats timeouts and temporary network errors as
// retryable; anything else at the transport layer stops the attempt loop.
func isRetryableTransport(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Invoker = (*Client)(nil)

// String renders a call target for logs.
func callTarget(op registry.Operation) string {
	return fmt.Sprintf("%s %s", op.Method, op.Path)
}
