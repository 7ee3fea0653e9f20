// Package upstream talks to the services the gateway fronts: the
// WorkWechat identity provider, the user-directory service and the Dify
// chat backend. Client covers request/response calls; Relay covers the
// long-lived streaming call.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorPreview bounds, in characters, how much of an upstream error
// message is ever surfaced to a client.
const maxErrorPreview = 100

// Result is the tagged outcome of one upstream call. Exactly one of the
// following holds: Err is set (transport failure, nothing was received),
// or Success is true (2xx, Data is the body), or Success is false with a
// StatusCode (upstream rejected the call, Data is the error body).
type Result struct {
	Success    bool
	StatusCode int
	Data       json.RawMessage
	Err        error
}

// Decode unmarshals the response body into v.
func (r Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("upstream: empty response body")
	}
	return json.Unmarshal(r.Data, v)
}

// ErrorMessage extracts a short, client-safe reason from an error body:
// the body's "message" field when present, otherwise the raw body,
// truncated in either case.
func (r Result) ErrorMessage() string {
	var body struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(r.Data, &body); err == nil && body.Message != "" {
		msg = body.Message
	} else {
		msg = strings.TrimSpace(string(r.Data))
	}
	if msg == "" {
		msg = "错误"
	}
	// Truncate in runes, not bytes; error messages are often Chinese.
	if runes := []rune(msg); len(runes) > maxErrorPreview {
		msg = string(runes[:maxErrorPreview])
	}
	return msg
}

// Client is a JSON request/response client bound to one upstream base URL.
// Construct once at startup and share; it is read-only afterwards.
type Client struct {
	baseURL        string
	defaultHeaders map[string]string
	httpClient     *http.Client
}

// NewClient builds a client for baseURL. defaultHeaders (may be nil) are
// applied to every request; timeout bounds each whole call.
func NewClient(baseURL string, timeout time.Duration, defaultHeaders map[string]string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultHeaders: defaultHeaders,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Get performs a GET with optional query params and per-call headers.
func (c *Client) Get(ctx context.Context, path string, params url.Values, headers map[string]string) Result {
	return c.do(ctx, http.MethodGet, path, params, nil, headers)
}

// PostJSON performs a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body any, headers map[string]string) Result {
	return c.do(ctx, http.MethodPost, path, nil, body, headers)
}

// DeleteJSON performs a DELETE with a JSON body.
func (c *Client) DeleteJSON(ctx context.Context, path string, body any, headers map[string]string) Result {
	return c.do(ctx, http.MethodDelete, path, nil, body, headers)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, headers map[string]string) Result {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Result{Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Result{Err: err}
	}
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Err: err}
	}

	return Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Data:       data,
	}
}
