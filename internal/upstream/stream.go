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

	"github.com/rs/zerolog/log"
)

const (
	// frameBuffer is the relay channel depth. Small on purpose: the
	// producer must feel backpressure from a slow client instead of
	// buffering the answer.
	frameBuffer = 8
	// readBufferSize is the per-read chunk size.
	readBufferSize = 4096
	// maxErrorBody bounds how much of a non-200 upstream body is read.
	maxErrorBody = 8 << 10
)

// Call describes a single proxied streaming request. Immutable once built.
type Call struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Relay proxies one upstream streaming call at a time, forwarding body
// chunks in receipt order. Every failure mode degrades to exactly one
// terminal SSE-style error frame; a raw error never crosses the relay
// boundary.
type Relay struct {
	baseURL        string
	defaultHeaders map[string]string
	httpClient     *http.Client
}

// NewRelay builds a relay for baseURL. headerTimeout bounds connection
// establishment (dial and TLS handshake included) and response headers;
// the body read is unbounded because chat streams are long-lived.
func NewRelay(baseURL string, headerTimeout time.Duration, defaultHeaders map[string]string) *Relay {
	// Clone keeps the default proxy and dial behavior.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = headerTimeout
	transport.ResponseHeaderTimeout = headerTimeout
	return &Relay{
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultHeaders: defaultHeaders,
		httpClient:     &http.Client{Transport: transport},
	}
}

// errorFrame formats msg as the SSE error event clients already parse.
func errorFrame(msg string) []byte {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return []byte(fmt.Sprintf("data: %s\n\n", payload))
}

// Open starts the upstream call and returns the frame sequence. The
// channel is closed when the stream ends, for any reason. Cancelling ctx
// stops the upstream read and releases the connection; no frames follow.
func (r *Relay) Open(ctx context.Context, call Call) <-chan []byte {
	frames := make(chan []byte, frameBuffer)
	go r.run(ctx, call, frames)
	return frames
}

func (r *Relay) run(ctx context.Context, call Call, frames chan<- []byte) {
	defer close(frames)

	emit := func(frame []byte) bool {
		select {
		case frames <- frame:
			return true
		case <-ctx.Done():
			return false
		}
	}

	resp, err := r.connect(ctx, call)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("path", call.Path).Msg("upstream connect failed")
		emit(errorFrame(fmt.Sprintf("Connection failed: %v", err)))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().Int("status", resp.StatusCode).Str("path", call.Path).
			Bytes("body", body).Msg("upstream returned non-200 for stream")
		emit(errorFrame(fmt.Sprintf("Backend error: %s", body)))
		return
	}

	buf := make([]byte, readBufferSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			if !emit(frame) {
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			// Client cancellation is cooperative termination, not an error.
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("path", call.Path).Msg("upstream stream interrupted")
			emit(errorFrame(fmt.Sprintf("Stream error: %v", err)))
			return
		}
	}
}

func (r *Relay) connect(ctx context.Context, call Call) (*http.Response, error) {
	target := r.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var reader io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode stream request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range r.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}
	if call.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return r.httpClient.Do(req)
}
