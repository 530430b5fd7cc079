package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mandalnilabja/chatgate/internal/provider"
	"github.com/mandalnilabja/chatgate/internal/types"
)

// maxErrorBodySize bounds how much of an upstream error body is read
// when flattening it into a message.
const maxErrorBodySize = 64 * 1024

// relayBufferSize is the chunk size for the streaming relay.
const relayBufferSize = 32 * 1024

// Forwarder issues upstream calls and relays responses. One attempt
// per inbound request; retry policy belongs to the caller.
type Forwarder struct {
	client *http.Client
	logger *slog.Logger
}

// NewForwarder creates a Forwarder with a streaming-safe HTTP client.
func NewForwarder(logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		// DisableCompression is required for correct streaming: if the
		// transport asked for gzip and we copied compressed bytes to a
		// client expecting text/event-stream, the stream would break.
		// No client timeout; generation responses can run for minutes
		// and cancellation comes from the request context.
		client: &http.Client{
			Transport: &http.Transport{
				DisableCompression: true,
			},
		},
		logger: logger,
	}
}

// Forward builds the upstream request for target+subpath, issues it,
// and relays the response to w. The inbound method and body are
// mirrored verbatim; headers are transformed by the target. ctx should
// be the inbound request context so a client disconnect cancels the
// upstream call instead of draining it.
func (f *Forwarder) Forward(ctx context.Context, w http.ResponseWriter, r *http.Request, target *provider.Target, subpath string, body io.Reader) *Result {
	start := time.Now()

	if body == nil {
		body = r.Body
	}

	upstreamURL := target.UpstreamURL(subpath, r.URL.Query())
	upstreamReq, err := http.NewRequestWithContext(ctx, r.Method, upstreamURL, body)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to build upstream request"))
		return &Result{
			StatusCode: http.StatusInternalServerError,
			Kind:       FailureInternal,
			Message:    err.Error(),
			Duration:   time.Since(start),
		}
	}

	target.ApplyHeaders(upstreamReq.Header, r.Header)

	resp, err := f.client.Do(upstreamReq)
	if err != nil {
		f.logger.Warn("upstream call failed", "provider", target.ID, "error", err)
		types.WriteError(w, http.StatusBadGateway, types.ErrUpstream("upstream provider unreachable"))
		return &Result{
			StatusCode: http.StatusBadGateway,
			Kind:       FailureUpstreamError,
			Message:    err.Error(),
			Duration:   time.Since(start),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return f.relayError(w, resp, target, start)
	}

	return f.relayResponse(w, resp, start)
}

// relayError flattens an upstream error body into the gateway's own
// envelope. The upstream payload is never re-serialized verbatim.
func (f *Forwarder) relayError(w http.ResponseWriter, resp *http.Response, target *provider.Target, start time.Time) *Result {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	message := flattenUpstreamError(raw, resp.StatusCode)

	f.logger.Warn("upstream error",
		"provider", target.ID,
		"status", resp.StatusCode,
		"message", message,
	)

	status := resp.StatusCode
	if !safelyMappable(status) {
		status = http.StatusBadGateway
	}
	types.WriteError(w, status, types.ErrUpstream(message))

	return &Result{
		StatusCode: status,
		Kind:       FailureUpstreamError,
		Message:    message,
		Duration:   time.Since(start),
	}
}

// relayResponse streams the upstream body to the caller, flushing each
// chunk as it arrives. The full body is never buffered.
func (f *Forwarder) relayResponse(w http.ResponseWriter, resp *http.Response, start time.Time) *Result {
	for k, vs := range resp.Header {
		if k == "Content-Length" || k == "Connection" || k == "Transfer-Encoding" {
			continue
		}
		w.Header()[k] = vs
	}
	w.WriteHeader(resp.StatusCode)

	result := &Result{
		StatusCode:  resp.StatusCode,
		IsStreaming: strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream"),
	}

	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, relayBufferSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			written, wErr := w.Write(buf[:n])
			result.BytesWritten += int64(written)
			if wErr != nil {
				// Caller went away; the deferred body close aborts the
				// upstream connection via the request context.
				result.Kind = FailureClientDisconnected
				result.Message = "client disconnected"
				break
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// Connection dropped mid-stream. Partial bytes already
			// sent to the caller are not retracted.
			result.Kind = FailureUpstreamInterrupted
			result.Message = err.Error()
			f.logger.Warn("upstream stream interrupted",
				"bytes_written", result.BytesWritten, "error", err)
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}

// safelyMappable reports whether an upstream status code can be passed
// through to the caller unchanged.
func safelyMappable(status int) bool {
	return status >= 400 && status < 600
}

// flattenUpstreamError reduces an upstream error payload to a single
// message string. Tries the common `{"error":{"message":...}}` and
// `{"message":...}` shapes before falling back to a generic message.
func flattenUpstreamError(raw []byte, status int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("upstream returned status %d", status)
}
