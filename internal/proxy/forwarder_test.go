package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mandalnilabja/chatgate/internal/config"
	"github.com/mandalnilabja/chatgate/internal/provider"
)

// flushRecorder records write segments between flushes so tests can
// assert incremental delivery.
type flushRecorder struct {
	*httptest.ResponseRecorder
	chunks  []string
	pending bytes.Buffer
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.pending.Write(p)
	return f.ResponseRecorder.Write(p)
}

func (f *flushRecorder) Flush() {
	if f.pending.Len() > 0 {
		f.chunks = append(f.chunks, f.pending.String())
		f.pending.Reset()
	}
	f.ResponseRecorder.Flush()
}

func testTarget(t *testing.T, baseURL string) *provider.Target {
	t.Helper()

	reg, err := provider.NewRegistry([]config.ProviderConfig{
		{ID: "test", BaseURL: baseURL, APIKey: "sk-upstream"},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	target, err := reg.Resolve("test")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return target
}

func TestForwardEchoRoundTrip(t *testing.T) {
	payload := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", bytes.NewReader(payload))

	if result.Kind != FailureNone {
		t.Fatalf("expected clean relay, got kind %q (%s)", result.Kind, result.Message)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), payload) {
		t.Errorf("body not relayed byte-for-byte:\nwant %q\ngot  %q", payload, w.Body.Bytes())
	}
	if result.BytesWritten != int64(len(payload)) {
		t.Errorf("expected %d bytes written, got %d", len(payload), result.BytesWritten)
	}
}

func TestForwardInjectsUpstreamAuth(t *testing.T) {
	var gotAuth, gotUserInfo string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserInfo = r.Header.Get("X-User-Info")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("GET", "/providers/test/v1/models", nil)
	req.Header.Set("X-User-Info", `{"userId":1,"sessionToken":"abc"}`)
	w := httptest.NewRecorder()

	f.Forward(req.Context(), w, req, target, "v1/models", nil)

	if gotAuth != "Bearer sk-upstream" {
		t.Errorf("expected upstream auth injected, got %q", gotAuth)
	}
	if gotUserInfo != "" {
		t.Error("session header leaked upstream")
	}
}

func TestForwardStreamsChunks(t *testing.T) {
	events := []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
		"data: [DONE]\n\n",
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, ev := range events {
			_, _ = io.WriteString(w, ev)
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", nil)
	w := newFlushRecorder()

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", strings.NewReader("{}"))

	if result.Kind != FailureNone {
		t.Fatalf("expected clean relay, got kind %q (%s)", result.Kind, result.Message)
	}
	if !result.IsStreaming {
		t.Error("expected streaming response to be detected")
	}
	if got, want := w.Body.String(), strings.Join(events, ""); got != want {
		t.Errorf("stream not relayed byte-for-byte:\nwant %q\ngot  %q", want, got)
	}
	// Each upstream flush should surface as its own outbound chunk,
	// proving the body was not buffered to completion.
	if len(w.chunks) < 2 {
		t.Errorf("expected incremental chunks, got %d flush segments", len(w.chunks))
	}
}

func TestForwardFlattensUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota","internal_trace":"stack..."}}`)
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", nil)
	w := httptest.NewRecorder()

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", strings.NewReader("{}"))

	if result.Kind != FailureUpstreamError {
		t.Fatalf("expected upstream error, got kind %q", result.Kind)
	}
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected upstream status passed through, got %d", w.Code)
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not the gateway envelope: %v", err)
	}
	if envelope.Error.Message != "quota exceeded" {
		t.Errorf("expected flattened message, got %q", envelope.Error.Message)
	}
	if strings.Contains(w.Body.String(), "internal_trace") {
		t.Error("upstream payload re-serialized verbatim")
	}
}

func TestForwardUpstreamUnreachable(t *testing.T) {
	// Close the server first so the dial is refused
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, url)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", nil)
	w := httptest.NewRecorder()

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", strings.NewReader("{}"))

	if result.Kind != FailureUpstreamError {
		t.Fatalf("expected upstream error, got kind %q", result.Kind)
	}
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "127.0.0.1") {
		t.Error("upstream address leaked to the caller")
	}
}

func TestForwardUpstreamInterrupted(t *testing.T) {
	partial := "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, partial)
		w.(http.Flusher).Flush()
		// Drop the connection mid-stream
		panic(http.ErrAbortHandler)
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", nil)
	w := newFlushRecorder()

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", strings.NewReader("{}"))

	if result.Kind != FailureUpstreamInterrupted {
		t.Fatalf("expected interrupted stream, got kind %q (%s)", result.Kind, result.Message)
	}
	// Partial bytes already delivered are not retracted
	if got := w.Body.String(); got != partial {
		t.Errorf("expected partial bytes delivered:\nwant %q\ngot  %q", partial, got)
	}
	if result.BytesWritten != int64(len(partial)) {
		t.Errorf("expected %d bytes written, got %d", len(partial), result.BytesWritten)
	}
}

// brokenWriter rejects body writes the way a closed client connection
// does.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (b *brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func TestForwardClientDisconnected(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[]}\n\n")
	}))
	defer upstream.Close()

	f := NewForwarder(nil)
	target := testTarget(t, upstream.URL)

	req := httptest.NewRequest("POST", "/providers/test/v1/chat/completions", nil)
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder()}

	result := f.Forward(req.Context(), w, req, target, "v1/chat/completions", strings.NewReader("{}"))

	if result.Kind != FailureClientDisconnected {
		t.Fatalf("expected client disconnect kind, got %q (%s)", result.Kind, result.Message)
	}
	if result.BytesWritten != 0 {
		t.Errorf("expected 0 bytes written through a broken pipe, got %d", result.BytesWritten)
	}
}

func TestFlattenUpstreamError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"openai envelope", `{"error":{"message":"bad key"}}`, "bad key"},
		{"flat message", `{"message":"not found"}`, "not found"},
		{"non-json body", `<html>gateway timeout</html>`, "upstream returned status 502"},
		{"empty body", ``, "upstream returned status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenUpstreamError([]byte(tt.raw), 502); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
