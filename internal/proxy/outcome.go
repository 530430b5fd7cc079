// Package proxy forwards validated requests to a resolved upstream
// target and relays the response, streaming chunks as they arrive.
package proxy

import "time"

// FailureKind classifies a failed or degraded forwarding attempt.
type FailureKind string

const (
	// FailureNone means the upstream response was relayed cleanly.
	FailureNone FailureKind = ""

	// FailureUpstreamError means the upstream answered with a non-2xx
	// status; its body was flattened into the error envelope.
	FailureUpstreamError FailureKind = "upstream_error"

	// FailureUpstreamInterrupted means the upstream connection dropped
	// mid-stream. Bytes already relayed to the caller stand.
	FailureUpstreamInterrupted FailureKind = "upstream_interrupted"

	// FailureClientDisconnected means the caller stopped reading before
	// the upstream response was fully relayed.
	FailureClientDisconnected FailureKind = "client_disconnected"

	// FailureInternal means the gateway itself failed before the
	// upstream call completed.
	FailureInternal FailureKind = "internal"
)

// Result summarizes one forwarding attempt. A response has always been
// written to the caller by the time a Result is returned.
type Result struct {
	// StatusCode is the status written to the caller.
	StatusCode int

	// Kind is FailureNone on clean relays.
	Kind FailureKind

	// Message is the flattened failure description, for logs. Never
	// contains raw upstream payloads or secrets.
	Message string

	// BytesWritten counts response body bytes relayed to the caller.
	BytesWritten int64

	// IsStreaming reports whether the upstream response was an event
	// stream.
	IsStreaming bool

	// Duration covers the upstream call and relay.
	Duration time.Duration
}
