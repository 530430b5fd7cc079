// Package types defines the wire-level shapes shared across packages.
package types

// Message is a single chat message in an OpenAI-compatible request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ChatCompletionRequest is the subset of an OpenAI-compatible chat
// completion request the gateway inspects. The full body is relayed to
// the upstream untouched; this type exists for model extraction and
// prompt token counting only.
type ChatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}
