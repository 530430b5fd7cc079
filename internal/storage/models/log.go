package models

import "time"

// RequestLog records one proxied upstream call.
type RequestLog struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	Provider     string    `json:"provider"`
	Subpath      string    `json:"subpath"`
	Method       string    `json:"method"`
	Model        string    `json:"model,omitempty"`
	PromptTokens int       `json:"prompt_tokens"`
	IsStreaming  bool      `json:"is_streaming"`
	StatusCode   int       `json:"status_code"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogFilter narrows request log queries.
type LogFilter struct {
	Provider string
	Limit    int
}
