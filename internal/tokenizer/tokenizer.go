// Package tokenizer provides prompt token counting for proxied
// OpenAI-compatible chat requests, used by request logging.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mandalnilabja/chatgate/internal/types"
)

// Encoding names used by tiktoken.
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo
	EncodingO200kBase  = "o200k_base"  // GPT-4o, o1 models
)

// Per-message token overheads, per OpenAI's documentation.
const (
	messageOverhead    = 3 // <|start|>role<|end|>
	replyPrimingTokens = 3
	nameOverhead       = 1
)

// modelEncoding pairs a model prefix with its encoding.
type modelEncoding struct {
	prefix   string
	encoding string
}

// modelEncodings lists model prefixes and their encodings.
// Ordered so longer prefixes match before their shorter variants.
var modelEncodings = []modelEncoding{
	{"gpt-4o", EncodingO200kBase}, // Must come before "gpt-4"
	{"gpt-3.5", EncodingCL100kBase},
	{"gpt-4", EncodingCL100kBase},
	{"chatgpt", EncodingO200kBase},
	{"o1", EncodingO200kBase},
	{"o3", EncodingO200kBase},
}

// Tokenizer counts tokens for chat completion requests.
type Tokenizer interface {
	// CountTokens counts tokens in a text string for a given model.
	CountTokens(text string, model string) (int, error)

	// CountRequest counts total prompt tokens for a full request.
	CountRequest(req *types.ChatCompletionRequest) (int, error)
}

// TiktokenTokenizer implements Tokenizer using tiktoken-go.
type TiktokenTokenizer struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

// New creates a new TiktokenTokenizer.
func New() *TiktokenTokenizer {
	return &TiktokenTokenizer{
		encodings: make(map[string]*tiktoken.Tiktoken),
	}
}

// CountTokens counts tokens in a text string for a given model.
func (t *TiktokenTokenizer) CountTokens(text string, model string) (int, error) {
	enc, err := t.getEncoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountRequest counts total prompt tokens for a full request.
func (t *TiktokenTokenizer) CountRequest(req *types.ChatCompletionRequest) (int, error) {
	total := replyPrimingTokens

	for _, msg := range req.Messages {
		roleTokens, err := t.CountTokens(msg.Role, req.Model)
		if err != nil {
			return 0, err
		}
		contentTokens, err := t.CountTokens(msg.Content, req.Model)
		if err != nil {
			return 0, err
		}
		total += roleTokens + contentTokens + messageOverhead
		if msg.Name != "" {
			nameTokens, err := t.CountTokens(msg.Name, req.Model)
			if err != nil {
				return 0, err
			}
			total += nameTokens + nameOverhead
		}
	}

	return total, nil
}

// getEncoding returns the tiktoken encoding for a model, with caching.
func (t *TiktokenTokenizer) getEncoding(model string) (*tiktoken.Tiktoken, error) {
	encodingName := resolveEncoding(model)

	t.mu.RLock()
	enc, ok := t.encodings[encodingName]
	t.mu.RUnlock()
	if ok {
		return enc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if enc, ok = t.encodings[encodingName]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	t.encodings[encodingName] = enc
	return enc, nil
}

// resolveEncoding determines the encoding name for a model.
func resolveEncoding(model string) string {
	modelLower := strings.ToLower(model)

	for _, me := range modelEncodings {
		if strings.HasPrefix(modelLower, me.prefix) {
			return me.encoding
		}
	}

	// Default to cl100k_base for unknown models
	return EncodingCL100kBase
}
