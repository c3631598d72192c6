// Package llm adapts the inference backend behind a small interface: the
// controller only ever needs generate-with-messages, a system+user helper
// with optional conversation memory, a reset, and a blocking load.
package llm

import "context"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the inference backend contract.
type Client interface {
	// Generate produces a completion for the given messages, bounded by
	// maxNewTokens. Stateless with respect to conversation memory.
	Generate(ctx context.Context, messages []Message, maxNewTokens int) (string, error)

	// RunWithPrompt runs a system+user exchange. With persistent=true the
	// exchange and the reply are appended to conversation memory.
	RunWithPrompt(ctx context.Context, system, user string, maxNewTokens int, persistent bool) (string, error)

	// Reset clears conversation memory.
	Reset()

	// Load blocks until the backend is ready to serve.
	Load(ctx context.Context) error
}

const defaultSystemPrompt = "You are a helpful assistant."

func baseHistory() []Message {
	return []Message{{Role: "system", Content: defaultSystemPrompt}}
}
