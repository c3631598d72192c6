package llm

import (
	"context"
	"sync"
)

// MockClient implements Client for testing. Responses are scripted in order;
// when the script runs out, Fallback (default "") is returned. Every call is
// recorded so tests can assert on prompts.
type MockClient struct {
	Fallback string

	mu        sync.Mutex
	script    []string
	calls     []MockCall
	resets    int
	persisted []Message
}

// MockCall records one Generate or RunWithPrompt invocation.
type MockCall struct {
	System       string
	User         string
	Messages     []Message
	MaxNewTokens int
	Persistent   bool
}

func NewMockClient(script ...string) *MockClient {
	return &MockClient{script: script}
}

// Enqueue appends responses to the script.
func (m *MockClient) Enqueue(responses ...string) {
	m.mu.Lock()
	m.script = append(m.script, responses...)
	m.mu.Unlock()
}

func (m *MockClient) next() string {
	if len(m.script) == 0 {
		return m.Fallback
	}
	out := m.script[0]
	m.script = m.script[1:]
	return out
}

func (m *MockClient) Generate(_ context.Context, messages []Message, maxNewTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Messages: messages, MaxNewTokens: maxNewTokens})
	return m.next(), nil
}

func (m *MockClient) RunWithPrompt(_ context.Context, system, user string, maxNewTokens int, persistent bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		System:       system,
		User:         user,
		MaxNewTokens: maxNewTokens,
		Persistent:   persistent,
	})
	out := m.next()
	if persistent {
		m.persisted = append(m.persisted,
			Message{Role: "system", Content: system},
			Message{Role: "user", Content: user},
			Message{Role: "assistant", Content: out},
		)
	}
	return out, nil
}

func (m *MockClient) Reset() {
	m.mu.Lock()
	m.resets++
	m.persisted = nil
	m.mu.Unlock()
}

func (m *MockClient) Load(context.Context) error { return nil }

// Calls returns a copy of the recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Resets reports how many times Reset was called.
func (m *MockClient) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}
