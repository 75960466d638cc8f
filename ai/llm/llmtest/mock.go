package llmtest

import (
	"context"
	"strings"

	"github.com/adsight/adsight/ai/llm"
)

// MockLLM is a configurable mock LLM service for tests.
// Responses are keyed on a substring of the system prompt or the last user
// message, so a single mock can drive every stage of a multi-call pipeline.
type MockLLM struct {
	responses       []presetResponse
	callStats       *llm.CallStats
	defaultResponse string
	failWith        error
	calls           int
}

type presetResponse struct {
	contains string
	output   string
}

// NewMockLLM creates a new MockLLM instance.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		callStats: &llm.CallStats{
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
		},
		defaultResponse: "Mock response",
	}
}

// WithResponse adds a preset response returned when the system prompt or the
// last user message contains the given substring. Presets match in
// registration order.
func (m *MockLLM) WithResponse(contains, output string) *MockLLM {
	m.responses = append(m.responses, presetResponse{contains: contains, output: output})
	return m
}

// WithDefaultResponse sets the default response when no preset matches.
func (m *MockLLM) WithDefaultResponse(output string) *MockLLM {
	m.defaultResponse = output
	return m
}

// WithError makes every call fail with err. Used to exercise fallback paths.
func (m *MockLLM) WithError(err error) *MockLLM {
	m.failWith = err
	return m
}

// Calls returns the number of Chat invocations observed.
func (m *MockLLM) Calls() int {
	return m.calls
}

// Chat implements the llm.Service interface.
func (m *MockLLM) Chat(ctx context.Context, msgs []llm.Message) (string, *llm.CallStats, error) {
	return m.ChatWithOptions(ctx, msgs, llm.CallOptions{})
}

// ChatWithOptions implements the llm.Service interface.
func (m *MockLLM) ChatWithOptions(ctx context.Context, msgs []llm.Message, _ llm.CallOptions) (string, *llm.CallStats, error) {
	m.calls++

	if m.failWith != nil {
		return "", nil, m.failWith
	}

	// Match against the system prompt plus the last user message
	key := ""
	for _, msg := range msgs {
		if msg.Role == "system" {
			key = msg.Content
			break
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			key += "\n" + msgs[i].Content
			break
		}
	}

	for _, preset := range m.responses {
		if preset.contains != "" && strings.Contains(key, preset.contains) {
			return preset.output, m.callStats, nil
		}
	}

	return m.defaultResponse, m.callStats, nil
}

// Warmup implements the llm.Service interface (no-op).
func (m *MockLLM) Warmup(ctx context.Context) {
}

// Ensure MockLLM implements llm.Service interface.
var _ llm.Service = (*MockLLM)(nil)
