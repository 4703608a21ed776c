package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests. It is safe for concurrent use.
//
// When Respond is set it answers every call. Otherwise Responses and Errors
// are consumed in call order; once exhausted a default response is returned.
type MockProvider struct {
	ProviderName string
	Tools        bool

	Respond   func(req Request, withTools bool) (*Response, error)
	Responses []*Response
	Errors    []error

	calls []Request
	index int
	mu    sync.Mutex
}

// NewMockProvider creates a mock that supports tools
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{ProviderName: name, Tools: true}
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// SupportsTools returns m.Tools
func (m *MockProvider) SupportsTools() bool {
	return m.Tools
}

// GenerateText implements Provider
func (m *MockProvider) GenerateText(ctx context.Context, req Request) (*Response, error) {
	return m.next(req, false)
}

// GenerateWithTools implements Provider
func (m *MockProvider) GenerateWithTools(ctx context.Context, req Request) (*Response, error) {
	return m.next(req, true)
}

func (m *MockProvider) next(req Request, withTools bool) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	respond := m.Respond
	if respond != nil {
		m.mu.Unlock()
		return respond(req, withTools)
	}
	defer m.mu.Unlock()

	i := m.index
	m.index++
	if i < len(m.Errors) && m.Errors[i] != nil {
		return nil, m.Errors[i]
	}
	if i < len(m.Responses) && m.Responses[i] != nil {
		return m.Responses[i], nil
	}
	return &Response{Content: "Mock response"}, nil
}

// Calls returns a copy of every request received
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// CallCount returns the number of requests received
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt returns the content of the final message of a request
func LastPrompt(req Request) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
