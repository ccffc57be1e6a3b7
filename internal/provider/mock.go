package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider implements Provider for testing without real API calls.
// Responses are scripted per matcher: the first rule whose match string
// is contained in the request's system prompt (or, failing that, its
// user prompt) answers the call. A rule with several responses replays
// them in order and then repeats the last one, which makes bounded
// retry loops easy to script.
type MockProvider struct {
	mu    sync.Mutex
	rules []*mockRule
	calls []Request
}

type mockRule struct {
	match     string
	responses []string
	err       error
	hits      int
}

// NewMockProvider creates an empty mock provider. An unmatched request
// returns an error, which exercises the agents' fallback paths.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Stub registers scripted responses for requests matching the given
// substring. Later calls replay responses in order; the last response
// repeats once the script is exhausted.
func (m *MockProvider) Stub(match string, responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &mockRule{match: match, responses: responses})
	return m
}

// StubError registers a persistent error for matching requests.
func (m *MockProvider) StubError(match string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, &mockRule{match: match, err: err})
	return m
}

// Complete implements Provider.Complete.
func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	for _, rule := range m.rules {
		if !strings.Contains(req.SystemPrompt, rule.match) && !strings.Contains(req.UserPrompt, rule.match) {
			continue
		}
		rule.hits++
		if rule.err != nil {
			return nil, rule.err
		}
		if len(rule.responses) == 0 {
			return &Response{}, nil
		}
		idx := rule.hits - 1
		if idx >= len(rule.responses) {
			idx = len(rule.responses) - 1
		}
		return &Response{Content: rule.responses[idx]}, nil
	}

	return nil, fmt.Errorf("mock provider: no stub matches request (system prompt starts %q)", head(req.SystemPrompt))
}

// Hits returns how many calls matched the given substring rule.
func (m *MockProvider) Hits(match string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rule := range m.rules {
		if rule.match == match {
			return rule.hits
		}
	}
	return 0
}

// Calls returns a copy of all requests seen, in order.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Name implements Provider.Name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Model implements Provider.Model.
func (m *MockProvider) Model() string {
	return "mock"
}

func head(s string) string {
	if len(s) > 40 {
		return s[:40]
	}
	return s
}
