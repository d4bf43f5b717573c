package llm

import (
	"context"
	"sync"
)

// MockReply is a canned backend reply for tests.
type MockReply struct {
	Text string
	Err  error
}

// MockBackend is a deterministic Backend for testing. It returns canned
// replies in FIFO order and records every request it receives.
type MockBackend struct {
	mu      sync.Mutex
	name    string
	replies []MockReply
	Calls   []Request
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates a MockBackend with the given canned replies.
func NewMockBackend(name string, replies ...MockReply) *MockBackend {
	return &MockBackend{name: name, replies: replies}
}

// Name returns the configured backend name.
func (m *MockBackend) Name() string { return m.name }

// Complete returns the next canned reply, or ErrBackendUnavailable when
// the queue is empty.
func (m *MockBackend) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.replies) == 0 {
		return "", &ErrBackendUnavailable{Backend: m.name, Reason: "no canned replies"}
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]

	if reply.Err != nil {
		return "", reply.Err
	}
	return reply.Text, nil
}

// AddReply appends a canned reply to the queue.
func (m *MockBackend) AddReply(reply MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply)
}

// CallCount returns the number of Complete calls made.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
