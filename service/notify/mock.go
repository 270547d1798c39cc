package notify

import (
	"context"
	"sync"
)

// MockNotifier records published notifications for testing.
type MockNotifier struct {
	mu           sync.RWMutex
	published    []*Notification
	publishError error
	closed       bool
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		published: make([]*Notification, 0),
	}
}

// Publish records the notification and returns any configured error.
func (m *MockNotifier) Publish(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}
	m.published = append(m.published, n)
	return nil
}

// Subscribe returns a channel that never receives.
func (m *MockNotifier) Subscribe() (<-chan *Notification, func()) {
	return make(chan *Notification), func() {}
}

// Close marks the notifier as closed.
func (m *MockNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetPublished returns all published notifications.
func (m *MockNotifier) GetPublished() []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Notification, len(m.published))
	copy(out, m.published)
	return out
}

// Last returns the most recent notification, or nil.
func (m *MockNotifier) Last() *Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.published) == 0 {
		return nil
	}
	return m.published[len(m.published)-1]
}

// SetPublishError configures the mock to fail Publish.
func (m *MockNotifier) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// IsClosed returns whether the notifier has been closed.
func (m *MockNotifier) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
