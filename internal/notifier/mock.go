package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// MockNotifier is a hand-written Notifier used in unit tests.
// It records every descriptor it receives and answers with Reply or Err.
type MockNotifier struct {
	mu    sync.Mutex
	calls []domain.Notification

	Reply domain.Reply
	Err   error
	// Delay holds each call open, honouring ctx, before answering.
	Delay time.Duration
}

func NewMockNotifier(reply domain.Reply) *MockNotifier {
	return &MockNotifier{Reply: reply}
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) (*domain.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, n)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	reply := m.Reply
	return &reply, nil
}

// Calls returns a copy of the descriptors received so far.
func (m *MockNotifier) Calls() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Notifier = (*MockNotifier)(nil)
