package queue

import (
	"context"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// Queue hands due reminders from the scheduler to the delivery workers.
// It is a buffered channel: Enqueue never blocks and Dequeue waits for an
// item or for shutdown.
type Queue struct {
	items chan Item
}

func New(capacity int) *Queue {
	return &Queue{items: make(chan Item, capacity)}
}

// Enqueue places an item on the queue.
// It is non-blocking: if the buffer is full, ErrQueueFull is returned
// immediately so the scheduler can leave the reminder pending.
func (q *Queue) Enqueue(item Item) error {
	select {
	case q.items <- item:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until an item is available or ctx is cancelled.
// Returns (Item{}, false) when ctx is cancelled (graceful shutdown signal).
func (q *Queue) Dequeue(ctx context.Context) (Item, bool) {
	select {
	case item := <-q.items:
		return item, true
	case <-ctx.Done():
		return Item{}, false
	}
}

// Depth returns the number of items waiting.
func (q *Queue) Depth() int {
	return len(q.items)
}

// Capacity returns the size of the buffer.
func (q *Queue) Capacity() int {
	return cap(q.items)
}
