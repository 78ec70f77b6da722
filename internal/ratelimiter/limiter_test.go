package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/notifyhub/desktop-notifier/internal/ratelimiter"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := ratelimiter.New(0)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("wait %d: unexpected error: %v", i, err)
		}
	}
}

func TestLimiter_BurstThenWait(t *testing.T) {
	l := ratelimiter.New(2)
	ctx := context.Background()

	// The burst is granted immediately.
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("wait %d: unexpected error: %v", i, err)
		}
	}

	// The next token is 500ms away, beyond this deadline.
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(short); err == nil {
		t.Fatal("expected error when the deadline is shorter than the refill")
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := ratelimiter.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
