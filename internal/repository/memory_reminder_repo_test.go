package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/repository"
)

func reminder(id string, status domain.ReminderStatus, fireAt time.Time) *domain.Reminder {
	return &domain.Reminder{
		ID:        id,
		Title:     "t-" + id,
		Message:   "m-" + id,
		Status:    status,
		FireAt:    fireAt,
		CreatedAt: fireAt,
		UpdatedAt: fireAt,
	}
}

func TestMemoryRepository_FindDue(t *testing.T) {
	repo := repository.NewMemoryReminderRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Create(ctx, reminder("late", domain.ReminderPending, now.Add(-time.Minute)))
	_ = repo.Create(ctx, reminder("now", domain.ReminderPending, now))
	_ = repo.Create(ctx, reminder("future", domain.ReminderPending, now.Add(time.Hour)))
	_ = repo.Create(ctx, reminder("fired", domain.ReminderFired, now.Add(-time.Hour)))

	due, err := repo.FindDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 2 || due[0].ID != "late" || due[1].ID != "now" {
		t.Fatalf("unexpected due reminders: %+v", due)
	}

	limited, _ := repo.FindDue(ctx, now, 1)
	if len(limited) != 1 || limited[0].ID != "late" {
		t.Fatalf("limit not applied: %+v", limited)
	}
}

func TestMemoryRepository_UpdatePending(t *testing.T) {
	repo := repository.NewMemoryReminderRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Create(ctx, reminder("p", domain.ReminderPending, now))
	_ = repo.Create(ctx, reminder("q", domain.ReminderQueued, now))

	edit := reminder("p", domain.ReminderPending, now.Add(time.Hour))
	edit.Title = "edited"
	if err := repo.UpdatePending(ctx, edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := repo.GetByID(ctx, "p")
	if got.Title != "edited" || !got.FireAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("update not stored: %+v", got)
	}

	if err := repo.UpdatePending(ctx, reminder("q", domain.ReminderPending, now)); err != domain.ErrNotEditable {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
	if err := repo.UpdatePending(ctx, reminder("missing", domain.ReminderPending, now)); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_ReturnsClones(t *testing.T) {
	repo := repository.NewMemoryReminderRepository()
	ctx := context.Background()

	r := reminder("a", domain.ReminderPending, time.Now())
	_ = repo.Create(ctx, r)
	r.Title = "mutated after create"

	got, _ := repo.GetByID(ctx, "a")
	if got.Title != "t-a" {
		t.Fatalf("repository shares state with caller: %q", got.Title)
	}
}

func TestMemoryRepository_ResetInFlightAndDelete(t *testing.T) {
	repo := repository.NewMemoryReminderRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Create(ctx, reminder("q", domain.ReminderQueued, now))
	_ = repo.Create(ctx, reminder("n", domain.ReminderNotifying, now))
	_ = repo.Create(ctx, reminder("f", domain.ReminderFired, now))

	reset, _ := repo.ResetInFlight(ctx)
	if reset != 2 {
		t.Fatalf("expected 2 reset, got %d", reset)
	}
	got, _ := repo.GetByID(ctx, "n")
	if got.Status != domain.ReminderPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	if _, err := repo.Delete(ctx, []string{"q", "f", "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if all, _ := repo.List(ctx, nil); len(all) != 3 {
		t.Fatalf("unknown id must leave the store untouched, got %d reminders", len(all))
	}

	deleted, err := repo.Delete(ctx, []string{"q", "f"})
	if err != nil || deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d (%v)", deleted, err)
	}
	all, _ := repo.List(ctx, nil)
	if len(all) != 1 || all[0].ID != "n" {
		t.Fatalf("unexpected remaining reminders: %+v", all)
	}
}

func TestMemoryRepository_ClaimDue(t *testing.T) {
	repo := repository.NewMemoryReminderRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Create(ctx, reminder("due", domain.ReminderPending, now.Add(-time.Second)))
	_ = repo.Create(ctx, reminder("future", domain.ReminderPending, now.Add(time.Hour)))
	_ = repo.Create(ctx, reminder("queued", domain.ReminderQueued, now.Add(-time.Second)))

	tests := []struct {
		id   string
		want bool
	}{
		{"due", true},
		{"due", false}, // already claimed
		{"future", false},
		{"queued", false},
		{"missing", false},
	}
	for _, tc := range tests {
		got, err := repo.ClaimDue(ctx, tc.id, now)
		if err != nil {
			t.Fatalf("ClaimDue(%s): unexpected error: %v", tc.id, err)
		}
		if got != tc.want {
			t.Fatalf("ClaimDue(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}

	r, _ := repo.GetByID(ctx, "due")
	if r.Status != domain.ReminderQueued {
		t.Fatalf("expected queued after claim, got %s", r.Status)
	}
}
