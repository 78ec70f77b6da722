package repository

import (
	"context"
	"time"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// ReminderRepository defines all persistence operations for reminders.
// The pgx implementation is in pg_reminder_repo.go; the in-memory one in
// memory_reminder_repo.go backs the server when no DATABASE_URL is set and
// doubles as the unit-test fake.
type ReminderRepository interface {
	Create(ctx context.Context, r *domain.Reminder) error
	GetByID(ctx context.Context, id string) (*domain.Reminder, error)
	// List returns the reminders with the given ids ordered by fire_at.
	// Unknown ids are skipped; no ids means every reminder.
	List(ctx context.Context, ids []string) ([]*domain.Reminder, error)
	// UpdatePending stores title, message, fire_at and attempts of a reminder
	// that is still pending. Returns ErrNotFound or ErrNotEditable otherwise.
	UpdatePending(ctx context.Context, r *domain.Reminder) error
	UpdateStatus(ctx context.Context, id string, status domain.ReminderStatus) error
	MarkFired(ctx context.Context, id string, reply domain.Reply, firedAt time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error
	ScheduleRetry(ctx context.Context, id string, attempts int, fireAt time.Time, errMsg string) error
	// Delete removes every listed reminder, or none of them: an unknown id
	// returns ErrNotFound and leaves the store untouched.
	Delete(ctx context.Context, ids []string) (int64, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error)
	// ClaimDue moves a reminder from pending to queued only if it is still
	// pending and due at now. It reports false when an edit, delete or
	// another claim got there first.
	ClaimDue(ctx context.Context, id string, now time.Time) (bool, error)
	// ResetInFlight returns queued and notifying reminders to pending.
	// The dispatch queue lives in memory, so these are lost on restart.
	ResetInFlight(ctx context.Context) (int64, error)
}
