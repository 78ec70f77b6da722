package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

const reminderColumns = `id, title, message, status, fire_at, attempts, max_retries,
	       reply_type, reply_value, error_message, fired_at, created_at, updated_at`

type pgReminderRepository struct {
	pool *pgxpool.Pool
}

// NewPgReminderRepository returns a ReminderRepository backed by PostgreSQL.
func NewPgReminderRepository(pool *pgxpool.Pool) ReminderRepository {
	return &pgReminderRepository{pool: pool}
}

func (r *pgReminderRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminders
			(id, title, message, status, fire_at, attempts, max_retries, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rem.ID, rem.Title, rem.Message, rem.Status, rem.FireAt,
		rem.Attempts, rem.MaxRetries, rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *pgReminderRepository) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)

	rem, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

func (r *pgReminderRepository) List(ctx context.Context, ids []string) ([]*domain.Reminder, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(ids) == 0 {
		rows, err = r.pool.Query(ctx, `
			SELECT `+reminderColumns+`
			FROM reminders ORDER BY fire_at ASC, created_at ASC`)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+reminderColumns+`
			FROM reminders WHERE id = ANY($1) ORDER BY fire_at ASC, created_at ASC`, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *pgReminderRepository) UpdatePending(ctx context.Context, rem *domain.Reminder) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET title = $1, message = $2, fire_at = $3, attempts = $4, updated_at = $5
		WHERE id = $6 AND status = 'pending'`,
		rem.Title, rem.Message, rem.FireAt, rem.Attempts, rem.UpdatedAt, rem.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or it left the pending state.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reminders WHERE id = $1)`, rem.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check reminder: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrNotEditable
}

func (r *pgReminderRepository) UpdateStatus(ctx context.Context, id string, status domain.ReminderStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reminders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

func (r *pgReminderRepository) MarkFired(ctx context.Context, id string, reply domain.Reply, firedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET status = 'fired', reply_type = $1, reply_value = $2, fired_at = $3,
		    error_message = NULL, updated_at = NOW()
		WHERE id = $4`, reply.Type, reply.Value, firedAt, id)
	return err
}

func (r *pgReminderRepository) MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET status = 'failed', attempts = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3`, attempts, errMsg, id)
	return err
}

func (r *pgReminderRepository) ScheduleRetry(ctx context.Context, id string, attempts int, fireAt time.Time, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET status = 'pending', attempts = $1, fire_at = $2, error_message = $3, updated_at = NOW()
		WHERE id = $4`, attempts, fireAt, errMsg, id)
	return err
}

// Delete runs in a transaction so a partial match deletes nothing.
// ids must not contain duplicates.
func (r *pgReminderRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `DELETE FROM reminders WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete reminders: %w", err)
	}
	if missing := int64(len(ids)) - tag.RowsAffected(); missing > 0 {
		return 0, fmt.Errorf("%w: %d of %d reminders", domain.ErrNotFound, missing, len(ids))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE status = 'pending'
		  AND fire_at <= $1
		ORDER BY fire_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *pgReminderRepository) ClaimDue(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET status = 'queued', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND fire_at <= $2`, id, now)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgReminderRepository) ResetInFlight(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET status = 'pending', updated_at = NOW()
		WHERE status IN ('queued', 'notifying')`)
	if err != nil {
		return 0, fmt.Errorf("reset in-flight reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---- helpers ----

// scanReminder reads a single reminder row from any pgx row type.
func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var (
		rem        domain.Reminder
		replyType  *string
		replyValue *string
	)
	err := row.Scan(
		&rem.ID, &rem.Title, &rem.Message, &rem.Status, &rem.FireAt,
		&rem.Attempts, &rem.MaxRetries,
		&replyType, &replyValue, &rem.ErrorMessage, &rem.FiredAt,
		&rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if replyType != nil {
		rem.Reply = &domain.Reply{Type: domain.ActivationType(*replyType)}
		if replyValue != nil {
			rem.Reply.Value = *replyValue
		}
	}
	return &rem, nil
}

func scanReminders(rows pgx.Rows) ([]*domain.Reminder, error) {
	var result []*domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rem)
	}
	return result, rows.Err()
}
