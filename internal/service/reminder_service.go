package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/repository"
)

// ReminderService owns the reminder business rules: defaults, validation
// and the pending-only edit rule. Delivery is left to the scheduler and
// workers, which pick reminders up once fire_at has passed.
type ReminderService struct {
	repo       repository.ReminderRepository
	maxRetries int
	now        func() time.Time
	logger     *zap.Logger
}

func NewReminderService(
	repo repository.ReminderRepository,
	maxRetries int,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		repo:       repo,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// Create validates and stores a reminder due after req.Duration.
func (s *ReminderService) Create(ctx context.Context, req domain.CreateReminderRequest) (*domain.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	content := domain.NotifyRequest{Title: req.Title, Message: req.Message}.Normalize()
	now := s.now()
	r := &domain.Reminder{
		ID:         uuid.New().String(),
		Title:      content.Title,
		Message:    content.Message,
		Status:     domain.ReminderPending,
		FireAt:     now.Add(time.Duration(req.Duration)),
		MaxRetries: s.maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("persist reminder: %w", err)
	}

	s.logger.Info("reminder created", zap.String("id", r.ID), zap.Time("fire_at", r.FireAt))
	return r, nil
}

// Edit applies a partial update to a pending reminder. A new duration is
// measured from now and resets the delivery attempts.
func (s *ReminderService) Edit(ctx context.Context, id string, req domain.EditReminderRequest) (*domain.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReminderPending {
		return nil, domain.ErrNotEditable
	}

	if req.Title != nil {
		r.Title = *req.Title
	}
	if req.Message != nil {
		r.Message = *req.Message
	}
	content := domain.NotifyRequest{Title: r.Title, Message: r.Message}.Normalize()
	r.Title, r.Message = content.Title, content.Message

	now := s.now()
	if req.Duration != nil {
		r.FireAt = now.Add(time.Duration(*req.Duration))
		r.Attempts = 0
	}
	r.UpdatedAt = now

	// The scheduler may have claimed the reminder since it was read;
	// UpdatePending re-checks the status atomically.
	if err := s.repo.UpdatePending(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Fetch returns the reminders with the given ids, or all reminders when
// ids is empty. Any unknown id fails the whole call with ErrNotFound.
func (s *ReminderService) Fetch(ctx context.Context, ids []string) ([]*domain.Reminder, error) {
	ids = dedupe(ids)
	reminders, err := s.repo.List(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 && len(reminders) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d reminders", domain.ErrNotFound, len(ids)-len(reminders), len(ids))
	}
	if reminders == nil {
		reminders = []*domain.Reminder{}
	}
	return reminders, nil
}

func (s *ReminderService) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes every listed reminder. Nothing is deleted if any id is
// unknown; the repository checks and deletes in one step.
func (s *ReminderService) Delete(ctx context.Context, ids []string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return domain.ErrNoIDs
	}

	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return err
	}
	s.logger.Info("reminders deleted", zap.Int64("count", deleted))
	return nil
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
