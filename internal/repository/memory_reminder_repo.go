package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// MemoryReminderRepository is a hand-written, in-memory implementation of
// ReminderRepository. It stores clones so callers never share state with it.
type MemoryReminderRepository struct {
	mu        sync.RWMutex
	reminders map[string]*domain.Reminder

	// Optional error overrides; set in tests to simulate failure paths.
	CreateErr  error
	GetByIDErr error
	FindDueErr error
}

func NewMemoryReminderRepository() *MemoryReminderRepository {
	return &MemoryReminderRepository{
		reminders: make(map[string]*domain.Reminder),
	}
}

func (m *MemoryReminderRepository) Create(_ context.Context, r *domain.Reminder) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[r.ID] = cloneReminder(r)
	return nil
}

func (m *MemoryReminderRepository) GetByID(_ context.Context, id string) (*domain.Reminder, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneReminder(r), nil
}

func (m *MemoryReminderRepository) List(_ context.Context, ids []string) ([]*domain.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Reminder
	if len(ids) == 0 {
		for _, r := range m.reminders {
			result = append(result, cloneReminder(r))
		}
	} else {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if r, ok := m.reminders[id]; ok && !seen[id] {
				seen[id] = true
				result = append(result, cloneReminder(r))
			}
		}
	}
	sortByFireAt(result)
	return result, nil
}

func (m *MemoryReminderRepository) UpdatePending(_ context.Context, r *domain.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reminders[r.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != domain.ReminderPending {
		return domain.ErrNotEditable
	}
	existing.Title = r.Title
	existing.Message = r.Message
	existing.FireAt = r.FireAt
	existing.Attempts = r.Attempts
	existing.UpdatedAt = r.UpdatedAt
	return nil
}

func (m *MemoryReminderRepository) UpdateStatus(_ context.Context, id string, status domain.ReminderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reminders[id]; ok {
		r.Status = status
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryReminderRepository) MarkFired(_ context.Context, id string, reply domain.Reply, firedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reminders[id]; ok {
		r.Status = domain.ReminderFired
		r.Reply = &reply
		r.FiredAt = &firedAt
		r.ErrorMessage = nil
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryReminderRepository) MarkFailed(_ context.Context, id string, attempts int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reminders[id]; ok {
		r.Status = domain.ReminderFailed
		r.Attempts = attempts
		r.ErrorMessage = &errMsg
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryReminderRepository) ScheduleRetry(_ context.Context, id string, attempts int, fireAt time.Time, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reminders[id]; ok {
		r.Status = domain.ReminderPending
		r.Attempts = attempts
		r.FireAt = fireAt
		r.ErrorMessage = &errMsg
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryReminderRepository) Delete(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.reminders[id]; !ok {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
	}
	for _, id := range ids {
		delete(m.reminders, id)
	}
	return int64(len(ids)), nil
}

func (m *MemoryReminderRepository) FindDue(_ context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	if m.FindDueErr != nil {
		return nil, m.FindDueErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []*domain.Reminder
	for _, r := range m.reminders {
		if r.Status == domain.ReminderPending && !r.FireAt.After(now) {
			due = append(due, cloneReminder(r))
		}
	}
	sortByFireAt(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MemoryReminderRepository) ClaimDue(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok || r.Status != domain.ReminderPending || r.FireAt.After(now) {
		return false, nil
	}
	r.Status = domain.ReminderQueued
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryReminderRepository) ResetInFlight(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reminders {
		if r.Status == domain.ReminderQueued || r.Status == domain.ReminderNotifying {
			r.Status = domain.ReminderPending
			n++
		}
	}
	return n, nil
}

func cloneReminder(r *domain.Reminder) *domain.Reminder {
	clone := *r
	if r.Reply != nil {
		reply := *r.Reply
		clone.Reply = &reply
	}
	return &clone
}

func sortByFireAt(rs []*domain.Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].FireAt.Equal(rs[j].FireAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].FireAt.Before(rs[j].FireAt)
	})
}

var _ ReminderRepository = (*MemoryReminderRepository)(nil)
