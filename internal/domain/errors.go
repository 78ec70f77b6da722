package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDuration = errors.New("duration must not be negative")
	ErrInvalidTitle    = errors.New("title must be at most 256 characters")
	ErrInvalidMessage  = errors.New("message must be at most 1024 characters")
	ErrNoIDs           = errors.New("at least one reminder id is required")
	ErrEmptyEdit       = errors.New("edit must change title, message, or duration")
	ErrNotEditable     = errors.New("reminder can only be edited while pending")
	ErrQueueFull       = errors.New("queue is at capacity, try again later")

	// Notification facility failures. These are returned to the caller of
	// POST /notify instead of an empty reply.
	ErrNotifierUnavailable = errors.New("notification facility is not available")
	ErrNotifierFailed      = errors.New("notification facility failed")
	ErrNotifierTimeout     = errors.New("notification facility did not complete in time")
)
