package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength   = 256
	maxMessageLength = 1024
)

// ReminderStatus tracks the lifecycle of a reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderQueued    ReminderStatus = "queued"
	ReminderNotifying ReminderStatus = "notifying"
	ReminderFired     ReminderStatus = "fired"
	ReminderFailed    ReminderStatus = "failed"
)

// Reminder is a notification scheduled to pop up once FireAt has passed.
type Reminder struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Status       ReminderStatus `json:"status"`
	FireAt       time.Time      `json:"fire_at"`
	Attempts     int            `json:"attempts"`
	MaxRetries   int            `json:"max_retries"`
	Reply        *Reply         `json:"reply,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	FiredAt      *time.Time     `json:"fired_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Duration is a time.Duration that reads either a Go duration string
// ("1h30m") or an integer number of seconds from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

const maxDurationSeconds = float64(math.MaxInt64 / int64(time.Second))

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		// Beyond this the conversion to nanoseconds overflows int64.
		if math.Abs(val) > maxDurationSeconds {
			return fmt.Errorf("%w: %v seconds is out of range", ErrInvalidDuration, val)
		}
		*d = Duration(val * float64(time.Second))
	default:
		return fmt.Errorf("duration must be a string or a number of seconds")
	}
	return nil
}

// CreateReminderRequest is the inbound payload for POST /api/v1/reminders.
type CreateReminderRequest struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Duration Duration `json:"duration"`
}

func (r *CreateReminderRequest) Validate() error {
	if r.Duration < 0 {
		return ErrInvalidDuration
	}
	return validateContent(r.Title, r.Message)
}

// EditReminderRequest carries a partial update; nil fields are left alone.
type EditReminderRequest struct {
	Title    *string   `json:"title,omitempty"`
	Message  *string   `json:"message,omitempty"`
	Duration *Duration `json:"duration,omitempty"`
}

func (r *EditReminderRequest) Validate() error {
	if r.Title == nil && r.Message == nil && r.Duration == nil {
		return ErrEmptyEdit
	}
	if r.Duration != nil && *r.Duration < 0 {
		return ErrInvalidDuration
	}
	var title, message string
	if r.Title != nil {
		title = *r.Title
	}
	if r.Message != nil {
		message = *r.Message
	}
	return validateContent(title, message)
}

func validateContent(title, message string) error {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ErrInvalidTitle
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return ErrInvalidMessage
	}
	return nil
}
