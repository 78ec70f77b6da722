package domain

import "time"

// Placeholders used when a request leaves title or message empty.
const (
	DefaultTitle   = "Unknown title"
	DefaultMessage = "Unknown message"
)

// NotifyRequest is the inbound payload of POST /notify.
// Both fields are optional.
type NotifyRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Normalize returns a copy with empty fields replaced by the placeholders.
func (r NotifyRequest) Normalize() NotifyRequest {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Message == "" {
		r.Message = DefaultMessage
	}
	return r
}

// NotificationOptions are the fixed descriptor settings applied to every
// popup. They come from configuration, not from the request.
type NotificationOptions struct {
	Sound      bool
	Timeout    time.Duration
	ReplyLabel string
}

// DefaultNotificationOptions: sound on, 15 second timeout, "Completed?" prompt.
func DefaultNotificationOptions() NotificationOptions {
	return NotificationOptions{
		Sound:      true,
		Timeout:    15 * time.Second,
		ReplyLabel: "Completed?",
	}
}

// Notification is the descriptor handed to the OS notification facility.
type Notification struct {
	Title      string
	Message    string
	Sound      bool
	Timeout    time.Duration
	ReplyLabel string
}

// NewNotification builds the descriptor for a normalized request.
func NewNotification(req NotifyRequest, opts NotificationOptions) Notification {
	req = req.Normalize()
	return Notification{
		Title:      req.Title,
		Message:    req.Message,
		Sound:      opts.Sound,
		Timeout:    opts.Timeout,
		ReplyLabel: opts.ReplyLabel,
	}
}

// ActivationType describes how the user (or the facility) ended a popup.
type ActivationType string

const (
	ActivationReplied ActivationType = "replied"
	ActivationClicked ActivationType = "clicked"
	ActivationClosed  ActivationType = "closed"
	ActivationTimeout ActivationType = "timeout"
)

// Reply is the completion reported by the notification facility.
type Reply struct {
	Type  ActivationType `json:"type"`
	Value string         `json:"value,omitempty"`
}

// Text is the value written back to the HTTP caller: the typed reply or
// action key when there is one, otherwise the activation type.
func (r Reply) Text() string {
	if r.Value != "" {
		return r.Value
	}
	return string(r.Type)
}
