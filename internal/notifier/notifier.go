package notifier

import (
	"context"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// Notifier abstracts the OS notification facility.
// Notify blocks until the popup completes (reply, click, close or timeout)
// or ctx is done. Mocking this interface in tests gives full control over
// the facility without opening real popups.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) (*domain.Reply, error)
}

// Backend names the facility implementation selected by NOTIFIER_BACKEND.
type Backend string

const (
	BackendAuto             Backend = "auto"
	BackendTerminalNotifier Backend = "terminal-notifier"
	BackendNotifySend       Backend = "notify-send"
	BackendLog              Backend = "log"
)
