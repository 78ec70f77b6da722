package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// LogNotifier writes notifications to the log instead of the desktop.
// It is the fallback on headless hosts and always reports a closed popup.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) (*domain.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.Bool("sound", n.Sound),
		zap.Duration("timeout", n.Timeout),
		zap.String("reply_label", n.ReplyLabel),
	)
	return &domain.Reply{Type: domain.ActivationClosed}, nil
}

var _ Notifier = (*LogNotifier)(nil)
