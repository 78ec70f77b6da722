package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
	"github.com/notifyhub/desktop-notifier/internal/notifier"
	"github.com/notifyhub/desktop-notifier/internal/ratelimiter"
)

// NotifyHooks carries the metric callbacks injected by main.
// Nil hooks are no-ops.
type NotifyHooks struct {
	OnReply func(activation domain.ActivationType, wait time.Duration)
	OnError func(err error)
}

// NotifyService turns a request into a popup and waits for its completion.
// Both POST /notify and the reminder workers go through it, so defaults,
// descriptor settings and the popup rate limit apply everywhere.
type NotifyService struct {
	notifier notifier.Notifier
	limiter  *ratelimiter.Limiter
	opts     domain.NotificationOptions
	hooks    NotifyHooks
	logger   *zap.Logger
}

func NewNotifyService(
	n notifier.Notifier,
	limiter *ratelimiter.Limiter,
	opts domain.NotificationOptions,
	hooks NotifyHooks,
	logger *zap.Logger,
) *NotifyService {
	if hooks.OnReply == nil {
		hooks.OnReply = func(domain.ActivationType, time.Duration) {}
	}
	if hooks.OnError == nil {
		hooks.OnError = func(error) {}
	}
	return &NotifyService{notifier: n, limiter: limiter, opts: opts, hooks: hooks, logger: logger}
}

// Notify applies the placeholders, builds the fixed descriptor and blocks
// until the notification facility reports the user's interaction.
// Facility errors are returned, never swallowed.
func (s *NotifyService) Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Reply, error) {
	n := domain.NewNotification(req, s.opts)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for popup rate limit: %w", err)
	}

	start := time.Now()
	reply, err := s.notifier.Notify(ctx, n)
	if err != nil {
		s.hooks.OnError(err)
		return nil, err
	}

	wait := time.Since(start)
	s.hooks.OnReply(reply.Type, wait)
	s.logger.Debug("notification answered",
		zap.String("title", n.Title),
		zap.String("activation", string(reply.Type)),
		zap.Duration("wait", wait),
	)
	return reply, nil
}
