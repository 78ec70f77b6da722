package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

const (
	appName        = "desktop-notifier"
	replyActionKey = "completed"
	soundHint      = "string:sound-name:message-new-instant"
)

// Runner executes a command and returns its standard output.
// The default runner uses os/exec; tests inject a fake.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecOption customises an ExecNotifier.
type ExecOption func(*ExecNotifier)

// WithRunner replaces the os/exec runner. The executable is not looked up
// on PATH when a runner is supplied.
func WithRunner(r Runner) ExecOption {
	return func(e *ExecNotifier) { e.run = r }
}

// ExecNotifier drives a command-line notification tool: terminal-notifier
// on macOS or notify-send on Linux desktops.
type ExecNotifier struct {
	backend Backend
	command string
	grace   time.Duration
	run     Runner
	logger  *zap.Logger
}

type runResult struct {
	out []byte
	err error
}

// NewExecNotifier resolves the backend and checks the executable exists.
// command overrides the executable name; empty means the backend name.
// Returns ErrNotifierUnavailable when the executable is not on PATH.
func NewExecNotifier(
	backend Backend,
	command string,
	grace time.Duration,
	logger *zap.Logger,
	opts ...ExecOption,
) (*ExecNotifier, error) {
	backend = ResolveBackend(backend)
	switch backend {
	case BackendTerminalNotifier, BackendNotifySend:
	default:
		return nil, fmt.Errorf("backend %q is not driven by a command", backend)
	}
	if command == "" {
		command = string(backend)
	}

	e := &ExecNotifier{
		backend: backend,
		command: command,
		grace:   grace,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.run == nil {
		path, err := exec.LookPath(command)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotifierUnavailable, command, err)
		}
		e.command = path
		e.run = runCommand
	}
	return e, nil
}

// ResolveBackend maps "auto" to the native tool of the running OS.
func ResolveBackend(b Backend) Backend {
	if b != "" && b != BackendAuto {
		return b
	}
	if runtime.GOOS == "darwin" {
		return BackendTerminalNotifier
	}
	return BackendNotifySend
}

// Notify shows the popup and waits for its single completion.
// The command is bounded by n.Timeout plus the grace period; hitting that
// bound yields ErrNotifierTimeout. A cancelled ctx returns ctx.Err().
func (e *ExecNotifier) Notify(ctx context.Context, n domain.Notification) (*domain.Reply, error) {
	runCtx, cancel := context.WithTimeout(ctx, n.Timeout+e.grace)
	defer cancel()

	args := e.args(n)
	start := time.Now()

	done := make(chan runResult, 1)
	go func() {
		out, err := e.run(runCtx, e.command, args...)
		done <- runResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if err := contextError(ctx, runCtx); err != nil {
				return e.expired(err)
			}
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotifierFailed, e.backend, res.err)
		}
		reply := e.parse(res.out, time.Since(start), n.Timeout)
		e.logger.Debug("notification completed",
			zap.String("backend", string(e.backend)),
			zap.String("activation", string(reply.Type)),
		)
		return &reply, nil
	case <-runCtx.Done():
		return e.expired(contextError(ctx, runCtx))
	}
}

// expired handles the guard deadline. Some notification daemons (GNOME
// Shell among them) ignore --expire-time, so notify-send --wait only
// returns when the user acts; hitting the guard there is an unanswered
// popup, not a facility fault.
func (e *ExecNotifier) expired(err error) (*domain.Reply, error) {
	if e.backend == BackendNotifySend && errors.Is(err, domain.ErrNotifierTimeout) {
		return &domain.Reply{Type: domain.ActivationTimeout}, nil
	}
	return nil, err
}

// contextError tells the caller giving up apart from the guard deadline.
func contextError(parent, run context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if run.Err() != nil {
		return domain.ErrNotifierTimeout
	}
	return nil
}

func (e *ExecNotifier) args(n domain.Notification) []string {
	if e.backend == BackendTerminalNotifier {
		return terminalNotifierArgs(n)
	}
	return notifySendArgs(n)
}

func (e *ExecNotifier) parse(out []byte, elapsed, timeout time.Duration) domain.Reply {
	if e.backend == BackendTerminalNotifier {
		return parseTerminalNotifier(out)
	}
	return parseNotifySend(out, elapsed, timeout)
}

func terminalNotifierArgs(n domain.Notification) []string {
	secs := int(math.Ceil(n.Timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	args := []string{
		"-title", n.Title,
		"-message", n.Message,
		"-timeout", strconv.Itoa(secs),
		"-json",
	}
	if n.Sound {
		args = append(args, "-sound", "default")
	}
	if n.ReplyLabel != "" {
		args = append(args, "-reply", n.ReplyLabel)
	}
	return args
}

func notifySendArgs(n domain.Notification) []string {
	args := []string{
		"--app-name=" + appName,
		"--expire-time=" + strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		"--wait",
	}
	if n.Sound {
		args = append(args, "--hint="+soundHint)
	}
	if n.ReplyLabel != "" {
		args = append(args, "--action="+replyActionKey+"="+n.ReplyLabel)
	}
	// "--" keeps a title starting with "-" from being read as a flag.
	return append(args, "--", n.Title, n.Message)
}

// parseTerminalNotifier accepts the -json output as well as the plain
// @MARKER output of older terminal-notifier builds. Any other text is the
// user's typed reply.
func parseTerminalNotifier(out []byte) domain.Reply {
	text := strings.TrimSpace(string(out))

	if strings.HasPrefix(text, "{") {
		var payload struct {
			ActivationType  string `json:"activationType"`
			ActivationValue string `json:"activationValue"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err == nil {
			return replyFromActivation(payload.ActivationType, payload.ActivationValue)
		}
	}

	switch text {
	case "", "@CLOSED":
		return domain.Reply{Type: domain.ActivationClosed}
	case "@TIMEOUT":
		return domain.Reply{Type: domain.ActivationTimeout}
	case "@CONTENTCLICKED", "@ACTIONCLICKED":
		return domain.Reply{Type: domain.ActivationClicked}
	}
	return domain.Reply{Type: domain.ActivationReplied, Value: text}
}

func replyFromActivation(kind, value string) domain.Reply {
	switch kind {
	case "replied":
		return domain.Reply{Type: domain.ActivationReplied, Value: value}
	case "contentsClicked", "actionClicked":
		return domain.Reply{Type: domain.ActivationClicked, Value: value}
	case "timeout":
		return domain.Reply{Type: domain.ActivationTimeout}
	default:
		return domain.Reply{Type: domain.ActivationClosed}
	}
}

// parseNotifySend reads the action key notify-send prints when an action
// is invoked. No output means the popup expired or was dismissed.
func parseNotifySend(out []byte, elapsed, timeout time.Duration) domain.Reply {
	key := strings.TrimSpace(string(out))
	if key != "" {
		return domain.Reply{Type: domain.ActivationClicked, Value: key}
	}
	if elapsed >= timeout {
		return domain.Reply{Type: domain.ActivationTimeout}
	}
	return domain.Reply{Type: domain.ActivationClosed}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, err
	}
	return out, nil
}

// compile-time check that ExecNotifier implements Notifier
var _ Notifier = (*ExecNotifier)(nil)
