package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/notifyhub/desktop-notifier/internal/domain"
)

// NewCommand builds the reminder CLI. Results are written to out.
func NewCommand(out io.Writer) *cli.Command {
	var c *HTTPClient

	return &cli.Command{
		Name:      "reminder",
		Usage:     "Schedule desktop reminders on a running notifier server",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "notifier server URL",
				Sources: cli.EnvVars("REMINDER_BACKEND"),
				Value:   DefaultBackendURI,
			},
			&cli.DurationFlag{
				Name:  "http-timeout",
				Usage: "per-request timeout, 0 waits for as long as the server does",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			c = NewHTTPClient(cmd.String("backend"), cmd.Duration("http-timeout"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Schedule a reminder",
				Flags: append(contentFlags(), &cli.DurationFlag{
					Name:     "duration",
					Aliases:  []string{"d"},
					Usage:    "delay before the reminder fires, e.g. 10m",
					Required: true,
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rem, err := c.Create(ctx, cmd.String("title"), cmd.String("message"), cmd.Duration("duration"))
					if err != nil {
						return fmt.Errorf("could not create reminder: %w", err)
					}
					return printResult(out, "reminder created", rem)
				},
			},
			{
				Name:  "edit",
				Usage: "Change a pending reminder",
				Flags: append(contentFlags(),
					&cli.DurationFlag{
						Name:    "duration",
						Aliases: []string{"d"},
						Usage:   "new delay, measured from now",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "reminder ID",
						Required: true,
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					req := editRequest(cmd)
					if err := req.Validate(); errors.Is(err, domain.ErrEmptyEdit) {
						return errors.New("nothing to edit: pass --title, --message or --duration")
					} else if err != nil {
						return err
					}
					rem, err := c.Edit(ctx, cmd.String("id"), req)
					if err != nil {
						return fmt.Errorf("could not edit reminder: %w", err)
					}
					return printResult(out, "reminder edited", rem)
				},
			},
			{
				Name:  "fetch",
				Usage: "Show reminders, all of them when no --id is given",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "reminder ID (repeatable)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rems, err := c.Fetch(ctx, cmd.StringSlice("id"))
					if err != nil {
						return fmt.Errorf("could not fetch reminders: %w", err)
					}
					return printResult(out, fmt.Sprintf("%d reminder(s)", len(rems)), rems)
				},
			},
			{
				Name:  "delete",
				Usage: "Delete reminders",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "reminder ID (repeatable)", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ids := cmd.StringSlice("id")
					if err := c.Delete(ctx, ids); err != nil {
						return fmt.Errorf("could not delete reminders: %w", err)
					}
					_, err := fmt.Fprintf(out, "deleted %v\n", ids)
					return err
				},
			},
			{
				Name:  "notify",
				Usage: "Show a notification now and print the reply",
				Flags: contentFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reply, err := c.Notify(ctx, cmd.String("title"), cmd.String("message"))
					if err != nil {
						return fmt.Errorf("could not notify: %w", err)
					}
					_, err = fmt.Fprintln(out, reply)
					return err
				},
			},
			{
				Name:  "health",
				Usage: "Check that the server is up",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if !c.Healthy(ctx) {
						return fmt.Errorf("server at %s is not healthy", c.BackendURI)
					}
					_, err := fmt.Fprintf(out, "server at %s is healthy\n", c.BackendURI)
					return err
				},
			},
		},
	}
}

func contentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "notification title"},
		&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "notification message"},
	}
}

// editRequest only carries the flags the user actually passed.
func editRequest(cmd *cli.Command) domain.EditReminderRequest {
	var req domain.EditReminderRequest
	if cmd.IsSet("title") {
		v := cmd.String("title")
		req.Title = &v
	}
	if cmd.IsSet("message") {
		v := cmd.String("message")
		req.Message = &v
	}
	if cmd.IsSet("duration") {
		d := domain.Duration(cmd.Duration("duration"))
		req.Duration = &d
	}
	return req
}

func printResult(out io.Writer, header string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s:\n%s\n", header, b)
	return err
}
