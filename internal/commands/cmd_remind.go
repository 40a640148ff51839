package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"careconnect/internal/remind"
)

type RemindCmd struct {
	flags *Flags
	app   *App

	grace time.Duration
}

func NewRemindCmd(flags *Flags, app *App) *RemindCmd {
	return &RemindCmd{flags: flags, app: app}
}

func (cmd *RemindCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "remind",
		Usage:     "Send notifications for tasks that just came due",
		UsageText: "careconnect remind [--grace 1h]",
		Description: `Checks once for pending tasks whose due time has passed within the
grace window and sends a desktop notification for each. Meant to be run
from cron or a systemd timer. Handled reminders are recorded in the
database, so a task is reminded once across runs and the dashboard.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "grace",
				Usage:       "how far past due a task may be and still be reminded (defaults to config)",
				Destination: &cmd.grace,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RemindCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	if !cmd.app.Config.Reminders.Enabled {
		_, _ = fmt.Fprintln(out, "Reminders are disabled in config")
		return nil
	}

	grace := cmd.grace
	if grace == 0 {
		grace = time.Duration(cmd.app.Config.Reminders.GraceMinutes) * time.Minute
	}

	all, err := cmd.app.Store.FetchTasks()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	now := cmd.app.now()
	due, err := remind.NewScanner(grace).Check(cmd.app.Store, now, all)
	if err != nil {
		return fmt.Errorf("check reminders: %w", err)
	}
	if len(due) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing due")
		return nil
	}

	for _, t := range due {
		_, _ = fmt.Fprintln(out, remind.Message(t, now))
	}
	if cmd.app.Notifier == nil {
		return nil
	}
	log.Info().Int("count", len(due)).Msg("sending reminders")

	if err := remind.Send(cmd.app.Notifier, "CareConnect reminder", due, now); err != nil {
		return fmt.Errorf("send reminders: %w", err)
	}
	return nil
}
