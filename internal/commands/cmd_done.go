package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// DoneCmd registers both "done" and its inverse "undo".
type DoneCmd struct {
	flags *Flags
	app   *App
}

func NewDoneCmd(flags *Flags, app *App) *DoneCmd {
	return &DoneCmd{flags: flags, app: app}
}

func (cmd *DoneCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "done",
			Usage:     "Mark a task completed",
			UsageText: "careconnect done <id>",
			Action:    cmd.done,
		},
		&cli.Command{
			Name:      "undo",
			Usage:     "Move a completed task back to pending",
			UsageText: "careconnect undo <id>",
			Action:    cmd.undo,
		},
	)

	return app
}

func (cmd *DoneCmd) done(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}
	if err := cmd.app.Store.Complete(id, cmd.app.now()); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	log.Info().Int64("task_id", id).Msg("task completed")

	_, _ = fmt.Fprintf(c.Root().Writer, "Completed #%d\n", id)
	return nil
}

func (cmd *DoneCmd) undo(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}
	if err := cmd.app.Store.Reopen(id); err != nil {
		return fmt.Errorf("reopen task: %w", err)
	}
	log.Info().Int64("task_id", id).Msg("task reopened")

	_, _ = fmt.Fprintf(c.Root().Writer, "Reopened #%d\n", id)
	return nil
}
