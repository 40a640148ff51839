package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"careconnect/internal/tasks"
)

type AddCmd struct {
	flags *Flags
	app   *App

	title       string
	description string
	due         string
}

func NewAddCmd(flags *Flags, app *App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Add a pending task",
		UsageText: `careconnect add --title "Take medication" --due "2026-02-26 09:00" [--description text]`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "task title",
				Required:    true,
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "optional details",
				Destination: &cmd.description,
			},
			&cli.StringFlag{
				Name:        "due",
				Usage:       "due time as YYYY-MM-DD HH:MM (local time) or YYYY-MM-DD",
				Required:    true,
				Destination: &cmd.due,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	now := cmd.app.now()
	due, err := tasks.ParseDue(cmd.due, now.Location())
	if err != nil {
		return fmt.Errorf("invalid --due: %w", err)
	}

	id, err := cmd.app.Store.AddTask(cmd.title, cmd.description, due, now)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	log.Info().Int64("task_id", id).Time("due", due).Msg("task added")

	_, _ = fmt.Fprintf(c.Root().Writer, "Added #%d, due %s\n", id, tasks.FormatDueDate(due, now))
	return nil
}
