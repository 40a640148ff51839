package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"careconnect/internal/tasks"
)

type ListCmd struct {
	flags *Flags
	app   *App

	// flags
	filter     string
	search     string
	jsonOutput bool
}

func NewListCmd(flags *Flags, app *App) *ListCmd {
	return &ListCmd{flags: flags, app: app}
}

func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List tasks, pending first",
		UsageText: "careconnect list [--filter all|today|search] [--search text] [--json]",
		Description: `Prints the same view as the dashboard: tasks sorted by due time,
pending before completed.

--filter today shows only pending tasks due today. --search matches the
title or description, ignoring case, and implies --filter search; it is
rejected alongside any other --filter.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "all, today or search (defaults to the configured filter)",
				Destination: &cmd.filter,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "text to match against title and description",
				Destination: &cmd.search,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type taskLine struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Due         string       `json:"due"`
	DueLabel    string       `json:"due_label"`
	Status      tasks.Status `json:"status"`
}

func (cmd *ListCmd) mode() (tasks.FilterMode, error) {
	if cmd.filter == "" {
		if cmd.search != "" {
			return tasks.FilterSearch, nil
		}
		return cmd.app.Config.FilterMode(), nil
	}
	mode, err := tasks.ParseFilterMode(cmd.filter)
	if err != nil {
		return "", err
	}
	if cmd.search != "" && mode != tasks.FilterSearch {
		return "", fmt.Errorf("--search cannot be combined with --filter %s", mode)
	}
	return mode, nil
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	mode, err := cmd.mode()
	if err != nil {
		return err
	}

	all, err := cmd.app.Store.FetchTasks()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	ref := cmd.app.now()
	view := tasks.Derive(all, mode, cmd.search, ref)
	rows := append(append([]tasks.Task{}, view.Pending...), view.Completed...)

	out := c.Root().Writer

	if cmd.jsonOutput {
		enc := json.NewEncoder(out)
		for _, t := range rows {
			line := taskLine{
				ID:          t.ID,
				Title:       t.Title,
				Description: t.Description,
				Due:         t.Due.Format(time.RFC3339),
				DueLabel:    tasks.FormatDueDate(t.Due, ref),
				Status:      t.Status,
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tDUE\tTITLE")
	for _, t := range rows {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Status, tasks.FormatDueDate(t.Due, ref), t.Title)
	}
	return w.Flush()
}
