package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"careconnect/internal/remind"
	"careconnect/internal/ui"
)

type TuiCmd struct {
	flags *Flags
	app   *App
}

func NewTuiCmd(flags *Flags, app *App) *TuiCmd {
	return &TuiCmd{flags: flags, app: app}
}

// Run opens the dashboard. It is the root command's default action.
func (cmd *TuiCmd) Run(ctx context.Context, _ *cli.Command) error {
	var notifier remind.Notifier
	if cmd.app.Config.Reminders.Enabled {
		notifier = cmd.app.Notifier
	}
	return ui.Run(cmd.app.Store, cmd.app.Config, ui.Options{
		Now:      cmd.app.Now,
		Notifier: notifier,
		Logger:   log.With().Str("component", "ui").Logger(),
	})
}
