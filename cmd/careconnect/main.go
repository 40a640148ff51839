package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"careconnect/internal/commands"
	"careconnect/internal/config"
	"careconnect/internal/logutils"
	"careconnect/internal/remind"
	"careconnect/internal/storage"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}
	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		store     *storage.Store
		app       = &commands.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      config.AppName,
		Usage:     "Track care tasks and see what is due today",
		UsageText: "careconnect [global options] [command [command options]]",
		Description: `CareConnect keeps a list of care tasks (medication, appointments,
refills) with due times, and shows what is pending and what is due today.

Run 'careconnect' with no arguments to open the dashboard.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides log_level in config",
				Sources:     cli.EnvVars("CARECONNECT_LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file; overrides log_file in config",
				Sources:     cli.EnvVars("CARECONNECT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CARECONNECT_CONFIG"),
				Value:       config.ResolveConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.LoadOrCreate(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			level, logFile := cfg.LogLevel, cfg.LogFile
			if flags.LogLevel != "" {
				level = flags.LogLevel
			}
			if flags.LogFile != "" {
				logFile = flags.LogFile
			}

			logger, closer, err := logutils.New(level, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			store, err = storage.Open(cfg.DBPath)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			log.Debug().Str("config", flags.ConfigPath).Str("db", cfg.DBPath).Msg("started")

			// Commands already hold a pointer to app.
			*app = commands.App{
				Config:   cfg,
				Store:    store,
				Notifier: remind.DesktopNotifier{},
				Now:      time.Now,
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if store != nil {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, app)

	root = commands.NewListCmd(flags, app).Register(root)
	root = commands.NewAddCmd(flags, app).Register(root)
	root = commands.NewDoneCmd(flags, app).Register(root)
	root = commands.NewRemindCmd(flags, app).Register(root)

	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'careconnect --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
