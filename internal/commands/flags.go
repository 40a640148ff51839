package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"careconnect/internal/config"
	"careconnect/internal/remind"
	"careconnect/internal/storage"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
}

// App carries what the Before hook opens. Commands hold a pointer to it
// before it is populated.
type App struct {
	Config   config.Config
	Store    *storage.Store
	Notifier remind.Notifier
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func taskIDArg(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one task id, got %d arguments", c.Args().Len())
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", c.Args().First())
	}
	return id, nil
}
