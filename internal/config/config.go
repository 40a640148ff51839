package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"careconnect/internal/tasks"
)

const (
	AppName               = "careconnect"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "careconnect.db"
	DefaultLogName        = "careconnect.log"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Toggle      string `toml:"toggle"`
	Delete      string `toml:"delete"`
	Detail      string `toml:"detail"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	Edit        string `toml:"edit"`
	Search      string `toml:"search"`
	CycleFilter string `toml:"cycle_filter"`
	ShowAll     string `toml:"show_all"`
	ShowToday   string `toml:"show_today"`
}

type Reminders struct {
	Enabled      bool `toml:"enabled"`
	GraceMinutes int  `toml:"grace_minutes"`
}

type Config struct {
	DBPath        string    `toml:"db_path"`
	DefaultFilter string    `toml:"default_filter"`
	LogLevel      string    `toml:"log_level"`
	LogFile       string    `toml:"log_file"`
	Reminders     Reminders `toml:"reminders"`
	Keys          Keymap    `toml:"keys"`
}

// ResolveConfigPath returns $CARECONNECT_CONFIG when set, otherwise
// config.toml inside the user config directory.
func ResolveConfigPath() string {
	if p := os.Getenv("CARECONNECT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(userDir(os.UserConfigDir), DefaultConfigFileName)
}

// DataDir is where the database and log file live unless configured.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", AppName)
}

func userDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(DataDir(), DefaultDBName)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := tasks.ParseFilterMode(c.DefaultFilter); err != nil {
		errs = append(errs, fmt.Errorf("default_filter: %w", err))
	}
	if c.Reminders.GraceMinutes < 0 {
		errs = append(errs, fmt.Errorf("reminders.grace_minutes must not be negative, got %d", c.Reminders.GraceMinutes))
	}
	for name, v := range c.Keys.bindings() {
		if v == "" {
			errs = append(errs, fmt.Errorf("keys.%s is empty", name))
		}
	}
	return errors.Join(errs...)
}

// FilterMode returns the parsed default filter, falling back to all.
func (c Config) FilterMode() tasks.FilterMode {
	m, err := tasks.ParseFilterMode(c.DefaultFilter)
	if err != nil {
		return tasks.FilterAll
	}
	return m
}

func (k Keymap) bindings() map[string]string {
	return map[string]string{
		"quit":         k.Quit,
		"add":          k.Add,
		"up":           k.Up,
		"down":         k.Down,
		"toggle":       k.Toggle,
		"delete":       k.Delete,
		"detail":       k.Detail,
		"confirm":      k.Confirm,
		"cancel":       k.Cancel,
		"edit":         k.Edit,
		"search":       k.Search,
		"cycle_filter": k.CycleFilter,
		"show_all":     k.ShowAll,
		"show_today":   k.ShowToday,
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		DBPath:        filepath.Join(DataDir(), DefaultDBName),
		DefaultFilter: string(tasks.FilterAll),
		LogLevel:      "info",
		LogFile:       filepath.Join(DataDir(), DefaultLogName),
		Reminders: Reminders{
			Enabled:      true,
			GraceMinutes: 60,
		},
		Keys: Keymap{
			Quit:        "q",
			Add:         "a",
			Up:          "k",
			Down:        "j",
			Toggle:      " ",
			Delete:      "d",
			Detail:      "enter",
			Confirm:     "enter",
			Cancel:      "esc",
			Edit:        "e",
			Search:      "/",
			CycleFilter: "f",
			ShowAll:     "A",
			ShowToday:   "t",
		},
	}
}
