// Package logutils builds the application's zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a JSON logger for careconnect at the given level. A blank
// level means info. Records are appended to file across runs; with no
// file they are dropped, since the dashboard draws on stdout.
func New(level string, file string) (zerolog.Logger, func(), error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("log level %q: %w", level, err)
		}
	}

	w, closer, err := openSink(file)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closer, nil
}

func openSink(file string) (io.Writer, func(), error) {
	if file == "" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
