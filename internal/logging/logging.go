// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tint-backed logger. Development builds log at debug level
// with colours; everything else logs at info without colours so container
// log collectors get plain text.
func New(w io.Writer, dev bool) *slog.Logger {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC1123Z,
		NoColor:    !dev,
	}))
}

// Setup installs New(os.Stderr, dev) as the default logger.
func Setup(dev bool) *slog.Logger {
	l := New(os.Stderr, dev)
	slog.SetDefault(l)
	return l
}
