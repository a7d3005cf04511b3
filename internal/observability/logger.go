package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// NewLogger creates a diagnostic logger writing to w at the named level.
// Human-readable console output is used when human is true, JSON lines
// otherwise. An unknown level falls back to warn.
func NewLogger(w io.Writer, level string, human bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	if human {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// NewStderrLogger creates a logger on stderr, using console output when
// stderr is a terminal.
func NewStderrLogger(level string) zerolog.Logger {
	return NewLogger(os.Stderr, level, term.IsTerminal(int(os.Stderr.Fd())))
}
