package common

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// InitLogger configures the process-wide slog logger. Debug mode lowers the
// level and adds source locations. Logs go to stderr so TUI output on
// stdout stays clean.
func InitLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(handler))
}

// TermWidth returns the terminal width for table layout, falling back to a
// fixed width when not attached to a terminal.
func TermWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if width, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && width > 0 {
		return width
	}
	return 120
}
