package cli

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting that filters messages
// below level. It doubles as the slog handler for library packages. An
// unknown level falls back to info.
func newLogger(w io.Writer, level string) *charmlog.Logger {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		lvl = charmlog.InfoLevel
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           lvl,
	})
}
