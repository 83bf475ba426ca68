package app

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/vk/sscpack/internal/config"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. With
// config.FormatAuto the handler is text when outW is a terminal and JSON
// otherwise, so piped output stays machine-readable.
func newLogger(level slog.Level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == config.FormatAuto {
		format = config.FormatJSON
		if f, ok := outW.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = config.FormatText
		}
	}

	var handler slog.Handler
	if format == config.FormatJSON {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
