package cli

import (
	"io"
	"log/slog"
	"os"
)

// logOutput receives structured logs. Terminal output goes through out.
var logOutput io.Writer = os.Stderr

// initLogger builds the run logger from the global flags: -v logs at debug,
// -q at error, otherwise info.
func initLogger(opts *GlobalOptions) *slog.Logger {
	var handler slog.Handler

	var level slog.Level
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	if opts.LogFormat == "json" {
		handler = slog.NewJSONHandler(logOutput, handlerOpts)
	} else {
		handler = slog.NewTextHandler(logOutput, handlerOpts)
	}

	return slog.New(handler).With(slog.String("version", Version))
}
