package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
)

var rootLogger *slog.Logger
var setup sync.Once

// Setup returns the process-wide logger, creating it on first use.
func Setup() *slog.Logger {

	setup.Do(func() {

		var programLevel = new(slog.LevelVar) // Info by default

		if os.Getenv("VOXSEL_DEBUG") != "" {
			programLevel.Set(slog.LevelDebug)
		}

		logOptions := &slog.HandlerOptions{Level: programLevel}

		if len(os.Getenv("INVOCATION_ID")) > 0 {
			// don't add timestamps when running under systemd
			log.Default().SetFlags(0)

			logOptions.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					a.Key = ""
					a.Value = slog.AnyValue(nil)
				}
				return a
			}
		}

		// stdout carries CLI JSON and the MCP stdio stream, so logs go to stderr
		rootLogger = slog.New(slog.NewTextHandler(os.Stderr, logOptions))
		slog.SetDefault(rootLogger)
	})

	return rootLogger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type loggerKey struct{}

// NewContext adds the logger to the context.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext retrieves a logger from the context. If there is none,
// it returns the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return Setup()
}
