package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/solace/backend/internal/config"
)

// Setup builds the process logger and installs it as the zerolog global.
// Production emits JSON on stdout, everything else a console writer on stderr.
func Setup(cfg config.LogConfig) zerolog.Logger {
	var out io.Writer
	if cfg.Production() {
		out = os.Stdout
	} else {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := New(out, cfg.Level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// New creates a logger writing to out at the named level (info when unparseable).
func New(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	return zerolog.Ctx(ctx)
}
