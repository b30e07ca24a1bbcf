package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogging writes logs to stdout and, when path is set, to the file at
// path as well.
func InitLogging(path string) {
	zerolog.TimeFieldFormat = time.RFC3339
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = zerolog.MultiLevelWriter(out, f)
			} else {
				fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", path, err)
			}
		}
	}
	log = zerolog.New(out).With().Timestamp().Logger()
}

// SetLevel parses a level name such as "debug". Unknown names keep the
// current level.
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(lvl)
	}
}

// Logger returns the process logger.
func Logger() *zerolog.Logger {
	return &log
}

// WithContext stores the process logger on ctx so library code can reach it
// through zerolog.Ctx.
func WithContext(ctx context.Context) context.Context {
	return log.WithContext(ctx)
}

func from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &log
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	from(ctx).Info().Msgf(format, args...)
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	from(ctx).Debug().Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	from(ctx).Warn().Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	from(ctx).Error().Msgf(format, args...)
}
