package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/config"
)

// New builds the process logger from cfg. Dev mode forces console output at
// debug level or lower and turns sampling off.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return newWithWriter(os.Stdout, cfg, dev)
}

func newWithWriter(out io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if dev && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if dev || strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(out).With().Timestamp().Str("service", "claude-daily")
	if dev {
		ctx = ctx.Caller()
	}
	base := ctx.Logger()

	if cfg.Sampling && !dev {
		// warnings and errors are never sampled
		sampled := base.Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BasicSampler{N: 100},
			DebugSampler: &zerolog.BasicSampler{N: 100},
			InfoSampler:  &zerolog.BasicSampler{N: 10},
		})
		return &sampled
	}
	return &base
}

type ctxKey struct{ name string }

var (
	traceKey = ctxKey{"trace_id"}
	runKey   = ctxKey{"run_id"}
	userKey  = ctxKey{"user_id"}
	tgKey    = ctxKey{"tg_id"}
)

// With returns a child of base carrying every correlation id present in ctx.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	for _, k := range []ctxKey{traceKey, runKey, userKey} {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			l = l.Str(k.name, v)
		}
	}
	if v, ok := ctx.Value(tgKey).(int64); ok {
		l = l.Int64(tgKey.name, v)
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs entry immediately and exit with the elapsed time, both at trace level.
//
//	defer logging.TraceDuration(log, "ContentUC.GenerateAndPublish")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey, id)
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runKey, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// WithTgID records the telegram user id of the sender.
func WithTgID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, tgKey, id)
}

func RunID(ctx context.Context) string {
	v, _ := ctx.Value(runKey).(string)
	return v
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceKey).(string)
	return v
}
