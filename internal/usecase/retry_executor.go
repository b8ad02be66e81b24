package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
)

const (
	DefaultMaxRetries   = 5
	DefaultBaseInterval = 5 * time.Minute
)

// LogUpdater persists the execution log after every transition.
type LogUpdater func(ctx context.Context, l *model.ExecutionLog) error

// FailureNotifier is told when a run exhausts its retries.
type FailureNotifier func(ctx context.Context, message string, fields map[string]any)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryExecutor runs a unit of work with linear backoff: the pause after attempt n
// is baseInterval * n.
type RetryExecutor struct {
	maxRetries   int
	baseInterval time.Duration
	onFailure    FailureNotifier
	sleep        Sleeper
	now          func() time.Time
	log          *zerolog.Logger
}

type RetryOption func(*RetryExecutor)

func WithFailureNotifier(fn FailureNotifier) RetryOption {
	return func(e *RetryExecutor) { e.onFailure = fn }
}

func WithSleeper(s Sleeper) RetryOption {
	return func(e *RetryExecutor) { e.sleep = s }
}

func WithClock(now func() time.Time) RetryOption {
	return func(e *RetryExecutor) { e.now = now }
}

// NewRetryExecutor falls back to 5 attempts and a 5 minute base interval for non-positive values.
func NewRetryExecutor(maxRetries int, baseInterval time.Duration, logger *zerolog.Logger, opts ...RetryOption) *RetryExecutor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseInterval <= 0 {
		baseInterval = DefaultBaseInterval
	}
	l := logger.With().Str("component", "RetryExecutor").Logger()
	e := &RetryExecutor{
		maxRetries:   maxRetries,
		baseInterval: baseInterval,
		sleep:        sleepCtx,
		now:          time.Now,
		log:          &l,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *RetryExecutor) MaxRetries() int { return e.maxRetries }

// Execute calls work until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. execLog and update are optional. On exhaustion the
// failure notifier is called and the last error is returned.
func (e *RetryExecutor) Execute(ctx context.Context, name string, work func(ctx context.Context) error, execLog *model.ExecutionLog, update LogUpdater) error {
	log := logging.With(ctx, e.log).With().Str("function", name).Logger()

	attempt := 0
	var lastErr error

	for attempt < e.maxRetries {
		attempt++
		if execLog != nil {
			execLog.AttemptCount = attempt
			if attempt == 1 {
				execLog.Status = model.ExecutionStatusRunning
			} else {
				execLog.Status = model.ExecutionStatusRetry
			}
			e.persist(ctx, &log, execLog, update)
		}

		log.Info().Int("attempt", attempt).Int("max_retries", e.maxRetries).Msg("executing with retry")
		err := work(ctx)
		if err == nil {
			metrics.IncAttempt("ok")
			if execLog != nil {
				execLog.Complete(model.ExecutionStatusSuccess, e.now())
				e.persist(ctx, &log, execLog, update)
			}
			metrics.IncExecution(string(model.ExecutionStatusSuccess))
			return nil
		}

		lastErr = err
		if domain.IsNonRetryable(err) {
			metrics.IncAttempt("fatal")
			log.Error().Err(err).Int("attempt", attempt).Msg("non-retryable error occurred")
			break
		}

		metrics.IncAttempt("retryable")
		log.Warn().Err(err).Int("attempt", attempt).Int("max_retries", e.maxRetries).Msg("attempt failed")
		if execLog != nil {
			execLog.SetError(err)
			e.persist(ctx, &log, execLog, update)
		}

		if attempt < e.maxRetries {
			wait := model.RetryDelay(e.baseInterval, attempt)
			log.Info().Dur("wait", wait).Int("next_attempt", attempt+1).Msg("waiting before retry")
			if serr := e.sleep(ctx, wait); serr != nil {
				return e.cancel(ctx, &log, execLog, update, serr)
			}
		}
	}

	if lastErr == nil {
		// only reachable if the loop never ran
		lastErr = domain.ErrRetriesExhausted
	}
	if execLog != nil {
		execLog.Complete(model.ExecutionStatusFailed, e.now())
		execLog.SetError(lastErr)
		e.persist(ctx, &log, execLog, update)
	}
	metrics.IncExecution(string(model.ExecutionStatusFailed))

	if e.onFailure != nil {
		e.onFailure(ctx, lastErr.Error(), map[string]any{
			"attempts":    attempt,
			"max_retries": e.maxRetries,
			"function":    name,
		})
	}
	return lastErr
}

// ShouldRetry reports whether err deserves another attempt after attempt tries.
func (e *RetryExecutor) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= e.maxRetries {
		return false
	}
	if domain.IsNonRetryable(err) {
		return false
	}
	return domain.IsRetryable(err) || IsTransient(err)
}

var transientMarkers = []string{
	"timeout",
	"connection",
	"rate limit",
	"temporarily",
	"500",
	"502",
	"503",
}

// IsTransient classifies err by explicit kind first, then by well-known transient substrings.
func IsTransient(err error) bool {
	if err == nil || domain.IsNonRetryable(err) {
		return false
	}
	if domain.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func (e *RetryExecutor) cancel(ctx context.Context, log *zerolog.Logger, execLog *model.ExecutionLog, update LogUpdater, cause error) error {
	log.Warn().Err(cause).Msg("retry loop cancelled")
	if execLog != nil {
		execLog.Complete(model.ExecutionStatusCancelled, e.now())
		execLog.SetError(cause)
		// the caller's ctx is done; persist the terminal state regardless
		e.persist(context.WithoutCancel(ctx), log, execLog, update)
	}
	metrics.IncExecution(string(model.ExecutionStatusCancelled))
	return cause
}

func (e *RetryExecutor) persist(ctx context.Context, log *zerolog.Logger, execLog *model.ExecutionLog, update LogUpdater) {
	if update == nil {
		return
	}
	if err := update(ctx, execLog); err != nil {
		log.Warn().Err(err).Int64("execution_log_id", execLog.ID).Str("status", string(execLog.Status)).Msg("failed to persist execution log")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
