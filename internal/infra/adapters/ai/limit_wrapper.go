package ai

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent chat calls and bounds each with a timeout.
type limitedAI struct {
	inner   adapter.AIServiceAdapter
	sem     chan struct{}
	timeout time.Duration
}

func NewLimitedAI(inner adapter.AIServiceAdapter, maxConcurrent int, timeout time.Duration) adapter.AIServiceAdapter {
	if maxConcurrent <= 0 && timeout <= 0 {
		return inner
	}
	l := &limitedAI{inner: inner, timeout: timeout}
	if maxConcurrent > 0 {
		l.sem = make(chan struct{}, maxConcurrent)
	}
	return l
}

func (l *limitedAI) ListModels(ctx context.Context) ([]string, error) {
	return l.inner.ListModels(ctx)
}

func (l *limitedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	ctx, release, err := l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return l.inner.Chat(ctx, model, messages)
}

func (l *limitedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	ctx, release, err := l.acquire(ctx)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	defer release()
	return l.inner.ChatWithUsage(ctx, model, messages)
}

// acquire waits for a slot; the timeout starts once the slot is held.
func (l *limitedAI) acquire(ctx context.Context) (context.Context, func(), error) {
	if l.sem != nil {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx, func() {}, ctx.Err()
		}
	}
	cancel := context.CancelFunc(func() {})
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
	}
	return ctx, func() {
		cancel()
		if l.sem != nil {
			<-l.sem
		}
	}, nil
}
