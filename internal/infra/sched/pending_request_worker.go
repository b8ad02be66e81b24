package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
)

const pendingBatch = 20

// RequestDispatcher queues a generation for one topic request. *scheduler.Scheduler satisfies it.
type RequestDispatcher interface {
	DispatchRequest(req *model.TopicRequest) error
}

// PendingRequestWorker re-dispatches topic requests that stayed unprocessed past
// the grace period, e.g. because the process restarted while they were queued.
type PendingRequestWorker struct {
	interval time.Duration
	grace    time.Duration
	requests repository.TopicRequestRepository
	dispatch RequestDispatcher
	now      func() time.Time
	log      *zerolog.Logger
}

func NewPendingRequestWorker(interval, grace time.Duration, requests repository.TopicRequestRepository, dispatch RequestDispatcher, logger *zerolog.Logger) *PendingRequestWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	compLog := logger.With().Str("component", "PendingRequestWorker").Logger()
	return &PendingRequestWorker{
		interval: interval,
		grace:    grace,
		requests: requests,
		dispatch: dispatch,
		now:      time.Now,
		log:      &compLog,
	}
}

func (w *PendingRequestWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("grace", w.grace).Msg("Starting pending request worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pending request worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PendingRequestWorker) sweep(ctx context.Context) int {
	pending, err := w.requests.ListPending(ctx, repository.NoTX, w.now().Add(-w.grace), pendingBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending topic requests failed")
		return 0
	}
	sent := 0
	for _, req := range pending {
		if err := w.dispatch.DispatchRequest(req); err != nil {
			// the queue is full; the rest waits for the next tick
			w.log.Warn().Err(err).Int64("request_id", req.ID).Msg("pending topic request not dispatched")
			break
		}
		sent++
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("pending topic requests dispatched")
	}
	return sent
}
