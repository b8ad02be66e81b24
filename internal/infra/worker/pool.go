package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/infra/logging"
)

// Task is one detached unit of work. Its error is logged, never returned to the submitter.
type Task func(ctx context.Context) error

type job struct {
	name string
	fn   Task
}

// Pool runs submitted tasks on a fixed set of goroutines. Tasks run under the
// context given to Start, not the submitter's, so a finished request does not
// cancel the work it spawned.
type Pool struct {
	wg       sync.WaitGroup
	jobs     chan job
	quit     chan struct{}
	stopOnce sync.Once
	n        int
	log      *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: make(chan job, queueSize), quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case j := <-p.jobs:
					p.run(ctx, id, j)
				}
			}
		}(i + 1)
	}
	p.log.Info().Int("workers", p.n).Int("queue", cap(p.jobs)).Msg("worker pool started")
}

// Stop waits for running tasks to return. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit enqueues task without blocking. It fails with domain.ErrQueueFull when saturated.
func (p *Pool) Submit(name string, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return fmt.Errorf("submit %s: pool stopped", name)
	default:
	}
	select {
	case p.jobs <- job{name: name, fn: task}:
		return nil
	default:
		return fmt.Errorf("submit %s: %w", name, domain.ErrQueueFull)
	}
}

// run executes one job with its own run id and turns a panic into a logged error.
func (p *Pool) run(ctx context.Context, workerID int, j job) {
	ctx = logging.WithRunID(ctx, ulid.Make().String())
	log := logging.With(ctx, p.log).With().Int("worker", workerID).Str("task", j.name).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("task panicked")
		}
	}()

	if err := j.fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("task cancelled")
			return
		}
		log.Error().Err(err).Msg("task failed")
		return
	}
	log.Debug().Msg("task finished")
}
