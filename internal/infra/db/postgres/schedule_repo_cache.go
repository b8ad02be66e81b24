package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
	"github.com/jeonjuho23/claude-daily/internal/infra/metrics"
	red "github.com/jeonjuho23/claude-daily/internal/infra/redis"
)

var _ repository.ScheduleRepository = (*scheduleRepoCacheDecorator)(nil)

const activeSchedulesKey = "schedules:active"

// scheduleRepoCacheDecorator caches the active schedule list, which list and status
// commands read on every call. Reads inside a transaction always hit the database.
type scheduleRepoCacheDecorator struct {
	inner repository.ScheduleRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewScheduleRepoCacheDecorator(inner repository.ScheduleRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ScheduleRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	l := logger.With().Str("component", "ScheduleCache").Logger()
	return &scheduleRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func (d *scheduleRepoCacheDecorator) ListByStatus(ctx context.Context, tx repository.Tx, status model.ScheduleStatus) ([]*model.Schedule, error) {
	if status != model.ScheduleStatusActive || tx != nil {
		return d.inner.ListByStatus(ctx, tx, status)
	}

	val, err := d.cache.Get(ctx, activeSchedulesKey)
	if err == nil {
		var list []*model.Schedule
		if json.Unmarshal([]byte(val), &list) == nil {
			metrics.IncCacheRequest("schedules", "hit")
			return list, nil
		}
	} else if !errors.Is(err, red.Nil) {
		metrics.IncCacheRequest("schedules", "error")
		d.log.Warn().Err(err).Msg("schedule cache read failed")
	}

	metrics.IncCacheRequest("schedules", "miss")
	list, err := d.inner.ListByStatus(ctx, tx, status)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(list); err == nil {
		if err := d.cache.Set(ctx, activeSchedulesKey, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("schedule cache write failed")
		}
	}
	return list, nil
}

// Writes drop the cached list only after the row has changed; a reader that
// refilled the key while the write was in flight would otherwise pin stale rows
// until the ttl expires.
func (d *scheduleRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	return d.invalidateAfter(ctx, d.inner.Save(ctx, tx, s))
}

func (d *scheduleRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	return d.invalidateAfter(ctx, d.inner.Update(ctx, tx, s))
}

func (d *scheduleRepoCacheDecorator) SoftDelete(ctx context.Context, tx repository.Tx, id int64) error {
	return d.invalidateAfter(ctx, d.inner.SoftDelete(ctx, tx, id))
}

// Point lookups are cheap; not cached.
func (d *scheduleRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Schedule, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *scheduleRepoCacheDecorator) FindByTime(ctx context.Context, tx repository.Tx, hhmm string) (*model.Schedule, error) {
	return d.inner.FindByTime(ctx, tx, hhmm)
}

func (d *scheduleRepoCacheDecorator) invalidateAfter(ctx context.Context, writeErr error) error {
	if writeErr != nil {
		return writeErr
	}
	if err := d.cache.Del(ctx, activeSchedulesKey); err != nil {
		d.log.Warn().Err(err).Msg("schedule cache invalidation failed")
	}
	return nil
}
