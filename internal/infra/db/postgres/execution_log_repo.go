package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
)

var _ repository.ExecutionLogRepository = (*executionLogRepo)(nil)

type executionLogRepo struct {
	pool *pgxpool.Pool
}

func NewExecutionLogRepo(pool *pgxpool.Pool) *executionLogRepo {
	return &executionLogRepo{pool: pool}
}

func (r *executionLogRepo) Save(ctx context.Context, tx repository.Tx, l *model.ExecutionLog) error {
	if l.StartedAt.IsZero() {
		l.StartedAt = time.Now()
	}
	const q = `
INSERT INTO execution_logs (schedule_id, content_id, status, attempt_count, error_message, started_at, completed_at, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		l.ScheduleID, l.ContentID, string(l.Status), l.AttemptCount, l.ErrorMessage, l.StartedAt, l.CompletedAt, l.DurationMs)
	if err != nil {
		return err
	}
	return row.Scan(&l.ID)
}

func (r *executionLogRepo) Update(ctx context.Context, tx repository.Tx, l *model.ExecutionLog) error {
	const q = `
UPDATE execution_logs SET
  schedule_id = $2, content_id = $3, status = $4, attempt_count = $5,
  error_message = $6, completed_at = $7, duration_ms = $8
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.ScheduleID, l.ContentID, string(l.Status), l.AttemptCount, l.ErrorMessage, l.CompletedAt, l.DurationMs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *executionLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.ExecutionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, schedule_id, content_id, status, attempt_count, error_message, started_at, completed_at, duration_ms
FROM execution_logs
ORDER BY started_at DESC, id DESC
LIMIT $1;`

	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ExecutionLog
	for rows.Next() {
		var (
			l    model.ExecutionLog
			stat string
		)
		if err := rows.Scan(&l.ID, &l.ScheduleID, &l.ContentID, &stat, &l.AttemptCount,
			&l.ErrorMessage, &l.StartedAt, &l.CompletedAt, &l.DurationMs); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		l.Status = model.ExecutionStatus(stat)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Stats aggregates per status. Duration columns stay NULL when no log in the group has one.
func (r *executionLogRepo) Stats(ctx context.Context, tx repository.Tx, start, end time.Time) (model.ExecutionStats, error) {
	const q = `
SELECT status,
       COUNT(*),
       COALESCE(SUM(attempt_count), 0),
       AVG(duration_ms)::float8,
       MIN(duration_ms),
       MAX(duration_ms)
FROM execution_logs
WHERE started_at >= $1 AND started_at < $2
GROUP BY status;`

	rows, err := queryRows(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.ExecutionStats{}
	for rows.Next() {
		var (
			stat     string
			count    int
			attempts int64
			s        model.StatusStats
		)
		if err := rows.Scan(&stat, &count, &attempts, &s.AvgDurationMs, &s.MinDurationMs, &s.MaxDurationMs); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		s.Count = count
		s.TotalAttempts = int(attempts)
		out[model.ExecutionStatus(stat)] = s
	}
	return out, rows.Err()
}
