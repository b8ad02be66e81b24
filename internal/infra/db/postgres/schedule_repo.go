package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/jeonjuho23/claude-daily/internal/domain"
	"github.com/jeonjuho23/claude-daily/internal/domain/model"
	"github.com/jeonjuho23/claude-daily/internal/domain/ports/repository"
)

var _ repository.ScheduleRepository = (*scheduleRepo)(nil)

type scheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *scheduleRepo {
	return &scheduleRepo{pool: pool}
}

func (r *scheduleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = s.CreatedAt

	const q = `
INSERT INTO schedules (time_of_day, status, created_at, updated_at)
VALUES ($1, $2, $3, $4)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q, s.Time, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	return row.Scan(&s.ID)
}

func (r *scheduleRepo) Update(ctx context.Context, tx repository.Tx, s *model.Schedule) error {
	s.UpdatedAt = time.Now()
	const q = `UPDATE schedules SET time_of_day = $2, status = $3, updated_at = $4 WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Time, string(s.Status), s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *scheduleRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Schedule, error) {
	const q = `SELECT id, time_of_day, status, created_at, updated_at FROM schedules WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSchedule(row)
}

func (r *scheduleRepo) FindByTime(ctx context.Context, tx repository.Tx, hhmm string) (*model.Schedule, error) {
	const q = `
SELECT id, time_of_day, status, created_at, updated_at FROM schedules
WHERE time_of_day = $1 AND status <> $2
ORDER BY id
LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, hhmm, string(model.ScheduleStatusDeleted))
	if err != nil {
		return nil, err
	}
	return scanSchedule(row)
}

func (r *scheduleRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ScheduleStatus) ([]*model.Schedule, error) {
	const q = `
SELECT id, time_of_day, status, created_at, updated_at FROM schedules
WHERE status = $1
ORDER BY time_of_day, id;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scheduleRepo) SoftDelete(ctx context.Context, tx repository.Tx, id int64) error {
	const q = `UPDATE schedules SET status = $2, updated_at = NOW() WHERE id = $1 AND status <> $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(model.ScheduleStatusDeleted))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSchedule(row rowScanner) (*model.Schedule, error) {
	var (
		s    model.Schedule
		stat string
	)
	if err := row.Scan(&s.ID, &s.Time, &stat, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	s.Status = model.ScheduleStatus(stat)
	return &s, nil
}
