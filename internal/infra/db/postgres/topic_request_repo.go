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

var _ repository.TopicRequestRepository = (*topicRequestRepo)(nil)

type topicRequestRepo struct {
	pool *pgxpool.Pool
}

func NewTopicRequestRepo(pool *pgxpool.Pool) *topicRequestRepo {
	return &topicRequestRepo{pool: pool}
}

func (r *topicRequestRepo) Save(ctx context.Context, tx repository.Tx, req *model.TopicRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	const q = `
INSERT INTO topic_requests (topic, requested_by, is_processed, content_id, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		req.Topic, req.RequestedBy, req.IsProcessed, req.ContentID, req.CreatedAt, req.ProcessedAt)
	if err != nil {
		return err
	}
	return row.Scan(&req.ID)
}

func (r *topicRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.TopicRequest, error) {
	const q = `
SELECT id, topic, requested_by, is_processed, content_id, created_at, processed_at
FROM topic_requests WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTopicRequest(row)
}

func (r *topicRequestRepo) MarkProcessed(ctx context.Context, tx repository.Tx, id, contentID int64) error {
	const q = `
UPDATE topic_requests SET is_processed = TRUE, content_id = $2, processed_at = NOW()
WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, contentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *topicRequestRepo) ListPending(ctx context.Context, tx repository.Tx, createdBefore time.Time, limit int) ([]*model.TopicRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT id, topic, requested_by, is_processed, content_id, created_at, processed_at
FROM topic_requests
WHERE is_processed = FALSE AND created_at < $1
ORDER BY created_at, id
LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TopicRequest
	for rows.Next() {
		req, err := scanTopicRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanTopicRequest(row rowScanner) (*model.TopicRequest, error) {
	var req model.TopicRequest
	err := row.Scan(&req.ID, &req.Topic, &req.RequestedBy, &req.IsProcessed, &req.ContentID, &req.CreatedAt, &req.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &req, nil
}
