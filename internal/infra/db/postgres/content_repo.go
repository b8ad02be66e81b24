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

var _ repository.ContentRepository = (*contentRepo)(nil)

type contentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *contentRepo {
	return &contentRepo{pool: pool}
}

const contentColumns = `id, title, category, difficulty, summary, content, tags,
document_page_id, document_url, chat_message_id, author, status, created_at, updated_at`

func (r *contentRepo) Save(ctx context.Context, tx repository.Tx, c *model.ContentRecord) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	if c.Tags == nil {
		c.Tags = []string{}
	}

	const q = `
INSERT INTO contents (title, category, difficulty, summary, content, tags,
  document_page_id, document_url, chat_message_id, author, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		c.Title, string(c.Category), string(c.Difficulty), c.Summary, c.Content, c.Tags,
		c.DocumentPageID, c.DocumentURL, c.ChatMessageID, c.Author, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("content %q: %w", c.Title, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *contentRepo) Update(ctx context.Context, tx repository.Tx, c *model.ContentRecord) error {
	c.UpdatedAt = time.Now()
	if c.Tags == nil {
		c.Tags = []string{}
	}

	const q = `
UPDATE contents SET
  title = $2, category = $3, difficulty = $4, summary = $5, content = $6, tags = $7,
  document_page_id = $8, document_url = $9, chat_message_id = $10, author = $11,
  status = $12, updated_at = $13
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Title, string(c.Category), string(c.Difficulty), c.Summary, c.Content, c.Tags,
		c.DocumentPageID, c.DocumentURL, c.ChatMessageID, c.Author, string(c.Status), c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("content %q: %w", c.Title, domain.ErrAlreadyExists)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contentRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.ContentRecord, error) {
	q := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanContent(row)
}

func (r *contentRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.ContentRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + contentColumns + ` FROM contents ORDER BY created_at DESC, id DESC LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ContentRecord
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contentRepo) Count(ctx context.Context, tx repository.Tx, start, end *time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM contents
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2);`

	row, err := pickRow(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *contentRepo) UsedTopics(ctx context.Context, tx repository.Tx) ([]string, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT title FROM contents ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

func (r *contentRepo) CategoryDistribution(ctx context.Context, tx repository.Tx, start, end time.Time) (map[model.Category]int, error) {
	const q = `
SELECT category, COUNT(*) FROM contents
WHERE created_at >= $1 AND created_at < $2
GROUP BY category;`

	rows, err := queryRows(ctx, r.pool, tx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Category]int)
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.Category(cat)] = n
	}
	return out, rows.Err()
}

func scanContent(row rowScanner) (*model.ContentRecord, error) {
	var (
		c                          model.ContentRecord
		category, difficulty, stat string
	)
	err := row.Scan(
		&c.ID, &c.Title, &category, &difficulty, &c.Summary, &c.Content, &c.Tags,
		&c.DocumentPageID, &c.DocumentURL, &c.ChatMessageID, &c.Author, &stat, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	c.Category = model.Category(category)
	c.Difficulty = model.Difficulty(difficulty)
	c.Status = model.ContentStatus(stat)
	return &c, nil
}
