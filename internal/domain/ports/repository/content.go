package repository

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

type ContentRepository interface {
	// Save inserts a new record and assigns its ID. A duplicate title yields domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, c *model.ContentRecord) error
	Update(ctx context.Context, tx Tx, c *model.ContentRecord) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.ContentRecord, error)
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.ContentRecord, error)

	// Count counts records created in [start, end); nil bounds are open.
	Count(ctx context.Context, tx Tx, start, end *time.Time) (int, error)
	UsedTopics(ctx context.Context, tx Tx) ([]string, error)
	CategoryDistribution(ctx context.Context, tx Tx, start, end time.Time) (map[model.Category]int, error)
}
