package repository

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

type TopicRequestRepository interface {
	Save(ctx context.Context, tx Tx, r *model.TopicRequest) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.TopicRequest, error)
	MarkProcessed(ctx context.Context, tx Tx, id, contentID int64) error
	// ListPending returns unprocessed requests created before createdBefore, oldest first.
	ListPending(ctx context.Context, tx Tx, createdBefore time.Time, limit int) ([]*model.TopicRequest, error)
}
