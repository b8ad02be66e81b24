package repository

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

type ExecutionLogRepository interface {
	Save(ctx context.Context, tx Tx, l *model.ExecutionLog) error
	Update(ctx context.Context, tx Tx, l *model.ExecutionLog) error
	// ListRecent returns logs ordered by started_at descending.
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.ExecutionLog, error)
	// Stats groups logs started in [start, end) by status.
	Stats(ctx context.Context, tx Tx, start, end time.Time) (model.ExecutionStats, error)
}
