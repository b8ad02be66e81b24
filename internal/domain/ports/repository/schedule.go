package repository

import (
	"context"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

type ScheduleRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Schedule) error
	Update(ctx context.Context, tx Tx, s *model.Schedule) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Schedule, error)
	// FindByTime returns the first non-deleted schedule at hhmm or domain.ErrNotFound.
	FindByTime(ctx context.Context, tx Tx, hhmm string) (*model.Schedule, error)
	ListByStatus(ctx context.Context, tx Tx, status model.ScheduleStatus) ([]*model.Schedule, error)
	// SoftDelete marks the schedule deleted; the row is kept.
	SoftDelete(ctx context.Context, tx Tx, id int64) error
}
