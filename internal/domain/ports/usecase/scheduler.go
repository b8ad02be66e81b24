package usecase

import (
	"context"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

// ScheduleView is an active schedule with its computed next fire time.
type ScheduleView struct {
	ID      int64
	Time    string
	NextRun time.Time
}

// ScheduleController is the control surface of the running scheduler. Command
// transports (chat, admin HTTP) depend on it and render its results.
type ScheduleController interface {
	// SetTime moves the primary active schedule to hhmm, creating one when none exists.
	// previous is empty when a schedule was created.
	SetTime(ctx context.Context, hhmm string) (previous string, err error)
	// AddSchedule fails with domain.ErrScheduleExists on a duplicate non-deleted time.
	AddSchedule(ctx context.Context, hhmm string) (*model.Schedule, error)
	// RemoveSchedule fails with domain.ErrScheduleNotFound when nothing matches hhmm.
	RemoveSchedule(ctx context.Context, hhmm string) error
	ListSchedules(ctx context.Context) ([]ScheduleView, error)

	// Pause and Resume report whether the flag changed.
	Pause() bool
	Resume() bool

	// RunNow and RequestTopic start a detached generation run and return immediately.
	RunNow(ctx context.Context) error
	RequestTopic(ctx context.Context, topic, requestedBy string) (*model.TopicRequest, error)

	Status(ctx context.Context) (*model.BotStatus, error)
}
