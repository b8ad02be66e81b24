package model

import "time"

// ExecutionLog records one retry-governed execution. It is mutated in place and never deleted
// by the workflow; DurationMs covers the whole retry sequence.
type ExecutionLog struct {
	ID           int64
	ScheduleID   *int64
	ContentID    *int64
	Status       ExecutionStatus
	AttemptCount int
	ErrorMessage *string
	StartedAt    time.Time
	CompletedAt  *time.Time
	DurationMs   *int64
}

func NewExecutionLog(scheduleID *int64) *ExecutionLog {
	return &ExecutionLog{
		ScheduleID: scheduleID,
		Status:     ExecutionStatusPending,
		StartedAt:  time.Now(),
	}
}

func (l *ExecutionLog) SetError(err error) {
	if err == nil {
		l.ErrorMessage = nil
		return
	}
	msg := err.Error()
	l.ErrorMessage = &msg
}

func (l *ExecutionLog) Complete(status ExecutionStatus, at time.Time) {
	l.Status = status
	l.CompletedAt = &at
}

func (l *ExecutionLog) SetDuration(d time.Duration) {
	ms := d.Milliseconds()
	l.DurationMs = &ms
}

func (l *ExecutionLog) SetContent(id int64) {
	l.ContentID = &id
}
