package model

import "time"

// StatusStats aggregates execution logs sharing one status. Duration fields are nil
// when no log in the group has a duration.
type StatusStats struct {
	Count         int
	TotalAttempts int
	AvgDurationMs *float64
	MinDurationMs *int64
	MaxDurationMs *int64
}

// ExecutionStats is keyed by execution status.
type ExecutionStats map[ExecutionStatus]StatusStats

// ReportData is computed per report run and never stored.
type ReportData struct {
	Type                 ReportType
	PeriodStart          time.Time
	PeriodEnd            time.Time // exclusive
	TotalCount           int
	SuccessCount         int
	FailedCount          int
	RetryCount           int
	CategoryDistribution map[Category]int
	UncoveredCategories  []Category
	AvgDurationMs        *float64
	MinDurationMs        *int64
	MaxDurationMs        *int64
	GeneratedAt          time.Time
}

// SuccessRate returns the success percentage over finished executions, 0 when none finished.
func (r *ReportData) SuccessRate() float64 {
	done := r.SuccessCount + r.FailedCount
	if done == 0 {
		return 0
	}
	return float64(r.SuccessCount) * 100 / float64(done)
}

// BotStatus is the snapshot returned by the status command.
type BotStatus struct {
	IsRunning       bool
	IsPaused        bool
	ActiveSchedules []string
	NextExecution   *time.Time
	TotalGenerated  int
	LastExecution   *time.Time
	LastError       *string
	Uptime          time.Duration
}

// LastDay is the final instant inside the period, for display.
func (r *ReportData) LastDay() time.Time {
	return r.PeriodEnd.Add(-time.Nanosecond)
}
