package model

type Category string

const (
	CategoryNetwork       Category = "network"
	CategoryOS            Category = "os"
	CategoryAlgorithm     Category = "algorithm"
	CategoryDataStructure Category = "data_structure"
	CategoryDatabase      Category = "database"
	CategoryOOP           Category = "oop"
	CategoryDDD           Category = "ddd"
	CategoryTDD           Category = "tdd"
	CategoryDesignPattern Category = "design_pattern"
	CategoryArchitecture  Category = "architecture"
	CategorySecurity      Category = "security"
	CategoryDevOps        Category = "devops"
)

var allCategories = []Category{
	CategoryNetwork, CategoryOS, CategoryAlgorithm, CategoryDataStructure,
	CategoryDatabase, CategoryOOP, CategoryDDD, CategoryTDD,
	CategoryDesignPattern, CategoryArchitecture, CategorySecurity, CategoryDevOps,
}

// AllCategories returns the closed set of topic domains in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func (c Category) Valid() bool {
	for _, k := range allCategories {
		if k == c {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

type ScheduleStatus string

const (
	ScheduleStatusActive  ScheduleStatus = "active"
	ScheduleStatusPaused  ScheduleStatus = "paused"
	ScheduleStatusDeleted ScheduleStatus = "deleted"
)

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusRetry     ExecutionStatus = "retry"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether no further attempts will be made for this status.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

type ReportType string

const (
	ReportTypeWeekly  ReportType = "weekly"
	ReportTypeMonthly ReportType = "monthly"
)
