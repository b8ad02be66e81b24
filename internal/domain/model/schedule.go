package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeonjuho23/claude-daily/internal/domain"
)

// Schedule is one daily trigger time for content generation.
type Schedule struct {
	ID        int64
	Time      string // HH:MM, 24h
	Status    ScheduleStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSchedule(hhmm string) (*Schedule, error) {
	norm, err := ValidateTimeOfDay(hhmm)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Schedule{Time: norm, Status: ScheduleStatusActive, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Schedule) Active() bool  { return s.Status == ScheduleStatusActive }
func (s *Schedule) Deleted() bool { return s.Status == ScheduleStatusDeleted }

// JobID is the trigger id the scheduler registers this schedule under.
func (s *Schedule) JobID() string { return fmt.Sprintf("content_generation_%d", s.ID) }

// TimeOfDay is a parsed HH:MM value.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// ParseTimeOfDay accepts exactly two colon separated numeric parts, hour 0-23 and minute 0-59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", domain.ErrInvalidTime, s)
	}
	h, okH := parseSmallUint(parts[0])
	m, okM := parseSmallUint(parts[1])
	if !okH || !okM || h > 23 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", domain.ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// ValidateTimeOfDay returns the canonical zero-padded form of s.
func ValidateTimeOfDay(s string) (string, error) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func parseSmallUint(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
