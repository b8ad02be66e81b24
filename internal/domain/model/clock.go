package model

import "time"

// NextRun returns the next occurrence of hhmm after now, in now's location.
// A time equal to now rolls to tomorrow.
func NextRun(hhmm string, now time.Time) (time.Time, error) {
	t, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// Period bounds are half-open: start is included, end is the start of the next period.

// WeekRange returns Monday 00:00 of the week containing ref and Monday 00:00 of the week after.
func WeekRange(ref time.Time) (time.Time, time.Time) {
	offset := (int(ref.Weekday()) + 6) % 7
	start := time.Date(ref.Year(), ref.Month(), ref.Day()-offset, 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 0, 7)
}

// LastWeekRange is the full week containing now minus seven days.
func LastWeekRange(now time.Time) (time.Time, time.Time) {
	return WeekRange(now.AddDate(0, 0, -7))
}

// MonthRange returns the first instant of the month containing ref and of the month after.
func MonthRange(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 1, 0)
}

// LastMonthRange is the calendar month before the one containing now.
func LastMonthRange(now time.Time) (time.Time, time.Time) {
	// day 15 avoids AddDate normalising e.g. March 31 into March 3
	mid := time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, now.Location())
	return MonthRange(mid.AddDate(0, -1, 0))
}

// RetryDelay is the linear backoff used between attempts: base * attempt.
func RetryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}
