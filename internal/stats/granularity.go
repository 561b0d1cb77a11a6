// Package stats computes time-bucketed usage, status, and latency
// reports from stored transactions. Everything here is derived on
// demand; nothing is persisted.
package stats

import (
	"errors"
	"fmt"
	"time"
)

// ErrBadGranularity is returned for an unknown period value.
var ErrBadGranularity = errors.New("unknown granularity")

// Granularity is the bucket width of a statistics query.
type Granularity string

const (
	GranularityFiveMinutes Granularity = "5minutes"
	GranularityHour        Granularity = "hour"
	GranularityDay         Granularity = "day"
	GranularityWeek        Granularity = "week"
	GranularityMonth       Granularity = "month"
	GranularityYear        Granularity = "year"
)

// ParseGranularity validates a period query parameter.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityFiveMinutes, GranularityHour, GranularityDay,
		GranularityWeek, GranularityMonth, GranularityYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadGranularity, s)
	}
}

// Truncate maps a timestamp to the start of its bucket, in UTC.
// Weeks are ISO weeks starting Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityFiveMinutes:
		return t.Truncate(5 * time.Minute)
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Next returns the start of the bucket following the given one.
func (g Granularity) Next(bucket time.Time) time.Time {
	switch g {
	case GranularityFiveMinutes:
		return bucket.Add(5 * time.Minute)
	case GranularityHour:
		return bucket.Add(time.Hour)
	case GranularityDay:
		return bucket.AddDate(0, 0, 1)
	case GranularityWeek:
		return bucket.AddDate(0, 0, 7)
	case GranularityMonth:
		return bucket.AddDate(0, 1, 0)
	case GranularityYear:
		return bucket.AddDate(1, 0, 0)
	}
	return bucket
}
