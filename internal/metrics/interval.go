package metrics

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Interval is the width of a history bucket.
type Interval string

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
)

// ErrInvalidInterval is returned by ParseInterval for unknown granularities.
var ErrInvalidInterval = errors.New("invalid interval")

// ParseInterval validates a granularity string.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Daily, Weekly, Monthly:
		return Interval(s), nil
	}
	return "", fmt.Errorf("%w %q: must be daily, weekly or monthly", ErrInvalidInterval, s)
}

// History holds per-bucket call metrics. All slices are index-aligned with
// Intervals and ordered chronologically.
type History struct {
	Intervals                    []string  `json:"intervals"`
	AverageDurations             []float64 `json:"averageDurations"`
	PositiveSentimentPercentages []float64 `json:"positiveSentimentPercentages"`
	ResolvedPercentages          []float64 `json:"resolvedPercentages"`
}

func emptyHistory() History {
	return History{
		Intervals:                    []string{},
		AverageDurations:             []float64{},
		PositiveSentimentPercentages: []float64{},
		ResolvedPercentages:          []float64{},
	}
}

// Aggregate buckets records by interval and computes average duration in
// minutes, positive sentiment percentage and resolved percentage per bucket.
// Buckets are keyed in UTC and generated without gaps between the first and
// last record. Records without a start time are ignored.
func Aggregate(records []CallRecord, interval Interval) History {
	valid := make([]CallRecord, 0, len(records))
	for _, r := range records {
		if r.StartTime != nil {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return emptyHistory()
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].StartTime.Before(*valid[j].StartTime)
	})

	keys := bucketKeys(*valid[0].StartTime, *valid[len(valid)-1].StartTime, interval)

	buckets := make(map[string][]CallRecord, len(keys))
	for _, r := range valid {
		k := bucketKey(*r.StartTime, interval)
		buckets[k] = append(buckets[k], r)
	}

	h := History{
		Intervals:                    keys,
		AverageDurations:             make([]float64, len(keys)),
		PositiveSentimentPercentages: make([]float64, len(keys)),
		ResolvedPercentages:          make([]float64, len(keys)),
	}
	for i, k := range keys {
		s := summarize(buckets[k])
		h.AverageDurations[i] = s.avgMinutes
		h.PositiveSentimentPercentages[i] = s.positivePct
		h.ResolvedPercentages[i] = s.resolvedPct
	}
	return h
}

type bucketSummary struct {
	avgMinutes  float64
	positivePct float64
	resolvedPct float64
}

func summarize(calls []CallRecord) bucketSummary {
	var s bucketSummary
	if len(calls) == 0 {
		return s
	}

	var total time.Duration
	var timed, positive, resolved int
	for _, c := range calls {
		if d, ok := c.Duration(); ok {
			total += d
			timed++
		}
		if c.Positive() {
			positive++
		}
		if c.Resolved() {
			resolved++
		}
	}

	if timed > 0 {
		s.avgMinutes = total.Minutes() / float64(timed)
	}
	n := float64(len(calls))
	s.positivePct = float64(positive) / n * 100
	s.resolvedPct = float64(resolved) / n * 100
	return s
}

// bucketKeys lists every bucket key from first to last inclusive.
func bucketKeys(first, last time.Time, interval Interval) []string {
	lastStart := bucketStart(last, interval)
	lastKey := formatKey(lastStart, interval)

	seen := make(map[string]bool)
	var keys []string
	for cur := bucketStart(first, interval); !cur.After(lastStart); cur = advance(cur, interval) {
		k := formatKey(cur, interval)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if !seen[lastKey] {
		keys = append(keys, lastKey)
	}
	return keys
}

func bucketKey(t time.Time, interval Interval) string {
	return formatKey(bucketStart(t, interval), interval)
}

// bucketStart truncates t (in UTC) to the start of its bucket. Weeks start on
// Monday.
func bucketStart(t time.Time, interval Interval) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch interval {
	case Weekly:
		wd := int(day.Weekday())
		if wd == 0 {
			return day.AddDate(0, 0, -6)
		}
		return day.AddDate(0, 0, -(wd - 1))
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func advance(t time.Time, interval Interval) time.Time {
	switch interval {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func formatKey(t time.Time, interval Interval) string {
	if interval == Monthly {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}
