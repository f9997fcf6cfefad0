package services

import (
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/surveyd/internal/models"
)

type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// ParseInterval maps a query value to an interval. Anything unrecognised,
// including the empty string, means daily.
func ParseInterval(s string) Interval {
	switch Interval(strings.ToLower(strings.TrimSpace(s))) {
	case IntervalWeekly:
		return IntervalWeekly
	case IntervalMonthly:
		return IntervalMonthly
	}
	return IntervalDaily
}

const bucketDateLayout = "2006-01-02"

type TimeBucket struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// BucketStart returns the UTC midnight that opens the bucket holding t.
// Weeks start on Monday.
func BucketStart(t time.Time, iv Interval) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch iv {
	case IntervalWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case IntervalMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

// BuildTimeSeries counts responses per bucket, oldest first, with a running
// total. Buckets without responses are omitted.
func BuildTimeSeries(responses []*models.Response, iv Interval) []TimeBucket {
	counts := make(map[time.Time]int)
	for _, r := range responses {
		if r == nil {
			continue
		}
		counts[BucketStart(r.SubmittedAt, iv)]++
	}
	keys := make([]time.Time, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]TimeBucket, 0, len(keys))
	running := 0
	for _, k := range keys {
		running += counts[k]
		out = append(out, TimeBucket{Date: k.Format(bucketDateLayout), Count: counts[k], Cumulative: running})
	}
	return out
}
