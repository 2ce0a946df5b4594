// Package window models the time window used to parameterize metrics
// queries: a duration bucket from a fixed ordered set plus an end time.
package window

import (
	"time"
)

// Buckets is the ordered set of durations offered by the picker, shortest first.
var Buckets = []string{"1m", "5m", "10m", "30m", "1h", "2h", "6h", "12h", "1d", "2d", "1w", "2w", "4w", "8w"}

// DefaultBucket is the duration every window starts with unless configured.
const DefaultBucket = "1h"

// bucketHours holds the query form for day-or-longer buckets.
var bucketHours = map[string]string{
	"1d": "24h",
	"2d": "48h",
	"1w": "168h",
	"2w": "336h",
	"4w": "672h",
	"8w": "1344h",
}

// IsBucket reports whether s is one of Buckets.
func IsBucket(s string) bool {
	return indexOf(s) >= 0
}

// BucketNames returns a copy of Buckets.
func BucketNames() []string {
	out := make([]string, len(Buckets))
	copy(out, Buckets)
	return out
}

func indexOf(bucket string) int {
	for i, b := range Buckets {
		if b == bucket {
			return i
		}
	}
	return -1
}

// Next returns the bucket one step longer than bucket. The last bucket and
// unknown values are returned unchanged.
func Next(bucket string) string {
	i := indexOf(bucket)
	if i < 0 || i == len(Buckets)-1 {
		return bucket
	}
	return Buckets[i+1]
}

// Prev returns the bucket one step shorter than bucket. The first bucket and
// unknown values are returned unchanged.
func Prev(bucket string) string {
	i := indexOf(bucket)
	if i <= 0 {
		return bucket
	}
	return Buckets[i-1]
}

// BucketToHours converts day and week buckets to their hour-count form
// ("1w" -> "168h"). Any other value passes through unchanged.
func BucketToHours(bucket string) string {
	if h, ok := bucketHours[bucket]; ok {
		return h
	}
	return bucket
}

// HoursToBucket is the inverse of BucketToHours.
func HoursToBucket(hours string) string {
	for b, h := range bucketHours {
		if h == hours {
			return b
		}
	}
	return hours
}

// Window is a (duration, end) pair. The zero value is not useful; use New.
type Window struct {
	Duration string
	End      time.Time
}

// New returns a window of the given bucket ending at end. Unknown buckets
// fall back to DefaultBucket.
func New(bucket string, end time.Time) Window {
	if !IsBucket(bucket) {
		bucket = DefaultBucket
	}
	return Window{Duration: bucket, End: end}
}

// Increase widens the window by one bucket. No-op at the last bucket.
func (w *Window) Increase() {
	w.Duration = Next(w.Duration)
}

// Decrease narrows the window by one bucket. No-op at the first bucket.
func (w *Window) Decrease() {
	w.Duration = Prev(w.Duration)
}

// SetDate replaces the calendar date of End, keeping its time of day and location.
func (w *Window) SetDate(year int, month time.Month, day int) {
	e := w.End
	w.End = time.Date(year, month, day, e.Hour(), e.Minute(), e.Second(), e.Nanosecond(), e.Location())
}

// SetClock replaces the time of day of End, keeping its date and location.
func (w *Window) SetClock(hour, minute int) {
	e := w.End
	w.End = time.Date(e.Year(), e.Month(), e.Day(), hour, minute, 0, 0, e.Location())
}

// ShiftEnd moves End by d.
func (w *Window) ShiftEnd(d time.Duration) {
	w.End = w.End.Add(d)
}

// QueryDuration is the duration parameter sent to the statistics endpoint.
func (w Window) QueryDuration() string {
	return BucketToHours(w.Duration)
}

// QueryEnd is the endtime parameter: End in UTC, RFC 3339.
func (w Window) QueryEnd() string {
	return w.End.UTC().Format(time.RFC3339)
}

// Key identifies the window for fetch de-duplication. Two windows that
// produce the same query share a key.
func (w Window) Key() string {
	return w.QueryDuration() + "@" + w.QueryEnd()
}

// Equal reports whether two windows produce the same query.
func (w Window) Equal(o Window) bool {
	return w.Key() == o.Key()
}

// String renders the window for display, e.g. "6h ending 2024-01-02 15:04 UTC".
func (w Window) String() string {
	return w.Duration + " ending " + w.End.UTC().Format("2006-01-02 15:04") + " UTC"
}
