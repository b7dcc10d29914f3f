package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeZone anchors "today" to a fixed civil timezone, not UTC and
// not whatever the client happens to be in.
const DefaultTimeZone = "Asia/Seoul"

const dateKeyLayout = "2006-01-02"

var ErrInvalidDateKey = errors.New("invalid date key")

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDateKey reports whether s is shaped like YYYY-MM-DD.
func IsDateKey(s string) bool {
	return dateKeyPattern.MatchString(s)
}

// CurrentDateKey returns today's date key in loc. A nil loc falls back to
// the default anchor timezone, then to UTC if that zone is unavailable.
func CurrentDateKey(loc *time.Location) string {
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimeZone)
		if err != nil {
			loc = time.UTC
		}
	}
	return FormatDateKey(time.Now().In(loc))
}

// FormatDateKey renders t as a zero-padded date key.
func FormatDateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey splits a date key on "-" into its calendar day. The key must
// have exactly three numeric components. Out-of-range month and day values
// are not rejected: time.Date normalizes them, so "2024-01-32" resolves to
// 2024-02-01. This lenient rollover is deliberate and covered by tests;
// callers that need strict keys should check IsDateKey first.
func ParseDateKey(key string) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
		}
		nums[i] = n
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), nil
}

// WeekStart returns the date key of the Monday on or before key.
func WeekStart(key string) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	// time.Weekday has Sunday=0, so (day+6)%7 is days since the
	// preceding Monday; Monday itself yields 0.
	offset := (int(t.Weekday()) + 6) % 7
	return FormatDateKey(t.AddDate(0, 0, -offset)), nil
}

// WeekRange spans Monday through Sunday, exactly seven days.
type WeekRange struct {
	Start string `json:"weekStart"`
	End   string `json:"weekEnd"`
}

// Contains reports whether key falls inside the range, bounds included.
func (w WeekRange) Contains(key string) bool {
	return w.Start <= key && key <= w.End
}

// WeekRangeOf returns the Monday..Sunday range containing key. Every key
// inside the same week yields the same range.
func WeekRangeOf(key string) (WeekRange, error) {
	start, err := WeekStart(key)
	if err != nil {
		return WeekRange{}, err
	}
	t, err := ParseDateKey(start)
	if err != nil {
		return WeekRange{}, err
	}
	return WeekRange{Start: start, End: FormatDateKey(t.AddDate(0, 0, 6))}, nil
}

// Fixed fallbacks for malformed or absent time-of-day values.
const (
	DefaultStartTime = "09:00"
	DefaultEndTime   = "10:00"
)

var timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ClampTimeOfDay normalizes a wall-clock "H:MM" string. Anything that does
// not match the pattern, including the empty string, becomes the fixed
// default "09:00"; matching values get the hour clamped to [0,23], the
// minute to [0,59], and are re-rendered zero-padded. There is no error
// path: the UI always needs something displayable. Idempotent.
func ClampTimeOfDay(raw string) string {
	m := timeOfDayPattern.FindStringSubmatch(raw)
	if m == nil {
		return DefaultStartTime
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 {
		hh = 23
	}
	if mm > 59 {
		mm = 59
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}
