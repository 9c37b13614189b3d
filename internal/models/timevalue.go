// Package models defines the core data structures for the routine check-in engine.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTimeFormat indicates a malformed clock-time string.
var ErrTimeFormat = errors.New("invalid time format")

// TimeValue is a clock time within a day (no date, no zone).
type TimeValue struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeValue parses "HH:MM" or "HH:MM:SS" (seconds are accepted and
// discarded, as the backend sends them). Fields must be integers in range.
func ParseTimeValue(text string) (TimeValue, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeValue{}, fmt.Errorf("%w: %q must have 2 or 3 colon-separated fields", ErrTimeFormat, text)
	}
	fields := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return TimeValue{}, fmt.Errorf("%w: %q field %d is not an integer", ErrTimeFormat, text, i+1)
		}
		fields[i] = n
	}
	tv := TimeValue{Hour: fields[0], Minute: fields[1]}
	if tv.Hour < 0 || tv.Hour > 23 || tv.Minute < 0 || tv.Minute > 59 {
		return TimeValue{}, fmt.Errorf("%w: %q out of range", ErrTimeFormat, text)
	}
	if len(fields) == 3 && (fields[2] < 0 || fields[2] > 59) {
		return TimeValue{}, fmt.Errorf("%w: %q seconds out of range", ErrTimeFormat, text)
	}
	return tv, nil
}

// MinutesOfDay returns the time as minutes since midnight.
func (t TimeValue) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// DistanceMinutes returns the absolute difference in minutes-of-day between
// two clock times. Symmetric.
func (t TimeValue) DistanceMinutes(other TimeValue) int {
	d := t.MinutesOfDay() - other.MinutesOfDay()
	if d < 0 {
		d = -d
	}
	return d
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeValue) Before(other TimeValue) bool {
	return t.MinutesOfDay() < other.MinutesOfDay()
}

// Equal reports whether two clock times are the same minute of the day.
func (t TimeValue) Equal(other TimeValue) bool {
	return t.Hour == other.Hour && t.Minute == other.Minute
}

// Format12Hour renders the time on a 12-hour clock with the caller's AM/PM
// labels (e.g. "오전"/"오후"). Hour 0 and 12 both render as 12; minutes are
// zero-padded.
func (t TimeValue) Format12Hour(amLabel, pmLabel string) string {
	label := amLabel
	hour := t.Hour
	if hour >= 12 {
		label = pmLabel
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %d:%02d", label, hour, t.Minute)
}

// String renders the time as zero-padded "HH:MM".
func (t TimeValue) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
