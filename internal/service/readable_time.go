package service

import (
	"strings"
	"time"
)

// NoAvailabilityText is returned when no slot of the requested day is free.
const NoAvailabilityText = "none for the given day"

// ReadableTime renders t as "h:mm AM/PM" on the UTC wall clock.
func ReadableTime(t time.Time) string {
	return t.UTC().Format("3:04 PM")
}

// ReadableTimes renders each instant with ReadableTime.
func ReadableTimes(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = ReadableTime(t)
	}
	return out
}

// JoinReadable joins items as "a, b or c". A single item is returned as is.
func JoinReadable(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

// ReadableTimesText renders alternatives for a guardian, e.g. "9:00 AM, 9:15 AM or 9:30 AM".
func ReadableTimesText(ts []time.Time) string {
	return JoinReadable(ReadableTimes(ts))
}
