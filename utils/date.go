package utils

import (
	"time"
)

const DateFormat = "2006-01-02"

// SameDay compares two points in time at calendar-day granularity.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate reads a date as the LIMS reports it, either "2006-01-02" or RFC3339.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateFormat, value)
	if err == nil {
		return date, nil
	}
	return time.Parse(time.RFC3339, value)
}
