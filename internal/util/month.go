package util

import (
	"fmt"
	"time"
)

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month for the following month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the half-open UTC range [start, end) covering the month
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// IsCurrentMonth reports whether year/month is the month containing now
func IsCurrentMonth(year, month int, now time.Time) bool {
	return now.Year() == year && int(now.Month()) == month
}

// DaysElapsed returns the day count used to average spend over a month:
// the day of month when year/month is the current month, the full length otherwise.
func DaysElapsed(year, month int, now time.Time) int {
	if IsCurrentMonth(year, month, now) {
		return now.Day()
	}
	return DaysInMonth(year, month)
}

// MonthLabel formats a month as "Jan 2025"
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String()[:3], year)
}
