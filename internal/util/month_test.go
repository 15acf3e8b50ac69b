package util

import (
	"testing"
	"time"
)

func TestPreviousMonth_SameYear(t *testing.T) {
	tests := []struct {
		year      int
		month     int
		wantYear  int
		wantMonth int
	}{
		{2026, 6, 2026, 5},   // June -> May
		{2026, 12, 2026, 11}, // Dec -> Nov
		{2026, 2, 2026, 1},   // Feb -> Jan
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, gotYear, gotMonth, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestPreviousMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := PreviousMonth(2026, 1)
	if gotYear != 2025 || gotMonth != 12 {
		t.Errorf("PreviousMonth(2026, 1) = (%d, %d), want (2025, 12)", gotYear, gotMonth)
	}
}

func TestNextMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := NextMonth(2025, 12)
	if gotYear != 2026 || gotMonth != 1 {
		t.Errorf("NextMonth(2025, 12) = (%d, %d), want (2026, 1)", gotYear, gotMonth)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		want  int
	}{
		{"january", 2025, 1, 31},
		{"april", 2025, 4, 30},
		{"february non-leap", 2025, 2, 28},
		{"february leap", 2024, 2, 29},
		{"december", 2025, 12, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInMonth(tt.year, tt.month); got != tt.want {
				t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2025, 12)

	wantStart := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestDaysElapsed(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	if got := DaysElapsed(2025, 3, now); got != 10 {
		t.Errorf("current month: got %d, want 10", got)
	}
	if got := DaysElapsed(2025, 2, now); got != 28 {
		t.Errorf("past month: got %d, want 28", got)
	}
	if got := DaysElapsed(2024, 3, now); got != 31 {
		t.Errorf("same month previous year: got %d, want 31", got)
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(2025, 1); got != "Jan 2025" {
		t.Errorf("MonthLabel(2025, 1) = %q, want %q", got, "Jan 2025")
	}
	if got := MonthLabel(2024, 9); got != "Sep 2024" {
		t.Errorf("MonthLabel(2024, 9) = %q, want %q", got, "Sep 2024")
	}
}
