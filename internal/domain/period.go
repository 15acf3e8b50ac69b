package domain

import (
	"fmt"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/util"
)

// Period identifies a calendar month. It scopes limits, budgets and every
// aggregate query.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewPeriod builds a validated Period
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Validate checks that month is within 1..12 and year within MinYear..MaxYear.
// Out-of-range values are rejected, never clamped.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidPeriod)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidPeriod, MinYear, MaxYear)
	}
	return nil
}

// Previous returns the month before p
func (p Period) Previous() Period {
	y, m := util.PreviousMonth(p.Year, p.Month)
	return Period{Year: y, Month: m}
}

// Next returns the month after p
func (p Period) Next() Period {
	y, m := util.NextMonth(p.Year, p.Month)
	return Period{Year: y, Month: m}
}

// Equal reports whether both periods name the same month
func (p Period) Equal(other Period) bool {
	return p.Year == other.Year && p.Month == other.Month
}

// Before reports whether p is strictly earlier than other
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Bounds returns the half-open UTC range [start, end) of the month
func (p Period) Bounds() (time.Time, time.Time) {
	return util.MonthBounds(p.Year, p.Month)
}

// DaysInMonth returns the length of the month in days
func (p Period) DaysInMonth() int {
	return util.DaysInMonth(p.Year, p.Month)
}

// Label returns a short display label such as "Jan 2025"
func (p Period) Label() string {
	return util.MonthLabel(p.Year, p.Month)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// LastN returns the n periods ending at current (inclusive), oldest first
func LastN(current Period, n int) []Period {
	if n <= 0 {
		return []Period{}
	}
	periods := make([]Period, n)
	p := current
	for i := n - 1; i >= 0; i-- {
		periods[i] = p
		p = p.Previous()
	}
	return periods
}
