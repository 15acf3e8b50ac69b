package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod_Valid(t *testing.T) {
	p, err := NewPeriod(2025, 1)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Month: 1}, p)
}

func TestNewPeriod_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
	}{
		{"month zero", 2025, 0},
		{"month thirteen", 2025, 13},
		{"negative month", 2025, -1},
		{"year too early", 2019, 6},
		{"year too late", 2101, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPeriod(tt.year, tt.month)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPeriod))
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestPeriod_PreviousAndNextCrossYear(t *testing.T) {
	jan := Period{Year: 2025, Month: 1}
	assert.Equal(t, Period{Year: 2024, Month: 12}, jan.Previous())
	assert.Equal(t, jan, jan.Previous().Next())
}

func TestPeriod_Before(t *testing.T) {
	assert.True(t, Period{2024, 12}.Before(Period{2025, 1}))
	assert.True(t, Period{2025, 1}.Before(Period{2025, 2}))
	assert.False(t, Period{2025, 2}.Before(Period{2025, 2}))
	assert.False(t, Period{2025, 3}.Before(Period{2025, 2}))
}

func TestPeriod_Bounds(t *testing.T) {
	start, end := Period{Year: 2025, Month: 2}.Bounds()
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "2025-03", Period{Year: 2025, Month: 3}.String())
}

func TestLastN(t *testing.T) {
	got := LastN(Period{Year: 2025, Month: 3}, 3)
	assert.Equal(t, []Period{{2025, 1}, {2025, 2}, {2025, 3}}, got)

	got = LastN(Period{Year: 2025, Month: 2}, 4)
	assert.Equal(t, []Period{{2024, 11}, {2024, 12}, {2025, 1}, {2025, 2}}, got)

	assert.Empty(t, LastN(Period{Year: 2025, Month: 2}, 0))
}
