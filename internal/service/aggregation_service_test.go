package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  string
		whole string
		want  string
	}{
		{"simple", "350", "500", "70.00"},
		{"rounds half up", "1", "8", "12.50"},
		{"repeating decimal", "1", "3", "33.33"},
		{"two thirds", "2", "3", "66.67"},
		{"over one hundred", "550", "500", "110.00"},
		{"zero whole", "100", "0", "0.00"},
		{"zero part", "0", "500", "0.00"},
		{"negative change", "-50", "200", "-25.00"},
		{"positive midpoint", "1", "800", "0.13"},
		{"negative midpoint", "-1", "800", "-0.12"},
		{"negative below midpoint", "-101", "80000", "-0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(decimal.RequireFromString(tt.part), decimal.RequireFromString(tt.whole))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"-10.005", "-10.00"},
		{"-10.006", "-10.01"},
		{"7", "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundMoney(decimal.RequireFromString(tt.in)).StringFixed(2))
		})
	}
}

func TestPeriodSpend_For(t *testing.T) {
	food := int32(1)
	other := int32(2)
	spend := &PeriodSpend{
		ByCategory: map[int32]decimal.Decimal{food: decimal.NewFromInt(350)},
		Total:      decimal.NewFromInt(400),
	}

	assert.Equal(t, "350.00", spend.For(&food).StringFixed(2))
	assert.Equal(t, "0.00", spend.For(&other).StringFixed(2))
	assert.Equal(t, "400.00", spend.For(nil).StringFixed(2))
}

func TestSumAmount_ExactDecimalAndZeroWhenEmpty(t *testing.T) {
	store := testutil.NewMockStore()
	svc := NewAggregationService(testutil.NewMockAggregationRepository(store))
	ctx := context.Background()
	ownerID := int32(1)
	food := store.AddCategory(&domain.Category{Name: "Food", Type: domain.CategoryTypeExpense, OwnerID: &ownerID, IsActive: true})
	jan := domain.Period{Year: 2025, Month: 1}

	total, err := svc.SumAmount(ctx, ownerID, domain.EntryKindExpense, &food.ID, jan)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for i := 0; i < 10; i++ {
		store.AddExpense(&domain.Expense{
			OwnerID:    ownerID,
			CategoryID: food.ID,
			Amount:     decimal.RequireFromString("0.10"),
			Date:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		})
	}
	// Outside the period and another owner's row must be ignored
	store.AddExpense(&domain.Expense{OwnerID: ownerID, CategoryID: food.ID, Amount: decimal.NewFromInt(99), Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)})
	store.AddExpense(&domain.Expense{OwnerID: 2, CategoryID: food.ID, Amount: decimal.NewFromInt(99), Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)})

	total, err = svc.SumAmount(ctx, ownerID, domain.EntryKindExpense, &food.ID, jan)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1)), "ten dimes should sum to exactly 1, got %s", total)

	all, err := svc.SumAmount(ctx, ownerID, domain.EntryKindExpense, nil, jan)
	require.NoError(t, err)
	assert.Equal(t, "1.00", all.StringFixed(2))
}

func TestSumAmount_RepositoryError(t *testing.T) {
	store := testutil.NewMockStore()
	aggRepo := testutil.NewMockAggregationRepository(store)
	aggRepo.Err = errors.New("connection reset")
	svc := NewAggregationService(aggRepo)

	_, err := svc.SumAmount(context.Background(), 1, domain.EntryKindExpense, nil, domain.Period{Year: 2025, Month: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
