package service

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Percent returns part/whole*100 rounded half-up to two places.
// A zero whole yields zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return roundHalfUp(part.Mul(hundred).Div(whole), 2)
}

// RoundMoney rounds half-up to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, 2)
}

// roundHalfUp moves midpoints toward positive infinity, so -0.125 becomes
// -0.12. decimal.Round would move it away from zero.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// PeriodSpend is the expense total of one month, overall and per category
type PeriodSpend struct {
	ByCategory map[int32]decimal.Decimal
	Total      decimal.Decimal
}

// For returns the spend of one category, or the overall spend when categoryID is nil
func (p *PeriodSpend) For(categoryID *int32) decimal.Decimal {
	if categoryID == nil {
		return p.Total
	}
	if spent, ok := p.ByCategory[*categoryID]; ok {
		return spent
	}
	return decimal.Zero
}

// AggregationService derives spend figures from raw expense and income rows
type AggregationService struct {
	aggRepo domain.AggregationRepository
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(aggRepo domain.AggregationRepository) *AggregationService {
	return &AggregationService{aggRepo: aggRepo}
}

// SumAmount returns the exact sum of one entry kind for a category (or all
// categories when categoryID is nil) over period. No rows sums to zero.
func (s *AggregationService) SumAmount(ctx context.Context, ownerID int32, kind domain.EntryKind, categoryID *int32, period domain.Period) (decimal.Decimal, error) {
	total, err := s.aggRepo.SumAmount(ctx, ownerID, kind, categoryID, period)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s amounts for %s: %w", kind, period, err)
	}
	return total, nil
}

// SpendForPeriod loads expense totals for every category of one month in a single read
func (s *AggregationService) SpendForPeriod(ctx context.Context, ownerID int32, period domain.Period) (*PeriodSpend, error) {
	totals, err := s.aggRepo.TotalsByCategory(ctx, ownerID, domain.EntryKindExpense, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load category totals for %s: %w", period, err)
	}

	spend := &PeriodSpend{
		ByCategory: make(map[int32]decimal.Decimal, len(totals)),
		Total:      decimal.Zero,
	}
	for _, t := range totals {
		spend.ByCategory[t.CategoryID] = t.Total
		spend.Total = spend.Total.Add(t.Total)
	}
	return spend, nil
}

// SpendForPeriods loads PeriodSpend for each distinct period, one read per period
func (s *AggregationService) SpendForPeriods(ctx context.Context, ownerID int32, periods []domain.Period) (map[domain.Period]*PeriodSpend, error) {
	result := make(map[domain.Period]*PeriodSpend, len(periods))
	for _, p := range periods {
		if _, ok := result[p]; ok {
			continue
		}
		spend, err := s.SpendForPeriod(ctx, ownerID, p)
		if err != nil {
			return nil, err
		}
		result[p] = spend
	}
	return result, nil
}
