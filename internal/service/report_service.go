package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/util"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReportService derives read-only reports from the aggregation queries
type ReportService struct {
	aggRepo domain.AggregationRepository
	now     func() time.Time
}

// NewReportService creates a new ReportService using the wall clock
func NewReportService(aggRepo domain.AggregationRepository) *ReportService {
	return &ReportService{
		aggRepo: aggRepo,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to resolve the current month
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// resolvePeriod fills a missing year or month from the current date
func (s *ReportService) resolvePeriod(year, month *int) (domain.Period, error) {
	current := domain.PeriodOf(s.now())
	if year != nil {
		current.Year = *year
	}
	if month != nil {
		current.Month = *month
	}
	if err := current.Validate(); err != nil {
		return domain.Period{}, err
	}
	return current, nil
}

// MonthlySummary reports totals, averages and the change against the
// previous month. Omitted year or month default to the current one.
func (s *ReportService) MonthlySummary(ctx context.Context, ownerID int32, year, month *int) (*domain.MonthlySummary, error) {
	period, err := s.resolvePeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.summaryFor(ctx, ownerID, period)
}

func (s *ReportService) summaryFor(ctx context.Context, ownerID int32, period domain.Period) (*domain.MonthlySummary, error) {
	expenses, err := s.aggRepo.PeriodTotal(ctx, ownerID, domain.EntryKindExpense, period)
	if err != nil {
		return nil, fmt.Errorf("failed to total expenses for %s: %w", period, err)
	}
	incomes, err := s.aggRepo.PeriodTotal(ctx, ownerID, domain.EntryKindIncome, period)
	if err != nil {
		return nil, fmt.Errorf("failed to total incomes for %s: %w", period, err)
	}
	previous, err := s.aggRepo.SumAmount(ctx, ownerID, domain.EntryKindExpense, nil, period.Previous())
	if err != nil {
		return nil, fmt.Errorf("failed to total expenses for %s: %w", period.Previous(), err)
	}
	totals, err := s.aggRepo.TotalsByCategory(ctx, ownerID, domain.EntryKindExpense, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load category totals for %s: %w", period, err)
	}

	summary := &domain.MonthlySummary{
		Year:                period.Year,
		Month:               period.Month,
		TotalSpent:          expenses.Total,
		ExpenseCount:        expenses.Count,
		TotalIncome:         incomes.Total,
		IncomeCount:         incomes.Count,
		AverageExpense:      decimal.Zero,
		AverageDailyExpense: decimal.Zero,
		PreviousMonthSpent:  previous,
		ChangeAmount:        expenses.Total.Sub(previous),
		ChangePercent:       Percent(expenses.Total.Sub(previous), previous),
	}

	if expenses.Count > 0 {
		summary.AverageExpense = RoundMoney(expenses.Total.Div(decimal.NewFromInt(expenses.Count)))
		days := util.DaysElapsed(period.Year, period.Month, s.now())
		summary.AverageDailyExpense = RoundMoney(expenses.Total.Div(decimal.NewFromInt(int64(days))))
	}

	if len(totals) > 0 {
		top := totals[0]
		summary.CategoryWithHighestSpend = &domain.HighestSpendCategory{
			CategoryID: top.CategoryID,
			Name:       top.CategoryName,
			Icon:       top.CategoryIcon,
			Color:      top.CategoryColor,
			Total:      top.Total,
			Count:      top.Count,
		}
	}

	return summary, nil
}

// ExpensesByCategory lists active categories with their share of the month's total spend
func (s *ReportService) ExpensesByCategory(ctx context.Context, ownerID int32, year, month *int) ([]*domain.CategoryBreakdown, error) {
	period, err := s.resolvePeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.breakdown(ctx, ownerID, domain.EntryKindExpense, period, func(ct *domain.CategoryTotal) bool {
		return ct.IsActive
	})
}

// IncomeByCategory lists active income categories with their share of the month's total income
func (s *ReportService) IncomeByCategory(ctx context.Context, ownerID int32, year, month *int) ([]*domain.CategoryBreakdown, error) {
	period, err := s.resolvePeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.breakdown(ctx, ownerID, domain.EntryKindIncome, period, func(ct *domain.CategoryTotal) bool {
		return ct.IsActive && ct.CategoryType.AllowsIncome()
	})
}

func (s *ReportService) breakdown(ctx context.Context, ownerID int32, kind domain.EntryKind, period domain.Period, keep func(*domain.CategoryTotal) bool) ([]*domain.CategoryBreakdown, error) {
	totals, err := s.aggRepo.TotalsByCategory(ctx, ownerID, kind, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s totals for %s: %w", kind, period, err)
	}
	// Shares are of every row in the month, including rows whose category is not listed
	periodTotal, err := s.aggRepo.PeriodTotal(ctx, ownerID, kind, period)
	if err != nil {
		return nil, fmt.Errorf("failed to total %s for %s: %w", kind, period, err)
	}

	kept := make([]*domain.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		if !keep(ct) || !ct.Total.IsPositive() {
			continue
		}
		kept = append(kept, ct)
	}

	result := make([]*domain.CategoryBreakdown, len(kept))
	for i, ct := range kept {
		result[i] = &domain.CategoryBreakdown{
			CategoryID:    ct.CategoryID,
			CategoryName:  ct.CategoryName,
			CategoryIcon:  ct.CategoryIcon,
			CategoryColor: ct.CategoryColor,
			Total:         ct.Total,
			Count:         ct.Count,
			Percentage:    Percent(ct.Total, periodTotal.Total),
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total.GreaterThan(result[j].Total)
	})
	return result, nil
}

// Evolution returns the last n months up to and including the current one,
// oldest first. Months without activity report zeros.
func (s *ReportService) Evolution(ctx context.Context, ownerID int32, months int) ([]*domain.EvolutionEntry, error) {
	if months < 1 || months > domain.MaxEvolutionMonths {
		return nil, domain.ErrInvalidMonthRange
	}

	periods := domain.LastN(domain.PeriodOf(s.now()), months)
	from, to := periods[0], periods[len(periods)-1]

	spent, err := s.aggRepo.MonthlyTotals(ctx, ownerID, domain.EntryKindExpense, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly expense totals: %w", err)
	}
	earned, err := s.aggRepo.MonthlyTotals(ctx, ownerID, domain.EntryKindIncome, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly income totals: %w", err)
	}

	spentBy := indexMonthly(spent)
	earnedBy := indexMonthly(earned)

	result := make([]*domain.EvolutionEntry, len(periods))
	for i, p := range periods {
		entry := &domain.EvolutionEntry{
			Year:        p.Year,
			Month:       p.Month,
			Label:       p.Label(),
			TotalSpent:  decimal.Zero,
			TotalIncome: decimal.Zero,
		}
		if mt, ok := spentBy[p]; ok {
			entry.TotalSpent = mt.Total
			entry.ExpenseCount = mt.Count
		}
		if mt, ok := earnedBy[p]; ok {
			entry.TotalIncome = mt.Total
			entry.IncomeCount = mt.Count
		}
		result[i] = entry
	}
	return result, nil
}

func indexMonthly(totals []*domain.MonthlyTotal) map[domain.Period]*domain.MonthlyTotal {
	index := make(map[domain.Period]*domain.MonthlyTotal, len(totals))
	for _, mt := range totals {
		index[mt.Period] = mt
	}
	return index
}

// Comparison reports the current month against the previous one, overall
// and per category. Categories idle in both months are left out.
func (s *ReportService) Comparison(ctx context.Context, ownerID int32) (*domain.Comparison, error) {
	current := domain.PeriodOf(s.now())
	previous := current.Previous()

	var (
		currentSummary, previousSummary *domain.MonthlySummary
		currentTotals, previousTotals   []*domain.CategoryTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentSummary, err = s.summaryFor(gctx, ownerID, current)
		return err
	})
	g.Go(func() error {
		var err error
		previousSummary, err = s.summaryFor(gctx, ownerID, previous)
		return err
	})
	g.Go(func() error {
		var err error
		currentTotals, err = s.aggRepo.TotalsByCategory(gctx, ownerID, domain.EntryKindExpense, current)
		return err
	})
	g.Go(func() error {
		var err error
		previousTotals, err = s.aggRepo.TotalsByCategory(gctx, ownerID, domain.EntryKindExpense, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build comparison: %w", err)
	}

	return &domain.Comparison{
		CurrentMonth:  currentSummary,
		PreviousMonth: previousSummary,
		Categories:    compareCategories(currentTotals, previousTotals),
	}, nil
}

func compareCategories(current, previous []*domain.CategoryTotal) []*domain.CategoryComparison {
	byID := make(map[int32]*domain.CategoryComparison)
	order := make([]int32, 0, len(current)+len(previous))

	entry := func(ct *domain.CategoryTotal) *domain.CategoryComparison {
		if c, ok := byID[ct.CategoryID]; ok {
			return c
		}
		c := &domain.CategoryComparison{
			CategoryID:     ct.CategoryID,
			CategoryName:   ct.CategoryName,
			CategoryIcon:   ct.CategoryIcon,
			CategoryColor:  ct.CategoryColor,
			CurrentAmount:  decimal.Zero,
			PreviousAmount: decimal.Zero,
		}
		byID[ct.CategoryID] = c
		order = append(order, ct.CategoryID)
		return c
	}

	for _, ct := range current {
		entry(ct).CurrentAmount = ct.Total
	}
	for _, ct := range previous {
		entry(ct).PreviousAmount = ct.Total
	}

	result := make([]*domain.CategoryComparison, 0, len(order))
	for _, id := range order {
		c := byID[id]
		if c.CurrentAmount.IsZero() && c.PreviousAmount.IsZero() {
			continue
		}
		c.Difference = c.CurrentAmount.Sub(c.PreviousAmount)
		c.ChangePercent = Percent(c.Difference, c.PreviousAmount)
		result = append(result, c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CurrentAmount.Equal(result[j].CurrentAmount) {
			return result[i].CurrentAmount.GreaterThan(result[j].CurrentAmount)
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result
}
