package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LimitService reconciles per-category monthly spending limits with the
// spend aggregated from expenses. Spent is always recomputed, never stored.
type LimitService struct {
	limitRepo    domain.CategoryLimitRepository
	categoryRepo domain.CategoryRepository
	aggregation  *AggregationService
}

// NewLimitService creates a new LimitService
func NewLimitService(limitRepo domain.CategoryLimitRepository, categoryRepo domain.CategoryRepository, aggregation *AggregationService) *LimitService {
	return &LimitService{
		limitRepo:    limitRepo,
		categoryRepo: categoryRepo,
		aggregation:  aggregation,
	}
}

// GetAll returns every limit of the owner with its current spend,
// ordered by year desc, month desc, category name asc
func (s *LimitService) GetAll(ctx context.Context, ownerID int32) ([]*domain.LimitStatus, error) {
	views, err := s.limitRepo.GetAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.withSpend(ctx, ownerID, views)
}

// GetByPeriod returns the limits of one month and their totals
func (s *LimitService) GetByPeriod(ctx context.Context, ownerID int32, year, month int) (*domain.LimitPeriodSummary, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.periodSummary(ctx, ownerID, period)
}

// GetByID returns one limit with its current spend
func (s *LimitService) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.LimitStatus, error) {
	view, err := s.limitRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.statusOf(ctx, ownerID, view)
}

// GetByCategoryAndPeriod returns the limit for a category and month, or nil when none is set
func (s *LimitService) GetByCategoryAndPeriod(ctx context.Context, ownerID int32, categoryID int32, year, month int) (*domain.LimitStatus, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}

	view, err := s.limitRepo.GetByCategoryAndPeriod(ctx, ownerID, categoryID, period)
	if errors.Is(err, domain.ErrCategoryLimitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.statusOf(ctx, ownerID, view)
}

// GetHistoryByCategory returns every limit set on a category, newest month first
func (s *LimitService) GetHistoryByCategory(ctx context.Context, ownerID int32, categoryID int32) (*domain.LimitHistory, error) {
	category, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrInvalidCategory
		}
		return nil, err
	}

	views, err := s.limitRepo.GetByCategory(ctx, ownerID, categoryID)
	if err != nil {
		return nil, err
	}
	history, err := s.withSpend(ctx, ownerID, views)
	if err != nil {
		return nil, err
	}

	return &domain.LimitHistory{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		History:      history,
	}, nil
}

// CreateOrUpdate sets the limit of a category for one month. The
// (owner, category, month) tuple decides between insert and update.
func (s *LimitService) CreateOrUpdate(ctx context.Context, ownerID int32, categoryID int32, amount decimal.Decimal, year, month int) (*domain.LimitStatus, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}

	limit, err := s.upsert(ctx, ownerID, categoryID, amount, period)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, limit.ID)
}

// CreateBatch applies CreateOrUpdate to each item in order and returns the
// month summary. Items are not applied atomically: the first failing item
// stops the batch and earlier items stay saved.
func (s *LimitService) CreateBatch(ctx context.Context, ownerID int32, year, month int, items []domain.LimitItem) (*domain.LimitPeriodSummary, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	for i, item := range items {
		if _, err := s.upsert(ctx, ownerID, item.CategoryID, item.LimitAmount, period); err != nil {
			log.Warn().Err(err).
				Int32("owner_id", ownerID).
				Int("applied", i).
				Int("total", len(items)).
				Msg("Limit batch stopped partway")
			return nil, err
		}
	}

	log.Info().Int32("owner_id", ownerID).Str("period", period.String()).Int("count", len(items)).Msg("Limit batch applied")
	return s.periodSummary(ctx, ownerID, period)
}

// Update changes the amount of an existing limit owned by the caller
func (s *LimitService) Update(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.LimitStatus, error) {
	if amount.IsNegative() {
		return nil, domain.ErrNegativeLimit
	}
	if _, err := s.limitRepo.UpdateAmount(ctx, ownerID, id, amount); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, id)
}

// Delete removes a limit owned by the caller
func (s *LimitService) Delete(ctx context.Context, ownerID int32, id int32) error {
	if err := s.limitRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	log.Info().Int32("owner_id", ownerID).Int32("limit_id", id).Msg("Category limit deleted")
	return nil
}

// CopyPeriod upserts every limit of one month into another. Re-running with
// the same input leaves the destination unchanged. Like CreateBatch it is
// not atomic.
func (s *LimitService) CopyPeriod(ctx context.Context, ownerID int32, fromYear, fromMonth, toYear, toMonth int) (*domain.LimitPeriodSummary, error) {
	from, err := domain.NewPeriod(fromYear, fromMonth)
	if err != nil {
		return nil, err
	}
	to, err := domain.NewPeriod(toYear, toMonth)
	if err != nil {
		return nil, err
	}
	if from.Equal(to) {
		return nil, domain.ErrSamePeriod
	}

	source, err := s.limitRepo.GetByPeriod(ctx, ownerID, from)
	if err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return nil, domain.ErrEmptySourcePeriod
	}

	for _, l := range source {
		if _, err := s.upsert(ctx, ownerID, l.CategoryID, l.LimitAmount, to); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int32("owner_id", ownerID).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("count", len(source)).
		Msg("Category limits copied")

	return s.periodSummary(ctx, ownerID, to)
}

// upsert validates the input then inserts or updates by natural key. An
// insert that loses a race against a concurrent writer is retried once as
// an update of the winning row.
func (s *LimitService) upsert(ctx context.Context, ownerID int32, categoryID int32, amount decimal.Decimal, period domain.Period) (*domain.CategoryLimit, error) {
	if amount.IsNegative() {
		return nil, domain.ErrNegativeLimit
	}
	if err := s.validateCategory(ctx, ownerID, categoryID); err != nil {
		return nil, err
	}

	existing, err := s.limitRepo.GetByCategoryAndPeriod(ctx, ownerID, categoryID, period)
	if err == nil {
		return s.limitRepo.UpdateAmount(ctx, ownerID, existing.ID, amount)
	}
	if !errors.Is(err, domain.ErrCategoryLimitNotFound) {
		return nil, err
	}

	created, err := s.limitRepo.Create(ctx, &domain.CategoryLimit{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		LimitAmount: amount,
		Year:        period.Year,
		Month:       period.Month,
	})
	if err == nil {
		log.Info().Int32("owner_id", ownerID).Int32("category_id", categoryID).Str("period", period.String()).Msg("Category limit created")
		return created, nil
	}
	if !errors.Is(err, domain.ErrCategoryLimitAlreadyExists) {
		return nil, err
	}

	winner, retryErr := s.limitRepo.GetByCategoryAndPeriod(ctx, ownerID, categoryID, period)
	if retryErr != nil {
		// The conflicting row vanished again; report the original conflict
		return nil, err
	}
	log.Debug().Int32("owner_id", ownerID).Int32("limit_id", winner.ID).Msg("Limit insert raced, updating instead")
	return s.limitRepo.UpdateAmount(ctx, ownerID, winner.ID, amount)
}

func (s *LimitService) validateCategory(ctx context.Context, ownerID int32, categoryID int32) error {
	category, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.ErrInvalidCategory
		}
		return err
	}
	if !category.Type.AllowsExpenses() {
		return fmt.Errorf("%w: limits require an expense category", domain.ErrInvalidCategory)
	}
	return nil
}

func (s *LimitService) periodSummary(ctx context.Context, ownerID int32, period domain.Period) (*domain.LimitPeriodSummary, error) {
	views, err := s.limitRepo.GetByPeriod(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}
	statuses, err := s.withSpend(ctx, ownerID, views)
	if err != nil {
		return nil, err
	}
	return summarizeLimits(period, statuses), nil
}

func (s *LimitService) statusOf(ctx context.Context, ownerID int32, view *domain.CategoryLimitView) (*domain.LimitStatus, error) {
	spent, err := s.aggregation.SumAmount(ctx, ownerID, domain.EntryKindExpense, &view.CategoryID, view.Period())
	if err != nil {
		return nil, err
	}
	return newLimitStatus(view, spent), nil
}

// withSpend joins limits with their spend using one aggregate read per distinct month
func (s *LimitService) withSpend(ctx context.Context, ownerID int32, views []*domain.CategoryLimitView) ([]*domain.LimitStatus, error) {
	periods := make([]domain.Period, len(views))
	for i, v := range views {
		periods[i] = v.Period()
	}
	spend, err := s.aggregation.SpendForPeriods(ctx, ownerID, periods)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.LimitStatus, len(views))
	for i, v := range views {
		result[i] = newLimitStatus(v, spend[v.Period()].For(&v.CategoryID))
	}
	return result, nil
}

func newLimitStatus(view *domain.CategoryLimitView, spent decimal.Decimal) *domain.LimitStatus {
	return &domain.LimitStatus{
		CategoryLimitView: *view,
		Spent:             spent,
		Available:         view.LimitAmount.Sub(spent),
		PercentConsumed:   Percent(spent, view.LimitAmount),
		Exceeded:          spent.GreaterThan(view.LimitAmount),
	}
}

func summarizeLimits(period domain.Period, limits []*domain.LimitStatus) *domain.LimitPeriodSummary {
	summary := &domain.LimitPeriodSummary{
		Year:                period.Year,
		Month:               period.Month,
		TotalLimits:         decimal.Zero,
		TotalSpent:          decimal.Zero,
		CategoriesWithLimit: len(limits),
		Limits:              limits,
	}
	for _, l := range limits {
		summary.TotalLimits = summary.TotalLimits.Add(l.LimitAmount)
		summary.TotalSpent = summary.TotalSpent.Add(l.Spent)
		if l.Exceeded {
			summary.CategoriesExceeded++
		}
	}
	summary.TotalAvailable = summary.TotalLimits.Sub(summary.TotalSpent)
	summary.PercentConsumed = Percent(summary.TotalSpent, summary.TotalLimits)
	return summary
}
