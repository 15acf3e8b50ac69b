package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetService reconciles monthly budgets with aggregated spend. A budget
// without a category is the general budget and spans every category.
type BudgetService struct {
	budgetRepo   domain.BudgetRepository
	categoryRepo domain.CategoryRepository
	aggregation  *AggregationService
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository, categoryRepo domain.CategoryRepository, aggregation *AggregationService) *BudgetService {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		categoryRepo: categoryRepo,
		aggregation:  aggregation,
	}
}

// GetAll returns every budget of the owner, newest month first
func (s *BudgetService) GetAll(ctx context.Context, ownerID int32) ([]*domain.BudgetStatus, error) {
	views, err := s.budgetRepo.GetAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.withSpend(ctx, ownerID, views)
}

// GetByPeriod returns the budgets of one month
func (s *BudgetService) GetByPeriod(ctx context.Context, ownerID int32, year, month int) ([]*domain.BudgetStatus, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	views, err := s.budgetRepo.GetByPeriod(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}
	return s.withSpend(ctx, ownerID, views)
}

// GetByID returns one budget with its current spend
func (s *BudgetService) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.BudgetStatus, error) {
	view, err := s.budgetRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	spent, err := s.aggregation.SumAmount(ctx, ownerID, domain.EntryKindExpense, view.CategoryID, view.Period())
	if err != nil {
		return nil, err
	}
	return newBudgetStatus(view, spent), nil
}

// CreateOrUpdate saves a budget. With an ID every field of that budget is
// replaced; without one the (category, month) tuple decides between insert
// and an amount-only update.
func (s *BudgetService) CreateOrUpdate(ctx context.Context, ownerID int32, in domain.BudgetInput) (*domain.BudgetStatus, error) {
	period, err := domain.NewPeriod(in.Year, in.Month)
	if err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, domain.ErrNegativeLimit
	}

	var saved *domain.Budget
	if in.ID != nil {
		saved, err = s.replace(ctx, ownerID, *in.ID, in, period)
	} else {
		saved, err = s.upsert(ctx, ownerID, in.CategoryID, in.Amount, period)
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, saved.ID)
}

// Delete removes a budget owned by the caller
func (s *BudgetService) Delete(ctx context.Context, ownerID int32, id int32) error {
	if err := s.budgetRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	log.Info().Int32("owner_id", ownerID).Int32("budget_id", id).Msg("Budget deleted")
	return nil
}

func (s *BudgetService) replace(ctx context.Context, ownerID int32, id int32, in domain.BudgetInput, period domain.Period) (*domain.Budget, error) {
	existing, err := s.budgetRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return nil, domain.ErrBudgetToUpdateMissing
		}
		return nil, err
	}

	if in.CategoryID != nil && !sameCategoryID(existing.CategoryID, in.CategoryID) {
		if err := s.validateCategory(ctx, ownerID, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	updated, err := s.budgetRepo.Update(ctx, &domain.Budget{
		ID:          id,
		OwnerID:     ownerID,
		CategoryID:  in.CategoryID,
		LimitAmount: in.Amount,
		Year:        period.Year,
		Month:       period.Month,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("budget_id", id).Str("period", period.String()).Msg("Budget replaced")
	return updated, nil
}

// upsert mirrors the limit upsert: update by natural key, else insert, and
// a lost insert race becomes an update of the winning row
func (s *BudgetService) upsert(ctx context.Context, ownerID int32, categoryID *int32, amount decimal.Decimal, period domain.Period) (*domain.Budget, error) {
	existing, err := s.budgetRepo.GetByNaturalKey(ctx, ownerID, categoryID, period)
	if err == nil {
		return s.budgetRepo.UpdateAmount(ctx, ownerID, existing.ID, amount)
	}
	if !errors.Is(err, domain.ErrBudgetNotFound) {
		return nil, err
	}

	if categoryID != nil {
		if err := s.validateCategory(ctx, ownerID, *categoryID); err != nil {
			return nil, err
		}
	}

	created, err := s.budgetRepo.Create(ctx, &domain.Budget{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		LimitAmount: amount,
		Year:        period.Year,
		Month:       period.Month,
	})
	if err == nil {
		log.Info().Int32("owner_id", ownerID).Bool("general", categoryID == nil).Str("period", period.String()).Msg("Budget created")
		return created, nil
	}
	if !errors.Is(err, domain.ErrBudgetAlreadyExists) {
		return nil, err
	}

	winner, retryErr := s.budgetRepo.GetByNaturalKey(ctx, ownerID, categoryID, period)
	if retryErr != nil {
		return nil, err
	}
	log.Debug().Int32("owner_id", ownerID).Int32("budget_id", winner.ID).Msg("Budget insert raced, updating instead")
	return s.budgetRepo.UpdateAmount(ctx, ownerID, winner.ID, amount)
}

func (s *BudgetService) validateCategory(ctx context.Context, ownerID int32, categoryID int32) error {
	category, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.ErrInvalidCategory
		}
		return err
	}
	if !category.Type.AllowsExpenses() {
		return fmt.Errorf("%w: budgets require an expense category", domain.ErrInvalidCategory)
	}
	return nil
}

func (s *BudgetService) withSpend(ctx context.Context, ownerID int32, views []*domain.BudgetView) ([]*domain.BudgetStatus, error) {
	periods := make([]domain.Period, len(views))
	for i, v := range views {
		periods[i] = v.Period()
	}
	spend, err := s.aggregation.SpendForPeriods(ctx, ownerID, periods)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.BudgetStatus, len(views))
	for i, v := range views {
		result[i] = newBudgetStatus(v, spend[v.Period()].For(v.CategoryID))
	}
	return result, nil
}

func newBudgetStatus(view *domain.BudgetView, spent decimal.Decimal) *domain.BudgetStatus {
	status := &domain.BudgetStatus{
		BudgetView:      *view,
		Spent:           spent,
		Available:       view.LimitAmount.Sub(spent),
		PercentConsumed: Percent(spent, view.LimitAmount),
		Exceeded:        spent.GreaterThan(view.LimitAmount),
	}
	if view.IsGeneral() {
		status.CategoryName = domain.GeneralBudgetName
		status.CategoryColor = domain.GeneralBudgetColor
		status.CategoryIcon = domain.GeneralBudgetIcon
	}
	return status
}

func sameCategoryID(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
