package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExpenseService handles expense-related business logic
type ExpenseService struct {
	expenseRepo  domain.ExpenseRepository
	categoryRepo domain.CategoryRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository, categoryRepo domain.CategoryRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
	}
}

// ExpenseInput holds the editable fields of an expense
type ExpenseInput struct {
	CategoryID  int32
	Amount      decimal.Decimal
	Date        time.Time
	Description *string
}

// NormalizeExpenseFilters applies paging and ordering defaults. Out-of-range
// paging values are clamped; an inverted date range is rejected.
func NormalizeExpenseFilters(filters domain.ExpenseFilters) (*domain.ExpenseFilters, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	if filters.SortBy == "" {
		filters.SortBy = domain.ExpenseSortByDate
		filters.SortDesc = true
	}
	if !filters.SortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidArgument, filters.SortBy)
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, domain.ErrInvalidDateRange
	}
	return &filters, nil
}

// List returns one page of the owner's expenses
func (s *ExpenseService) List(ctx context.Context, ownerID int32, filters domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	normalized, err := NormalizeExpenseFilters(filters)
	if err != nil {
		return nil, err
	}
	return s.expenseRepo.List(ctx, ownerID, normalized)
}

// GetByID returns an expense owned by the caller
func (s *ExpenseService) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(ctx, ownerID, id)
}

// Create records a new expense
func (s *ExpenseService) Create(ctx context.Context, ownerID int32, input ExpenseInput) (*domain.Expense, error) {
	description, err := s.validate(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	expense, err := s.expenseRepo.Create(ctx, &domain.Expense{
		OwnerID:     ownerID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Date:        input.Date,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("expense_id", expense.ID).Msg("Expense created")
	return expense, nil
}

// Update replaces the editable fields of an expense owned by the caller
func (s *ExpenseService) Update(ctx context.Context, ownerID int32, id int32, input ExpenseInput) (*domain.Expense, error) {
	if _, err := s.expenseRepo.GetByID(ctx, ownerID, id); err != nil {
		return nil, err
	}
	description, err := s.validate(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	return s.expenseRepo.Update(ctx, &domain.Expense{
		ID:          id,
		OwnerID:     ownerID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Date:        input.Date,
		Description: description,
	})
}

// Delete removes an expense and returns it so callers can release its receipt
func (s *ExpenseService) Delete(ctx context.Context, ownerID int32, id int32) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Delete(ctx, ownerID, id); err != nil {
		return nil, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("expense_id", id).Msg("Expense deleted")
	return expense, nil
}

func (s *ExpenseService) validate(ctx context.Context, ownerID int32, input ExpenseInput) (*string, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidArgument)
	}

	category, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, input.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrInvalidCategory
		}
		return nil, err
	}
	if !category.IsActive || !category.Type.AllowsExpenses() {
		return nil, fmt.Errorf("%w: expenses require an active expense category", domain.ErrInvalidCategory)
	}

	return normalizeDescription(input.Description)
}

// normalizeDescription trims a description, treating blank text as absent
func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	return &trimmed, nil
}
