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

// IncomeService handles income-related business logic
type IncomeService struct {
	incomeRepo   domain.IncomeRepository
	categoryRepo domain.CategoryRepository
	aggRepo      domain.AggregationRepository
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(incomeRepo domain.IncomeRepository, categoryRepo domain.CategoryRepository, aggRepo domain.AggregationRepository) *IncomeService {
	return &IncomeService{
		incomeRepo:   incomeRepo,
		categoryRepo: categoryRepo,
		aggRepo:      aggRepo,
	}
}

// IncomeInput holds the editable fields of an income
type IncomeInput struct {
	CategoryID  int32
	Amount      decimal.Decimal
	Concept     string
	Date        time.Time
	Description *string
}

// IncomeTotal is the income received in one month
type IncomeTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// List returns every income of the owner, newest first
func (s *IncomeService) List(ctx context.Context, ownerID int32) ([]*domain.Income, error) {
	return s.incomeRepo.List(ctx, ownerID)
}

// ListByPeriod returns the incomes of one month
func (s *IncomeService) ListByPeriod(ctx context.Context, ownerID int32, year, month int) ([]*domain.Income, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.incomeRepo.ListByPeriod(ctx, ownerID, period)
}

// TotalByPeriod sums the incomes of one month
func (s *IncomeService) TotalByPeriod(ctx context.Context, ownerID int32, year, month int) (*IncomeTotal, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	total, err := s.aggRepo.PeriodTotal(ctx, ownerID, domain.EntryKindIncome, period)
	if err != nil {
		return nil, fmt.Errorf("failed to total incomes for %s: %w", period, err)
	}
	return &IncomeTotal{
		Year:  period.Year,
		Month: period.Month,
		Total: total.Total,
		Count: total.Count,
	}, nil
}

// GetByID returns an income owned by the caller
func (s *IncomeService) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Income, error) {
	return s.incomeRepo.GetByID(ctx, ownerID, id)
}

// Create records a new income
func (s *IncomeService) Create(ctx context.Context, ownerID int32, input IncomeInput) (*domain.Income, error) {
	in, err := s.validate(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	income, err := s.incomeRepo.Create(ctx, &domain.Income{
		OwnerID:     ownerID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Concept:     in.Concept,
		Date:        in.Date,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("income_id", income.ID).Msg("Income created")
	return income, nil
}

// Update replaces the editable fields of an income owned by the caller
func (s *IncomeService) Update(ctx context.Context, ownerID int32, id int32, input IncomeInput) (*domain.Income, error) {
	if _, err := s.incomeRepo.GetByID(ctx, ownerID, id); err != nil {
		return nil, err
	}
	in, err := s.validate(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	return s.incomeRepo.Update(ctx, &domain.Income{
		ID:          id,
		OwnerID:     ownerID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Concept:     in.Concept,
		Date:        in.Date,
		Description: in.Description,
	})
}

// Delete removes an income owned by the caller
func (s *IncomeService) Delete(ctx context.Context, ownerID int32, id int32) error {
	if err := s.incomeRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	log.Info().Int32("owner_id", ownerID).Int32("income_id", id).Msg("Income deleted")
	return nil
}

func (s *IncomeService) validate(ctx context.Context, ownerID int32, input IncomeInput) (IncomeInput, error) {
	if !input.Amount.IsPositive() {
		return input, domain.ErrInvalidAmount
	}
	if input.Date.IsZero() {
		return input, fmt.Errorf("%w: date is required", domain.ErrInvalidArgument)
	}

	input.Concept = strings.TrimSpace(input.Concept)
	if n := utf8.RuneCountInString(input.Concept); n < domain.MinNameLength || n > domain.MaxConceptLength {
		return input, domain.ErrInvalidConcept
	}

	description, err := normalizeDescription(input.Description)
	if err != nil {
		return input, err
	}
	input.Description = description

	category, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, input.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return input, domain.ErrInvalidCategory
		}
		return input, err
	}
	if !category.IsActive || !category.Type.AllowsIncome() {
		return input, fmt.Errorf("%w: incomes require an active income category", domain.ErrInvalidCategory)
	}
	return input, nil
}
