package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for one month, either in a single category or,
// when CategoryID is nil, across all categories (the general budget).
type Budget struct {
	ID          int32           `json:"id"`
	OwnerID     int32           `json:"ownerId"`
	CategoryID  *int32          `json:"categoryId"`
	LimitAmount decimal.Decimal `json:"limitAmount"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// Period returns the month the budget applies to
func (b *Budget) Period() Period {
	return Period{Year: b.Year, Month: b.Month}
}

// IsGeneral reports whether the budget spans every category
func (b *Budget) IsGeneral() bool {
	return b.CategoryID == nil
}

// BudgetView is a stored budget joined with its category presentation.
// The category fields are empty for the general budget.
type BudgetView struct {
	Budget
	CategoryName  string `json:"categoryName"`
	CategoryColor string `json:"categoryColor"`
	CategoryIcon  string `json:"categoryIcon"`
}

// BudgetStatus is a budget joined with its aggregated spend
type BudgetStatus struct {
	BudgetView
	Spent           decimal.Decimal `json:"spent"`
	Available       decimal.Decimal `json:"available"`
	PercentConsumed decimal.Decimal `json:"percentConsumed"`
	Exceeded        bool            `json:"exceeded"`
}

// BudgetInput addresses a budget either by ID or by (category, year, month)
type BudgetInput struct {
	ID         *int32
	CategoryID *int32
	Amount     decimal.Decimal
	Year       int
	Month      int
}

// BudgetRepository defines the interface for budget persistence
type BudgetRepository interface {
	// GetAll orders by year desc, month desc, general budget first then category name
	GetAll(ctx context.Context, ownerID int32) ([]*BudgetView, error)
	GetByPeriod(ctx context.Context, ownerID int32, period Period) ([]*BudgetView, error)
	GetByID(ctx context.Context, ownerID int32, id int32) (*BudgetView, error)
	// GetByNaturalKey treats a nil categoryID as the general budget
	GetByNaturalKey(ctx context.Context, ownerID int32, categoryID *int32, period Period) (*BudgetView, error)
	// Create and Update return ErrBudgetAlreadyExists when the natural key is taken
	Create(ctx context.Context, budget *Budget) (*Budget, error)
	Update(ctx context.Context, budget *Budget) (*Budget, error)
	UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*Budget, error)
	Delete(ctx context.Context, ownerID int32, id int32) error
}
