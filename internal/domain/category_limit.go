package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryLimit caps spending in one expense category for one month.
// At most one exists per (owner, category, year, month).
type CategoryLimit struct {
	ID          int32           `json:"id"`
	OwnerID     int32           `json:"ownerId"`
	CategoryID  int32           `json:"categoryId"`
	LimitAmount decimal.Decimal `json:"limitAmount"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// Period returns the month the limit applies to
func (l *CategoryLimit) Period() Period {
	return Period{Year: l.Year, Month: l.Month}
}

// CategoryLimitView is a stored limit joined with its category presentation
type CategoryLimitView struct {
	CategoryLimit
	CategoryName  string `json:"categoryName"`
	CategoryColor string `json:"categoryColor"`
	CategoryIcon  string `json:"categoryIcon"`
}

// LimitStatus is a limit joined with the spend aggregated for its category and month
type LimitStatus struct {
	CategoryLimitView
	Spent           decimal.Decimal `json:"spent"`
	Available       decimal.Decimal `json:"available"`
	PercentConsumed decimal.Decimal `json:"percentConsumed"`
	Exceeded        bool            `json:"exceeded"`
}

// LimitPeriodSummary aggregates every limit of one month
type LimitPeriodSummary struct {
	Year                int             `json:"year"`
	Month               int             `json:"month"`
	TotalLimits         decimal.Decimal `json:"totalLimits"`
	TotalSpent          decimal.Decimal `json:"totalSpent"`
	TotalAvailable      decimal.Decimal `json:"totalAvailable"`
	PercentConsumed     decimal.Decimal `json:"percentConsumed"`
	CategoriesWithLimit int             `json:"categoriesWithLimit"`
	CategoriesExceeded  int             `json:"categoriesExceeded"`
	Limits              []*LimitStatus  `json:"limits"`
}

// LimitHistory lists every limit ever set on one category, newest first
type LimitHistory struct {
	CategoryID   int32          `json:"categoryId"`
	CategoryName string         `json:"categoryName"`
	History      []*LimitStatus `json:"history"`
}

// LimitItem is one entry of a batch limit request
type LimitItem struct {
	CategoryID  int32           `json:"categoryId"`
	LimitAmount decimal.Decimal `json:"limitAmount"`
}

// CategoryLimitRepository defines the interface for category limit persistence
type CategoryLimitRepository interface {
	// GetAll orders by year desc, month desc, category name asc
	GetAll(ctx context.Context, ownerID int32) ([]*CategoryLimitView, error)
	// GetByPeriod orders by category name asc
	GetByPeriod(ctx context.Context, ownerID int32, period Period) ([]*CategoryLimitView, error)
	GetByID(ctx context.Context, ownerID int32, id int32) (*CategoryLimitView, error)
	GetByCategoryAndPeriod(ctx context.Context, ownerID int32, categoryID int32, period Period) (*CategoryLimitView, error)
	// GetByCategory orders by year desc, month desc
	GetByCategory(ctx context.Context, ownerID int32, categoryID int32) ([]*CategoryLimitView, error)
	// Create returns ErrCategoryLimitAlreadyExists when the natural key is taken
	Create(ctx context.Context, limit *CategoryLimit) (*CategoryLimit, error)
	UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*CategoryLimit, error)
	Delete(ctx context.Context, ownerID int32, id int32) error
}
