package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// EntryKind selects which transactional records an aggregate reads
type EntryKind string

const (
	EntryKindExpense EntryKind = "expense"
	EntryKindIncome  EntryKind = "income"
)

// PeriodTotal is the sum and row count of one entry kind over a month
type PeriodTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// CategoryTotal is the sum and row count of one category over a month
type CategoryTotal struct {
	CategoryID    int32           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	CategoryType  CategoryType    `json:"categoryType"`
	IsActive      bool            `json:"isActive"`
	Total         decimal.Decimal `json:"total"`
	Count         int64           `json:"count"`
}

// MonthlyTotal is a PeriodTotal tagged with its month
type MonthlyTotal struct {
	Period
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// AggregationRepository computes exact decimal aggregates over expenses and incomes.
// Every method returns zero values rather than errors when no rows match.
type AggregationRepository interface {
	// SumAmount sums one category, or every category when categoryID is nil
	SumAmount(ctx context.Context, ownerID int32, kind EntryKind, categoryID *int32, period Period) (decimal.Decimal, error)
	PeriodTotal(ctx context.Context, ownerID int32, kind EntryKind, period Period) (*PeriodTotal, error)
	// TotalsByCategory returns only categories with at least one row in the period
	TotalsByCategory(ctx context.Context, ownerID int32, kind EntryKind, period Period) ([]*CategoryTotal, error)
	// MonthlyTotals returns months in [from, to] that have rows, oldest first
	MonthlyTotals(ctx context.Context, ownerID int32, kind EntryKind, from, to Period) ([]*MonthlyTotal, error)
}
