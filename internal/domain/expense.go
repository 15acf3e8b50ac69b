package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money spent by the owner against an expense category
type Expense struct {
	ID            int32           `json:"id"`
	OwnerID       int32           `json:"ownerId"`
	CategoryID    int32           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   *string         `json:"description,omitempty"`
	ReceiptPath   *string         `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

// ExpenseSortField selects the ordering of an expense listing
type ExpenseSortField string

const (
	ExpenseSortByDate     ExpenseSortField = "date"
	ExpenseSortByAmount   ExpenseSortField = "amount"
	ExpenseSortByCategory ExpenseSortField = "category"
)

// Valid reports whether f is a supported sort field
func (f ExpenseSortField) Valid() bool {
	switch f {
	case ExpenseSortByDate, ExpenseSortByAmount, ExpenseSortByCategory:
		return true
	}
	return false
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ExpenseFilters narrows and orders an expense listing. From and To are inclusive dates.
type ExpenseFilters struct {
	From       *time.Time
	To         *time.Time
	CategoryID *int32
	SortBy     ExpenseSortField
	SortDesc   bool
	Page       int
	PageSize   int
}

// PaginatedExpenses is one page of an expense listing
type PaginatedExpenses struct {
	Data       []*Expense `json:"data"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalItems int64      `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	List(ctx context.Context, ownerID int32, filters *ExpenseFilters) (*PaginatedExpenses, error)
	GetByID(ctx context.Context, ownerID int32, id int32) (*Expense, error)
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, ownerID int32, id int32) error
	SetReceipt(ctx context.Context, ownerID int32, id int32, receiptPath *string) error
}
