package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Income is money received by the owner against an income category
type Income struct {
	ID            int32           `json:"id"`
	OwnerID       int32           `json:"ownerId"`
	CategoryID    int32           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"`
	Date          time.Time       `json:"date"`
	Description   *string         `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IncomeRepository defines the interface for income persistence
type IncomeRepository interface {
	// List returns incomes ordered by date desc then creation desc
	List(ctx context.Context, ownerID int32) ([]*Income, error)
	ListByPeriod(ctx context.Context, ownerID int32, period Period) ([]*Income, error)
	GetByID(ctx context.Context, ownerID int32, id int32) (*Income, error)
	Create(ctx context.Context, income *Income) (*Income, error)
	Update(ctx context.Context, income *Income) (*Income, error)
	Delete(ctx context.Context, ownerID int32, id int32) error
}
