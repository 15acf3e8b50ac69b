package domain

import (
	"context"
	"time"
)

// CategoryType restricts which kind of entry a category may classify
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeBoth    CategoryType = "both"
)

// Valid reports whether t is a known category type
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeExpense, CategoryTypeIncome, CategoryTypeBoth:
		return true
	}
	return false
}

// AllowsExpenses reports whether expenses, limits and budgets may use the category
func (t CategoryType) AllowsExpenses() bool {
	return t == CategoryTypeExpense || t == CategoryTypeBoth
}

// AllowsIncome reports whether incomes may use the category
func (t CategoryType) AllowsIncome() bool {
	return t == CategoryTypeIncome || t == CategoryTypeBoth
}

// Default presentation for categories and the general budget
const (
	DefaultCategoryIcon  = "pi-tag"
	DefaultCategoryColor = "#6366f1"

	GeneralBudgetName  = "General"
	GeneralBudgetColor = "#6366f1"
	GeneralBudgetIcon  = "pi-wallet"
)

// Category classifies expenses and incomes. Predefined categories have no
// owner and are shared by every user.
type Category struct {
	ID           int32        `json:"id"`
	OwnerID      *int32       `json:"ownerId,omitempty"`
	Name         string       `json:"name"`
	Icon         string       `json:"icon"`
	Color        string       `json:"color"`
	Type         CategoryType `json:"type"`
	IsPredefined bool         `json:"isPredefined"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// VisibleTo reports whether ownerID may read the category
func (c *Category) VisibleTo(ownerID int32) bool {
	return c.IsPredefined || (c.OwnerID != nil && *c.OwnerID == ownerID)
}

// EditableBy reports whether ownerID may update or delete the category
func (c *Category) EditableBy(ownerID int32) bool {
	return !c.IsPredefined && c.OwnerID != nil && *c.OwnerID == ownerID
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// ListVisible returns active categories visible to the owner, predefined first then by name
	ListVisible(ctx context.Context, ownerID int32) ([]*Category, error)
	// GetVisibleByID returns ErrCategoryNotFound when the category is absent or not visible
	GetVisibleByID(ctx context.Context, ownerID int32, id int32) (*Category, error)
	// ExistsByName matches case-insensitively among active visible categories
	ExistsByName(ctx context.Context, ownerID int32, name string, excludeID *int32) (bool, error)
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	// IsInUse reports whether any expense or income references the category
	IsInUse(ctx context.Context, ownerID int32, id int32) (bool, error)
	SoftDelete(ctx context.Context, ownerID int32, id int32) error
	Delete(ctx context.Context, ownerID int32, id int32) error
}
