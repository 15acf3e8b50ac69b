package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const budgetColumns = `id, owner_id, category_id, limit_amount, year, month, created_at, updated_at`

// The general budget has no category, so the join is LEFT and its
// presentation columns come back empty
const budgetViewSelect = `
	SELECT b.id, b.owner_id, b.category_id, b.limit_amount, b.year, b.month, b.created_at, b.updated_at,
	       COALESCE(c.name, ''), COALESCE(c.color, ''), COALESCE(c.icon, '')
	FROM budgets b
	LEFT JOIN categories c ON c.id = b.category_id`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// GetAll returns every budget of the owner, newest period first, general budget first
func (r *BudgetRepository) GetAll(ctx context.Context, ownerID int32) ([]*domain.BudgetView, error) {
	return r.queryViews(ctx, budgetViewSelect+`
		WHERE b.owner_id = $1
		ORDER BY b.year DESC, b.month DESC, b.category_id IS NOT NULL, c.name`, ownerID)
}

// GetByPeriod returns the owner's budgets for one month, general budget first
func (r *BudgetRepository) GetByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.BudgetView, error) {
	return r.queryViews(ctx, budgetViewSelect+`
		WHERE b.owner_id = $1 AND b.year = $2 AND b.month = $3
		ORDER BY b.category_id IS NOT NULL, c.name`, ownerID, period.Year, period.Month)
}

// GetByID retrieves a budget owned by ownerID
func (r *BudgetRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.BudgetView, error) {
	row := r.pool.QueryRow(ctx, budgetViewSelect+` WHERE b.owner_id = $1 AND b.id = $2`, ownerID, id)
	return scanBudgetViewOrNotFound(row)
}

// GetByNaturalKey retrieves the budget of (category, month); nil category is the general budget
func (r *BudgetRepository) GetByNaturalKey(ctx context.Context, ownerID int32, categoryID *int32, period domain.Period) (*domain.BudgetView, error) {
	row := r.pool.QueryRow(ctx, budgetViewSelect+`
		WHERE b.owner_id = $1 AND b.category_id IS NOT DISTINCT FROM $2 AND b.year = $3 AND b.month = $4`,
		ownerID, categoryID, period.Year, period.Month)
	return scanBudgetViewOrNotFound(row)
}

// Create inserts a budget; a taken natural key yields ErrBudgetAlreadyExists
func (r *BudgetRepository) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.LimitAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid limit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (owner_id, category_id, limit_amount, year, month)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+budgetColumns,
		budget.OwnerID, budget.CategoryID, amount, budget.Year, budget.Month,
	)
	created, err := scanBudget(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrBudgetAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// Update replaces every field of a budget addressed by ID
func (r *BudgetRepository) Update(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.LimitAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid limit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets
		SET category_id = $3, limit_amount = $4, year = $5, month = $6, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		budget.OwnerID, budget.ID, budget.CategoryID, amount, budget.Year, budget.Month,
	)
	updated, err := scanBudget(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrBudgetAlreadyExists
		}
		if isNoRows(err) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdateAmount changes only the budget amount
func (r *BudgetRepository) UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.Budget, error) {
	pgAmount, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid limit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets SET limit_amount = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING `+budgetColumns, ownerID, id, pgAmount)
	updated, err := scanBudget(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a budget
func (r *BudgetRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

func (r *BudgetRepository) queryViews(ctx context.Context, sql string, args ...any) ([]*domain.BudgetView, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.BudgetView, error) {
		return scanBudgetView(row)
	})
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	var categoryID pgtype.Int4
	var amount pgtype.Numeric
	var updatedAt pgtype.Timestamptz
	if err := row.Scan(&b.ID, &b.OwnerID, &categoryID, &amount, &b.Year, &b.Month, &b.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	b.CategoryID = pgInt4ToInt32Ptr(categoryID)
	b.LimitAmount = pgNumericToDecimal(amount)
	b.UpdatedAt = pgTimestamptzToTimePtr(updatedAt)
	return &b, nil
}

func scanBudgetView(row pgx.Row) (*domain.BudgetView, error) {
	var v domain.BudgetView
	var categoryID pgtype.Int4
	var amount pgtype.Numeric
	var updatedAt pgtype.Timestamptz
	if err := row.Scan(
		&v.ID, &v.OwnerID, &categoryID, &amount, &v.Year, &v.Month, &v.CreatedAt, &updatedAt,
		&v.CategoryName, &v.CategoryColor, &v.CategoryIcon,
	); err != nil {
		return nil, err
	}
	v.CategoryID = pgInt4ToInt32Ptr(categoryID)
	v.LimitAmount = pgNumericToDecimal(amount)
	v.UpdatedAt = pgTimestamptzToTimePtr(updatedAt)
	return &v, nil
}

func scanBudgetViewOrNotFound(row pgx.Row) (*domain.BudgetView, error) {
	v, err := scanBudgetView(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return v, nil
}
