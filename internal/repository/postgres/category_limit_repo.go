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

const limitColumns = `id, owner_id, category_id, limit_amount, year, month, created_at, updated_at`

const limitViewSelect = `
	SELECT l.id, l.owner_id, l.category_id, l.limit_amount, l.year, l.month, l.created_at, l.updated_at,
	       c.name, c.color, c.icon
	FROM category_limits l
	JOIN categories c ON c.id = l.category_id`

// CategoryLimitRepository implements domain.CategoryLimitRepository using PostgreSQL
type CategoryLimitRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryLimitRepository creates a new CategoryLimitRepository
func NewCategoryLimitRepository(pool *pgxpool.Pool) *CategoryLimitRepository {
	return &CategoryLimitRepository{pool: pool}
}

// GetAll returns every limit of the owner, newest period first
func (r *CategoryLimitRepository) GetAll(ctx context.Context, ownerID int32) ([]*domain.CategoryLimitView, error) {
	return r.queryViews(ctx, limitViewSelect+`
		WHERE l.owner_id = $1
		ORDER BY l.year DESC, l.month DESC, c.name`, ownerID)
}

// GetByPeriod returns the owner's limits for one month
func (r *CategoryLimitRepository) GetByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.CategoryLimitView, error) {
	return r.queryViews(ctx, limitViewSelect+`
		WHERE l.owner_id = $1 AND l.year = $2 AND l.month = $3
		ORDER BY c.name`, ownerID, period.Year, period.Month)
}

// GetByID retrieves a limit owned by ownerID
func (r *CategoryLimitRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.CategoryLimitView, error) {
	row := r.pool.QueryRow(ctx, limitViewSelect+` WHERE l.owner_id = $1 AND l.id = $2`, ownerID, id)
	return scanLimitViewOrNotFound(row)
}

// GetByCategoryAndPeriod retrieves the limit stored under the natural key
func (r *CategoryLimitRepository) GetByCategoryAndPeriod(ctx context.Context, ownerID int32, categoryID int32, period domain.Period) (*domain.CategoryLimitView, error) {
	row := r.pool.QueryRow(ctx, limitViewSelect+`
		WHERE l.owner_id = $1 AND l.category_id = $2 AND l.year = $3 AND l.month = $4`,
		ownerID, categoryID, period.Year, period.Month)
	return scanLimitViewOrNotFound(row)
}

// GetByCategory returns every limit of one category, newest period first
func (r *CategoryLimitRepository) GetByCategory(ctx context.Context, ownerID int32, categoryID int32) ([]*domain.CategoryLimitView, error) {
	return r.queryViews(ctx, limitViewSelect+`
		WHERE l.owner_id = $1 AND l.category_id = $2
		ORDER BY l.year DESC, l.month DESC`, ownerID, categoryID)
}

// Create inserts a limit; a taken natural key yields ErrCategoryLimitAlreadyExists
func (r *CategoryLimitRepository) Create(ctx context.Context, limit *domain.CategoryLimit) (*domain.CategoryLimit, error) {
	amount, err := decimalToPgNumeric(limit.LimitAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid limit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO category_limits (owner_id, category_id, limit_amount, year, month)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+limitColumns,
		limit.OwnerID, limit.CategoryID, amount, limit.Year, limit.Month,
	)
	created, err := scanLimit(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryLimitAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// UpdateAmount changes the limit amount and stamps updated_at
func (r *CategoryLimitRepository) UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.CategoryLimit, error) {
	pgAmount, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid limit amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE category_limits SET limit_amount = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING `+limitColumns, ownerID, id, pgAmount)
	updated, err := scanLimit(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryLimitNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a limit
func (r *CategoryLimitRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM category_limits WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryLimitNotFound
	}
	return nil
}

func (r *CategoryLimitRepository) queryViews(ctx context.Context, sql string, args ...any) ([]*domain.CategoryLimitView, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.CategoryLimitView, error) {
		return scanLimitView(row)
	})
}

func scanLimit(row pgx.Row) (*domain.CategoryLimit, error) {
	var l domain.CategoryLimit
	var amount pgtype.Numeric
	var updatedAt pgtype.Timestamptz
	if err := row.Scan(&l.ID, &l.OwnerID, &l.CategoryID, &amount, &l.Year, &l.Month, &l.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	l.LimitAmount = pgNumericToDecimal(amount)
	l.UpdatedAt = pgTimestamptzToTimePtr(updatedAt)
	return &l, nil
}

func scanLimitView(row pgx.Row) (*domain.CategoryLimitView, error) {
	var v domain.CategoryLimitView
	var amount pgtype.Numeric
	var updatedAt pgtype.Timestamptz
	if err := row.Scan(
		&v.ID, &v.OwnerID, &v.CategoryID, &amount, &v.Year, &v.Month, &v.CreatedAt, &updatedAt,
		&v.CategoryName, &v.CategoryColor, &v.CategoryIcon,
	); err != nil {
		return nil, err
	}
	v.LimitAmount = pgNumericToDecimal(amount)
	v.UpdatedAt = pgTimestamptzToTimePtr(updatedAt)
	return &v, nil
}

func scanLimitViewOrNotFound(row pgx.Row) (*domain.CategoryLimitView, error) {
	v, err := scanLimitView(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryLimitNotFound
		}
		return nil, err
	}
	return v, nil
}
