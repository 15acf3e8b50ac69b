package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incomeSelect = `
	SELECT i.id, i.owner_id, i.category_id, c.name, c.icon, c.color,
	       i.amount, i.concept, i.date, i.description, i.created_at
	FROM incomes i
	JOIN categories c ON c.id = i.category_id`

// IncomeRepository implements domain.IncomeRepository using PostgreSQL
type IncomeRepository struct {
	pool *pgxpool.Pool
}

// NewIncomeRepository creates a new IncomeRepository
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

// List returns every income of the owner, newest first
func (r *IncomeRepository) List(ctx context.Context, ownerID int32) ([]*domain.Income, error) {
	return r.query(ctx, incomeSelect+`
		WHERE i.owner_id = $1
		ORDER BY i.date DESC, i.created_at DESC`, ownerID)
}

// ListByPeriod returns the owner's incomes dated within the month
func (r *IncomeRepository) ListByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.Income, error) {
	start, end := period.Bounds()
	return r.query(ctx, incomeSelect+`
		WHERE i.owner_id = $1 AND i.date >= $2 AND i.date < $3
		ORDER BY i.date DESC, i.created_at DESC`, ownerID, dateOnly(start), dateOnly(end))
}

// GetByID retrieves an income owned by ownerID
func (r *IncomeRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Income, error) {
	row := r.pool.QueryRow(ctx, incomeSelect+` WHERE i.owner_id = $1 AND i.id = $2`, ownerID, id)
	income, err := scanIncome(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	return income, nil
}

// Create creates a new income
func (r *IncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var id int32
	err = r.pool.QueryRow(ctx, `
		INSERT INTO incomes (owner_id, category_id, amount, concept, date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		income.OwnerID, income.CategoryID, amount, income.Concept, dateOnly(income.Date), income.Description,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, income.OwnerID, id)
}

// Update replaces an income's editable fields
func (r *IncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE incomes
		SET category_id = $3, amount = $4, concept = $5, date = $6, description = $7
		WHERE owner_id = $1 AND id = $2`,
		income.OwnerID, income.ID, income.CategoryID, amount, income.Concept, dateOnly(income.Date), income.Description,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrIncomeNotFound
	}
	return r.GetByID(ctx, income.OwnerID, income.ID)
}

// Delete removes an income
func (r *IncomeRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM incomes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

func (r *IncomeRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Income, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Income, 0)
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, income)
	}
	return result, rows.Err()
}

func scanIncome(row pgx.Row) (*domain.Income, error) {
	var i domain.Income
	var amount pgtype.Numeric
	var date pgtype.Date
	var description pgtype.Text
	if err := row.Scan(
		&i.ID, &i.OwnerID, &i.CategoryID, &i.CategoryName, &i.CategoryIcon, &i.CategoryColor,
		&amount, &i.Concept, &date, &description, &i.CreatedAt,
	); err != nil {
		return nil, err
	}
	i.Amount = pgNumericToDecimal(amount)
	i.Date = date.Time
	i.Description = pgTextToStringPtr(description)
	return &i, nil
}
