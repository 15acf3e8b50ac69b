package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseSelect = `
	SELECT e.id, e.owner_id, e.category_id, c.name, c.icon, c.color,
	       e.amount, e.date, e.description, e.receipt_path, e.created_at, e.updated_at
	FROM expenses e
	JOIN categories c ON c.id = e.category_id`

// expenseOrderColumns maps sort fields to trusted SQL expressions
var expenseOrderColumns = map[domain.ExpenseSortField]string{
	domain.ExpenseSortByDate:     "e.date",
	domain.ExpenseSortByAmount:   "e.amount",
	domain.ExpenseSortByCategory: "c.name",
}

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// List returns a filtered, ordered page of the owner's expenses
func (r *ExpenseRepository) List(ctx context.Context, ownerID int32, filters *domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	conditions := []string{"e.owner_id = $1"}
	args := []any{ownerID}
	if filters.From != nil {
		args = append(args, dateOnly(*filters.From))
		conditions = append(conditions, fmt.Sprintf("e.date >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, dateOnly(*filters.To))
		conditions = append(conditions, fmt.Sprintf("e.date <= $%d", len(args)))
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		conditions = append(conditions, fmt.Sprintf("e.category_id = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses e`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	orderColumn, ok := expenseOrderColumns[filters.SortBy]
	if !ok {
		orderColumn = expenseOrderColumns[domain.ExpenseSortByDate]
	}
	direction := "ASC"
	if filters.SortDesc {
		direction = "DESC"
	}

	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY %s %s, e.created_at DESC LIMIT $%d OFFSET $%d",
		expenseSelect, where, orderColumn, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]*domain.Expense, 0, filters.PageSize)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &domain.PaginatedExpenses{
		Data:       data,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// GetByID retrieves an expense owned by ownerID
func (r *ExpenseRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Expense, error) {
	row := r.pool.QueryRow(ctx, expenseSelect+` WHERE e.owner_id = $1 AND e.id = $2`, ownerID, id)
	e, err := scanExpense(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return e, nil
}

// Create creates a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var id int32
	err = r.pool.QueryRow(ctx, `
		INSERT INTO expenses (owner_id, category_id, amount, date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		expense.OwnerID, expense.CategoryID, amount, dateOnly(expense.Date), expense.Description,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, expense.OwnerID, id)
}

// Update replaces an expense's editable fields
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses
		SET category_id = $3, amount = $4, date = $5, description = $6, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2`,
		expense.OwnerID, expense.ID, expense.CategoryID, amount, dateOnly(expense.Date), expense.Description,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrExpenseNotFound
	}
	return r.GetByID(ctx, expense.OwnerID, expense.ID)
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// SetReceipt records or clears the receipt object path
func (r *ExpenseRepository) SetReceipt(ctx context.Context, ownerID int32, id int32, receiptPath *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses SET receipt_path = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2`, ownerID, id, receiptPath)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var amount pgtype.Numeric
	var date pgtype.Date
	var description, receiptPath pgtype.Text
	var updatedAt pgtype.Timestamptz
	if err := row.Scan(
		&e.ID, &e.OwnerID, &e.CategoryID, &e.CategoryName, &e.CategoryIcon, &e.CategoryColor,
		&amount, &date, &description, &receiptPath, &e.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.Date = date.Time
	e.Description = pgTextToStringPtr(description)
	e.ReceiptPath = pgTextToStringPtr(receiptPath)
	e.UpdatedAt = pgTimestamptzToTimePtr(updatedAt)
	return &e, nil
}
