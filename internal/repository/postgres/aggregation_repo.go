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

// entryTables maps entry kinds to their tables. Only these values reach SQL text.
var entryTables = map[domain.EntryKind]string{
	domain.EntryKindExpense: "expenses",
	domain.EntryKindIncome:  "incomes",
}

// AggregationRepository implements domain.AggregationRepository with
// NUMERIC sums computed by PostgreSQL, so totals stay exact
type AggregationRepository struct {
	pool *pgxpool.Pool
}

// NewAggregationRepository creates a new AggregationRepository
func NewAggregationRepository(pool *pgxpool.Pool) *AggregationRepository {
	return &AggregationRepository{pool: pool}
}

func tableFor(kind domain.EntryKind) (string, error) {
	table, ok := entryTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
	return table, nil
}

// SumAmount sums one category, or every category when categoryID is nil
func (r *AggregationRepository) SumAmount(ctx context.Context, ownerID int32, kind domain.EntryKind, categoryID *int32, period domain.Period) (decimal.Decimal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return decimal.Zero, err
	}
	start, end := period.Bounds()

	var sum pgtype.Numeric
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM `+table+`
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		  AND ($4::int IS NULL OR category_id = $4)`,
		ownerID, dateOnly(start), dateOnly(end), categoryID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(sum), nil
}

// PeriodTotal sums and counts every row of the month
func (r *AggregationRepository) PeriodTotal(ctx context.Context, ownerID int32, kind domain.EntryKind, period domain.Period) (*domain.PeriodTotal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	start, end := period.Bounds()

	var sum pgtype.Numeric
	result := &domain.PeriodTotal{}
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM `+table+`
		WHERE owner_id = $1 AND date >= $2 AND date < $3`,
		ownerID, dateOnly(start), dateOnly(end),
	).Scan(&sum, &result.Count)
	if err != nil {
		return nil, err
	}
	result.Total = pgNumericToDecimal(sum)
	return result, nil
}

// TotalsByCategory groups the month's rows by category, largest total first
func (r *AggregationRepository) TotalsByCategory(ctx context.Context, ownerID int32, kind domain.EntryKind, period domain.Period) ([]*domain.CategoryTotal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	start, end := period.Bounds()

	rows, err := r.pool.Query(ctx, `
		SELECT c.id AS category_id, c.name AS category_name, c.icon AS category_icon,
		       c.color AS category_color, c.type AS category_type, c.is_active,
		       SUM(t.amount) AS total, COUNT(*) AS count
		FROM `+table+` t
		JOIN categories c ON c.id = t.category_id
		WHERE t.owner_id = $1 AND t.date >= $2 AND t.date < $3
		GROUP BY c.id, c.name, c.icon, c.color, c.type, c.is_active
		ORDER BY SUM(t.amount) DESC, c.name`,
		ownerID, dateOnly(start), dateOnly(end),
	)
	if err != nil {
		return nil, err
	}

	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[categoryTotalRow])
	if err != nil {
		return nil, err
	}
	result := make([]*domain.CategoryTotal, 0, len(scanned))
	for _, row := range scanned {
		result = append(result, &domain.CategoryTotal{
			CategoryID:    row.CategoryID,
			CategoryName:  row.CategoryName,
			CategoryIcon:  row.CategoryIcon,
			CategoryColor: row.CategoryColor,
			CategoryType:  domain.CategoryType(row.CategoryType),
			IsActive:      row.IsActive,
			Total:         pgNumericToDecimal(row.Total),
			Count:         row.Count,
		})
	}
	return result, nil
}

// MonthlyTotals groups rows in [from, to] by calendar month, oldest first
func (r *AggregationRepository) MonthlyTotals(ctx context.Context, ownerID int32, kind domain.EntryKind, from, to domain.Period) ([]*domain.MonthlyTotal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	start, _ := from.Bounds()
	_, end := to.Bounds()

	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM date)::int AS year, EXTRACT(MONTH FROM date)::int AS month,
		       SUM(amount) AS total, COUNT(*) AS count
		FROM `+table+`
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		GROUP BY 1, 2
		ORDER BY 1, 2`,
		ownerID, dateOnly(start), dateOnly(end),
	)
	if err != nil {
		return nil, err
	}

	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[monthlyTotalRow])
	if err != nil {
		return nil, err
	}
	result := make([]*domain.MonthlyTotal, 0, len(scanned))
	for _, row := range scanned {
		result = append(result, &domain.MonthlyTotal{
			Period: domain.Period{Year: row.Year, Month: row.Month},
			Total:  pgNumericToDecimal(row.Total),
			Count:  row.Count,
		})
	}
	return result, nil
}

// Result rows of the grouped aggregates, matched to columns by db tag

type categoryTotalRow struct {
	CategoryID    int32          `db:"category_id"`
	CategoryName  string         `db:"category_name"`
	CategoryIcon  string         `db:"category_icon"`
	CategoryColor string         `db:"category_color"`
	CategoryType  string         `db:"category_type"`
	IsActive      bool           `db:"is_active"`
	Total         pgtype.Numeric `db:"total"`
	Count         int64          `db:"count"`
}

type monthlyTotalRow struct {
	Year  int            `db:"year"`
	Month int            `db:"month"`
	Total pgtype.Numeric `db:"total"`
	Count int64          `db:"count"`
}
