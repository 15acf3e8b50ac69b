package postgres

import (
	"context"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const categoryColumns = `id, owner_id, name, icon, color, type, is_predefined, is_active, created_at`

// visibleCategory matches predefined categories and those owned by $1
const visibleCategory = `(is_predefined OR owner_id = $1)`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListVisible returns active categories visible to the owner, predefined first then by name
func (r *CategoryRepository) ListVisible(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE is_active AND `+visibleCategory+`
		ORDER BY is_predefined DESC, name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetVisibleByID retrieves a category the owner can see, active or not
func (r *CategoryRepository) GetVisibleByID(ctx context.Context, ownerID int32, id int32) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $2 AND `+visibleCategory, ownerID, id)
	c, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// ExistsByName checks for an active visible category with the same name
func (r *CategoryRepository) ExistsByName(ctx context.Context, ownerID int32, name string, excludeID *int32) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE is_active AND `+visibleCategory+`
			  AND LOWER(name) = LOWER($2)
			  AND ($3::int IS NULL OR id <> $3)
		)`, ownerID, name, excludeID,
	).Scan(&exists)
	return exists, err
}

// Create creates a new user-owned category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (owner_id, name, icon, color, type, is_predefined, is_active)
		VALUES ($1, $2, $3, $4, $5, FALSE, TRUE)
		RETURNING `+categoryColumns,
		category.OwnerID, category.Name, category.Icon, category.Color, string(category.Type),
	)
	return scanCategory(row)
}

// Update replaces a category's editable fields
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, icon = $4, color = $5, type = $6
		WHERE id = $2 AND owner_id = $1 AND NOT is_predefined
		RETURNING `+categoryColumns,
		category.OwnerID, category.ID, category.Name, category.Icon, category.Color, string(category.Type),
	)
	c, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// IsInUse reports whether any of the owner's expenses or incomes reference the category
func (r *CategoryRepository) IsInUse(ctx context.Context, ownerID int32, id int32) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM expenses WHERE owner_id = $1 AND category_id = $2)
		    OR EXISTS (SELECT 1 FROM incomes WHERE owner_id = $1 AND category_id = $2)`,
		ownerID, id,
	).Scan(&inUse)
	return inUse, err
}

// SoftDelete deactivates a category while keeping its history
func (r *CategoryRepository) SoftDelete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET is_active = FALSE
		WHERE id = $2 AND owner_id = $1 AND NOT is_predefined`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category; its limits and budgets go with it via ON DELETE CASCADE
func (r *CategoryRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM categories
		WHERE id = $2 AND owner_id = $1 AND NOT is_predefined`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	var ownerID pgtype.Int4
	var categoryType string
	if err := row.Scan(&c.ID, &ownerID, &c.Name, &c.Icon, &c.Color, &categoryType, &c.IsPredefined, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.OwnerID = pgInt4ToInt32Ptr(ownerID)
	c.Type = domain.CategoryType(categoryType)
	return &c, nil
}
