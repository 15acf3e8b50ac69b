package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CategoryInput holds the editable fields of a category
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
	Type  domain.CategoryType
}

// normalize trims the input, applies defaults and validates it
func (in CategoryInput) normalize() (CategoryInput, error) {
	out := CategoryInput{
		Name:  strings.TrimSpace(in.Name),
		Icon:  strings.TrimSpace(in.Icon),
		Color: strings.TrimSpace(in.Color),
		Type:  in.Type,
	}
	if out.Name == "" {
		return out, domain.ErrNameRequired
	}
	if n := utf8.RuneCountInString(out.Name); n < domain.MinNameLength || n > domain.MaxCategoryNameLength {
		return out, domain.ErrNameLength
	}

	if out.Icon == "" {
		out.Icon = domain.DefaultCategoryIcon
	}
	if utf8.RuneCountInString(out.Icon) > domain.MaxIconLength {
		return out, domain.ErrInvalidIcon
	}

	if out.Color == "" {
		out.Color = domain.DefaultCategoryColor
	}
	if !hexColorPattern.MatchString(out.Color) {
		return out, domain.ErrInvalidColor
	}

	if out.Type == "" {
		out.Type = domain.CategoryTypeExpense
	}
	if !out.Type.Valid() {
		return out, domain.ErrInvalidCategoryType
	}
	return out, nil
}

// List returns the active categories visible to the owner
func (s *CategoryService) List(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	return s.categoryRepo.ListVisible(ctx, ownerID)
}

// GetByID returns a category visible to the owner
func (s *CategoryService) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetVisibleByID(ctx, ownerID, id)
}

// Create adds a category owned by the caller
func (s *CategoryService) Create(ctx context.Context, ownerID int32, input CategoryInput) (*domain.Category, error) {
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}

	taken, err := s.categoryRepo.ExistsByName(ctx, ownerID, in.Name, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrCategoryAlreadyExists
	}

	owner := ownerID
	created, err := s.categoryRepo.Create(ctx, &domain.Category{
		OwnerID:  &owner,
		Name:     in.Name,
		Icon:     in.Icon,
		Color:    in.Color,
		Type:     in.Type,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("category_id", created.ID).Msg("Category created")
	return created, nil
}

// Update replaces the editable fields of a category owned by the caller.
// Predefined categories are read-only.
func (s *CategoryService) Update(ctx context.Context, ownerID int32, id int32, input CategoryInput) (*domain.Category, error) {
	existing, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !existing.EditableBy(ownerID) {
		return nil, domain.ErrCategoryNotEditable
	}

	in, err := input.normalize()
	if err != nil {
		return nil, err
	}

	taken, err := s.categoryRepo.ExistsByName(ctx, ownerID, in.Name, &id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrCategoryAlreadyExists
	}

	existing.Name = in.Name
	existing.Icon = in.Icon
	existing.Color = in.Color
	existing.Type = in.Type
	return s.categoryRepo.Update(ctx, existing)
}

// Delete removes a category owned by the caller. A category still referenced
// by an expense or income is deactivated instead, and softDeleted is true.
func (s *CategoryService) Delete(ctx context.Context, ownerID int32, id int32) (softDeleted bool, err error) {
	existing, err := s.categoryRepo.GetVisibleByID(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if !existing.EditableBy(ownerID) {
		return false, domain.ErrCategoryNotEditable
	}

	inUse, err := s.categoryRepo.IsInUse(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if inUse {
		if err := s.categoryRepo.SoftDelete(ctx, ownerID, id); err != nil {
			return false, err
		}
		log.Info().Int32("owner_id", ownerID).Int32("category_id", id).Msg("Category deactivated")
		return true, nil
	}

	if err := s.categoryRepo.Delete(ctx, ownerID, id); err != nil {
		return false, err
	}
	log.Info().Int32("owner_id", ownerID).Int32("category_id", id).Msg("Category deleted")
	return false, nil
}
