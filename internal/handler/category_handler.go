package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

func (r CategoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{
		Name:  r.Name,
		Icon:  r.Icon,
		Color: r.Color,
		Type:  domain.CategoryType(r.Type),
	}
}

// DeleteCategoryResponse tells whether the category was deactivated or removed
type DeleteCategoryResponse struct {
	ID          int32 `json:"id"`
	SoftDeleted bool  `json:"softDeleted"`
}

// GetCategories godoc
// @Summary List categories
// @Description Get predefined and owned active categories, predefined first
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]domain.Category}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	categories, err := h.categoryService.List(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get categories")
	}
	return NewSuccess(c, http.StatusOK, "Categories retrieved", categories)
}

// GetCategory godoc
// @Summary Get a category
// @Description Get a visible category by ID
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} SuccessResponse{data=domain.Category}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID")
	}

	category, err := h.categoryService.GetByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get category")
	}
	return NewSuccess(c, http.StatusOK, "Category retrieved", category)
}

// CreateCategory godoc
// @Summary Create a category
// @Description Create an owned category. Icon defaults to pi-tag, color to #6366f1 and type to expense
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category details"
// @Success 201 {object} SuccessResponse{data=domain.Category}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	category, err := h.categoryService.Create(c.Request().Context(), ownerID, req.toInput())
	if err != nil {
		return respondError(c, err, "create category")
	}

	return NewSuccess(c, http.StatusCreated, "Category created", category)
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Update an owned category. Predefined categories cannot be changed
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category details"
// @Success 200 {object} SuccessResponse{data=domain.Category}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	category, err := h.categoryService.Update(c.Request().Context(), ownerID, id, req.toInput())
	if err != nil {
		return respondError(c, err, "update category")
	}

	log.Info().Int32("owner_id", ownerID).Int32("category_id", category.ID).Msg("Category updated")
	return NewSuccess(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Deactivate a category still referenced by expenses or incomes, otherwise remove it
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} SuccessResponse{data=DeleteCategoryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID")
	}

	softDeleted, err := h.categoryService.Delete(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "delete category")
	}

	message := "Category deleted"
	if softDeleted {
		message = "Category deactivated"
	}
	return NewSuccess(c, http.StatusOK, message, DeleteCategoryResponse{ID: id, SoftDeleted: softDeleted})
}
