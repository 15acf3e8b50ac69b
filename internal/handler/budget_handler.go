package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// SaveBudgetRequest represents the create/update budget request body.
// A null categoryId addresses the general budget of the month.
type SaveBudgetRequest struct {
	ID          *int32      `json:"id"`
	CategoryID  *int32      `json:"categoryId"`
	LimitAmount json.Number `json:"limitAmount"`
	Year        int         `json:"year"`
	Month       int         `json:"month"`
}

// BudgetStatusResponse represents a budget and its consumption
type BudgetStatusResponse struct {
	ID              int32       `json:"id"`
	CategoryID      *int32      `json:"categoryId"`
	CategoryName    string      `json:"categoryName"`
	CategoryColor   string      `json:"categoryColor"`
	CategoryIcon    string      `json:"categoryIcon"`
	IsGeneral       bool        `json:"isGeneral"`
	Year            int         `json:"year"`
	Month           int         `json:"month"`
	LimitAmount     json.Number `json:"limitAmount"`
	Spent           json.Number `json:"spent"`
	Available       json.Number `json:"available"`
	PercentConsumed json.Number `json:"percentConsumed"`
	Exceeded        bool        `json:"exceeded"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

func toBudgetStatusResponse(s *domain.BudgetStatus) BudgetStatusResponse {
	return BudgetStatusResponse{
		ID:              s.ID,
		CategoryID:      s.CategoryID,
		CategoryName:    s.CategoryName,
		CategoryColor:   s.CategoryColor,
		CategoryIcon:    s.CategoryIcon,
		IsGeneral:       s.IsGeneral(),
		Year:            s.Year,
		Month:           s.Month,
		LimitAmount:     money(s.LimitAmount),
		Spent:           money(s.Spent),
		Available:       money(s.Available),
		PercentConsumed: money(s.PercentConsumed),
		Exceeded:        s.Exceeded,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toBudgetStatusResponses(statuses []*domain.BudgetStatus) []BudgetStatusResponse {
	out := make([]BudgetStatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = toBudgetStatusResponse(s)
	}
	return out
}

// GetBudgets godoc
// @Summary List budgets
// @Description Get every general and category budget with its consumption, newest month first
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]BudgetStatusResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /budgets [get]
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	budgets, err := h.budgetService.GetAll(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get budgets")
	}
	return NewSuccess(c, http.StatusOK, "Budgets retrieved", toBudgetStatusResponses(budgets))
}

// GetBudgetsByPeriod godoc
// @Summary Budgets of a month
// @Description Get the budgets of one month with their consumption
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year (2020-2100)"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=[]BudgetStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /budgets/period/{year}/{month} [get]
func (h *BudgetHandler) GetBudgetsByPeriod(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		return respondError(c, err, "get budgets")
	}

	budgets, err := h.budgetService.GetByPeriod(c.Request().Context(), ownerID, period.Year, period.Month)
	if err != nil {
		return respondError(c, err, "get budgets")
	}
	return NewSuccess(c, http.StatusOK, "Budgets retrieved", toBudgetStatusResponses(budgets))
}

// GetBudget godoc
// @Summary Get a budget
// @Description Get a budget and its consumption by ID
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 200 {object} SuccessResponse{data=BudgetStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid budget ID")
	}

	budget, err := h.budgetService.GetByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get budget")
	}
	return NewSuccess(c, http.StatusOK, "Budget retrieved", toBudgetStatusResponse(budget))
}

// SaveBudget godoc
// @Summary Save a budget
// @Description Update the budget named by id, or create or update the budget of the category and month. A null categoryId is the general budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SaveBudgetRequest true "Budget details"
// @Success 200 {object} SuccessResponse{data=BudgetStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /budgets [post]
func (h *BudgetHandler) SaveBudget(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req SaveBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	amount, err := parseAmount(req.LimitAmount)
	if err != nil {
		return NewValidationError(c, "Validation failed", "limitAmount must be a decimal number")
	}

	budget, err := h.budgetService.CreateOrUpdate(c.Request().Context(), ownerID, domain.BudgetInput{
		ID:         req.ID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Year:       req.Year,
		Month:      req.Month,
	})
	if err != nil {
		return respondError(c, err, "save budget")
	}

	return NewSuccess(c, http.StatusOK, "Budget saved", toBudgetStatusResponse(budget))
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Description Delete a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid budget ID")
	}

	if err := h.budgetService.Delete(c.Request().Context(), ownerID, id); err != nil {
		return respondError(c, err, "delete budget")
	}
	return c.NoContent(http.StatusNoContent)
}
