package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LimitHandler handles category limit HTTP requests
type LimitHandler struct {
	limitService *service.LimitService
}

// NewLimitHandler creates a new LimitHandler
func NewLimitHandler(limitService *service.LimitService) *LimitHandler {
	return &LimitHandler{limitService: limitService}
}

// SetLimitRequest represents the create-or-update limit request body
type SetLimitRequest struct {
	CategoryID  int32       `json:"categoryId"`
	LimitAmount json.Number `json:"limitAmount"`
	Year        int         `json:"year"`
	Month       int         `json:"month"`
}

// UpdateLimitRequest represents the update limit amount request body
type UpdateLimitRequest struct {
	LimitAmount json.Number `json:"limitAmount"`
}

// BatchLimitItem is one entry of a batch limit request
type BatchLimitItem struct {
	CategoryID  int32       `json:"categoryId"`
	LimitAmount json.Number `json:"limitAmount"`
}

// BatchLimitsRequest represents the batch limit request body
type BatchLimitsRequest struct {
	Year   int              `json:"year"`
	Month  int              `json:"month"`
	Limits []BatchLimitItem `json:"limits"`
}

// CopyLimitsRequest represents the copy limits request body
type CopyLimitsRequest struct {
	FromYear  int `json:"fromYear"`
	FromMonth int `json:"fromMonth"`
	ToYear    int `json:"toYear"`
	ToMonth   int `json:"toMonth"`
}

// LimitStatusResponse represents a limit and its consumption
type LimitStatusResponse struct {
	ID              int32       `json:"id"`
	CategoryID      int32       `json:"categoryId"`
	CategoryName    string      `json:"categoryName"`
	CategoryColor   string      `json:"categoryColor"`
	CategoryIcon    string      `json:"categoryIcon"`
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

// LimitSummaryResponse represents every limit of one month
type LimitSummaryResponse struct {
	Year                int                   `json:"year"`
	Month               int                   `json:"month"`
	TotalLimits         json.Number           `json:"totalLimits"`
	TotalSpent          json.Number           `json:"totalSpent"`
	TotalAvailable      json.Number           `json:"totalAvailable"`
	PercentConsumed     json.Number           `json:"percentConsumed"`
	CategoriesWithLimit int                   `json:"categoriesWithLimit"`
	CategoriesExceeded  int                   `json:"categoriesExceeded"`
	Limits              []LimitStatusResponse `json:"limits"`
}

// LimitHistoryResponse represents every limit set on one category
type LimitHistoryResponse struct {
	CategoryID   int32                 `json:"categoryId"`
	CategoryName string                `json:"categoryName"`
	History      []LimitStatusResponse `json:"history"`
}

func toLimitStatusResponse(s *domain.LimitStatus) LimitStatusResponse {
	return LimitStatusResponse{
		ID:              s.ID,
		CategoryID:      s.CategoryID,
		CategoryName:    s.CategoryName,
		CategoryColor:   s.CategoryColor,
		CategoryIcon:    s.CategoryIcon,
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

func toLimitStatusResponses(statuses []*domain.LimitStatus) []LimitStatusResponse {
	out := make([]LimitStatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = toLimitStatusResponse(s)
	}
	return out
}

func toLimitSummaryResponse(s *domain.LimitPeriodSummary) LimitSummaryResponse {
	return LimitSummaryResponse{
		Year:                s.Year,
		Month:               s.Month,
		TotalLimits:         money(s.TotalLimits),
		TotalSpent:          money(s.TotalSpent),
		TotalAvailable:      money(s.TotalAvailable),
		PercentConsumed:     money(s.PercentConsumed),
		CategoriesWithLimit: s.CategoriesWithLimit,
		CategoriesExceeded:  s.CategoriesExceeded,
		Limits:              toLimitStatusResponses(s.Limits),
	}
}

// GetLimits godoc
// @Summary List category limits
// @Description Get every category limit with its consumption, newest month first
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]LimitStatusResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits [get]
func (h *LimitHandler) GetLimits(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	limits, err := h.limitService.GetAll(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get limits")
	}
	return NewSuccess(c, http.StatusOK, "Limits retrieved", toLimitStatusResponses(limits))
}

// GetLimitsByPeriod godoc
// @Summary Limits of a month
// @Description Get the limits of one month with totals, overall consumption and exceeded count
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year (2020-2100)"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=LimitSummaryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/period/{year}/{month} [get]
func (h *LimitHandler) GetLimitsByPeriod(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		return respondError(c, err, "get limits")
	}

	summary, err := h.limitService.GetByPeriod(c.Request().Context(), ownerID, period.Year, period.Month)
	if err != nil {
		return respondError(c, err, "get limits")
	}
	return NewSuccess(c, http.StatusOK, "Limits retrieved", toLimitSummaryResponse(summary))
}

// GetLimit godoc
// @Summary Get a category limit
// @Description Get a category limit and its consumption by ID
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Limit ID"
// @Success 200 {object} SuccessResponse{data=LimitStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/detail/{id} [get]
func (h *LimitHandler) GetLimit(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid limit ID")
	}

	limit, err := h.limitService.GetByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get limit")
	}
	return NewSuccess(c, http.StatusOK, "Limit retrieved", toLimitStatusResponse(limit))
}

// GetLimitHistory godoc
// @Summary Limit history of a category
// @Description Get every limit set on a category, newest month first
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryId path int true "Category ID"
// @Success 200 {object} SuccessResponse{data=LimitHistoryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/category/{categoryId}/history [get]
func (h *LimitHandler) GetLimitHistory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return NewValidationError(c, "Invalid category ID")
	}

	history, err := h.limitService.GetHistoryByCategory(c.Request().Context(), ownerID, categoryID)
	if err != nil {
		return respondError(c, err, "get limit history")
	}
	return NewSuccess(c, http.StatusOK, "Limit history retrieved", LimitHistoryResponse{
		CategoryID:   history.CategoryID,
		CategoryName: history.CategoryName,
		History:      toLimitStatusResponses(history.History),
	})
}

// GetCategoryLimit godoc
// @Summary Limit of a category in a month
// @Description Get the limit of one category in one month. Data is null when no limit is set
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryId path int true "Category ID"
// @Param year path int true "Year (2020-2100)"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=LimitStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/category/{categoryId}/period/{year}/{month} [get]
func (h *LimitHandler) GetCategoryLimit(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return NewValidationError(c, "Invalid category ID")
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		return respondError(c, err, "get limit")
	}

	limit, err := h.limitService.GetByCategoryAndPeriod(c.Request().Context(), ownerID, categoryID, period.Year, period.Month)
	if err != nil {
		return respondError(c, err, "get limit")
	}
	if limit == nil {
		return NewSuccess(c, http.StatusOK, "No limit set for this period", nil)
	}
	return NewSuccess(c, http.StatusOK, "Limit retrieved", toLimitStatusResponse(limit))
}

// SetLimit godoc
// @Summary Set a category limit
// @Description Create the limit of a category for a month, or update the existing one
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetLimitRequest true "Limit details"
// @Success 200 {object} SuccessResponse{data=LimitStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits [post]
func (h *LimitHandler) SetLimit(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req SetLimitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	amount, err := parseAmount(req.LimitAmount)
	if err != nil {
		return NewValidationError(c, "Validation failed", "limitAmount must be a decimal number")
	}
	if req.CategoryID <= 0 {
		return NewValidationError(c, "Validation failed", "categoryId is required")
	}

	limit, err := h.limitService.CreateOrUpdate(c.Request().Context(), ownerID, req.CategoryID, amount, req.Year, req.Month)
	if err != nil {
		return respondError(c, err, "save limit")
	}

	return NewSuccess(c, http.StatusOK, "Limit saved", toLimitStatusResponse(limit))
}

// SetLimitsBatch godoc
// @Summary Set several limits
// @Description Create or update the limits of several categories for one month. Writes are not atomic
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BatchLimitsRequest true "Limits of one month"
// @Success 200 {object} SuccessResponse{data=LimitSummaryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/batch [post]
func (h *LimitHandler) SetLimitsBatch(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BatchLimitsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	items := make([]domain.LimitItem, len(req.Limits))
	for i, item := range req.Limits {
		amount, err := parseAmount(item.LimitAmount)
		if err != nil {
			return NewValidationError(c, "Validation failed", "limitAmount must be a decimal number")
		}
		items[i] = domain.LimitItem{CategoryID: item.CategoryID, LimitAmount: amount}
	}

	summary, err := h.limitService.CreateBatch(c.Request().Context(), ownerID, req.Year, req.Month, items)
	if err != nil {
		return respondError(c, err, "save limits")
	}

	return NewSuccess(c, http.StatusOK, "Limits saved", toLimitSummaryResponse(summary))
}

// CopyLimits godoc
// @Summary Copy limits between months
// @Description Copy every limit of one month onto another, overwriting matching categories
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CopyLimitsRequest true "Source and target months"
// @Success 200 {object} SuccessResponse{data=LimitSummaryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/copy [post]
func (h *LimitHandler) CopyLimits(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CopyLimitsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	summary, err := h.limitService.CopyPeriod(c.Request().Context(), ownerID, req.FromYear, req.FromMonth, req.ToYear, req.ToMonth)
	if err != nil {
		return respondError(c, err, "copy limits")
	}

	return NewSuccess(c, http.StatusOK, "Limits copied", toLimitSummaryResponse(summary))
}

// UpdateLimit godoc
// @Summary Update a limit amount
// @Description Change the amount of a category limit
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Limit ID"
// @Param request body UpdateLimitRequest true "New amount"
// @Success 200 {object} SuccessResponse{data=LimitStatusResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/{id} [put]
func (h *LimitHandler) UpdateLimit(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid limit ID")
	}

	var req UpdateLimitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	amount, err := parseAmount(req.LimitAmount)
	if err != nil {
		return NewValidationError(c, "Validation failed", "limitAmount must be a decimal number")
	}

	limit, err := h.limitService.Update(c.Request().Context(), ownerID, id, amount)
	if err != nil {
		return respondError(c, err, "update limit")
	}

	log.Info().Int32("owner_id", ownerID).Int32("limit_id", id).Msg("Category limit updated")
	return NewSuccess(c, http.StatusOK, "Limit updated", toLimitStatusResponse(limit))
}

// DeleteLimit godoc
// @Summary Delete a category limit
// @Description Delete a category limit
// @Tags limits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Limit ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /limits/{id} [delete]
func (h *LimitHandler) DeleteLimit(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid limit ID")
	}

	if err := h.limitService.Delete(c.Request().Context(), ownerID, id); err != nil {
		return respondError(c, err, "delete limit")
	}

	return c.NoContent(http.StatusNoContent)
}
