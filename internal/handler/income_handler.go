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

// IncomeHandler handles income HTTP requests
type IncomeHandler struct {
	incomeService *service.IncomeService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeRequest represents the create/update income request body
type IncomeRequest struct {
	CategoryID  int32       `json:"categoryId"`
	Amount      json.Number `json:"amount"`
	Concept     string      `json:"concept"`
	Date        string      `json:"date"`
	Description *string     `json:"description"`
}

// IncomeResponse represents an income in API responses
type IncomeResponse struct {
	ID            int32       `json:"id"`
	CategoryID    int32       `json:"categoryId"`
	CategoryName  string      `json:"categoryName"`
	CategoryIcon  string      `json:"categoryIcon"`
	CategoryColor string      `json:"categoryColor"`
	Amount        json.Number `json:"amount"`
	Concept       string      `json:"concept"`
	Date          string      `json:"date"`
	Description   *string     `json:"description,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// IncomeTotalResponse represents the income received in one month
type IncomeTotalResponse struct {
	Year  int         `json:"year"`
	Month int         `json:"month"`
	Total json.Number `json:"total"`
	Count int64       `json:"count"`
}

func toIncomeResponse(in *domain.Income) IncomeResponse {
	return IncomeResponse{
		ID:            in.ID,
		CategoryID:    in.CategoryID,
		CategoryName:  in.CategoryName,
		CategoryIcon:  in.CategoryIcon,
		CategoryColor: in.CategoryColor,
		Amount:        money(in.Amount),
		Concept:       in.Concept,
		Date:          in.Date.Format(dateLayout),
		Description:   in.Description,
		CreatedAt:     in.CreatedAt,
	}
}

func toIncomeResponses(incomes []*domain.Income) []IncomeResponse {
	out := make([]IncomeResponse, len(incomes))
	for i, in := range incomes {
		out[i] = toIncomeResponse(in)
	}
	return out
}

func (r IncomeRequest) toInput() (service.IncomeInput, []string) {
	var details []string
	amount, err := parseAmount(r.Amount)
	if err != nil {
		details = append(details, "amount must be a decimal number")
	}
	date, err := parseDate(r.Date)
	if err != nil {
		details = append(details, "date must be formatted as YYYY-MM-DD")
	}
	if r.CategoryID <= 0 {
		details = append(details, "categoryId is required")
	}
	return service.IncomeInput{
		CategoryID:  r.CategoryID,
		Amount:      amount,
		Concept:     r.Concept,
		Date:        date,
		Description: r.Description,
	}, details
}

// GetIncomes godoc
// @Summary List incomes
// @Description Get every income, newest first
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]IncomeResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes [get]
func (h *IncomeHandler) GetIncomes(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	incomes, err := h.incomeService.List(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get incomes")
	}
	return NewSuccess(c, http.StatusOK, "Incomes retrieved", toIncomeResponses(incomes))
}

// GetIncomesByPeriod godoc
// @Summary List incomes of a month
// @Description Get the incomes received in one month
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year (2020-2100)"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=[]IncomeResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes/period/{year}/{month} [get]
func (h *IncomeHandler) GetIncomesByPeriod(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		return respondError(c, err, "get incomes")
	}

	incomes, err := h.incomeService.ListByPeriod(c.Request().Context(), ownerID, period.Year, period.Month)
	if err != nil {
		return respondError(c, err, "get incomes")
	}
	return NewSuccess(c, http.StatusOK, "Incomes retrieved", toIncomeResponses(incomes))
}

// GetIncomeTotal godoc
// @Summary Income total of a month
// @Description Get the sum and count of incomes received in one month
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year (2020-2100)"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=IncomeTotalResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes/total/{year}/{month} [get]
func (h *IncomeHandler) GetIncomeTotal(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		return respondError(c, err, "get income total")
	}

	total, err := h.incomeService.TotalByPeriod(c.Request().Context(), ownerID, period.Year, period.Month)
	if err != nil {
		return respondError(c, err, "get income total")
	}
	return NewSuccess(c, http.StatusOK, "Income total retrieved", IncomeTotalResponse{
		Year:  total.Year,
		Month: total.Month,
		Total: money(total.Total),
		Count: total.Count,
	})
}

// GetIncome godoc
// @Summary Get an income
// @Description Get an income by ID
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 200 {object} SuccessResponse{data=IncomeResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID")
	}

	income, err := h.incomeService.GetByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get income")
	}
	return NewSuccess(c, http.StatusOK, "Income retrieved", toIncomeResponse(income))
}

// CreateIncome godoc
// @Summary Create an income
// @Description Record an income against a category of type income or both
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IncomeRequest true "Income details"
// @Success 201 {object} SuccessResponse{data=IncomeResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes [post]
func (h *IncomeHandler) CreateIncome(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, details := req.toInput()
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details...)
	}

	income, err := h.incomeService.Create(c.Request().Context(), ownerID, input)
	if err != nil {
		return respondError(c, err, "create income")
	}

	return NewSuccess(c, http.StatusCreated, "Income created", toIncomeResponse(income))
}

// UpdateIncome godoc
// @Summary Update an income
// @Description Replace the fields of an income
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Param request body IncomeRequest true "Income details"
// @Success 200 {object} SuccessResponse{data=IncomeResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes/{id} [put]
func (h *IncomeHandler) UpdateIncome(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID")
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, details := req.toInput()
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details...)
	}

	income, err := h.incomeService.Update(c.Request().Context(), ownerID, id, input)
	if err != nil {
		return respondError(c, err, "update income")
	}

	log.Info().Int32("owner_id", ownerID).Int32("income_id", income.ID).Msg("Income updated")
	return NewSuccess(c, http.StatusOK, "Income updated", toIncomeResponse(income))
}

// DeleteIncome godoc
// @Summary Delete an income
// @Description Delete an income
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID")
	}

	if err := h.incomeService.Delete(c.Request().Context(), ownerID, id); err != nil {
		return respondError(c, err, "delete income")
	}

	return c.NoContent(http.StatusNoContent)
}
