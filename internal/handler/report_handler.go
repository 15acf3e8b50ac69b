package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ReportHandler handles reporting HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// HighestSpendResponse represents the category with the largest spend
type HighestSpendResponse struct {
	CategoryID int32       `json:"categoryId"`
	Name       string      `json:"name"`
	Icon       string      `json:"icon"`
	Color      string      `json:"color"`
	Total      json.Number `json:"total"`
	Count      int64       `json:"count"`
}

// MonthlySummaryResponse represents the spending and income of one month
type MonthlySummaryResponse struct {
	Year                     int                   `json:"year"`
	Month                    int                   `json:"month"`
	TotalSpent               json.Number           `json:"totalSpent"`
	ExpenseCount             int64                 `json:"expenseCount"`
	TotalIncome              json.Number           `json:"totalIncome"`
	IncomeCount              int64                 `json:"incomeCount"`
	AverageExpense           json.Number           `json:"averageExpense"`
	AverageDailyExpense      json.Number           `json:"averageDailyExpense"`
	PreviousMonthSpent       json.Number           `json:"previousMonthSpent"`
	ChangeAmount             json.Number           `json:"changeAmount"`
	ChangePercent            json.Number           `json:"changePercent"`
	CategoryWithHighestSpend *HighestSpendResponse `json:"categoryWithHighestSpend"`
}

// CategoryBreakdownResponse represents one category's share of a month
type CategoryBreakdownResponse struct {
	CategoryID    int32       `json:"categoryId"`
	CategoryName  string      `json:"categoryName"`
	CategoryIcon  string      `json:"categoryIcon"`
	CategoryColor string      `json:"categoryColor"`
	Total         json.Number `json:"total"`
	Count         int64       `json:"count"`
	Percentage    json.Number `json:"percentage"`
}

// EvolutionEntryResponse represents one month of the trend
type EvolutionEntryResponse struct {
	Year         int         `json:"year"`
	Month        int         `json:"month"`
	Label        string      `json:"label"`
	TotalSpent   json.Number `json:"totalSpent"`
	ExpenseCount int64       `json:"expenseCount"`
	TotalIncome  json.Number `json:"totalIncome"`
	IncomeCount  int64       `json:"incomeCount"`
}

// CategoryComparisonResponse compares one category across two months
type CategoryComparisonResponse struct {
	CategoryID     int32       `json:"categoryId"`
	CategoryName   string      `json:"categoryName"`
	CategoryIcon   string      `json:"categoryIcon"`
	CategoryColor  string      `json:"categoryColor"`
	CurrentAmount  json.Number `json:"currentAmount"`
	PreviousAmount json.Number `json:"previousAmount"`
	Difference     json.Number `json:"difference"`
	ChangePercent  json.Number `json:"changePercent"`
}

// ComparisonResponse represents the current month against the previous one
type ComparisonResponse struct {
	CurrentMonth  MonthlySummaryResponse       `json:"currentMonth"`
	PreviousMonth MonthlySummaryResponse       `json:"previousMonth"`
	Categories    []CategoryComparisonResponse `json:"categories"`
}

func toMonthlySummaryResponse(s *domain.MonthlySummary) MonthlySummaryResponse {
	resp := MonthlySummaryResponse{
		Year:                s.Year,
		Month:               s.Month,
		TotalSpent:          money(s.TotalSpent),
		ExpenseCount:        s.ExpenseCount,
		TotalIncome:         money(s.TotalIncome),
		IncomeCount:         s.IncomeCount,
		AverageExpense:      money(s.AverageExpense),
		AverageDailyExpense: money(s.AverageDailyExpense),
		PreviousMonthSpent:  money(s.PreviousMonthSpent),
		ChangeAmount:        money(s.ChangeAmount),
		ChangePercent:       money(s.ChangePercent),
	}
	if top := s.CategoryWithHighestSpend; top != nil {
		resp.CategoryWithHighestSpend = &HighestSpendResponse{
			CategoryID: top.CategoryID,
			Name:       top.Name,
			Icon:       top.Icon,
			Color:      top.Color,
			Total:      money(top.Total),
			Count:      top.Count,
		}
	}
	return resp
}

func toBreakdownResponses(rows []*domain.CategoryBreakdown) []CategoryBreakdownResponse {
	out := make([]CategoryBreakdownResponse, len(rows))
	for i, r := range rows {
		out[i] = CategoryBreakdownResponse{
			CategoryID:    r.CategoryID,
			CategoryName:  r.CategoryName,
			CategoryIcon:  r.CategoryIcon,
			CategoryColor: r.CategoryColor,
			Total:         money(r.Total),
			Count:         r.Count,
			Percentage:    money(r.Percentage),
		}
	}
	return out
}

// parseReportPeriod reads the optional year and month query parameters
func parseReportPeriod(c echo.Context) (*int, *int, []string) {
	var details []string
	year, err := optionalIntQuery(c, "year")
	if err != nil {
		details = append(details, "year must be an integer")
	} else if year != nil && (*year < domain.MinYear || *year > domain.MaxYear) {
		details = append(details, "year must be between 2020 and 2100")
	}
	month, err := optionalIntQuery(c, "month")
	if err != nil {
		details = append(details, "month must be an integer")
	} else if month != nil && (*month < 1 || *month > 12) {
		details = append(details, "month must be between 1 and 12")
	}
	return year, month, details
}

// GetMonthlySummary godoc
// @Summary Monthly summary
// @Description Get totals, averages, the top category and the change against the previous month. Year and month default to the current month
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year (2020-2100)"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=MonthlySummaryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/monthly-summary [get]
func (h *ReportHandler) GetMonthlySummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	year, month, details := parseReportPeriod(c)
	if len(details) > 0 {
		return NewValidationError(c, "Invalid query parameters", details...)
	}

	summary, err := h.reportService.MonthlySummary(c.Request().Context(), ownerID, year, month)
	if err != nil {
		return respondError(c, err, "get monthly summary")
	}
	return NewSuccess(c, http.StatusOK, "Monthly summary retrieved", toMonthlySummaryResponse(summary))
}

// GetExpensesByCategory godoc
// @Summary Expenses by category
// @Description Get each active category's spend and its share of the month's total spend
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year (2020-2100)"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=[]CategoryBreakdownResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/expenses-by-category [get]
func (h *ReportHandler) GetExpensesByCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	year, month, details := parseReportPeriod(c)
	if len(details) > 0 {
		return NewValidationError(c, "Invalid query parameters", details...)
	}

	rows, err := h.reportService.ExpensesByCategory(c.Request().Context(), ownerID, year, month)
	if err != nil {
		return respondError(c, err, "get expenses by category")
	}
	return NewSuccess(c, http.StatusOK, "Expenses by category retrieved", toBreakdownResponses(rows))
}

// GetIncomeByCategory godoc
// @Summary Income by category
// @Description Get each active income category's income and its share of the month's total income
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year (2020-2100)"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} SuccessResponse{data=[]CategoryBreakdownResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/income-by-category [get]
func (h *ReportHandler) GetIncomeByCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	year, month, details := parseReportPeriod(c)
	if len(details) > 0 {
		return NewValidationError(c, "Invalid query parameters", details...)
	}

	rows, err := h.reportService.IncomeByCategory(c.Request().Context(), ownerID, year, month)
	if err != nil {
		return respondError(c, err, "get income by category")
	}
	return NewSuccess(c, http.StatusOK, "Income by category retrieved", toBreakdownResponses(rows))
}

// GetEvolution godoc
// @Summary Monthly evolution
// @Description Get spend and income for the last months up to the current one, oldest first
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param months query int false "Number of months" default(6) minimum(1) maximum(24)
// @Success 200 {object} SuccessResponse{data=[]EvolutionEntryResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/evolution [get]
func (h *ReportHandler) GetEvolution(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	months := domain.DefaultEvolutionMonths
	m, err := optionalIntQuery(c, "months")
	if err != nil {
		return NewValidationError(c, "Invalid query parameters", "months must be an integer")
	}
	if m != nil {
		months = *m
	}
	if months < 1 || months > domain.MaxEvolutionMonths {
		return NewValidationError(c, "Invalid query parameters", "months must be between 1 and 24")
	}

	entries, err := h.reportService.Evolution(c.Request().Context(), ownerID, months)
	if err != nil {
		return respondError(c, err, "get evolution")
	}

	response := make([]EvolutionEntryResponse, len(entries))
	for i, e := range entries {
		response[i] = EvolutionEntryResponse{
			Year:         e.Year,
			Month:        e.Month,
			Label:        e.Label,
			TotalSpent:   money(e.TotalSpent),
			ExpenseCount: e.ExpenseCount,
			TotalIncome:  money(e.TotalIncome),
			IncomeCount:  e.IncomeCount,
		}
	}
	return NewSuccess(c, http.StatusOK, "Evolution retrieved", response)
}

// GetComparison godoc
// @Summary Month over month comparison
// @Description Compare the current month with the previous one, overall and per category
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=ComparisonResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/comparison [get]
func (h *ReportHandler) GetComparison(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	comparison, err := h.reportService.Comparison(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, err, "get comparison")
	}

	response := ComparisonResponse{
		CurrentMonth:  toMonthlySummaryResponse(comparison.CurrentMonth),
		PreviousMonth: toMonthlySummaryResponse(comparison.PreviousMonth),
		Categories:    make([]CategoryComparisonResponse, len(comparison.Categories)),
	}
	for i, cc := range comparison.Categories {
		response.Categories[i] = CategoryComparisonResponse{
			CategoryID:     cc.CategoryID,
			CategoryName:   cc.CategoryName,
			CategoryIcon:   cc.CategoryIcon,
			CategoryColor:  cc.CategoryColor,
			CurrentAmount:  money(cc.CurrentAmount),
			PreviousAmount: money(cc.PreviousAmount),
			Difference:     money(cc.Difference),
			ChangePercent:  money(cc.ChangePercent),
		}
	}
	return NewSuccess(c, http.StatusOK, "Comparison retrieved", response)
}
