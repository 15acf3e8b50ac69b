package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ExpenseHandler handles expense and receipt HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
	receiptService *service.ReceiptService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService, receiptService *service.ReceiptService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		receiptService: receiptService,
	}
}

// ExpenseRequest represents the create/update expense request body
type ExpenseRequest struct {
	CategoryID  int32       `json:"categoryId"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description *string     `json:"description"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID            int32       `json:"id"`
	CategoryID    int32       `json:"categoryId"`
	CategoryName  string      `json:"categoryName"`
	CategoryIcon  string      `json:"categoryIcon"`
	CategoryColor string      `json:"categoryColor"`
	Amount        json.Number `json:"amount"`
	Date          string      `json:"date"`
	Description   *string     `json:"description,omitempty"`
	HasReceipt    bool        `json:"hasReceipt"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     *time.Time  `json:"updatedAt,omitempty"`
}

// PaginatedExpensesResponse represents one page of expenses
type PaginatedExpensesResponse struct {
	Data       []ExpenseResponse `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalItems int64             `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		CategoryID:    e.CategoryID,
		CategoryName:  e.CategoryName,
		CategoryIcon:  e.CategoryIcon,
		CategoryColor: e.CategoryColor,
		Amount:        money(e.Amount),
		Date:          e.Date.Format(dateLayout),
		Description:   e.Description,
		HasReceipt:    e.ReceiptPath != nil,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (r ExpenseRequest) toInput() (service.ExpenseInput, []string) {
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
	return service.ExpenseInput{
		CategoryID:  r.CategoryID,
		Amount:      amount,
		Date:        date,
		Description: r.Description,
	}, details
}

// parseExpenseFilters reads the listing query parameters
func parseExpenseFilters(c echo.Context) (domain.ExpenseFilters, []string) {
	var filters domain.ExpenseFilters
	var details []string

	if page, err := optionalIntQuery(c, "page"); err != nil {
		details = append(details, "page must be an integer")
	} else if page != nil {
		filters.Page = *page
	}
	if size, err := optionalIntQuery(c, "pageSize"); err != nil {
		details = append(details, "pageSize must be an integer")
	} else if size != nil {
		filters.PageSize = *size
	}
	if raw := c.QueryParam("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			details = append(details, "from must be formatted as YYYY-MM-DD")
		} else {
			filters.From = &from
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			details = append(details, "to must be formatted as YYYY-MM-DD")
		} else {
			filters.To = &to
		}
	}
	if raw := c.QueryParam("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || id <= 0 {
			details = append(details, "categoryId must be a positive integer")
		} else {
			categoryID := int32(id)
			filters.CategoryID = &categoryID
		}
	}
	filters.SortBy = domain.ExpenseSortField(c.QueryParam("sortBy"))
	if raw := c.QueryParam("sortDesc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			details = append(details, "sortDesc must be a boolean")
		}
		filters.SortDesc = desc
	}
	return filters, details
}

// GetExpenses godoc
// @Summary List expenses
// @Description Get a page of expenses with optional filters and ordering
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(10)
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param categoryId query int false "Filter by category ID"
// @Param sortBy query string false "Sort field. Omitted means newest first" Enums(date, amount, category)
// @Param sortDesc query bool false "Sort descending"
// @Success 200 {object} SuccessResponse{data=PaginatedExpensesResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) GetExpenses(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters, details := parseExpenseFilters(c)
	if len(details) > 0 {
		return NewValidationError(c, "Invalid query parameters", details...)
	}

	page, err := h.expenseService.List(c.Request().Context(), ownerID, filters)
	if err != nil {
		return respondError(c, err, "get expenses")
	}

	response := PaginatedExpensesResponse{
		Data:       make([]ExpenseResponse, len(page.Data)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
	for i, e := range page.Data {
		response.Data[i] = toExpenseResponse(e)
	}
	return NewSuccess(c, http.StatusOK, "Expenses retrieved", response)
}

// GetExpense godoc
// @Summary Get an expense
// @Description Get an expense by ID
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} SuccessResponse{data=ExpenseResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}

	expense, err := h.expenseService.GetByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get expense")
	}
	return NewSuccess(c, http.StatusOK, "Expense retrieved", toExpenseResponse(expense))
}

// CreateExpense godoc
// @Summary Create an expense
// @Description Record an expense against a category of type expense or both
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "Expense details"
// @Success 201 {object} SuccessResponse{data=ExpenseResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, details := req.toInput()
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details...)
	}

	expense, err := h.expenseService.Create(c.Request().Context(), ownerID, input)
	if err != nil {
		return respondError(c, err, "create expense")
	}

	return NewSuccess(c, http.StatusCreated, "Expense created", toExpenseResponse(expense))
}

// UpdateExpense godoc
// @Summary Update an expense
// @Description Replace the fields of an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param request body ExpenseRequest true "Expense details"
// @Success 200 {object} SuccessResponse{data=ExpenseResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, details := req.toInput()
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details...)
	}

	expense, err := h.expenseService.Update(c.Request().Context(), ownerID, id, input)
	if err != nil {
		return respondError(c, err, "update expense")
	}

	log.Info().Int32("owner_id", ownerID).Int32("expense_id", expense.ID).Msg("Expense updated")
	return NewSuccess(c, http.StatusOK, "Expense updated", toExpenseResponse(expense))
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Description Delete an expense and its receipt
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}

	deleted, err := h.expenseService.Delete(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "delete expense")
	}
	h.receiptService.DeleteObjects(c.Request().Context(), deleted.ReceiptPath)

	return c.NoContent(http.StatusNoContent)
}

// UploadReceipt godoc
// @Summary Upload a receipt
// @Description Attach a JPEG, PNG or WebP image (max 5MB) to an expense, replacing any previous receipt
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param receipt formData file true "Receipt image"
// @Success 201 {object} SuccessResponse{data=service.ReceiptURLs}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /expenses/{id}/receipt [post]
func (h *ExpenseHandler) UploadReceipt(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}
	if !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt storage is not configured")
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return NewValidationError(c, "Receipt file is required")
	}
	if fileHeader.Size > service.MaxReceiptSize {
		return NewValidationError(c, "Receipt too large", "maximum size is 5MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded receipt")
		return NewInternalError(c, "Failed to read receipt")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxReceiptSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded receipt")
		return NewInternalError(c, "Failed to read receipt")
	}

	urls, err := h.receiptService.Attach(c.Request().Context(), ownerID, id, data)
	if err != nil {
		return respondError(c, err, "upload receipt")
	}
	return NewSuccess(c, http.StatusCreated, "Receipt uploaded", urls)
}

// GetReceipt godoc
// @Summary Get receipt links
// @Description Get short-lived links to an expense's receipt and thumbnail
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} SuccessResponse{data=service.ReceiptURLs}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /expenses/{id}/receipt [get]
func (h *ExpenseHandler) GetReceipt(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}

	urls, err := h.receiptService.URL(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, "get receipt")
	}
	return NewSuccess(c, http.StatusOK, "Receipt retrieved", urls)
}

// DeleteReceipt godoc
// @Summary Delete a receipt
// @Description Unlink and delete an expense's receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /expenses/{id}/receipt [delete]
func (h *ExpenseHandler) DeleteReceipt(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID")
	}

	if err := h.receiptService.Remove(c.Request().Context(), ownerID, id); err != nil {
		return respondError(c, err, "delete receipt")
	}
	return c.NoContent(http.StatusNoContent)
}
