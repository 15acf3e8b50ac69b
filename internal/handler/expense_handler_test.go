package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/repository/storage"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type expenseFixture struct {
	store   *testutil.MockStore
	objects *testutil.MockReceiptStorage
	handler *ExpenseHandler
	ownerID int32
	food    *domain.Category
}

func newExpenseFixture(withStorage bool) *expenseFixture {
	store := testutil.NewMockStore()
	ownerID := int32(3)
	food := store.AddCategory(&domain.Category{OwnerID: &ownerID, Name: "Food", Type: domain.CategoryTypeExpense, IsActive: true})
	expenses := testutil.NewMockExpenseRepository(store)

	var objects *testutil.MockReceiptStorage
	var receiptStorage storage.ReceiptStorage
	if withStorage {
		objects = testutil.NewMockReceiptStorage()
		receiptStorage = objects
	}

	return &expenseFixture{
		store:   store,
		objects: objects,
		handler: NewExpenseHandler(
			service.NewExpenseService(expenses, testutil.NewMockCategoryRepository(store)),
			service.NewReceiptService(expenses, receiptStorage),
		),
		ownerID: ownerID,
		food:    food,
	}
}

func (f *expenseFixture) addExpense(amount string, date time.Time) *domain.Expense {
	return f.store.AddExpense(&domain.Expense{
		OwnerID:    f.ownerID,
		CategoryID: f.food.ID,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	})
}

func TestCreateExpense(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(false)

	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/expenses",
		`{"categoryId":`+itoa(f.food.ID)+`,"amount":12.5,"date":"2025-03-04","description":"  lunch  "}`)
	setupAuthContext(c, f.ownerID)
	if err := f.handler.CreateExpense(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created ExpenseResponse
	decodeSuccess(t, rec, &created)
	if created.Amount.String() != "12.50" || created.Date != "2025-03-04" {
		t.Errorf("Unexpected expense: %+v", created)
	}
	if created.CategoryName != "Food" || created.HasReceipt {
		t.Errorf("Unexpected category or receipt flag: %+v", created)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(false)
	id := itoa(f.food.ID)

	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"categoryId":` + id + `,"amount":0,"date":"2025-03-04"}`},
		{"bad date", `{"categoryId":` + id + `,"amount":5,"date":"04/03/2025"}`},
		{"missing category", `{"amount":5,"date":"2025-03-04"}`},
		{"foreign category", `{"categoryId":999,"amount":5,"date":"2025-03-04"}`},
		{"long description", `{"categoryId":` + id + `,"amount":5,"date":"2025-03-04","description":"` + strings.Repeat("x", 501) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/expenses", tt.body)
			setupAuthContext(c, f.ownerID)
			_ = f.handler.CreateExpense(c)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetExpenses_Pagination(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(false)
	for day := 1; day <= 5; day++ {
		f.addExpense("10", time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC))
	}

	c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/expenses?page=2&pageSize=2&from=2025-03-01&to=2025-03-31", "")
	setupAuthContext(c, f.ownerID)
	if err := f.handler.GetExpenses(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var page PaginatedExpensesResponse
	decodeSuccess(t, rec, &page)
	if page.TotalItems != 5 || page.TotalPages != 3 || len(page.Data) != 2 {
		t.Errorf("Unexpected page: total=%d pages=%d len=%d", page.TotalItems, page.TotalPages, len(page.Data))
	}
	if page.Data[0].Date != "2025-03-03" {
		t.Errorf("Expected newest-first ordering, got %s", page.Data[0].Date)
	}

	for _, query := range []string{"?page=x", "?from=2025-04-01&to=2025-03-01", "?sortBy=color", "?categoryId=-1"} {
		c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/expenses"+query, "")
		setupAuthContext(c, f.ownerID)
		_ = f.handler.GetExpenses(c)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, rec.Code)
		}
	}
}

func TestDeleteExpense_NotFoundForOtherOwner(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(false)
	expense := f.addExpense("10", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID+1)
	_ = f.handler.DeleteExpense(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}

	c, rec = newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.handler.DeleteExpense(c)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

// newReceiptRequest builds a multipart upload carrying a small PNG
func newReceiptRequest(t *testing.T, e *echo.Echo) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("receipt", "receipt.png")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	_, _ = part.Write(raw.Bytes())
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReceiptLifecycle(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(true)
	expense := f.addExpense("10", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	c, rec := newReceiptRequest(t, e)
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	if err := f.handler.UploadReceipt(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.objects.Objects) != 2 {
		t.Errorf("Expected receipt and thumbnail objects, got %d", len(f.objects.Objects))
	}

	c, rec = newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.handler.GetReceipt(c)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	// Deleting the expense removes its stored objects too
	c, rec = newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.handler.DeleteExpense(c)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if len(f.objects.Objects) != 0 {
		t.Errorf("Expected receipt objects to be deleted, %d left", len(f.objects.Objects))
	}
}

func TestUploadReceipt_StorageDisabled(t *testing.T) {
	e := echo.New()
	f := newExpenseFixture(false)
	expense := f.addExpense("10", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	c, rec := newReceiptRequest(t, e)
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.handler.UploadReceipt(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}

	c, rec = newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(expense.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.handler.GetReceipt(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}
