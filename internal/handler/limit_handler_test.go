package handler

import (
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/service"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// planFixture wires the reconciliation services over an in-memory store
type planFixture struct {
	store   *testutil.MockStore
	ownerID int32
	food    *domain.Category
	limits  *LimitHandler
	budgets *BudgetHandler
	reports *ReportHandler
}

func newPlanFixture() *planFixture {
	store := testutil.NewMockStore()
	ownerID := int32(7)
	food := store.AddCategory(&domain.Category{
		OwnerID: &ownerID, Name: "Food", Icon: "pi-shopping-cart", Color: "#ff0000",
		Type: domain.CategoryTypeExpense, IsActive: true,
	})

	categories := testutil.NewMockCategoryRepository(store)
	aggRepo := testutil.NewMockAggregationRepository(store)
	aggregation := service.NewAggregationService(aggRepo)
	reportService := service.NewReportService(aggRepo).WithClock(func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	})

	return &planFixture{
		store:   store,
		ownerID: ownerID,
		food:    food,
		limits:  NewLimitHandler(service.NewLimitService(testutil.NewMockCategoryLimitRepository(store), categories, aggregation)),
		budgets: NewBudgetHandler(service.NewBudgetService(testutil.NewMockBudgetRepository(store), categories, aggregation)),
		reports: NewReportHandler(reportService),
	}
}

func itoa(id int32) string {
	return strconv.Itoa(int(id))
}

func (f *planFixture) spend(amount string, date time.Time) {
	f.store.AddExpense(&domain.Expense{
		OwnerID:    f.ownerID,
		CategoryID: f.food.ID,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	})
}

func TestSetLimit_ReportsConsumption(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("120.5", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	f.spend("50", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/limits",
		`{"categoryId":`+itoa(f.food.ID)+`,"limitAmount":100,"year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	if err := f.limits.SetLimit(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{`"limitAmount":100.00`, `"spent":120.50`, `"available":-20.50`, `"percentConsumed":120.50`, `"exceeded":true`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}

	// Saving again for the same month updates in place
	c, rec = newJSONRequest(e, http.MethodPost, "/api/v1/limits",
		`{"categoryId":`+itoa(f.food.ID)+`,"limitAmount":"200","year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	_ = f.limits.SetLimit(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if n := f.store.LimitCount(f.ownerID); n != 1 {
		t.Errorf("Expected 1 stored limit, got %d", n)
	}
}

func TestSetLimit_Validation(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"categoryId":` + itoa(f.food.ID) + `,"limitAmount":-1,"year":2025,"month":3}`},
		{"month out of range", `{"categoryId":` + itoa(f.food.ID) + `,"limitAmount":10,"year":2025,"month":13}`},
		{"year out of range", `{"categoryId":` + itoa(f.food.ID) + `,"limitAmount":10,"year":2019,"month":3}`},
		{"not a number", `{"categoryId":` + itoa(f.food.ID) + `,"limitAmount":"ten","year":2025,"month":3}`},
		{"unknown category", `{"categoryId":999,"limitAmount":10,"year":2025,"month":3}`},
		{"missing category", `{"limitAmount":10,"year":2025,"month":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/limits", tt.body)
			setupAuthContext(c, f.ownerID)
			_ = f.limits.SetLimit(c)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
	if n := f.store.LimitCount(f.ownerID); n != 0 {
		t.Errorf("Expected no stored limits, got %d", n)
	}
}

func TestGetLimitsByPeriod(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.store.AddLimit(&domain.CategoryLimit{OwnerID: f.ownerID, CategoryID: f.food.ID, LimitAmount: decimal.NewFromInt(300), Year: 2025, Month: 3})
	f.spend("75", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("year", "month")
	c.SetParamValues("2025", "3")
	setupAuthContext(c, f.ownerID)
	if err := f.limits.GetLimitsByPeriod(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var summary struct {
		TotalLimits         float64 `json:"totalLimits"`
		TotalSpent          float64 `json:"totalSpent"`
		TotalAvailable      float64 `json:"totalAvailable"`
		CategoriesWithLimit int     `json:"categoriesWithLimit"`
		Limits              []struct {
			CategoryName string `json:"categoryName"`
		} `json:"limits"`
	}
	decodeSuccess(t, rec, &summary)
	if summary.TotalLimits != 300 || summary.TotalSpent != 75 || summary.TotalAvailable != 225 {
		t.Errorf("Unexpected totals: %+v", summary)
	}
	if summary.CategoriesWithLimit != 1 || len(summary.Limits) != 1 || summary.Limits[0].CategoryName != "Food" {
		t.Errorf("Unexpected limits: %+v", summary.Limits)
	}

	c, rec = newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("year", "month")
	c.SetParamValues("2025", "0")
	setupAuthContext(c, f.ownerID)
	_ = f.limits.GetLimitsByPeriod(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for month 0, got %d", rec.Code)
	}
}

func TestCopyLimits(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.store.AddLimit(&domain.CategoryLimit{OwnerID: f.ownerID, CategoryID: f.food.ID, LimitAmount: decimal.NewFromInt(300), Year: 2025, Month: 2})

	body := `{"fromYear":2025,"fromMonth":2,"toYear":2025,"toMonth":3}`
	for i := 0; i < 2; i++ {
		c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/limits/copy", body)
		setupAuthContext(c, f.ownerID)
		_ = f.limits.CopyLimits(c)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	if n := f.store.LimitCount(f.ownerID); n != 2 {
		t.Errorf("Expected 2 stored limits after repeated copy, got %d", n)
	}

	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/limits/copy", `{"fromYear":2025,"fromMonth":2,"toYear":2025,"toMonth":2}`)
	setupAuthContext(c, f.ownerID)
	_ = f.limits.CopyLimits(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for same period, got %d", rec.Code)
	}

	c, rec = newJSONRequest(e, http.MethodPost, "/api/v1/limits/copy", `{"fromYear":2024,"fromMonth":1,"toYear":2025,"toMonth":5}`)
	setupAuthContext(c, f.ownerID)
	_ = f.limits.CopyLimits(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty source, got %d", rec.Code)
	}
}

func TestSetLimitsBatch(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()

	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/limits/batch",
		`{"year":2025,"month":3,"limits":[{"categoryId":`+itoa(f.food.ID)+`,"limitAmount":"80.10"}]}`)
	setupAuthContext(c, f.ownerID)
	_ = f.limits.SetLimitsBatch(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"totalLimits":80.10`) {
		t.Errorf("Expected batch summary, got %s", rec.Body.String())
	}

	c, rec = newJSONRequest(e, http.MethodPost, "/api/v1/limits/batch", `{"year":2025,"month":3,"limits":[]}`)
	setupAuthContext(c, f.ownerID)
	_ = f.limits.SetLimitsBatch(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty batch, got %d", rec.Code)
	}
}

func TestUpdateAndDeleteLimit(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	limit := f.store.AddLimit(&domain.CategoryLimit{OwnerID: f.ownerID, CategoryID: f.food.ID, LimitAmount: decimal.NewFromInt(300), Year: 2025, Month: 3})

	c, rec := newJSONRequest(e, http.MethodPut, "/", `{"limitAmount":450}`)
	c.SetParamNames("id")
	c.SetParamValues(itoa(limit.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.limits.UpdateLimit(c)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"limitAmount":450.00`) {
		t.Fatalf("Expected updated limit, got %d: %s", rec.Code, rec.Body.String())
	}

	// Another owner cannot see or delete it
	c, rec = newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(limit.ID))
	setupAuthContext(c, f.ownerID+1)
	_ = f.limits.DeleteLimit(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign owner, got %d", rec.Code)
	}

	c, rec = newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(itoa(limit.ID))
	setupAuthContext(c, f.ownerID)
	_ = f.limits.DeleteLimit(c)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}

	c, rec = newJSONRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	setupAuthContext(c, f.ownerID)
	_ = f.limits.DeleteLimit(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad id, got %d", rec.Code)
	}
}

func TestGetLimitHistory_UnknownCategory(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()

	c, rec := newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("categoryId")
	c.SetParamValues("999")
	setupAuthContext(c, f.ownerID)
	_ = f.limits.GetLimitHistory(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
