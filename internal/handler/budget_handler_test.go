package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestSaveBudget_GeneralAndCategory(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("40", time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/budgets", `{"categoryId":null,"limitAmount":1000,"year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	if err := f.budgets.SaveBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var general BudgetStatusResponse
	decodeSuccess(t, rec, &general)
	if !general.IsGeneral || general.CategoryName != domain.GeneralBudgetName {
		t.Errorf("Expected general budget, got %+v", general)
	}
	if general.Spent.String() != "40.00" {
		t.Errorf("Expected spent 40 across all categories, got %s", general.Spent)
	}

	c, rec = newJSONRequest(e, http.MethodPost, "/api/v1/budgets",
		`{"categoryId":`+itoa(f.food.ID)+`,"limitAmount":"30","year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	_ = f.budgets.SaveBudget(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"exceeded":true`) {
		t.Errorf("Expected category budget to be exceeded: %s", rec.Body.String())
	}

	// Same natural key updates the amount only
	c, rec = newJSONRequest(e, http.MethodPost, "/api/v1/budgets", `{"limitAmount":1200,"year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	_ = f.budgets.SaveBudget(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if n := f.store.BudgetCount(f.ownerID); n != 2 {
		t.Errorf("Expected 2 budgets, got %d", n)
	}

	c, rec = newJSONRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("year", "month")
	c.SetParamValues("2025", "3")
	setupAuthContext(c, f.ownerID)
	_ = f.budgets.GetBudgetsByPeriod(c)
	var budgets []BudgetStatusResponse
	decodeSuccess(t, rec, &budgets)
	if len(budgets) != 2 || !budgets[0].IsGeneral {
		t.Fatalf("Expected general budget first, got %+v", budgets)
	}
	if budgets[0].LimitAmount.String() != "1200.00" {
		t.Errorf("Expected updated general amount, got %s", budgets[0].LimitAmount)
	}
}

func TestSaveBudget_Errors(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	missing := int32(9999)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"negative", `{"limitAmount":-5,"year":2025,"month":3}`, http.StatusBadRequest},
		{"bad month", `{"limitAmount":5,"year":2025,"month":0}`, http.StatusBadRequest},
		{"unknown category", `{"categoryId":` + itoa(missing) + `,"limitAmount":5,"year":2025,"month":3}`, http.StatusBadRequest},
		{"unknown id", `{"id":` + itoa(missing) + `,"limitAmount":5,"year":2025,"month":3}`, http.StatusBadRequest},
		{"malformed", `{"limitAmount":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/budgets", tt.body)
			setupAuthContext(c, f.ownerID)
			_ = f.budgets.SaveBudget(c)
			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSaveBudget_ReplaceByIDConflict(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.store.AddBudget(&domain.Budget{OwnerID: f.ownerID, LimitAmount: decimal.NewFromInt(500), Year: 2025, Month: 3})
	other := f.store.AddBudget(&domain.Budget{OwnerID: f.ownerID, LimitAmount: decimal.NewFromInt(500), Year: 2025, Month: 4})

	// Moving April's general budget onto March collides with the existing one
	c, rec := newJSONRequest(e, http.MethodPost, "/api/v1/budgets",
		`{"id":`+itoa(other.ID)+`,"limitAmount":10,"year":2025,"month":3}`)
	setupAuthContext(c, f.ownerID)
	_ = f.budgets.SaveBudget(c)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteBudget(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	budget := f.store.AddBudget(&domain.Budget{OwnerID: f.ownerID, LimitAmount: decimal.NewFromInt(500), Year: 2025, Month: 3})

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		c, rec := newJSONRequest(e, http.MethodDelete, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(itoa(budget.ID))
		setupAuthContext(c, f.ownerID)
		_ = f.budgets.DeleteBudget(c)
		if rec.Code != want {
			t.Errorf("Expected status %d, got %d", want, rec.Code)
		}
	}
}
