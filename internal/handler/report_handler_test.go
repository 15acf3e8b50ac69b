package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestGetMonthlySummary_DefaultsToCurrentMonth(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("120.50", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	f.spend("50", time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/monthly-summary", "")
	setupAuthContext(c, f.ownerID)
	if err := f.reports.GetMonthlySummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var summary MonthlySummaryResponse
	decodeSuccess(t, rec, &summary)
	if summary.Year != 2025 || summary.Month != 3 {
		t.Errorf("Expected 2025-03, got %d-%d", summary.Year, summary.Month)
	}
	if summary.TotalSpent.String() != "120.50" || summary.PreviousMonthSpent.String() != "50.00" {
		t.Errorf("Unexpected totals: %s / %s", summary.TotalSpent, summary.PreviousMonthSpent)
	}
	if summary.ChangeAmount.String() != "70.50" || summary.ChangePercent.String() != "141.00" {
		t.Errorf("Unexpected change: %s / %s", summary.ChangeAmount, summary.ChangePercent)
	}
	if summary.CategoryWithHighestSpend == nil || summary.CategoryWithHighestSpend.Name != "Food" {
		t.Errorf("Expected Food as highest spend, got %+v", summary.CategoryWithHighestSpend)
	}
}

func TestGetMonthlySummary_InvalidQuery(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()

	for _, query := range []string{"?month=13", "?year=1999", "?month=abc"} {
		c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/monthly-summary"+query, "")
		setupAuthContext(c, f.ownerID)
		_ = f.reports.GetMonthlySummary(c)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, rec.Code)
		}
	}
}

func TestGetExpensesByCategory(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("30", time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC))
	retired := f.store.AddCategory(&domain.Category{
		OwnerID: &f.ownerID, Name: "Retired", Type: domain.CategoryTypeExpense, IsActive: false,
	})
	f.store.AddExpense(&domain.Expense{
		OwnerID:    f.ownerID,
		CategoryID: retired.ID,
		Amount:     decimal.NewFromInt(10),
		Date:       time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC),
	})

	c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/expenses-by-category?year=2025&month=1", "")
	setupAuthContext(c, f.ownerID)
	_ = f.reports.GetExpensesByCategory(c)

	var rows []CategoryBreakdownResponse
	decodeSuccess(t, rec, &rows)
	if len(rows) != 1 || rows[0].Percentage.String() != "75.00" {
		t.Errorf("Expected a single 75%% row, got %+v", rows)
	}
}

func TestGetEvolution(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("10", time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/evolution", "")
	setupAuthContext(c, f.ownerID)
	_ = f.reports.GetEvolution(c)

	var entries []EvolutionEntryResponse
	decodeSuccess(t, rec, &entries)
	if len(entries) != 6 {
		t.Fatalf("Expected 6 entries by default, got %d", len(entries))
	}
	if entries[0].Label != "Oct 2024" || entries[5].Label != "Mar 2025" {
		t.Errorf("Unexpected range %s..%s", entries[0].Label, entries[5].Label)
	}
	if entries[3].TotalSpent.String() != "10.00" || entries[4].TotalSpent.String() != "0.00" {
		t.Errorf("Unexpected totals: %+v", entries)
	}

	for _, query := range []string{"?months=0", "?months=25", "?months=x"} {
		c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/evolution"+query, "")
		setupAuthContext(c, f.ownerID)
		_ = f.reports.GetEvolution(c)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", query, rec.Code)
		}
	}
}

func TestGetComparison(t *testing.T) {
	e := echo.New()
	f := newPlanFixture()
	f.spend("80", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	f.spend("40", time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC))

	c, rec := newJSONRequest(e, http.MethodGet, "/api/v1/reports/comparison", "")
	setupAuthContext(c, f.ownerID)
	_ = f.reports.GetComparison(c)

	var comparison ComparisonResponse
	decodeSuccess(t, rec, &comparison)
	if comparison.CurrentMonth.Month != 3 || comparison.PreviousMonth.Month != 2 {
		t.Errorf("Unexpected months: %d vs %d", comparison.CurrentMonth.Month, comparison.PreviousMonth.Month)
	}
	if len(comparison.Categories) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(comparison.Categories))
	}
	row := comparison.Categories[0]
	if row.Difference.String() != "40.00" || row.ChangePercent.String() != "100.00" {
		t.Errorf("Unexpected comparison row: %+v", row)
	}
}
