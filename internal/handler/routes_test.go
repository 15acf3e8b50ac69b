package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	authMiddleware, err := middleware.NewAuthMiddleware(testJWTConfig)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}
	limiter := middleware.NewRateLimiter(60, 10)
	defer limiter.Stop()

	f := newPlanFixture()
	RegisterRoutes(e, authMiddleware, limiter, Handlers{
		Auth:     newTestAuthHandler(),
		Category: &CategoryHandler{},
		Expense:  &ExpenseHandler{},
		Income:   &IncomeHandler{},
		Limit:    f.limits,
		Budget:   f.budgets,
		Report:   f.reports,
	})

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/limits/category/:categoryId/period/:year/:month",
		"POST /api/v1/limits/copy",
		"GET /api/v1/budgets/period/:year/:month",
		"GET /api/v1/reports/comparison",
		"POST /api/v1/expenses/:id/receipt",
		"GET /api/v1/incomes/total/:year/:month",
		"GET /swagger/*",
		"GET /openapi.json",
	} {
		if !registered[want] {
			t.Errorf("Expected route %s to be registered", want)
		}
	}

	// Protected routes reject requests without a bearer token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/limits", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}

	// Documentation is public
	req = httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /openapi.json, got %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/limits/copy") {
		t.Errorf("Expected swagger doc with limit routes, got %d", rec.Code)
	}
}
