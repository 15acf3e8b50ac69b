package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestRespondError_Taxonomy(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not found", domain.ErrCategoryLimitNotFound, http.StatusNotFound, ""},
		{"invalid", domain.ErrNegativeLimit, http.StatusBadRequest, "limit amount must not be negative"},
		{"wrapped invalid", fmt.Errorf("%w: incomes require an active income category", domain.ErrInvalidCategory), http.StatusBadRequest, ""},
		{"conflict", domain.ErrBudgetAlreadyExists, http.StatusConflict, ""},
		{"unauthenticated", domain.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"receipts disabled", domain.ErrReceiptsUnavailable, http.StatusServiceUnavailable, ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := respondError(c, tt.err, "do thing"); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			response := decodeError(t, rec)
			if tt.wantDetail != "" && (len(response.Errors) != 1 || response.Errors[0] != tt.wantDetail) {
				t.Errorf("Expected detail %q, got %v", tt.wantDetail, response.Errors)
			}
			if tt.wantStatus == http.StatusInternalServerError && response.Message != "Failed to do thing" {
				t.Errorf("Expected generic message, got %q", response.Message)
			}
		})
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(echo.ErrNotFound, c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	response := decodeError(t, rec)
	if response.Message != "Not Found" || response.Errors == nil {
		t.Errorf("Unexpected envelope: %+v", response)
	}
}

func TestMoney(t *testing.T) {
	tests := map[string]string{
		"0":       "0.00",
		"12.5":    "12.50",
		"-20.5":   "-20.50",
		"3.14159": "3.14",
		"2.675":   "2.68",
	}
	for in, want := range tests {
		if got := money(decimal.RequireFromString(in)).String(); got != want {
			t.Errorf("money(%s) = %s, want %s", in, got, want)
		}
	}
}
