package handler

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// money renders a decimal as a JSON number with two decimals
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

// parsePeriodParams reads and validates the :year and :month path parameters
func parsePeriodParams(c echo.Context) (domain.Period, error) {
	year, errY := strconv.Atoi(c.Param("year"))
	month, errM := strconv.Atoi(c.Param("month"))
	if errY != nil || errM != nil {
		return domain.Period{}, domain.ErrInvalidPeriod
	}
	return domain.NewPeriod(year, month)
}

// optionalIntQuery reads an optional integer query parameter
func optionalIntQuery(c echo.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseAmount reads a JSON number (or numeric string) as a decimal
func parseAmount(raw json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw.String()))
}
