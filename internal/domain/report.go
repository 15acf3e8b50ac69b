package domain

import "github.com/shopspring/decimal"

// HighestSpendCategory is the category with the largest spend in a month
type HighestSpendCategory struct {
	CategoryID int32           `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

// MonthlySummary reports spending and income for one month
type MonthlySummary struct {
	Year                     int                   `json:"year"`
	Month                    int                   `json:"month"`
	TotalSpent               decimal.Decimal       `json:"totalSpent"`
	ExpenseCount             int64                 `json:"expenseCount"`
	TotalIncome              decimal.Decimal       `json:"totalIncome"`
	IncomeCount              int64                 `json:"incomeCount"`
	AverageExpense           decimal.Decimal       `json:"averageExpense"`
	AverageDailyExpense      decimal.Decimal       `json:"averageDailyExpense"`
	PreviousMonthSpent       decimal.Decimal       `json:"previousMonthSpent"`
	ChangeAmount             decimal.Decimal       `json:"changeAmount"`
	ChangePercent            decimal.Decimal       `json:"changePercent"`
	CategoryWithHighestSpend *HighestSpendCategory `json:"categoryWithHighestSpend"`
}

// CategoryBreakdown is one category's share of a month's total
type CategoryBreakdown struct {
	CategoryID    int32           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	Total         decimal.Decimal `json:"total"`
	Count         int64           `json:"count"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// EvolutionEntry holds one month of the spend/income trend
type EvolutionEntry struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Label        string          `json:"label"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	ExpenseCount int64           `json:"expenseCount"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	IncomeCount  int64           `json:"incomeCount"`
}

// CategoryComparison compares one category across two consecutive months
type CategoryComparison struct {
	CategoryID     int32           `json:"categoryId"`
	CategoryName   string          `json:"categoryName"`
	CategoryIcon   string          `json:"categoryIcon"`
	CategoryColor  string          `json:"categoryColor"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	PreviousAmount decimal.Decimal `json:"previousAmount"`
	Difference     decimal.Decimal `json:"difference"`
	ChangePercent  decimal.Decimal `json:"changePercent"`
}

// Comparison reports the current month against the previous one
type Comparison struct {
	CurrentMonth  *MonthlySummary       `json:"currentMonth"`
	PreviousMonth *MonthlySummary       `json:"previousMonth"`
	Categories    []*CategoryComparison `json:"categories"`
}
