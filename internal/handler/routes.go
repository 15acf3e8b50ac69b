package handler

import (
	"github.com/dafibh/fortuna/planner-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers bundles every resource handler served under /api/v1
type Handlers struct {
	Auth     *AuthHandler
	Category *CategoryHandler
	Expense  *ExpenseHandler
	Income   *IncomeHandler
	Limit    *LimitHandler
	Budget   *BudgetHandler
	Report   *ReportHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, authLimiter *middleware.RateLimiter, h Handlers) {
	// API documentation (public)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)

	// API version 1
	api := e.Group("/api/v1")
	requireAuth := authMiddleware.Authenticate()

	// Auth routes (rate limited; register, login and refresh are public)
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(authLimiter))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/revoke", h.Auth.Revoke, requireAuth)
	auth.GET("/me", h.Auth.Me, requireAuth)

	// Category routes (protected)
	categories := api.Group("/categories")
	categories.Use(requireAuth)
	categories.GET("", h.Category.GetCategories)
	categories.GET("/:id", h.Category.GetCategory)
	categories.POST("", h.Category.CreateCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	// Expense routes (protected)
	expenses := api.Group("/expenses")
	expenses.Use(requireAuth)
	expenses.GET("", h.Expense.GetExpenses)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.POST("", h.Expense.CreateExpense)
	expenses.PUT("/:id", h.Expense.UpdateExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)
	expenses.POST("/:id/receipt", h.Expense.UploadReceipt)
	expenses.GET("/:id/receipt", h.Expense.GetReceipt)
	expenses.DELETE("/:id/receipt", h.Expense.DeleteReceipt)

	// Income routes (protected)
	incomes := api.Group("/incomes")
	incomes.Use(requireAuth)
	incomes.GET("", h.Income.GetIncomes)
	incomes.GET("/period/:year/:month", h.Income.GetIncomesByPeriod)
	incomes.GET("/total/:year/:month", h.Income.GetIncomeTotal)
	incomes.GET("/:id", h.Income.GetIncome)
	incomes.POST("", h.Income.CreateIncome)
	incomes.PUT("/:id", h.Income.UpdateIncome)
	incomes.DELETE("/:id", h.Income.DeleteIncome)

	// Category limit routes (protected)
	limits := api.Group("/limits")
	limits.Use(requireAuth)
	limits.GET("", h.Limit.GetLimits)
	limits.GET("/period/:year/:month", h.Limit.GetLimitsByPeriod)
	limits.GET("/detail/:id", h.Limit.GetLimit)
	limits.GET("/category/:categoryId/history", h.Limit.GetLimitHistory)
	limits.GET("/category/:categoryId/period/:year/:month", h.Limit.GetCategoryLimit)
	limits.POST("", h.Limit.SetLimit)
	limits.POST("/batch", h.Limit.SetLimitsBatch)
	limits.POST("/copy", h.Limit.CopyLimits)
	limits.PUT("/:id", h.Limit.UpdateLimit)
	limits.DELETE("/:id", h.Limit.DeleteLimit)

	// Budget routes (protected)
	budgets := api.Group("/budgets")
	budgets.Use(requireAuth)
	budgets.GET("", h.Budget.GetBudgets)
	budgets.GET("/period/:year/:month", h.Budget.GetBudgetsByPeriod)
	budgets.GET("/:id", h.Budget.GetBudget)
	budgets.POST("", h.Budget.SaveBudget)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)

	// Report routes (protected)
	reports := api.Group("/reports")
	reports.Use(requireAuth)
	reports.GET("/monthly-summary", h.Report.GetMonthlySummary)
	reports.GET("/expenses-by-category", h.Report.GetExpensesByCategory)
	reports.GET("/income-by-category", h.Report.GetIncomeByCategory)
	reports.GET("/evolution", h.Report.GetEvolution)
	reports.GET("/comparison", h.Report.GetComparison)
}
