package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/repository/storage"
	"github.com/shopspring/decimal"
)

// MockStore is the shared in-memory arena behind every mock repository, so
// joins and aggregates see the same records the CRUD mocks wrote.
type MockStore struct {
	mu sync.RWMutex

	Categories    map[int32]*domain.Category
	Expenses      map[int32]*domain.Expense
	Incomes       map[int32]*domain.Income
	Limits        map[int32]*domain.CategoryLimit
	Budgets       map[int32]*domain.Budget
	Users         map[int32]*domain.User
	RefreshTokens map[int32]*domain.RefreshToken

	NextID int32
}

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		Categories:    make(map[int32]*domain.Category),
		Expenses:      make(map[int32]*domain.Expense),
		Incomes:       make(map[int32]*domain.Income),
		Limits:        make(map[int32]*domain.CategoryLimit),
		Budgets:       make(map[int32]*domain.Budget),
		Users:         make(map[int32]*domain.User),
		RefreshTokens: make(map[int32]*domain.RefreshToken),
		NextID:        1,
	}
}

func (s *MockStore) nextID() int32 {
	id := s.NextID
	s.NextID++
	return id
}

// AddCategory stores a category, assigning an ID when it has none
func (s *MockStore) AddCategory(category *domain.Category) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID == 0 {
		category.ID = s.nextID()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}
	s.Categories[category.ID] = category
	return category
}

// AddExpense stores an expense, assigning an ID when it has none
func (s *MockStore) AddExpense(expense *domain.Expense) *domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expense.ID == 0 {
		expense.ID = s.nextID()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}
	s.Expenses[expense.ID] = expense
	return expense
}

// AddIncome stores an income, assigning an ID when it has none
func (s *MockStore) AddIncome(income *domain.Income) *domain.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	if income.ID == 0 {
		income.ID = s.nextID()
	}
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now()
	}
	s.Incomes[income.ID] = income
	return income
}

// AddLimit stores a category limit, assigning an ID when it has none
func (s *MockStore) AddLimit(limit *domain.CategoryLimit) *domain.CategoryLimit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit.ID == 0 {
		limit.ID = s.nextID()
	}
	if limit.CreatedAt.IsZero() {
		limit.CreatedAt = time.Now()
	}
	s.Limits[limit.ID] = limit
	return limit
}

// AddBudget stores a budget, assigning an ID when it has none
func (s *MockStore) AddBudget(budget *domain.Budget) *domain.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if budget.ID == 0 {
		budget.ID = s.nextID()
	}
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now()
	}
	s.Budgets[budget.ID] = budget
	return budget
}

// AddUser stores a user, assigning an ID when it has none
func (s *MockStore) AddUser(user *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.nextID()
	}
	s.Users[user.ID] = user
	return user
}

// LimitCount returns how many limits are stored for the owner
func (s *MockStore) LimitCount(ownerID int32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.Limits {
		if l.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// BudgetCount returns how many budgets are stored for the owner
func (s *MockStore) BudgetCount(ownerID int32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.Budgets {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func inPeriod(t time.Time, period domain.Period) bool {
	start, end := period.Bounds()
	return !t.Before(start) && t.Before(end)
}

func periodKey(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// --- Categories ---

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	store *MockStore
}

// NewMockCategoryRepository creates a new MockCategoryRepository over store
func NewMockCategoryRepository(store *MockStore) *MockCategoryRepository {
	return &MockCategoryRepository{store: store}
}

// ListVisible returns active visible categories, predefined first then by name
func (m *MockCategoryRepository) ListVisible(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	result := make([]*domain.Category, 0)
	for _, c := range m.store.Categories {
		if c.IsActive && c.VisibleTo(ownerID) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPredefined != result[j].IsPredefined {
			return result[i].IsPredefined
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// GetVisibleByID retrieves a category the owner can see
func (m *MockCategoryRepository) GetVisibleByID(ctx context.Context, ownerID int32, id int32) (*domain.Category, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	c, ok := m.store.Categories[id]
	if !ok || !c.VisibleTo(ownerID) {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

// ExistsByName checks for an active visible category with the same name
func (m *MockCategoryRepository) ExistsByName(ctx context.Context, ownerID int32, name string, excludeID *int32) (bool, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, c := range m.store.Categories {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.IsActive && c.VisibleTo(ownerID) && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	stored := *category
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Categories[stored.ID] = &stored
	result := stored
	return &result, nil
}

// Update replaces a category's editable fields
func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	existing, ok := m.store.Categories[category.ID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	existing.Name = category.Name
	existing.Icon = category.Icon
	existing.Color = category.Color
	existing.Type = category.Type
	result := *existing
	return &result, nil
}

// IsInUse reports whether any expense or income references the category
func (m *MockCategoryRepository) IsInUse(ctx context.Context, ownerID int32, id int32) (bool, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, e := range m.store.Expenses {
		if e.CategoryID == id {
			return true, nil
		}
	}
	for _, i := range m.store.Incomes {
		if i.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

// SoftDelete deactivates a category
func (m *MockCategoryRepository) SoftDelete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.Categories[id]
	if !ok || !c.EditableBy(ownerID) {
		return domain.ErrCategoryNotFound
	}
	c.IsActive = false
	return nil
}

// Delete removes a category along with its limits and budgets
func (m *MockCategoryRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	c, ok := m.store.Categories[id]
	if !ok || !c.EditableBy(ownerID) {
		return domain.ErrCategoryNotFound
	}
	delete(m.store.Categories, id)
	for limitID, l := range m.store.Limits {
		if l.CategoryID == id {
			delete(m.store.Limits, limitID)
		}
	}
	for budgetID, b := range m.store.Budgets {
		if b.CategoryID != nil && *b.CategoryID == id {
			delete(m.store.Budgets, budgetID)
		}
	}
	return nil
}

// --- Expenses ---

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	store *MockStore
}

// NewMockExpenseRepository creates a new MockExpenseRepository over store
func NewMockExpenseRepository(store *MockStore) *MockExpenseRepository {
	return &MockExpenseRepository{store: store}
}

func (m *MockExpenseRepository) withCategory(e *domain.Expense) *domain.Expense {
	result := *e
	if c, ok := m.store.Categories[e.CategoryID]; ok {
		result.CategoryName = c.Name
		result.CategoryIcon = c.Icon
		result.CategoryColor = c.Color
	}
	return &result
}

// List returns a filtered, ordered page of expenses
func (m *MockExpenseRepository) List(ctx context.Context, ownerID int32, filters *domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	matched := make([]*domain.Expense, 0)
	for _, e := range m.store.Expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if filters.From != nil && e.Date.Before(*filters.From) {
			continue
		}
		if filters.To != nil && e.Date.After(*filters.To) {
			continue
		}
		if filters.CategoryID != nil && e.CategoryID != *filters.CategoryID {
			continue
		}
		matched = append(matched, m.withCategory(e))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch filters.SortBy {
		case domain.ExpenseSortByAmount:
			less, equal = a.Amount.LessThan(b.Amount), a.Amount.Equal(b.Amount)
		case domain.ExpenseSortByCategory:
			less, equal = a.CategoryName < b.CategoryName, a.CategoryName == b.CategoryName
		default:
			less, equal = a.Date.Before(b.Date), a.Date.Equal(b.Date)
		}
		if equal {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filters.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := (filters.Page - 1) * filters.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filters.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	totalPages := int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &domain.PaginatedExpenses{
		Data:       matched[start:end],
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// GetByID retrieves an expense owned by ownerID
func (m *MockExpenseRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Expense, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	e, ok := m.store.Expenses[id]
	if !ok || e.OwnerID != ownerID {
		return nil, domain.ErrExpenseNotFound
	}
	return m.withCategory(e), nil
}

// Create creates a new expense
func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	stored := *expense
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Expenses[stored.ID] = &stored
	return m.withCategory(&stored), nil
}

// Update replaces an expense's editable fields
func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	existing, ok := m.store.Expenses[expense.ID]
	if !ok || existing.OwnerID != expense.OwnerID {
		return nil, domain.ErrExpenseNotFound
	}
	now := time.Now()
	existing.CategoryID = expense.CategoryID
	existing.Amount = expense.Amount
	existing.Date = expense.Date
	existing.Description = expense.Description
	existing.UpdatedAt = &now
	return m.withCategory(existing), nil
}

// Delete removes an expense
func (m *MockExpenseRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	e, ok := m.store.Expenses[id]
	if !ok || e.OwnerID != ownerID {
		return domain.ErrExpenseNotFound
	}
	delete(m.store.Expenses, id)
	return nil
}

// SetReceipt records or clears the receipt object path
func (m *MockExpenseRepository) SetReceipt(ctx context.Context, ownerID int32, id int32, receiptPath *string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	e, ok := m.store.Expenses[id]
	if !ok || e.OwnerID != ownerID {
		return domain.ErrExpenseNotFound
	}
	e.ReceiptPath = receiptPath
	return nil
}

// --- Incomes ---

// MockIncomeRepository is a mock implementation of domain.IncomeRepository
type MockIncomeRepository struct {
	store *MockStore
}

// NewMockIncomeRepository creates a new MockIncomeRepository over store
func NewMockIncomeRepository(store *MockStore) *MockIncomeRepository {
	return &MockIncomeRepository{store: store}
}

func (m *MockIncomeRepository) withCategory(i *domain.Income) *domain.Income {
	result := *i
	if c, ok := m.store.Categories[i.CategoryID]; ok {
		result.CategoryName = c.Name
		result.CategoryIcon = c.Icon
		result.CategoryColor = c.Color
	}
	return &result
}

func (m *MockIncomeRepository) list(ownerID int32, keep func(*domain.Income) bool) []*domain.Income {
	result := make([]*domain.Income, 0)
	for _, i := range m.store.Incomes {
		if i.OwnerID == ownerID && keep(i) {
			result = append(result, m.withCategory(i))
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if !result[a].Date.Equal(result[b].Date) {
			return result[a].Date.After(result[b].Date)
		}
		return result[a].CreatedAt.After(result[b].CreatedAt)
	})
	return result
}

// List returns every income of the owner, newest first
func (m *MockIncomeRepository) List(ctx context.Context, ownerID int32) ([]*domain.Income, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.list(ownerID, func(*domain.Income) bool { return true }), nil
}

// ListByPeriod returns the owner's incomes dated within period
func (m *MockIncomeRepository) ListByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.Income, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.list(ownerID, func(i *domain.Income) bool { return inPeriod(i.Date, period) }), nil
}

// GetByID retrieves an income owned by ownerID
func (m *MockIncomeRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.Income, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	i, ok := m.store.Incomes[id]
	if !ok || i.OwnerID != ownerID {
		return nil, domain.ErrIncomeNotFound
	}
	return m.withCategory(i), nil
}

// Create creates a new income
func (m *MockIncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	stored := *income
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Incomes[stored.ID] = &stored
	return m.withCategory(&stored), nil
}

// Update replaces an income's editable fields
func (m *MockIncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	existing, ok := m.store.Incomes[income.ID]
	if !ok || existing.OwnerID != income.OwnerID {
		return nil, domain.ErrIncomeNotFound
	}
	existing.CategoryID = income.CategoryID
	existing.Amount = income.Amount
	existing.Concept = income.Concept
	existing.Date = income.Date
	existing.Description = income.Description
	return m.withCategory(existing), nil
}

// Delete removes an income
func (m *MockIncomeRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	i, ok := m.store.Incomes[id]
	if !ok || i.OwnerID != ownerID {
		return domain.ErrIncomeNotFound
	}
	delete(m.store.Incomes, id)
	return nil
}

// --- Category limits ---

// MockCategoryLimitRepository is a mock implementation of domain.CategoryLimitRepository
type MockCategoryLimitRepository struct {
	store *MockStore

	// CreateFn overrides Create when set; used to simulate concurrent writers
	CreateFn func(ctx context.Context, limit *domain.CategoryLimit) (*domain.CategoryLimit, error)
	// UpdateAmountFn overrides UpdateAmount when set
	UpdateAmountFn func(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.CategoryLimit, error)
}

// NewMockCategoryLimitRepository creates a new MockCategoryLimitRepository over store
func NewMockCategoryLimitRepository(store *MockStore) *MockCategoryLimitRepository {
	return &MockCategoryLimitRepository{store: store}
}

func (m *MockCategoryLimitRepository) view(l *domain.CategoryLimit) *domain.CategoryLimitView {
	v := &domain.CategoryLimitView{CategoryLimit: *l}
	if c, ok := m.store.Categories[l.CategoryID]; ok {
		v.CategoryName = c.Name
		v.CategoryColor = c.Color
		v.CategoryIcon = c.Icon
	}
	return v
}

func (m *MockCategoryLimitRepository) collect(keep func(*domain.CategoryLimit) bool) []*domain.CategoryLimitView {
	result := make([]*domain.CategoryLimitView, 0)
	for _, l := range m.store.Limits {
		if keep(l) {
			result = append(result, m.view(l))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.CategoryName < b.CategoryName
	})
	return result
}

// GetAll returns every limit of the owner
func (m *MockCategoryLimitRepository) GetAll(ctx context.Context, ownerID int32) ([]*domain.CategoryLimitView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.collect(func(l *domain.CategoryLimit) bool { return l.OwnerID == ownerID }), nil
}

// GetByPeriod returns the owner's limits for one month
func (m *MockCategoryLimitRepository) GetByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.CategoryLimitView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.collect(func(l *domain.CategoryLimit) bool {
		return l.OwnerID == ownerID && l.Period().Equal(period)
	}), nil
}

// GetByID retrieves a limit owned by ownerID
func (m *MockCategoryLimitRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.CategoryLimitView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	l, ok := m.store.Limits[id]
	if !ok || l.OwnerID != ownerID {
		return nil, domain.ErrCategoryLimitNotFound
	}
	return m.view(l), nil
}

// GetByCategoryAndPeriod retrieves a limit by its natural key
func (m *MockCategoryLimitRepository) GetByCategoryAndPeriod(ctx context.Context, ownerID int32, categoryID int32, period domain.Period) (*domain.CategoryLimitView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, l := range m.store.Limits {
		if l.OwnerID == ownerID && l.CategoryID == categoryID && l.Period().Equal(period) {
			return m.view(l), nil
		}
	}
	return nil, domain.ErrCategoryLimitNotFound
}

// GetByCategory returns every limit set on a category
func (m *MockCategoryLimitRepository) GetByCategory(ctx context.Context, ownerID int32, categoryID int32) ([]*domain.CategoryLimitView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.collect(func(l *domain.CategoryLimit) bool {
		return l.OwnerID == ownerID && l.CategoryID == categoryID
	}), nil
}

// Create inserts a limit, enforcing the natural key like the unique index does
func (m *MockCategoryLimitRepository) Create(ctx context.Context, limit *domain.CategoryLimit) (*domain.CategoryLimit, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, limit)
	}
	return m.InsertLimit(limit)
}

// InsertLimit is the default Create behavior, exposed for CreateFn overrides
func (m *MockCategoryLimitRepository) InsertLimit(limit *domain.CategoryLimit) (*domain.CategoryLimit, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, l := range m.store.Limits {
		if l.OwnerID == limit.OwnerID && l.CategoryID == limit.CategoryID && l.Year == limit.Year && l.Month == limit.Month {
			return nil, domain.ErrCategoryLimitAlreadyExists
		}
	}
	stored := *limit
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Limits[stored.ID] = &stored
	result := stored
	return &result, nil
}

// UpdateAmount changes a limit's amount
func (m *MockCategoryLimitRepository) UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.CategoryLimit, error) {
	if m.UpdateAmountFn != nil {
		return m.UpdateAmountFn(ctx, ownerID, id, amount)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	l, ok := m.store.Limits[id]
	if !ok || l.OwnerID != ownerID {
		return nil, domain.ErrCategoryLimitNotFound
	}
	now := time.Now()
	l.LimitAmount = amount
	l.UpdatedAt = &now
	result := *l
	return &result, nil
}

// Delete removes a limit
func (m *MockCategoryLimitRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	l, ok := m.store.Limits[id]
	if !ok || l.OwnerID != ownerID {
		return domain.ErrCategoryLimitNotFound
	}
	delete(m.store.Limits, id)
	return nil
}

// --- Budgets ---

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	store *MockStore

	// CreateFn overrides Create when set; used to simulate concurrent writers
	CreateFn func(ctx context.Context, budget *domain.Budget) (*domain.Budget, error)
}

// NewMockBudgetRepository creates a new MockBudgetRepository over store
func NewMockBudgetRepository(store *MockStore) *MockBudgetRepository {
	return &MockBudgetRepository{store: store}
}

func sameCategory(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MockBudgetRepository) view(b *domain.Budget) *domain.BudgetView {
	v := &domain.BudgetView{Budget: *b}
	if b.CategoryID != nil {
		if c, ok := m.store.Categories[*b.CategoryID]; ok {
			v.CategoryName = c.Name
			v.CategoryColor = c.Color
			v.CategoryIcon = c.Icon
		}
	}
	return v
}

func (m *MockBudgetRepository) collect(keep func(*domain.Budget) bool) []*domain.BudgetView {
	result := make([]*domain.BudgetView, 0)
	for _, b := range m.store.Budgets {
		if keep(b) {
			result = append(result, m.view(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		if a.IsGeneral() != b.IsGeneral() {
			return a.IsGeneral()
		}
		return a.CategoryName < b.CategoryName
	})
	return result
}

func (m *MockBudgetRepository) keyTaken(budget *domain.Budget) bool {
	for _, b := range m.store.Budgets {
		if b.ID != budget.ID && b.OwnerID == budget.OwnerID && sameCategory(b.CategoryID, budget.CategoryID) &&
			b.Year == budget.Year && b.Month == budget.Month {
			return true
		}
	}
	return false
}

// GetAll returns every budget of the owner
func (m *MockBudgetRepository) GetAll(ctx context.Context, ownerID int32) ([]*domain.BudgetView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.collect(func(b *domain.Budget) bool { return b.OwnerID == ownerID }), nil
}

// GetByPeriod returns the owner's budgets for one month
func (m *MockBudgetRepository) GetByPeriod(ctx context.Context, ownerID int32, period domain.Period) ([]*domain.BudgetView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.collect(func(b *domain.Budget) bool {
		return b.OwnerID == ownerID && b.Period().Equal(period)
	}), nil
}

// GetByID retrieves a budget owned by ownerID
func (m *MockBudgetRepository) GetByID(ctx context.Context, ownerID int32, id int32) (*domain.BudgetView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	b, ok := m.store.Budgets[id]
	if !ok || b.OwnerID != ownerID {
		return nil, domain.ErrBudgetNotFound
	}
	return m.view(b), nil
}

// GetByNaturalKey retrieves a budget by (category, period)
func (m *MockBudgetRepository) GetByNaturalKey(ctx context.Context, ownerID int32, categoryID *int32, period domain.Period) (*domain.BudgetView, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, b := range m.store.Budgets {
		if b.OwnerID == ownerID && sameCategory(b.CategoryID, categoryID) && b.Period().Equal(period) {
			return m.view(b), nil
		}
	}
	return nil, domain.ErrBudgetNotFound
}

// Create inserts a budget, enforcing the natural key like the unique index does
func (m *MockBudgetRepository) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, budget)
	}
	return m.InsertBudget(budget)
}

// InsertBudget is the default Create behavior, exposed for CreateFn overrides
func (m *MockBudgetRepository) InsertBudget(budget *domain.Budget) (*domain.Budget, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	stored := *budget
	stored.ID = 0
	if m.keyTaken(&stored) {
		return nil, domain.ErrBudgetAlreadyExists
	}
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Budgets[stored.ID] = &stored
	result := stored
	return &result, nil
}

// Update replaces every field of a budget
func (m *MockBudgetRepository) Update(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	existing, ok := m.store.Budgets[budget.ID]
	if !ok || existing.OwnerID != budget.OwnerID {
		return nil, domain.ErrBudgetNotFound
	}
	if m.keyTaken(budget) {
		return nil, domain.ErrBudgetAlreadyExists
	}
	now := time.Now()
	existing.CategoryID = budget.CategoryID
	existing.LimitAmount = budget.LimitAmount
	existing.Year = budget.Year
	existing.Month = budget.Month
	existing.UpdatedAt = &now
	result := *existing
	return &result, nil
}

// UpdateAmount changes a budget's amount
func (m *MockBudgetRepository) UpdateAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.Budget, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	b, ok := m.store.Budgets[id]
	if !ok || b.OwnerID != ownerID {
		return nil, domain.ErrBudgetNotFound
	}
	now := time.Now()
	b.LimitAmount = amount
	b.UpdatedAt = &now
	result := *b
	return &result, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(ctx context.Context, ownerID int32, id int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	b, ok := m.store.Budgets[id]
	if !ok || b.OwnerID != ownerID {
		return domain.ErrBudgetNotFound
	}
	delete(m.store.Budgets, id)
	return nil
}

// --- Aggregation ---

// MockAggregationRepository is a mock implementation of domain.AggregationRepository
type MockAggregationRepository struct {
	store *MockStore

	// Err, when set, is returned by every method
	Err error
}

// NewMockAggregationRepository creates a new MockAggregationRepository over store
func NewMockAggregationRepository(store *MockStore) *MockAggregationRepository {
	return &MockAggregationRepository{store: store}
}

type entryRow struct {
	categoryID int32
	amount     decimal.Decimal
	date       time.Time
}

func (m *MockAggregationRepository) rows(ownerID int32, kind domain.EntryKind) []entryRow {
	rows := make([]entryRow, 0)
	if kind == domain.EntryKindIncome {
		for _, i := range m.store.Incomes {
			if i.OwnerID == ownerID {
				rows = append(rows, entryRow{i.CategoryID, i.Amount, i.Date})
			}
		}
		return rows
	}
	for _, e := range m.store.Expenses {
		if e.OwnerID == ownerID {
			rows = append(rows, entryRow{e.CategoryID, e.Amount, e.Date})
		}
	}
	return rows
}

// SumAmount sums one category or all categories over period
func (m *MockAggregationRepository) SumAmount(ctx context.Context, ownerID int32, kind domain.EntryKind, categoryID *int32, period domain.Period) (decimal.Decimal, error) {
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	total := decimal.Zero
	for _, r := range m.rows(ownerID, kind) {
		if categoryID != nil && r.categoryID != *categoryID {
			continue
		}
		if inPeriod(r.date, period) {
			total = total.Add(r.amount)
		}
	}
	return total, nil
}

// PeriodTotal sums and counts every row over period
func (m *MockAggregationRepository) PeriodTotal(ctx context.Context, ownerID int32, kind domain.EntryKind, period domain.Period) (*domain.PeriodTotal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	result := &domain.PeriodTotal{Total: decimal.Zero}
	for _, r := range m.rows(ownerID, kind) {
		if inPeriod(r.date, period) {
			result.Total = result.Total.Add(r.amount)
			result.Count++
		}
	}
	return result, nil
}

// TotalsByCategory groups period rows by category, largest total first
func (m *MockAggregationRepository) TotalsByCategory(ctx context.Context, ownerID int32, kind domain.EntryKind, period domain.Period) ([]*domain.CategoryTotal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	byCategory := make(map[int32]*domain.CategoryTotal)
	for _, r := range m.rows(ownerID, kind) {
		if !inPeriod(r.date, period) {
			continue
		}
		ct, ok := byCategory[r.categoryID]
		if !ok {
			ct = &domain.CategoryTotal{CategoryID: r.categoryID, Total: decimal.Zero}
			if c, found := m.store.Categories[r.categoryID]; found {
				ct.CategoryName = c.Name
				ct.CategoryIcon = c.Icon
				ct.CategoryColor = c.Color
				ct.CategoryType = c.Type
				ct.IsActive = c.IsActive
			}
			byCategory[r.categoryID] = ct
		}
		ct.Total = ct.Total.Add(r.amount)
		ct.Count++
	}

	result := make([]*domain.CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		result = append(result, ct)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result, nil
}

// MonthlyTotals groups rows in [from, to] by month, oldest first
func (m *MockAggregationRepository) MonthlyTotals(ctx context.Context, ownerID int32, kind domain.EntryKind, from, to domain.Period) ([]*domain.MonthlyTotal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	start, _ := from.Bounds()
	_, end := to.Bounds()
	byMonth := make(map[string]*domain.MonthlyTotal)
	for _, r := range m.rows(ownerID, kind) {
		if r.date.Before(start) || !r.date.Before(end) {
			continue
		}
		p := domain.PeriodOf(r.date)
		key := periodKey(p.Year, p.Month)
		mt, ok := byMonth[key]
		if !ok {
			mt = &domain.MonthlyTotal{Period: p, Total: decimal.Zero}
			byMonth[key] = mt
		}
		mt.Total = mt.Total.Add(r.amount)
		mt.Count++
	}

	result := make([]*domain.MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		result = append(result, mt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period.Before(result[j].Period) })
	return result, nil
}

// --- Users and refresh tokens ---

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	store *MockStore
}

// NewMockUserRepository creates a new MockUserRepository over store
func NewMockUserRepository(store *MockStore) *MockUserRepository {
	return &MockUserRepository{store: store}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	u, ok := m.store.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	result := *u
	return &result, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, u := range m.store.Users {
		if strings.EqualFold(u.Email, email) {
			result := *u
			return &result, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, u := range m.store.Users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrEmailAlreadyRegistered
		}
	}
	stored := *user
	stored.ID = m.store.nextID()
	stored.CreatedAt = time.Now()
	m.store.Users[stored.ID] = &stored
	result := stored
	return &result, nil
}

// UpdateLastLogin records a successful login
func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int32, at time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	u, ok := m.store.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLoginAt = &at
	return nil
}

// MockRefreshTokenRepository is a mock implementation of domain.RefreshTokenRepository
type MockRefreshTokenRepository struct {
	store *MockStore
}

// NewMockRefreshTokenRepository creates a new MockRefreshTokenRepository over store
func NewMockRefreshTokenRepository(store *MockStore) *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{store: store}
}

// Create stores a refresh token
func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	token.ID = m.store.nextID()
	token.CreatedAt = time.Now()
	stored := *token
	m.store.RefreshTokens[stored.ID] = &stored
	return nil
}

// GetByHash retrieves a refresh token by its hash
func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, t := range m.store.RefreshTokens {
		if t.TokenHash == hash {
			result := *t
			return &result, nil
		}
	}
	return nil, domain.ErrInvalidRefreshToken
}

// Revoke marks a refresh token revoked
func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id int32, replacedByHash *string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t, ok := m.store.RefreshTokens[id]
	if !ok {
		return domain.ErrInvalidRefreshToken
	}
	now := time.Now()
	t.RevokedAt = &now
	t.ReplacedByHash = replacedByHash
	return nil
}

// DeleteInactive removes a user's expired and revoked tokens
func (m *MockRefreshTokenRepository) DeleteInactive(ctx context.Context, userID int32, now time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for id, t := range m.store.RefreshTokens {
		if t.UserID == userID && !t.IsActive(now) {
			delete(m.store.RefreshTokens, id)
		}
	}
	return nil
}

// --- Receipt storage ---

// MockReceiptStorage is an in-memory object store
type MockReceiptStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte

	// UploadErr, when set, fails every upload
	UploadErr error
}

// NewMockReceiptStorage creates a new MockReceiptStorage
func NewMockReceiptStorage() *MockReceiptStorage {
	return &MockReceiptStorage{Objects: make(map[string][]byte)}
}

// Upload stores an object and returns its path
func (m *MockReceiptStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	if _, err := storage.ParseReceiptPath(objectPath); err != nil {
		return "", err
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes an object
func (m *MockReceiptStorage) Delete(ctx context.Context, objectPath string) error {
	if _, err := storage.ParseReceiptPath(objectPath); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for an object
func (m *MockReceiptStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if _, err := storage.ParseReceiptPath(objectPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://receipts.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// Has reports whether an object is stored at objectPath
func (m *MockReceiptStorage) Has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[objectPath]
	return ok
}
