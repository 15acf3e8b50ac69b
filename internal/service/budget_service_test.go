package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budgetFixture struct {
	store      *testutil.MockStore
	budgetRepo *testutil.MockBudgetRepository
	service    *BudgetService
	ownerID    int32
	food       *domain.Category
	transport  *domain.Category
	salary     *domain.Category
}

func newBudgetFixture() *budgetFixture {
	store := testutil.NewMockStore()
	budgetRepo := testutil.NewMockBudgetRepository(store)
	aggregation := NewAggregationService(testutil.NewMockAggregationRepository(store))

	ownerID := int32(7)
	f := &budgetFixture{
		store:      store,
		budgetRepo: budgetRepo,
		service:    NewBudgetService(budgetRepo, testutil.NewMockCategoryRepository(store), aggregation),
		ownerID:    ownerID,
	}
	f.food = store.AddCategory(&domain.Category{OwnerID: &ownerID, Name: "Food", Type: domain.CategoryTypeExpense, IsActive: true})
	f.transport = store.AddCategory(&domain.Category{Name: "Transport", Type: domain.CategoryTypeExpense, IsPredefined: true, IsActive: true})
	f.salary = store.AddCategory(&domain.Category{OwnerID: &ownerID, Name: "Salary", Type: domain.CategoryTypeIncome, IsActive: true})
	return f
}

func (f *budgetFixture) addExpense(categoryID int32, amount string, date time.Time) {
	f.store.AddExpense(&domain.Expense{
		OwnerID:    f.ownerID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	})
}

func TestBudgetGeneral_ReportsSentinelCategory(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	created, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(1000), Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Nil(t, created.CategoryID)
	assert.Equal(t, "General", created.CategoryName)
	assert.Equal(t, "#6366f1", created.CategoryColor)

	byPeriod, err := f.service.GetByPeriod(ctx, f.ownerID, 2025, 1)
	require.NoError(t, err)
	require.Len(t, byPeriod, 1)
	assert.Equal(t, "General", byPeriod[0].CategoryName)

	all, err := f.service.GetAll(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "General", all[0].CategoryName)
}

func TestBudgetGeneral_SpendsAcrossAllCategories(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()
	f.addExpense(f.food.ID, "100.50", jan2025(3))
	f.addExpense(f.transport.ID, "49.50", jan2025(10))
	f.addExpense(f.transport.ID, "300", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))

	general, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(600), Year: 2025, Month: 1})
	require.NoError(t, err)
	foodOnly, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{CategoryID: &f.food.ID, Amount: decimal.NewFromInt(80), Year: 2025, Month: 1})
	require.NoError(t, err)

	assert.Equal(t, "150.00", general.Spent.StringFixed(2))
	assert.Equal(t, "25.00", general.PercentConsumed.StringFixed(2))
	assert.False(t, general.Exceeded)

	assert.Equal(t, "100.50", foodOnly.Spent.StringFixed(2))
	assert.Equal(t, "-20.50", foodOnly.Available.StringFixed(2))
	assert.True(t, foodOnly.Exceeded)

	listed, err := f.service.GetByPeriod(ctx, f.ownerID, 2025, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// General budget sorts first
	assert.Nil(t, listed[0].CategoryID)
	assert.Equal(t, "150.00", listed[0].Spent.StringFixed(2))
	assert.Equal(t, "100.50", listed[1].Spent.StringFixed(2))
}

func TestBudgetCreateOrUpdate_NaturalKeyIsIdempotent(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	first, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 3})
	require.NoError(t, err)
	second, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(750), Year: 2025, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "750.00", second.LimitAmount.StringFixed(2))
	assert.Equal(t, 1, f.store.BudgetCount(f.ownerID))

	// A category budget in the same month is a different natural key
	_, err = f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{CategoryID: &f.food.ID, Amount: decimal.NewFromInt(10), Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.BudgetCount(f.ownerID))
}

func TestBudgetCreateOrUpdate_ByIDReplacesAllFields(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	created, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 1})
	require.NoError(t, err)

	id := created.ID
	replaced, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{
		ID:         &id,
		CategoryID: &f.food.ID,
		Amount:     decimal.NewFromInt(200),
		Year:       2025,
		Month:      2,
	})
	require.NoError(t, err)
	assert.Equal(t, id, replaced.ID)
	require.NotNil(t, replaced.CategoryID)
	assert.Equal(t, f.food.ID, *replaced.CategoryID)
	assert.Equal(t, "Food", replaced.CategoryName)
	assert.Equal(t, 2, replaced.Month)
	assert.Equal(t, "200.00", replaced.LimitAmount.StringFixed(2))
}

func TestBudgetCreateOrUpdate_ByIDMissing(t *testing.T) {
	f := newBudgetFixture()
	missing := int32(4242)

	_, err := f.service.CreateOrUpdate(context.Background(), f.ownerID, domain.BudgetInput{ID: &missing, Amount: decimal.NewFromInt(1), Year: 2025, Month: 1})
	assert.ErrorIs(t, err, domain.ErrBudgetToUpdateMissing)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBudgetCreateOrUpdate_ByIDNotOwned(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	created, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 1})
	require.NoError(t, err)

	id := created.ID
	_, err = f.service.CreateOrUpdate(ctx, 99, domain.BudgetInput{ID: &id, Amount: decimal.NewFromInt(1), Year: 2025, Month: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBudgetCreateOrUpdate_ByIDCollidingKeyIsConflict(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	_, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 1})
	require.NoError(t, err)
	feb, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 2})
	require.NoError(t, err)

	id := feb.ID
	_, err = f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{ID: &id, Amount: decimal.NewFromInt(1), Year: 2025, Month: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBudgetCreateOrUpdate_RejectsInvalidCategory(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()
	missing := int32(555)

	_, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{CategoryID: &f.salary.ID, Amount: decimal.NewFromInt(1), Year: 2025, Month: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{CategoryID: &missing, Amount: decimal.NewFromInt(1), Year: 2025, Month: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(1), Year: 2025, Month: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	assert.Equal(t, 0, f.store.BudgetCount(f.ownerID))
}

func TestBudgetCreateOrUpdate_LostInsertRaceRetriesAsUpdate(t *testing.T) {
	f := newBudgetFixture()
	f.budgetRepo.CreateFn = func(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
		winner := *budget
		winner.LimitAmount = decimal.NewFromInt(1)
		if _, err := f.budgetRepo.InsertBudget(&winner); err != nil {
			return nil, err
		}
		return f.budgetRepo.InsertBudget(budget)
	}

	status, err := f.service.CreateOrUpdate(context.Background(), f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(900), Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, "900.00", status.LimitAmount.StringFixed(2))
	assert.Equal(t, 1, f.store.BudgetCount(f.ownerID))
}

func TestBudgetDelete(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	created, err := f.service.CreateOrUpdate(ctx, f.ownerID, domain.BudgetInput{Amount: decimal.NewFromInt(500), Year: 2025, Month: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Delete(ctx, 99, created.ID), domain.ErrBudgetNotFound)
	require.NoError(t, f.service.Delete(ctx, f.ownerID, created.ID))

	_, err = f.service.GetByID(ctx, f.ownerID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
