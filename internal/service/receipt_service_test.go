package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/repository/storage"
	"github.com/dafibh/fortuna/planner-backend/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage encodes a solid image of the given size and format
func createTestImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	require.NoError(t, err)
	return buf.Bytes()
}

type receiptFixture struct {
	store    *testutil.MockStore
	objects  *testutil.MockReceiptStorage
	service  *ReceiptService
	ownerID  int32
	expenses *testutil.MockExpenseRepository
	expense  *domain.Expense
}

func newReceiptFixture() *receiptFixture {
	store := testutil.NewMockStore()
	objects := testutil.NewMockReceiptStorage()
	expenses := testutil.NewMockExpenseRepository(store)
	ownerID := int32(2)
	category := store.AddCategory(&domain.Category{OwnerID: &ownerID, Name: "Food", Type: domain.CategoryTypeExpense, IsActive: true})
	expense := store.AddExpense(&domain.Expense{OwnerID: ownerID, CategoryID: category.ID, Amount: decimal.NewFromInt(20), Date: time.Now()})

	return &receiptFixture{
		store:    store,
		objects:  objects,
		service:  NewReceiptService(expenses, objects),
		ownerID:  ownerID,
		expenses: expenses,
		expense:  expense,
	}
}

func TestReceiptAttach_StoresResizedVariants(t *testing.T) {
	f := newReceiptFixture()
	ctx := context.Background()

	urls, err := f.service.Attach(ctx, f.ownerID, f.expense.ID, createTestImage(t, 2000, 1000, "png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(urls.URL, "https://receipts.test/2/expenses/"))
	assert.NotEmpty(t, urls.ThumbnailURL)
	require.Len(t, f.objects.Objects, 2)

	stored, err := f.expenses.GetByID(ctx, f.ownerID, f.expense.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReceiptPath)
	assert.True(t, f.objects.Has(*stored.ReceiptPath))

	full, err := imaging.Decode(bytes.NewReader(f.objects.Objects[*stored.ReceiptPath]))
	require.NoError(t, err)
	assert.Equal(t, ReceiptMaxWidth, full.Bounds().Dx())

	thumb, err := imaging.Decode(bytes.NewReader(f.objects.Objects[storage.ThumbnailPath(*stored.ReceiptPath)]))
	require.NoError(t, err)
	assert.Equal(t, ReceiptThumbWidth, thumb.Bounds().Dx())
}

func TestReceiptAttach_ReplacesPreviousReceipt(t *testing.T) {
	f := newReceiptFixture()
	ctx := context.Background()

	_, err := f.service.Attach(ctx, f.ownerID, f.expense.ID, createTestImage(t, 100, 100, "jpeg"))
	require.NoError(t, err)
	first, _ := f.expenses.GetByID(ctx, f.ownerID, f.expense.ID)

	_, err = f.service.Attach(ctx, f.ownerID, f.expense.ID, createTestImage(t, 120, 80, "jpeg"))
	require.NoError(t, err)

	assert.False(t, f.objects.Has(*first.ReceiptPath))
	assert.Len(t, f.objects.Objects, 2)
}

func TestReceiptAttach_Rejects(t *testing.T) {
	f := newReceiptFixture()
	ctx := context.Background()

	_, err := f.service.Attach(ctx, f.ownerID, f.expense.ID, make([]byte, MaxReceiptSize+1))
	assert.ErrorIs(t, err, domain.ErrReceiptTooLarge)

	_, err = f.service.Attach(ctx, f.ownerID, f.expense.ID, []byte("GIF89a not an accepted format"))
	assert.ErrorIs(t, err, domain.ErrReceiptFormat)

	_, err = f.service.Attach(ctx, 77, f.expense.ID, createTestImage(t, 10, 10, "png"))
	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)

	assert.Empty(t, f.objects.Objects)
}

func TestReceiptAttach_UploadFailureLeavesNothingBehind(t *testing.T) {
	f := newReceiptFixture()
	f.objects.UploadErr = errors.New("bucket unavailable")

	_, err := f.service.Attach(context.Background(), f.ownerID, f.expense.ID, createTestImage(t, 50, 50, "png"))
	require.Error(t, err)

	stored, _ := f.expenses.GetByID(context.Background(), f.ownerID, f.expense.ID)
	assert.Nil(t, stored.ReceiptPath)
}

func TestReceiptURLAndRemove(t *testing.T) {
	f := newReceiptFixture()
	ctx := context.Background()

	_, err := f.service.URL(ctx, f.ownerID, f.expense.ID)
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)

	_, err = f.service.Attach(ctx, f.ownerID, f.expense.ID, createTestImage(t, 64, 64, "jpeg"))
	require.NoError(t, err)

	urls, err := f.service.URL(ctx, f.ownerID, f.expense.ID)
	require.NoError(t, err)
	assert.Contains(t, urls.URL, "expires=900")

	require.NoError(t, f.service.Remove(ctx, f.ownerID, f.expense.ID))
	assert.Empty(t, f.objects.Objects)
	assert.ErrorIs(t, f.service.Remove(ctx, f.ownerID, f.expense.ID), domain.ErrReceiptNotFound)
}

func TestReceiptURL_RefusesPathOfAnotherExpense(t *testing.T) {
	f := newReceiptFixture()
	ctx := context.Background()

	for _, stored := range []string{
		storage.ReceiptObjectPath(f.ownerID+1, f.expense.ID, "abc", "receipt"),
		storage.ReceiptObjectPath(f.ownerID, f.expense.ID+100, "abc", "receipt"),
		"2/expenses/1/../../3/expenses/1/abc_receipt.jpg",
	} {
		path := stored
		require.NoError(t, f.expenses.SetReceipt(ctx, f.ownerID, f.expense.ID, &path))

		_, err := f.service.URL(ctx, f.ownerID, f.expense.ID)
		assert.ErrorIs(t, err, domain.ErrReceiptNotFound, stored)
	}
}

func TestReceiptService_Disabled(t *testing.T) {
	f := newReceiptFixture()
	disabled := NewReceiptService(f.expenses, nil)

	assert.False(t, disabled.IsEnabled())
	_, err := disabled.Attach(context.Background(), f.ownerID, f.expense.ID, createTestImage(t, 10, 10, "png"))
	assert.ErrorIs(t, err, domain.ErrReceiptsUnavailable)

	// DeleteObjects is a no-op without storage
	path := "2/expenses/1/x_receipt.jpg"
	disabled.DeleteObjects(context.Background(), &path)
}
