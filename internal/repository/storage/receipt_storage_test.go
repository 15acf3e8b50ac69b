package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceiptObjectPath(t *testing.T) {
	got := ReceiptObjectPath(4, 17, "abc", "receipt")
	assert.Equal(t, "4/expenses/17/abc_receipt.jpg", got)
}

func TestThumbnailPath(t *testing.T) {
	assert.Equal(t, "4/expenses/17/abc_thumb.jpg", ThumbnailPath("4/expenses/17/abc_receipt.jpg"))
	assert.Equal(t, "", ThumbnailPath("4/expenses/17/abc.png"))
	assert.Equal(t, "", ThumbnailPath("_receipt.jpg"))
}

func TestParseReceiptPath(t *testing.T) {
	key, err := ParseReceiptPath(ReceiptObjectPath(4, 17, "0f8e-42ab", "thumb"))
	assert.NoError(t, err)
	assert.Equal(t, ReceiptKey{OwnerID: 4, ExpenseID: 17, ReceiptID: "0f8e-42ab", Variant: "thumb"}, key)
	assert.Equal(t, "expense-17-thumb.jpg", key.Filename())
	assert.Equal(t, `inline; filename="expense-17-thumb.jpg"`, key.ContentDisposition())
}

func TestParseReceiptPath_RejectsForeignKeys(t *testing.T) {
	for _, objectPath := range []string{
		"",
		"4/expenses/17/../../5/expenses/2/abc_receipt.jpg",
		"../4/expenses/17/abc_receipt.jpg",
		"/4/expenses/17/abc_receipt.jpg",
		"4/avatars/17/abc_receipt.jpg",
		"4/expenses/17/abc_original.jpg",
		"4/expenses/17/abc_receipt.png",
		"4/expenses/17/ABC_receipt.jpg",
		"99999999999/expenses/17/abc_receipt.jpg",
	} {
		_, err := ParseReceiptPath(objectPath)
		assert.ErrorIs(t, err, ErrInvalidReceiptPath, objectPath)
	}
}
