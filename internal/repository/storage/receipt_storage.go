package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidReceiptPath marks an object key outside the receipt key layout
var ErrInvalidReceiptPath = errors.New("invalid receipt object path")

var receiptPathPattern = regexp.MustCompile(`^([0-9]+)/expenses/([0-9]+)/([0-9a-f-]+)_(receipt|thumb)\.jpg$`)

// ReceiptStorage stores receipt images as private objects
type ReceiptStorage interface {
	// Upload stores data at objectPath and returns the stored path
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ReceiptObjectPath builds the object key of one receipt variant:
// <owner>/expenses/<expense>/<receiptID>_<variant>.jpg
func ReceiptObjectPath(ownerID int32, expenseID int32, receiptID string, variant string) string {
	filename := fmt.Sprintf("%s_%s.jpg", receiptID, variant)
	return path.Join(fmt.Sprintf("%d", ownerID), "expenses", fmt.Sprintf("%d", expenseID), filename)
}

// ThumbnailPath returns the thumbnail key stored next to a receipt key
// produced by ReceiptObjectPath with the "receipt" variant
func ThumbnailPath(receiptPath string) string {
	const suffix = "_receipt.jpg"
	_, file := path.Split(receiptPath)
	if len(file) <= len(suffix) || !strings.HasSuffix(file, suffix) {
		return ""
	}
	return strings.TrimSuffix(receiptPath, suffix) + "_thumb.jpg"
}

// ReceiptKey is a parsed receipt object path
type ReceiptKey struct {
	OwnerID   int32
	ExpenseID int32
	ReceiptID string
	Variant   string
}

// ParseReceiptPath accepts only keys shaped like ReceiptObjectPath output,
// so no request can reach objects outside an owner's expenses prefix
func ParseReceiptPath(objectPath string) (ReceiptKey, error) {
	m := receiptPathPattern.FindStringSubmatch(objectPath)
	if m == nil {
		return ReceiptKey{}, fmt.Errorf("%w: %q", ErrInvalidReceiptPath, objectPath)
	}
	ownerID, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return ReceiptKey{}, fmt.Errorf("%w: %q", ErrInvalidReceiptPath, objectPath)
	}
	expenseID, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return ReceiptKey{}, fmt.Errorf("%w: %q", ErrInvalidReceiptPath, objectPath)
	}
	return ReceiptKey{
		OwnerID:   int32(ownerID),
		ExpenseID: int32(expenseID),
		ReceiptID: m[3],
		Variant:   m[4],
	}, nil
}

// Filename is the name offered when a receipt is saved from the browser
func (k ReceiptKey) Filename() string {
	return fmt.Sprintf("expense-%d-%s.jpg", k.ExpenseID, k.Variant)
}

// ContentDisposition displays the receipt inline under Filename
func (k ReceiptKey) ContentDisposition() string {
	return fmt.Sprintf(`inline; filename="%s"`, k.Filename())
}
