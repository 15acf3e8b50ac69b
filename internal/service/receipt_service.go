package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/planner-backend/internal/domain"
	"github.com/dafibh/fortuna/planner-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	MaxReceiptSize     = 5 * 1024 * 1024 // 5MB
	ReceiptMaxWidth    = 1600
	ReceiptThumbWidth  = 300
	ReceiptJPEGQuality = 85
	ReceiptURLExpiry   = 15 * time.Minute
)

// allowedReceiptTypes are the sniffed content types accepted for upload
var allowedReceiptTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ReceiptURLs are short-lived links to a stored receipt
type ReceiptURLs struct {
	ExpenseID    int32     `json:"expenseId"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ReceiptService attaches receipt images to expenses
type ReceiptService struct {
	expenseRepo domain.ExpenseRepository
	storage     storage.ReceiptStorage
}

// NewReceiptService creates a new ReceiptService. A nil storage disables receipts.
func NewReceiptService(expenseRepo domain.ExpenseRepository, receiptStorage storage.ReceiptStorage) *ReceiptService {
	return &ReceiptService{
		expenseRepo: expenseRepo,
		storage:     receiptStorage,
	}
}

// IsEnabled indicates whether receipt storage is configured
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// Attach validates an image, stores a resized copy and a thumbnail, and
// links them to the expense. A previous receipt is removed afterwards.
func (s *ReceiptService) Attach(ctx context.Context, ownerID int32, expenseID int32, data []byte) (*ReceiptURLs, error) {
	if !s.IsEnabled() {
		return nil, domain.ErrReceiptsUnavailable
	}

	expense, err := s.expenseRepo.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}

	img, err := decodeReceipt(data)
	if err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()
	variants := []struct {
		name     string
		maxWidth int
	}{
		{"receipt", ReceiptMaxWidth},
		{"thumb", ReceiptThumbWidth},
	}

	uploaded := make([]string, 0, len(variants))
	for _, variant := range variants {
		buf, err := encodeReceipt(img, variant.maxWidth)
		if err != nil {
			s.deletePaths(ctx, uploaded)
			return nil, err
		}

		objectPath := storage.ReceiptObjectPath(ownerID, expenseID, receiptID, variant.name)
		stored, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.deletePaths(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, stored)
	}

	receiptPath := uploaded[0]
	if err := s.expenseRepo.SetReceipt(ctx, ownerID, expenseID, &receiptPath); err != nil {
		s.deletePaths(ctx, uploaded)
		return nil, err
	}

	if expense.ReceiptPath != nil {
		s.DeleteObjects(ctx, expense.ReceiptPath)
	}

	log.Info().Int32("owner_id", ownerID).Int32("expense_id", expenseID).Msg("Receipt attached")
	return s.urlsFor(ctx, ownerID, expenseID, receiptPath)
}

// URL returns presigned links to the expense's receipt
func (s *ReceiptService) URL(ctx context.Context, ownerID int32, expenseID int32) (*ReceiptURLs, error) {
	if !s.IsEnabled() {
		return nil, domain.ErrReceiptsUnavailable
	}
	expense, err := s.expenseRepo.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.ReceiptPath == nil {
		return nil, domain.ErrReceiptNotFound
	}
	return s.urlsFor(ctx, ownerID, expenseID, *expense.ReceiptPath)
}

// Remove unlinks the expense's receipt and deletes its objects
func (s *ReceiptService) Remove(ctx context.Context, ownerID int32, expenseID int32) error {
	if !s.IsEnabled() {
		return domain.ErrReceiptsUnavailable
	}
	expense, err := s.expenseRepo.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return err
	}
	if expense.ReceiptPath == nil {
		return domain.ErrReceiptNotFound
	}
	if err := s.expenseRepo.SetReceipt(ctx, ownerID, expenseID, nil); err != nil {
		return err
	}
	s.DeleteObjects(ctx, expense.ReceiptPath)
	log.Info().Int32("owner_id", ownerID).Int32("expense_id", expenseID).Msg("Receipt removed")
	return nil
}

// DeleteObjects removes a receipt and its thumbnail from storage. Failures
// are logged, not returned: the expense row is already gone or unlinked.
func (s *ReceiptService) DeleteObjects(ctx context.Context, receiptPath *string) {
	if !s.IsEnabled() || receiptPath == nil || *receiptPath == "" {
		return
	}
	paths := []string{*receiptPath}
	if thumb := storage.ThumbnailPath(*receiptPath); thumb != "" {
		paths = append(paths, thumb)
	}
	s.deletePaths(ctx, paths)
}

func (s *ReceiptService) deletePaths(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("object", p).Msg("Failed to delete receipt object")
		}
	}
}

// urlsFor signs links only for a key under the expense's own prefix
func (s *ReceiptService) urlsFor(ctx context.Context, ownerID int32, expenseID int32, receiptPath string) (*ReceiptURLs, error) {
	key, err := storage.ParseReceiptPath(receiptPath)
	if err != nil || key.OwnerID != ownerID || key.ExpenseID != expenseID {
		log.Warn().Int32("owner_id", ownerID).Int32("expense_id", expenseID).Str("object", receiptPath).
			Msg("Stored receipt path does not belong to the expense")
		return nil, domain.ErrReceiptNotFound
	}

	url, err := s.storage.GeneratePresignedURL(ctx, receiptPath, ReceiptURLExpiry)
	if err != nil {
		return nil, err
	}
	urls := &ReceiptURLs{
		ExpenseID: expenseID,
		URL:       url,
		ExpiresAt: time.Now().Add(ReceiptURLExpiry),
	}
	if thumb := storage.ThumbnailPath(receiptPath); thumb != "" {
		thumbURL, err := s.storage.GeneratePresignedURL(ctx, thumb, ReceiptURLExpiry)
		if err != nil {
			return nil, err
		}
		urls.ThumbnailURL = thumbURL
	}
	return urls, nil
}

// decodeReceipt checks size and sniffed format, then decodes honoring EXIF orientation
func decodeReceipt(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrReceiptFormat
	}
	if len(data) > MaxReceiptSize {
		return nil, domain.ErrReceiptTooLarge
	}
	if !allowedReceiptTypes[http.DetectContentType(data)] {
		return nil, domain.ErrReceiptFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReceiptFormat, err)
	}
	return img, nil
}

// encodeReceipt shrinks img to maxWidth (never enlarging) and encodes it as JPEG
func encodeReceipt(img image.Image, maxWidth int) (*bytes.Buffer, error) {
	processed := img
	if img.Bounds().Dx() > maxWidth {
		processed = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(ReceiptJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	return &buf, nil
}
