package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOfflineS3Storage builds a store whose requests are never sent;
// presigning and key validation happen locally
func newOfflineS3Storage() *S3ReceiptStorage {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		BaseEndpoint: aws.String("http://localhost:9000"),
		UsePathStyle: true,
	})
	return &S3ReceiptStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    "receipts",
	}
}

func TestS3ReceiptStorage_PresignedURLHeaders(t *testing.T) {
	store := newOfflineS3Storage()

	raw, err := store.GeneratePresignedURL(context.Background(), "4/expenses/17/abc_receipt.jpg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/receipts/4/expenses/17/abc_receipt.jpg", u.Path)

	q := u.Query()
	assert.Equal(t, `inline; filename="expense-17-receipt.jpg"`, q.Get("response-content-disposition"))
	assert.Equal(t, "image/jpeg", q.Get("response-content-type"))
	assert.Equal(t, "private, max-age=900", q.Get("response-cache-control"))
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
}

func TestS3ReceiptStorage_RejectsKeysOutsideReceiptLayout(t *testing.T) {
	store := newOfflineS3Storage()
	ctx := context.Background()
	foreign := "4/expenses/17/../../../other/secret.jpg"

	_, err := store.GeneratePresignedURL(ctx, foreign, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidReceiptPath)

	_, err = store.Upload(ctx, foreign, strings.NewReader("data"), "image/jpeg", 4)
	assert.ErrorIs(t, err, ErrInvalidReceiptPath)

	assert.ErrorIs(t, store.Delete(ctx, foreign), ErrInvalidReceiptPath)
}
