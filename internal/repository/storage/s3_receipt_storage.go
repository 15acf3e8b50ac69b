package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/dafibh/fortuna/planner-backend/internal/config"
	"github.com/rs/zerolog/log"
)

// Every upload gets a fresh receipt ID, so stored objects never change
const receiptCacheControl = "private, max-age=31536000, immutable"

// S3ReceiptStorage implements ReceiptStorage on a private S3 bucket
type S3ReceiptStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3ReceiptStorage connects to S3 and makes sure the bucket exists
func NewS3ReceiptStorage(ctx context.Context, s3cfg cfg.S3Config) (*S3ReceiptStorage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Endpoint override targets MinIO or LocalStack
	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	store := &S3ReceiptStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info().Str("component", "receipts").Str("bucket", s3cfg.Bucket).Msg("Receipt storage ready")
	return store, nil
}

// ensureBucket creates the bucket if it is missing. Receipts stay private.
func (r *S3ReceiptStorage) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", r.bucket, err)
	}

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Upload stores a receipt variant and returns its object path
func (r *S3ReceiptStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	key, err := ParseReceiptPath(objectPath)
	if err != nil {
		return "", err
	}

	var body io.Reader = data
	if size < 0 {
		buf, err := io.ReadAll(data)
		if err != nil {
			return "", fmt.Errorf("failed to read data: %w", err)
		}
		size = int64(len(buf))
		body = bytes.NewReader(buf)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(r.bucket),
		Key:                aws.String(objectPath),
		Body:               body,
		ContentType:        aws.String(contentType),
		ContentLength:      aws.Int64(size),
		ContentDisposition: aws.String(key.ContentDisposition()),
		CacheControl:       aws.String(receiptCacheControl),
		Metadata: map[string]string{
			"owner-id":   strconv.Itoa(int(key.OwnerID)),
			"expense-id": strconv.Itoa(int(key.ExpenseID)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt %s: %w", objectPath, err)
	}

	return objectPath, nil
}

// Delete removes a receipt object
func (r *S3ReceiptStorage) Delete(ctx context.Context, objectPath string) error {
	if _, err := ParseReceiptPath(objectPath); err != nil {
		return err
	}
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete receipt %s: %w", objectPath, err)
	}
	return nil
}

// GeneratePresignedURL signs a temporary GET URL for a receipt object.
// Browsers may cache the image only as long as the link stays valid.
func (r *S3ReceiptStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	key, err := ParseReceiptPath(objectPath)
	if err != nil {
		return "", err
	}
	presignedReq, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(r.bucket),
		Key:                        aws.String(objectPath),
		ResponseContentType:        aws.String("image/jpeg"),
		ResponseContentDisposition: aws.String(key.ContentDisposition()),
		ResponseCacheControl:       aws.String(fmt.Sprintf("private, max-age=%d", int(expiry.Seconds()))),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedReq.URL, nil
}
