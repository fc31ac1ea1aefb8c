// Package objectstore implements S3-backed byte storage for file nodes.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"recordvault/internal/config"
	"recordvault/internal/domain/services"
)

// S3ObjectStore implements the ObjectStore interface against Amazon S3 or
// any S3-compatible endpoint (MinIO, localstack).
//
// The storage key generated by the node service is used directly as the
// object key (with an optional prefix), so the bucket layout mirrors the
// per-account key scheme and orphaned objects can be audited by prefix.
type S3ObjectStore struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	keyPrefix string
	logger    *slog.Logger
}

// NewS3Client creates an S3 client from configuration parameters
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return client, nil
}

// NewS3ObjectStore creates an object store over an existing client and
// verifies bucket access. The bucket must already exist.
func NewS3ObjectStore(ctx context.Context, client *s3.Client, cfg config.StorageConfig, logger *slog.Logger) (services.ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ObjectStore{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
	}, nil
}

// Put uploads the object under key, replacing any existing content
func (s *S3ObjectStore) Put(ctx context.Context, key string, body io.Reader, contentType string, contentLength int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if contentLength > 0 {
		input.ContentLength = aws.Int64(contentLength)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	s.logger.Debug("object stored", "key", key, "content_length", contentLength)
	return nil
}

// Delete removes the object under key
func (s *S3ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}

	s.logger.Debug("object deleted", "key", key)
	return nil
}

// PresignDownload returns a time-limited byte-access URL for key
func (s *S3ObjectStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}

	return req.URL, nil
}

// objectKey returns the full S3 object key for a storage key
func (s *S3ObjectStore) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}
