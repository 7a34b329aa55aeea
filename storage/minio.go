package storage

import (
	"context"
	"fmt"
	"time"

	"beatforge/config"
	"beatforge/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// InitMinio connects to the object store and ensures the bucket exists.
func InitMinio(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	logger.Info("minio client initialized", logger.String("bucket", cfg.MinioBucket))
	return client, nil
}

// PresignSigner signs download URLs with MinIO presigned GETs.
type PresignSigner struct {
	client *minio.Client
	bucket string
}

// NewPresignSigner creates a presign-backed signer for the given bucket.
func NewPresignSigner(client *minio.Client, bucket string) *PresignSigner {
	return &PresignSigner{client: client, bucket: bucket}
}

// Sign mints a presigned GET URL for the key, valid until now + ttl.
func (s *PresignSigner) Sign(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), expiresAt, nil
}
