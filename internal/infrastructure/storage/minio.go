package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/config"
)

// MediaRefScheme marks an image reference stored in our own bucket.
const MediaRefScheme = "media://"

var ErrInvalidMediaRef = errors.New("invalid media reference")

// MinIOStorage resolves media references to URLs the social platforms can
// download from.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinIOStorage connects to MinIO and creates the bucket when missing.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("[MinIO] Bucket created")
	}

	return newMinIOStorage(client, cfg.Bucket, cfg.URLExpiry), nil
}

func newMinIOStorage(client *minio.Client, bucket string, expiry time.Duration) *MinIOStorage {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinIOStorage{client: client, bucket: bucket, expiry: expiry}
}

// ParseMediaRef returns the object key of a media:// reference.
func ParseMediaRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, MediaRefScheme) {
		return "", false
	}
	key := strings.TrimLeft(strings.TrimPrefix(ref, MediaRefScheme), "/")
	if key == "" {
		return "", false
	}
	return key, true
}

// ResolveURL presigns media:// references. Anything else is returned unchanged,
// platforms fetch public URLs themselves.
func (s *MinIOStorage) ResolveURL(ctx context.Context, ref string) (string, error) {
	if !strings.HasPrefix(ref, MediaRefScheme) {
		return ref, nil
	}

	key, ok := ParseMediaRef(ref)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaRef, ref)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinIOStorage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	return nil
}
