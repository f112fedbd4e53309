// Package blob stores generated map images in S3-compatible object storage.
// When no bucket is configured the NoopStore is used and uploads report
// ErrNotConfigured, so callers keep the provider's own image URL.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/tablekeep/internal/config"
)

// ErrNotConfigured is returned when blob storage is not configured.
var ErrNotConfigured = errors.New("blob storage not configured")

// Store uploads objects and returns a URL they can be fetched from.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// s3Client defines the minimal minio.Client operations used by S3Store.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, r io.Reader, size int64, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper adapts *minio.Client to s3Client.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Store uploads to an S3-compatible bucket.
type S3Store struct {
	client        s3Client
	bucket        string
	publicBaseURL string
	urlExpiry     time.Duration
}

// Upload stores data under key. The returned URL is the public base URL joined
// with key when one is configured, otherwise a pre-signed GET URL.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	if s.publicBaseURL != "" {
		return strings.TrimRight(s.publicBaseURL, "/") + "/" + key, nil
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), nil
}

// NoopStore is used when blob storage is not configured.
type NoopStore struct{}

// Upload always returns ErrNotConfigured.
func (NoopStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", ErrNotConfigured
}

// maxPresignExpiry is the longest expiry S3 accepts for pre-signed URLs.
const maxPresignExpiry = 7 * 24 * time.Hour

// New creates the Store for cfg: NoopStore when the bucket is empty,
// S3Store otherwise.
func New(cfg config.BlobConfig) (Store, error) {
	if cfg.Bucket == "" {
		return NoopStore{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	expiry := time.Duration(cfg.URLExpiry)
	if expiry <= 0 || expiry > maxPresignExpiry {
		expiry = maxPresignExpiry
	}

	return &S3Store{
		client:        &minioClientWrapper{client: client},
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		urlExpiry:     expiry,
	}, nil
}

// stripScheme removes an http:// or https:// prefix from endpoint, which
// minio does not accept, and sets useSSL to match it.
func stripScheme(endpoint string, useSSL *bool) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		*useSSL = true
		return strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		*useSSL = false
		return strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// MapImageKey returns the object key for a campaign map image.
// Convention: campaigns/{campaign_id}/maps/{map_id}{ext}
func MapImageKey(campaignID, mapID, contentType string) string {
	return path.Join("campaigns", campaignID, "maps", mapID+extension(contentType))
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
