package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3 compatible disk.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Public disks return plain object URLs instead of presigned ones.
	Public bool
	// Expiry bounds presigned URLs. Defaults to one hour.
	Expiry time.Duration
}

// S3 resolves keys against an S3 compatible bucket.
type S3 struct {
	client *minio.Client
	bucket string
	public bool
	expiry time.Duration
}

// NewS3 creates a disk backed by a MinIO client.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("storage: s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init s3 client: %w", err)
	}
	return NewS3WithClient(client, bucket, cfg.Public, cfg.Expiry), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client *minio.Client, bucket string, public bool, expiry time.Duration) *S3 {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &S3{client: client, bucket: bucket, public: public, expiry: expiry}
}

// URL returns a presigned GET URL, or the object URL for public disks.
func (s *S3) URL(ctx context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("storage: s3 disk is nil")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	if s.public {
		endpoint := s.client.EndpointURL()
		return strings.TrimRight(endpoint.String(), "/") + "/" + s.bucket + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
