package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig configures the S3 compatible object store.
type MinIOConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Secure       bool
	Region       string
	BucketPrefix string
	// PublicURL is the base of returned download URLs. Defaults to the endpoint.
	PublicURL string
}

// MinIO stores objects in one bucket per collection.
type MinIO struct {
	client    *minio.Client
	prefix    string
	publicURL string
}

// NewMinIO creates a MinIO uploader.
func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.Secure {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinIO{
		client:    client,
		prefix:    cfg.BucketPrefix,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (m *MinIO) bucket(collection string) string {
	return m.prefix + collection
}

// Upload stores r under a unique name derived from name.
func (m *MinIO) Upload(ctx context.Context, collection, name, contentType string, r io.Reader, size int64) (string, error) {
	object := ObjectName(name, contentType)
	bucket := m.bucket(collection)

	_, err := m.client.PutObject(ctx, bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", m.publicURL, bucket, object), nil
}

// Delete removes an object. path is the object name or a URL returned by Upload.
func (m *MinIO) Delete(ctx context.Context, collection, path string) error {
	bucket := m.bucket(collection)
	object := strings.TrimPrefix(path, m.publicURL+"/"+bucket+"/")
	if err := m.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
