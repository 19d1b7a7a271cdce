package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/model"
)

// DocstoreScheme prefixes URLs of images kept in the document store.
const DocstoreScheme = "docstore://" + docstore.CollectionImages + "/"

// FallbackUploader uploads to object storage and keeps the image as a base64
// document when that fails or no object storage is configured.
type FallbackUploader struct {
	primary Uploader
	store   docstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// FallbackOption is a functional option for configuring a FallbackUploader.
type FallbackOption func(*FallbackUploader)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) FallbackOption {
	return func(f *FallbackUploader) {
		f.logger = logger
	}
}

// WithMetrics counts uploads per backend.
func WithMetrics(m *metrics.Metrics) FallbackOption {
	return func(f *FallbackUploader) {
		f.metrics = m
	}
}

// NewFallbackUploader creates an uploader. primary may be nil.
func NewFallbackUploader(primary Uploader, store docstore.Store, opts ...FallbackOption) (*FallbackUploader, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	f := &FallbackUploader{
		primary: primary,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Upload validates and stores an image, returning its URL.
func (f *FallbackUploader) Upload(ctx context.Context, collection, name, contentType string, r io.Reader, size int64) (string, error) {
	if err := CheckImage(contentType, size); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}

	if f.primary != nil {
		url, err := f.primary.Upload(ctx, collection, name, contentType, bytes.NewReader(data), int64(len(data)))
		if err == nil {
			f.metrics.Upload("object")
			return url, nil
		}
		f.logger.Warn("object storage upload failed, storing image in document store",
			"collection", collection,
			"error", err,
		)
	}

	key := "img-" + uuid.NewString()
	img := model.StoredImage{
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(data),
		Size:        int64(len(data)),
		CreatedAt:   f.now(),
	}
	if err := docstore.Put(ctx, f.store, docstore.CollectionImages, key, img); err != nil {
		return "", fmt.Errorf("store image document: %w", err)
	}
	f.metrics.Upload("docstore")
	return DocstoreScheme + key, nil
}

// Delete removes an image by the URL or path returned from Upload.
func (f *FallbackUploader) Delete(ctx context.Context, collection, path string) error {
	if key, ok := strings.CutPrefix(path, DocstoreScheme); ok {
		if err := f.store.Delete(ctx, docstore.CollectionImages, key); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("delete image document: %w", err)
		}
		return nil
	}
	if f.primary == nil {
		return errors.New("object storage is not configured")
	}
	return f.primary.Delete(ctx, collection, path)
}

// Image loads an image kept in the document store and decodes it.
func (f *FallbackUploader) Image(ctx context.Context, key string) ([]byte, string, error) {
	img, err := docstore.Fetch[model.StoredImage](ctx, f.store, docstore.CollectionImages, key)
	if err != nil {
		return nil, "", err
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", key, err)
	}
	return data, img.ContentType, nil
}
