package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/foodlog/internal/docstore"
)

type fakeUploader struct {
	err      error
	uploaded [][]byte
	deleted  []string
}

func (f *fakeUploader) Upload(_ context.Context, collection, name, _ string, r io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, data)
	return "https://cdn.example/" + collection + "/" + name, nil
}

func (f *fakeUploader) Delete(_ context.Context, _ string, path string) error {
	f.deleted = append(f.deleted, path)
	return f.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFallbackUploader_Primary(t *testing.T) {
	ctx := context.Background()
	primary := &fakeUploader{}
	store := docstore.NewMemory()
	u, err := NewFallbackUploader(primary, store, WithLogger(quiet))
	require.NoError(t, err)

	url, err := u.Upload(ctx, "reviews", "pic.jpg", "image/jpeg", strings.NewReader("jpegdata"), 8)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/reviews/pic.jpg", url)
	assert.Equal(t, [][]byte{[]byte("jpegdata")}, primary.uploaded)
	assert.Equal(t, 0, store.Count(docstore.CollectionImages))

	require.NoError(t, u.Delete(ctx, "reviews", url))
	assert.Equal(t, []string{url}, primary.deleted)
}

func TestFallbackUploader_FallsBackToDocstore(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	for name, primary := range map[string]Uploader{
		"primary fails":  &fakeUploader{err: errors.New("connection refused")},
		"no primary set": nil,
	} {
		t.Run(name, func(t *testing.T) {
			u, err := NewFallbackUploader(primary, store, WithLogger(quiet))
			require.NoError(t, err)

			url, err := u.Upload(ctx, "reviews", "pic.png", "image/png", bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}), 4)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(url, DocstoreScheme), url)

			key := strings.TrimPrefix(url, DocstoreScheme)
			data, contentType, err := u.Image(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
			assert.Equal(t, "image/png", contentType)

			require.NoError(t, u.Delete(ctx, "reviews", url))
			_, _, err = u.Image(ctx, key)
			assert.ErrorIs(t, err, docstore.ErrNotFound)

			require.NoError(t, u.Delete(ctx, "reviews", url), "deleting twice is a no-op")
		})
	}
}

func TestFallbackUploader_Rejects(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	u, err := NewFallbackUploader(nil, store, WithLogger(quiet))
	require.NoError(t, err)

	_, err = u.Upload(ctx, "reviews", "doc.pdf", "application/pdf", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// declared size lies about the body
	big := bytes.Repeat([]byte{1}, MaxImageSize+10)
	_, err = u.Upload(ctx, "reviews", "big.jpg", "image/jpeg", bytes.NewReader(big), 100)
	assert.ErrorIs(t, err, ErrTooLarge)

	assert.Equal(t, 0, store.Count(docstore.CollectionImages))

	err = u.Delete(ctx, "reviews", "https://cdn.example/reviews/x.jpg")
	assert.Error(t, err, "object URLs need object storage")
}

func TestFallbackUploader_StoreFailure(t *testing.T) {
	store := docstore.NewMemory()
	store.FailNext(docstore.CollectionImages, errors.New("disk full"))
	u, err := NewFallbackUploader(nil, store, WithLogger(quiet))
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "reviews", "a.gif", "image/gif", strings.NewReader("GIF89a"), 6)
	assert.ErrorContains(t, err, "store image document")
}
