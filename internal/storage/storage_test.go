package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocal(t *testing.T) (*Service, *LocalBackend) {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	return New(backend, "products", time.Second, zap.NewNop()), backend
}

func TestLocalUploadPreservesOrder(t *testing.T) {
	svc, backend := newLocal(t)

	urls, err := svc.UploadFiles(context.Background(), []File{
		{Filename: "front.PNG", Data: []byte("front")},
		{Filename: "back.jpg", Data: []byte("back")},
		{Filename: "noext", Data: []byte("raw")},
	})
	require.NoError(t, err)
	require.Len(t, urls, 3)

	wantExt := []string{".png", ".jpg", ".jpg"}
	wantData := []string{"front", "back", "raw"}
	for i, u := range urls {
		require.True(t, strings.HasPrefix(u, "http://localhost:8080/uploads/products/"), u)
		assert.Equal(t, wantExt[i], filepath.Ext(u))

		key := strings.TrimPrefix(u, "http://localhost:8080/uploads/")
		data, err := os.ReadFile(filepath.Join(backend.Dir(), key))
		require.NoError(t, err)
		assert.Equal(t, wantData[i], string(data))
	}
}

func TestLocalDelete(t *testing.T) {
	svc, backend := newLocal(t)
	ctx := context.Background()

	urls, err := svc.UploadFiles(ctx, []File{{Filename: "a.webp", Data: []byte("a")}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByURLs(ctx, urls))
	key := strings.TrimPrefix(urls[0], "http://localhost:8080/uploads/")
	_, err = os.Stat(filepath.Join(backend.Dir(), key))
	assert.True(t, os.IsNotExist(err))

	// already gone and foreign URLs are ignored
	assert.NoError(t, svc.DeleteByURLs(ctx, append(urls, "https://elsewhere.test/x.png")))
}

func TestLocalRejectsTraversal(t *testing.T) {
	_, backend := newLocal(t)
	_, err := backend.Put(context.Background(), "../../etc/passwd", "text/plain", []byte("x"))
	assert.Error(t, err)
}

// flakyBackend fails every Put for the named file content.
type flakyBackend struct {
	mu      sync.Mutex
	failOn  string
	stored  map[string]bool
	deleted []string
}

func (b *flakyBackend) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if string(data) == b.failOn {
		return "", errors.New("quota exceeded")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	url := "https://cdn.test/" + key
	b.stored[url] = true
	return url, nil
}

func (b *flakyBackend) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stored, url)
	b.deleted = append(b.deleted, url)
	return nil
}

func TestUploadIsAllOrNothing(t *testing.T) {
	backend := &flakyBackend{failOn: "bad", stored: map[string]bool{}}
	svc := New(backend, "", time.Second, zap.NewNop())

	urls, err := svc.UploadFiles(context.Background(), []File{
		{Filename: "1.png", Data: []byte("ok-1")},
		{Filename: "2.png", Data: []byte("bad")},
		{Filename: "3.png", Data: []byte("ok-3")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Nil(t, urls)
	assert.Empty(t, backend.stored, "successful uploads must be rolled back")
}

func TestUploadEmptyBatch(t *testing.T) {
	svc, _ := newLocal(t)
	urls, err := svc.UploadFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("JPEG"))
	assert.Equal(t, "image/svg+xml", ContentType("svg"))
	assert.Equal(t, "application/octet-stream", ContentType("exe"))
	assert.Equal(t, "jpg", Extension("photo"))
	assert.Equal(t, "png", Extension("a.b.PNG"))
}

func TestExtractPublicID(t *testing.T) {
	tests := map[string]string{
		"https://res.cloudinary.com/acct/image/upload/v1712345678/products/abc.jpg": "products/abc",
		"https://res.cloudinary.com/acct/image/upload/products/abc.png":             "products/abc",
		"https://res.cloudinary.com/acct/image/upload/vintage/abc.png":              "vintage/abc",
		"https://example.com/not-cloudinary.png":                                    "",
	}
	for url, want := range tests {
		assert.Equal(t, want, ExtractPublicID(url), url)
	}
	assert.Equal(t, "https://a.test/x", forceHTTPS(" http://a.test/x "))
}
