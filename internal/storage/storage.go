// Package storage uploads product images to an object store and deletes them by URL.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// File is one uploaded file held in memory.
type File struct {
	Filename string
	Data     []byte
}

// Storage is what the catalog needs from an object store.
type Storage interface {
	// UploadFiles stores every file and returns their public URLs in input order.
	UploadFiles(ctx context.Context, files []File) ([]string, error)
	// DeleteByURLs removes the objects behind urls. Unknown URLs are ignored.
	DeleteByURLs(ctx context.Context, urls []string) error
}

// Backend stores single objects under a key.
type Backend interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// Service fans uploads out to a Backend.
type Service struct {
	backend Backend
	folder  string
	timeout time.Duration
	log     *zap.Logger
}

func New(backend Backend, folder string, timeout time.Duration, log *zap.Logger) *Service {
	if folder == "" {
		folder = "products"
	}
	return &Service{backend: backend, folder: folder, timeout: timeout, log: log}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// UploadFiles uploads concurrently. If any upload fails the objects already stored are
// deleted again and the first error is returned, so callers never see a partial batch.
func (s *Service) UploadFiles(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			ext := Extension(f.Filename)
			key := fmt.Sprintf("%s/%s.%s", s.folder, uuid.NewString(), ext)
			url, err := s.backend.Put(gctx, key, ContentType(ext), f.Data)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Filename, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.rollback(context.WithoutCancel(ctx), urls)
		return nil, err
	}
	return urls, nil
}

func (s *Service) rollback(ctx context.Context, urls []string) {
	var stored []string
	for _, u := range urls {
		if u != "" {
			stored = append(stored, u)
		}
	}
	if len(stored) == 0 {
		return
	}
	if err := s.DeleteByURLs(ctx, stored); err != nil {
		s.log.Error("Failed to remove partially uploaded images", zap.Strings("urls", stored), zap.Error(err))
	}
}

// DeleteByURLs deletes concurrently and returns the first failure.
func (s *Service) DeleteByURLs(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		g.Go(func() error {
			if err := s.backend.Delete(gctx, u); err != nil {
				return fmt.Errorf("failed to delete %s: %w", u, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Extension returns the lower-cased extension of filename without the dot, "jpg" when absent.
func Extension(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// ContentType maps an extension to its MIME type.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}
