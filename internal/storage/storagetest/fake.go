// Package storagetest provides an in-memory Storage for service tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/01moynul/storefront-api/internal/storage"
)

// Fake records uploads and deletes. Setting UploadErr or DeleteErr makes the next calls fail.
type Fake struct {
	mu        sync.Mutex
	seq       int
	Objects   map[string]storage.File
	Deleted   []string
	UploadErr error
	DeleteErr error
}

func New() *Fake {
	return &Fake{Objects: map[string]storage.File{}}
}

func (f *Fake) UploadFiles(_ context.Context, files []storage.File) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	urls := make([]string, 0, len(files))
	for _, file := range files {
		f.seq++
		url := fmt.Sprintf("https://cdn.test/products/%d.%s", f.seq, storage.Extension(file.Filename))
		f.Objects[url] = file
		urls = append(urls, url)
	}
	return urls, nil
}

func (f *Fake) DeleteByURLs(_ context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for _, u := range urls {
		delete(f.Objects, u)
		f.Deleted = append(f.Deleted, u)
	}
	return nil
}

// Count returns how many objects are currently stored.
func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}
