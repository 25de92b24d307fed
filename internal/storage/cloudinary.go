package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryBackend stores images on Cloudinary. The object key minus its extension
// becomes the public ID.
type CloudinaryBackend struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryBackend(cloudinaryURL string) (*CloudinaryBackend, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryBackend{cld: cld}, nil
}

func (b *CloudinaryBackend) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	publicID := strings.TrimSuffix(key, path.Ext(key))
	result, err := b.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Overwrite:    api.Bool(false),
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	return forceHTTPS(url), nil
}

// Delete treats an unknown public ID as already deleted.
func (b *CloudinaryBackend) Delete(ctx context.Context, url string) error {
	publicID := ExtractPublicID(url)
	if publicID == "" {
		return nil
	}
	result, err := b.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("unexpected destroy result %q", result.Result)
	}
	return nil
}

// ExtractPublicID pulls the public ID out of a delivery URL such as
// https://res.cloudinary.com/account/image/upload/v1234567890/folder/file.jpg.
func ExtractPublicID(url string) string {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok || rest == "" {
		return ""
	}
	parts := strings.Split(rest, "/")
	if len(parts) > 1 && isVersion(parts[0]) {
		parts = parts[1:]
	}
	id := strings.Join(parts, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// forceHTTPS ensures Cloudinary URLs use https scheme
func forceHTTPS(in string) string {
	out := strings.TrimSpace(in)
	return strings.Replace(out, "http://", "https://", 1)
}
