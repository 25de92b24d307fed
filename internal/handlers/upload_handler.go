package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/storage"
	"github.com/gin-gonic/gin"
)

const (
	imagesField   = "images"
	maxImages     = 10
	maxImageBytes = 10 << 20
)

// readImages collects the files sent under "images". A request without any is fine.
func readImages(c *gin.Context) ([]storage.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.InvalidOperation("Invalid multipart form: %v", err)
	}
	headers := form.File[imagesField]
	if len(headers) > maxImages {
		return nil, apperrors.InvalidOperation("At most %d images can be uploaded at once", maxImages)
	}

	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageBytes {
			return nil, apperrors.InvalidOperation("Image %s is larger than %d MB", fh.Filename, maxImageBytes>>20)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.InvalidOperation("Failed to read image %s", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.InvalidOperation("Failed to read image %s", fh.Filename)
		}
		files = append(files, storage.File{Filename: fh.Filename, Data: data})
	}
	return files, nil
}

// formString returns a trimmed form value and whether the field was sent.
func formString(c *gin.Context, key string) (string, bool) {
	v, ok := c.GetPostForm(key)
	return strings.TrimSpace(v), ok
}

func formOptional(c *gin.Context, key string) *string {
	v, ok := formString(c, key)
	if !ok {
		return nil
	}
	return &v
}

func formInt(c *gin.Context, key string) (*int, error) {
	v, ok := formString(c, key)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.InvalidOperation("%s must be a whole number", key)
	}
	return &n, nil
}

func formFloat(c *gin.Context, key string) (*float64, error) {
	v, ok := formString(c, key)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperrors.InvalidOperation("%s must be a number", key)
	}
	return &n, nil
}

// formJSON decodes a field sent as a JSON string, such as sizes or colors.
func formJSON[T any](c *gin.Context, key string) (*T, error) {
	v, ok := formString(c, key)
	if !ok || v == "" {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, apperrors.InvalidOperation("%s must be valid JSON: %v", key, err)
	}
	return &out, nil
}

func requiredForm(c *gin.Context, key string) (string, error) {
	v, _ := formString(c, key)
	if v == "" {
		return "", apperrors.InvalidOperation("%s is required", key)
	}
	return v, nil
}
