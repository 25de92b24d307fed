package catalog

import (
	"fmt"
	"strings"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
)

// SizeInput declares one size option and its price.
type SizeInput struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

// ColorInput declares one color label.
type ColorInput struct {
	Color string `json:"color"`
}

// CreateBaseInput describes a new base product. An empty ProductType means STANDALONE.
type CreateBaseInput struct {
	Title       string
	Name        string
	Description *string
	Note        *string
	Quantity    int
	CategoryID  string
	ProductType models.ProductType
	Sizes       []SizeInput
	Colors      []ColorInput
}

// CreateVariantInput describes an explicit variant of a VARIANT_BASED base.
type CreateVariantInput struct {
	Title       string
	Name        string
	Description *string
	Note        *string
	Quantity    int
	Price       float64
	Size        string
	Color       *string
}

// UpdateInput is a patch. Nil fields are left untouched; a non-nil Sizes or Colors
// replaces the whole list, including with an empty one.
type UpdateInput struct {
	Title       *string
	Name        *string
	Description *string
	Note        *string
	Quantity    *int
	Price       *float64
	CategoryID  *string
	ProductType *models.ProductType
	Sizes       *[]SizeInput
	Colors      *[]ColorInput
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.InvalidOperation("%s is required", field)
	}
	return nil
}

func validQuantity(q int) error {
	if q < 0 {
		return apperrors.InvalidOperation("quantity must be zero or more, got %d", q)
	}
	return nil
}

func buildSizes(in []SizeInput) ([]models.ProductSize, error) {
	seen := make(map[string]bool, len(in))
	out := make([]models.ProductSize, 0, len(in))
	for _, s := range in {
		label := strings.TrimSpace(s.Size)
		if label == "" {
			return nil, apperrors.InvalidOperation("size label is required")
		}
		if s.Price < 0 {
			return nil, apperrors.InvalidOperation("price for size %q must be zero or more", label)
		}
		if seen[label] {
			return nil, apperrors.InvalidOperation("size %q is declared twice", label)
		}
		seen[label] = true
		out = append(out, models.ProductSize{Size: label, Price: s.Price})
	}
	return out, nil
}

func buildColors(in []ColorInput) ([]models.ProductColor, error) {
	seen := make(map[string]bool, len(in))
	out := make([]models.ProductColor, 0, len(in))
	for _, c := range in {
		label := strings.TrimSpace(c.Color)
		if label == "" {
			return nil, apperrors.InvalidOperation("color label is required")
		}
		if seen[strings.ToLower(label)] {
			return nil, apperrors.InvalidOperation("color %q is declared twice", label)
		}
		seen[strings.ToLower(label)] = true
		out = append(out, models.ProductColor{Color: label})
	}
	return out, nil
}

func (in CreateBaseInput) validate() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	if err := requireText("name", in.Name); err != nil {
		return err
	}
	if err := requireText("categoryId", in.CategoryID); err != nil {
		return err
	}
	return validQuantity(in.Quantity)
}

func (in CreateVariantInput) validate() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	if err := requireText("name", in.Name); err != nil {
		return err
	}
	if err := requireText("size", in.Size); err != nil {
		return err
	}
	if in.Price < 0 {
		return apperrors.InvalidOperation("price must be zero or more")
	}
	return validQuantity(in.Quantity)
}

func (in UpdateInput) validate() error {
	if in.Title != nil {
		if err := requireText("title", *in.Title); err != nil {
			return err
		}
	}
	if in.Name != nil {
		if err := requireText("name", *in.Name); err != nil {
			return err
		}
	}
	if in.Quantity != nil {
		if err := validQuantity(*in.Quantity); err != nil {
			return err
		}
	}
	if in.Price != nil && *in.Price < 0 {
		return apperrors.InvalidOperation("price must be zero or more")
	}
	if in.ProductType != nil && !in.ProductType.Valid() {
		return apperrors.InvalidOperation("Unknown productType %q", *in.ProductType)
	}
	return nil
}

func imageRows(urls []string, label string) []models.ProductImage {
	images := make([]models.ProductImage, len(urls))
	for i, u := range urls {
		alt := fmt.Sprintf("%s image %d", label, i+1)
		images[i] = models.ProductImage{URL: u, Alt: &alt, Order: i}
	}
	return images
}
