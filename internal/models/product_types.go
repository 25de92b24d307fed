package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductType tells how a product family is stocked and sold.
type ProductType string

const (
	// ProductTypeStandalone is a single item whose size/color are options; stock lives on the base.
	ProductTypeStandalone ProductType = "STANDALONE"
	// ProductTypeVariantBased is a template whose variants are separately stocked SKUs.
	ProductTypeVariantBased ProductType = "VARIANT_BASED"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return t == ProductTypeStandalone || t == ProductTypeVariantBased
}

// RecordType tells which role a row plays inside its family.
type RecordType string

const (
	RecordTypeBaseProduct RecordType = "BASE_PRODUCT"
	RecordTypeVariant     RecordType = "VARIANT"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	return t == RecordTypeBaseProduct || t == RecordTypeVariant
}

// Product is the model for the 'products' table.
// One table holds base products and variants; ProductType/RecordType/ParentProductID
// select the role, see producttype.Classify.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Title       string  `json:"title" gorm:"size:255;not null"`
	Name        string  `json:"name" gorm:"size:255;not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`
	Note        *string `json:"note,omitempty" gorm:"type:text"`

	// --- Pricing & Stock ---
	Quantity int      `json:"quantity" gorm:"not null;default:0"`
	Price    *float64 `json:"price,omitempty"`
	SoldOut  bool     `json:"soldOut" gorm:"not null;default:false"`

	// --- Variant attributes ---
	Size  *string `json:"size,omitempty" gorm:"size:64"`
	Color *string `json:"color,omitempty" gorm:"size:64"`

	// --- Classification ---
	CategoryID      string      `json:"categoryId" gorm:"size:36;not null;index"`
	ProductType     ProductType `json:"productType" gorm:"size:20;not null;default:STANDALONE"`
	RecordType      RecordType  `json:"recordType" gorm:"size:20;not null;default:BASE_PRODUCT;index"`
	ParentProductID *string     `json:"parentProductId,omitempty" gorm:"size:36;index;uniqueIndex:idx_products_variant_key,priority:1"`
	// VariantKey is set only on STANDALONE variants; unique per parent so lazy creation cannot duplicate.
	VariantKey *string `json:"-" gorm:"size:160;uniqueIndex:idx_products_variant_key,priority:2"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Joins
	Category *Category      `json:"category,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	Parent   *Product       `json:"parentProduct,omitempty" gorm:"foreignKey:ParentProductID"`
	Variants []Product      `json:"variants,omitempty" gorm:"foreignKey:ParentProductID;constraint:OnDelete:CASCADE"`
	Sizes    []ProductSize  `json:"sizes,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Colors   []ProductColor `json:"colors,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Images   []ProductImage `json:"images,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsVariant reports whether the record is a concrete, purchasable variant.
func (p *Product) IsVariant() bool {
	return p.RecordType == RecordTypeVariant
}

// SizeNamed returns the declared size option with the given label.
func (p *Product) SizeNamed(size string) (ProductSize, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s, true
		}
	}
	return ProductSize{}, false
}

// ProductSize declares a size option (and its price) on a base product.
type ProductSize struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	ProductID string  `json:"productId" gorm:"size:36;not null;index"`
	Size      string  `json:"size" gorm:"size:64;not null"`
	Price     float64 `json:"price" gorm:"not null;default:0"`
}

func (s *ProductSize) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ProductColor declares a color label on a base product.
type ProductColor struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	ProductID string `json:"productId" gorm:"size:36;not null;index"`
	Color     string `json:"color" gorm:"size:64;not null"`
}

func (c *ProductColor) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ProductImage is a stored image attached to a product; Order sets display position.
type ProductImage struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	ProductID string  `json:"productId" gorm:"size:36;not null;index"`
	URL       string  `json:"url" gorm:"size:1024;not null"`
	Alt       *string `json:"alt,omitempty" gorm:"size:255"`
	Order     int     `json:"order" gorm:"column:sort_order;not null;default:0"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
