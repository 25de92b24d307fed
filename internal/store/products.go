package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedSizes(db *gorm.DB) *gorm.DB  { return db.Order("size ASC") }
func orderedImages(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }

// CreateProduct inserts p together with its Sizes, Colors and Images.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := s.conn(ctx).Omit("Category", "Parent", "Variants").Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translate(err))
	}
	return nil
}

// FindProductByID loads a bare product row.
func (s *Store) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

// FindProductWithOptions loads a product with its declared sizes and colors, and for
// variants the parent with the parent's sizes and colors.
func (s *Store) FindProductWithOptions(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.conn(ctx).
		Preload("Sizes", orderedSizes).
		Preload("Colors").
		Preload("Parent").
		Preload("Parent.Sizes", orderedSizes).
		Preload("Parent.Colors").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

// LockProduct reads a product row with SELECT ... FOR UPDATE. Dialects without row
// locks (sqlite) drop the clause and rely on the transaction itself.
func (s *Store) LockProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &p, nil
}

// GetProductDetail loads a product with its category, options, images and variants.
func (s *Store) GetProductDetail(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.conn(ctx).
		Preload("Category").
		Preload("Sizes", orderedSizes).
		Preload("Colors").
		Preload("Images", orderedImages).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("record_type = ?", models.RecordTypeVariant).Order("created_at ASC")
		}).
		Preload("Variants.Images", orderedImages).
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListBaseProducts returns every BASE_PRODUCT, newest first.
func (s *Store) ListBaseProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).
		Where("record_type = ?", models.RecordTypeBaseProduct).
		Preload("Category").
		Preload("Sizes", orderedSizes).
		Preload("Colors").
		Preload("Images", orderedImages).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CountVariants counts VARIANT children of parentID, skipping excludeID when it is set.
func (s *Store) CountVariants(ctx context.Context, parentID, excludeID string) (int64, error) {
	q := s.conn(ctx).Model(&models.Product{}).
		Where("parent_product_id = ? AND record_type = ?", parentID, models.RecordTypeVariant)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count variants: %w", err)
	}
	return n, nil
}

// FindVariantByKey returns the STANDALONE variant with the given natural key.
func (s *Store) FindVariantByKey(ctx context.Context, parentID, key string) (*models.Product, error) {
	return findVariantByKey(s.conn(ctx), parentID, key)
}

func findVariantByKey(db *gorm.DB, parentID, key string) (*models.Product, error) {
	var p models.Product
	err := db.
		Where("parent_product_id = ? AND variant_key = ? AND record_type = ?", parentID, key, models.RecordTypeVariant).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find variant: %w", err)
	}
	return &p, nil
}

// CreateVariantIfAbsent inserts v unless a row with the same (parent, variant key) exists,
// then returns whichever row holds the key. created is false when another writer won.
func (s *Store) CreateVariantIfAbsent(ctx context.Context, v *models.Product) (*models.Product, bool, error) {
	if v.ParentProductID == nil || v.VariantKey == nil {
		return nil, false, errors.New("variant key requires parent and key")
	}
	res := s.conn(ctx).
		Omit("Category", "Parent", "Variants").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(v)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create variant: %w", translate(res.Error))
	}
	if res.RowsAffected == 1 {
		return v, true, nil
	}
	// The winner committed after this transaction's snapshot; only a locking read sees it.
	existing, err := findVariantByKey(sharedLock(s.conn(ctx)), *v.ParentProductID, *v.VariantKey)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateProductFields applies a column map to one product.
func (s *Store) UpdateProductFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.conn(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to update product: %w", translate(err))
	}
	return nil
}

// ReplaceSizes deletes every size of productID and inserts sizes in their place.
func (s *Store) ReplaceSizes(ctx context.Context, productID string, sizes []models.ProductSize) error {
	db := s.conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductSize{}).Error; err != nil {
		return fmt.Errorf("failed to delete sizes: %w", err)
	}
	if len(sizes) == 0 {
		return nil
	}
	for i := range sizes {
		sizes[i].ProductID = productID
	}
	if err := db.Create(&sizes).Error; err != nil {
		return fmt.Errorf("failed to create sizes: %w", err)
	}
	return nil
}

// ReplaceColors deletes every color of productID and inserts colors in their place.
func (s *Store) ReplaceColors(ctx context.Context, productID string, colors []models.ProductColor) error {
	db := s.conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductColor{}).Error; err != nil {
		return fmt.Errorf("failed to delete colors: %w", err)
	}
	if len(colors) == 0 {
		return nil
	}
	for i := range colors {
		colors[i].ProductID = productID
	}
	if err := db.Create(&colors).Error; err != nil {
		return fmt.Errorf("failed to create colors: %w", err)
	}
	return nil
}

// ListImages returns the images attached to productID in display order.
func (s *Store) ListImages(ctx context.Context, productID string) ([]models.ProductImage, error) {
	var images []models.ProductImage
	if err := orderedImages(s.conn(ctx)).Where("product_id = ?", productID).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// ReplaceImages deletes the image rows of productID and attaches images instead.
func (s *Store) ReplaceImages(ctx context.Context, productID string, images []models.ProductImage) error {
	db := s.conn(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = productID
	}
	if err := db.Create(&images).Error; err != nil {
		return fmt.Errorf("failed to create images: %w", err)
	}
	return nil
}

// FamilyImageURLs returns the image URLs of id and of every variant under it.
func (s *Store) FamilyImageURLs(ctx context.Context, id string) ([]string, error) {
	var urls []string
	err := s.conn(ctx).Model(&models.ProductImage{}).
		Where("product_id = ? OR product_id IN (?)", id,
			s.conn(ctx).Model(&models.Product{}).Select("id").Where("parent_product_id = ?", id)).
		Order("sort_order ASC").
		Pluck("url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list image urls: %w", err)
	}
	return urls, nil
}

// DeleteProduct removes a product. Sizes, colors, images, variants and cart lines
// cascade; order lines block the delete with ErrReferenced.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock subtracts n from the product's quantity only when enough is left.
// It reports false when the guard rejected the update.
func (s *Store) DecrementStock(ctx context.Context, id string, n int) (bool, error) {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, n).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", n))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RefreshSoldOut recomputes sold_out from the stored quantity and returns the new value.
func (s *Store) RefreshSoldOut(ctx context.Context, id string) (bool, error) {
	db := s.conn(ctx)
	err := db.Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("sold_out", gorm.Expr("quantity <= 0")).Error
	if err != nil {
		return false, fmt.Errorf("failed to refresh sold out: %w", err)
	}
	var p models.Product
	if err := db.Select("sold_out").First(&p, "id = ?", id).Error; err != nil {
		return false, fmt.Errorf("failed to read sold out: %w", translate(err))
	}
	return p.SoldOut, nil
}

// VariantIDs lists the ids of every child row of parentID.
func (s *Store) VariantIDs(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.Product{}).
		Where("parent_product_id = ?", parentID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list variant ids: %w", err)
	}
	return ids, nil
}

// SetVariantsSoldOut copies a parent's soldOut flag onto all of its variants.
func (s *Store) SetVariantsSoldOut(ctx context.Context, parentID string, soldOut bool) error {
	err := s.conn(ctx).Model(&models.Product{}).
		Where("parent_product_id = ? AND record_type = ?", parentID, models.RecordTypeVariant).
		UpdateColumn("sold_out", soldOut).Error
	if err != nil {
		return fmt.Errorf("failed to update variants: %w", err)
	}
	return nil
}

// SetVariantsCategory moves every variant of parentID to categoryID.
func (s *Store) SetVariantsCategory(ctx context.Context, parentID, categoryID string) error {
	err := s.conn(ctx).Model(&models.Product{}).
		Where("parent_product_id = ?", parentID).
		Update("category_id", categoryID).Error
	if err != nil {
		return fmt.Errorf("failed to update variant category: %w", err)
	}
	return nil
}
