package store

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/storefront-api/internal/models"
)

func (s *Store) count(ctx context.Context, model any, what string, query string, args ...any) (int64, error) {
	q := s.conn(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

// CountUsers counts every user, or only role when it is set.
func (s *Store) CountUsers(ctx context.Context, role string) (int64, error) {
	if role == "" {
		return s.count(ctx, &models.User{}, "users", "")
	}
	return s.count(ctx, &models.User{}, "users", "role = ?", role)
}

func (s *Store) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, &models.User{}, "users", "created_at >= ?", since)
}

// CountBaseProducts counts catalog entries, not their variant rows.
func (s *Store) CountBaseProducts(ctx context.Context) (int64, error) {
	return s.count(ctx, &models.Product{}, "products", "record_type = ?", models.RecordTypeBaseProduct)
}

func (s *Store) CountBaseProductsSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, &models.Product{}, "products", "record_type = ? AND created_at >= ?",
		models.RecordTypeBaseProduct, since)
}

// CountLowStock counts the rows that hold stock with at most threshold units:
// STANDALONE bases and VARIANT_BASED variants.
func (s *Store) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return s.count(ctx, &models.Product{}, "low stock products",
		"quantity <= ? AND ((product_type = ? AND record_type = ?) OR (product_type = ? AND record_type = ?))",
		threshold,
		models.ProductTypeStandalone, models.RecordTypeBaseProduct,
		models.ProductTypeVariantBased, models.RecordTypeVariant)
}

func (s *Store) CountCategories(ctx context.Context) (int64, error) {
	return s.count(ctx, &models.Category{}, "categories", "")
}

// CountPromotions counts every promotion, or only the active ones.
func (s *Store) CountPromotions(ctx context.Context, activeOnly bool) (int64, error) {
	if activeOnly {
		return s.count(ctx, &models.Promotion{}, "promotions", "is_active = ?", true)
	}
	return s.count(ctx, &models.Promotion{}, "promotions", "")
}

func (s *Store) CountCarts(ctx context.Context) (int64, error) {
	return s.count(ctx, &models.Cart{}, "carts", "")
}

// CartLineTotals are the item count and summed price*quantity over all cart lines.
type CartLineTotals struct {
	ItemCount int64
	LineValue float64
}

func (s *Store) SumCartLines(ctx context.Context) (CartLineTotals, error) {
	var out CartLineTotals
	err := s.conn(ctx).Model(&models.CartItem{}).
		Select("COUNT(*) AS item_count, COALESCE(SUM(price * quantity), 0) AS line_value").
		Scan(&out).Error
	if err != nil {
		return CartLineTotals{}, fmt.Errorf("failed to sum cart lines: %w", err)
	}
	return out, nil
}

// CategoryProductCount is a category with the number of base products filed under it.
type CategoryProductCount struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductsByCategory lists every category by name, including empty ones.
func (s *Store) ProductsByCategory(ctx context.Context) ([]CategoryProductCount, error) {
	var out []CategoryProductCount
	err := s.conn(ctx).Model(&models.Category{}).
		Select("categories.id, categories.name, categories.created_at, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.record_type = ?",
			models.RecordTypeBaseProduct).
		Group("categories.id, categories.name, categories.created_at").
		Order("categories.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products by category: %w", err)
	}
	return out, nil
}

func (s *Store) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	var out []models.User
	if err := s.conn(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	return out, nil
}

// RecentProducts returns the latest base products with their category.
func (s *Store) RecentProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var out []models.Product
	err := s.conn(ctx).Preload("Category").
		Where("record_type = ?", models.RecordTypeBaseProduct).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent products: %w", err)
	}
	return out, nil
}

func (s *Store) RecentPromotions(ctx context.Context, limit int) ([]models.Promotion, error) {
	var out []models.Promotion
	if err := s.conn(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent promotions: %w", err)
	}
	return out, nil
}
