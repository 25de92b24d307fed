package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-api/internal/models"
	"gorm.io/gorm"
)

func withOrderItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Images", orderedImages)
}

// CreateOrder inserts the order with its items.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := s.conn(ctx).Omit("User").Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", translate(err))
	}
	return nil
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := withOrderItems(s.conn(ctx)).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := withOrderItems(s.conn(ctx)).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withOrderItems(s.conn(ctx)).Preload("User").Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
