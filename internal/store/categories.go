package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-api/internal/models"
	"gorm.io/gorm"
)

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := s.conn(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", translate(err))
	}
	return nil
}

func (s *Store) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &c, nil
}

func (s *Store) CategoryExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.conn(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
