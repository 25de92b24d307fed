package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Promotions ---

func (s *Store) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create promotion: %w", translate(err))
	}
	return nil
}

func (s *Store) FindPromotion(ctx context.Context, id string) (*models.Promotion, error) {
	var p models.Promotion
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find promotion: %w", err)
	}
	return &p, nil
}

// ListPromotions returns the newest first. Inactive rows are skipped unless includeInactive.
func (s *Store) ListPromotions(ctx context.Context, includeInactive bool) ([]models.Promotion, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Promotion
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return out, nil
}

// ListLivePromotions returns active promotions whose window contains now.
func (s *Store) ListLivePromotions(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var out []models.Promotion
	err := s.conn(ctx).
		Where("is_active = ? AND appearance_date <= ? AND close_date >= ?", true, now, now).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list live promotions: %w", err)
	}
	return out, nil
}

// SavePromotion writes every column of p.
func (s *Store) SavePromotion(ctx context.Context, p *models.Promotion) error {
	if err := s.conn(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save promotion: %w", translate(err))
	}
	return nil
}

func (s *Store) DeletePromotion(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.Promotion{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete promotion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- News ---

func (s *Store) CreateNews(ctx context.Context, n *models.News) error {
	if err := s.conn(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create news: %w", translate(err))
	}
	return nil
}

func (s *Store) FindNews(ctx context.Context, id string) (*models.News, error) {
	var n models.News
	if err := s.conn(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find news: %w", err)
	}
	return &n, nil
}

// ListNews orders by the display order, then newest first.
func (s *Store) ListNews(ctx context.Context, includeInactive bool) ([]models.News, error) {
	q := s.conn(ctx).Order("sort_order ASC").Order("created_at DESC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var out []models.News
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return out, nil
}

func (s *Store) SaveNews(ctx context.Context, n *models.News) error {
	if err := s.conn(ctx).Save(n).Error; err != nil {
		return fmt.Errorf("failed to save news: %w", translate(err))
	}
	return nil
}

func (s *Store) DeleteNews(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.News{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete news: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- App config ---

// GetOrCreateAppConfig returns the settings row, inserting an empty one on first use.
func (s *Store) GetOrCreateAppConfig(ctx context.Context) (*models.AppConfig, error) {
	cfg := &models.AppConfig{ID: models.AppConfigID}
	if err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create app config: %w", translate(err))
	}
	var out models.AppConfig
	if err := s.conn(ctx).First(&out, "id = ?", models.AppConfigID).Error; err != nil {
		return nil, fmt.Errorf("failed to read app config: %w", translate(err))
	}
	return &out, nil
}

// UpsertAboutUs sets the about-us text, creating the settings row if needed.
func (s *Store) UpsertAboutUs(ctx context.Context, aboutUs *string) (*models.AppConfig, error) {
	cfg := &models.AppConfig{ID: models.AppConfigID, AboutUs: aboutUs}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"about_us", "updated_at"}),
	}).Create(cfg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save app config: %w", translate(err))
	}
	var out models.AppConfig
	if err := s.conn(ctx).First(&out, "id = ?", models.AppConfigID).Error; err != nil {
		return nil, fmt.Errorf("failed to read app config: %w", translate(err))
	}
	return &out, nil
}
