// Package appconfig serves the storefront-wide settings row.
package appconfig

import (
	"context"
	"time"

	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store   *store.Store
	timeout time.Duration
	log     *zap.Logger
}

func NewService(st *store.Store, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, timeout: timeout, log: log}
}

// Get returns the settings, creating the empty row on first read.
func (s *Service) Get(ctx context.Context) (*models.AppConfig, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	cfg, err := s.store.GetOrCreateAppConfig(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return cfg, nil
}

// SetAboutUs stores the about-us text. A nil text leaves the stored value alone.
func (s *Service) SetAboutUs(ctx context.Context, aboutUs *string) (*models.AppConfig, error) {
	if aboutUs == nil {
		return s.Get(ctx)
	}
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	cfg, err := s.store.UpsertAboutUs(ctx, aboutUs)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	s.log.Info("About-us text updated")
	return cfg, nil
}
