// Package promotions schedules the storefront's promotional banners.
package promotions

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store   *store.Store
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewService(st *store.Store, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, timeout: timeout, log: log, now: time.Now}
}

// Dates are stored in UTC.
type CreateInput struct {
	Title          string    `json:"title"`
	ImageURL       string    `json:"imageUrl"`
	Description    *string   `json:"description"`
	AppearanceDate time.Time `json:"appearanceDate"`
	CloseDate      time.Time `json:"closeDate"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Title          *string    `json:"title"`
	ImageURL       *string    `json:"imageUrl"`
	Description    *string    `json:"description"`
	AppearanceDate *time.Time `json:"appearanceDate"`
	CloseDate      *time.Time `json:"closeDate"`
	IsActive       *bool      `json:"isActive"`
}

func notFound(id string) *apperrors.Error {
	return apperrors.NotFound("Promotion with ID %s not found", id)
}

func checkWindow(appearance, closing time.Time) error {
	if !closing.After(appearance) {
		return apperrors.InvalidOperation("Close date must be after appearance date")
	}
	return nil
}

func checkImageURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.InvalidOperation("imageUrl must be an absolute http(s) URL")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Promotion, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidOperation("title is required")
	}
	if err := checkImageURL(in.ImageURL); err != nil {
		return nil, err
	}
	if err := checkWindow(in.AppearanceDate, in.CloseDate); err != nil {
		return nil, err
	}
	p := &models.Promotion{
		Title:          title,
		ImageURL:       in.ImageURL,
		Description:    in.Description,
		AppearanceDate: in.AppearanceDate.UTC(),
		CloseDate:      in.CloseDate.UTC(),
		IsActive:       true,
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.CreatePromotion(ctx, p); err != nil {
		return nil, store.AsAppError(err, nil)
	}
	s.log.Info("Promotion created", zap.String("promotion_id", p.ID))
	return p, nil
}

// List returns active promotions, or all of them when includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.Promotion, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	out, err := s.store.ListPromotions(ctx, includeInactive)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return out, nil
}

// Live returns the active promotions currently inside their display window.
func (s *Service) Live(ctx context.Context) ([]models.Promotion, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	out, err := s.store.ListLivePromotions(ctx, s.now().UTC())
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Promotion, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	p, err := s.store.FindPromotion(ctx, id)
	if err != nil {
		return nil, store.AsAppError(err, notFound(id))
	}
	return p, nil
}

// Update applies in and checks the resulting window, so moving one date
// past the stored other date is rejected too.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Promotion, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var p *models.Promotion
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		p, err = tx.FindPromotion(ctx, id)
		if err != nil {
			return store.AsAppError(err, notFound(id))
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperrors.InvalidOperation("title cannot be empty")
			}
			p.Title = title
		}
		if in.ImageURL != nil {
			if err := checkImageURL(*in.ImageURL); err != nil {
				return err
			}
			p.ImageURL = *in.ImageURL
		}
		if in.Description != nil {
			p.Description = in.Description
		}
		if in.AppearanceDate != nil {
			p.AppearanceDate = in.AppearanceDate.UTC()
		}
		if in.CloseDate != nil {
			p.CloseDate = in.CloseDate.UTC()
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		if err := checkWindow(p.AppearanceDate, p.CloseDate); err != nil {
			return err
		}
		return tx.SavePromotion(ctx, p)
	})
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return p, nil
}

func (s *Service) ToggleActive(ctx context.Context, id string) (*models.Promotion, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !p.IsActive
	return s.Update(ctx, id, UpdateInput{IsActive: &active})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.DeletePromotion(ctx, id); err != nil {
		return store.AsAppError(err, notFound(id))
	}
	s.log.Info("Promotion deleted", zap.String("promotion_id", id))
	return nil
}
