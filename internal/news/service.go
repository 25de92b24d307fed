// Package news manages the announcements shown on the storefront.
package news

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
}

func NewService(st *store.Store, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, timeout: timeout, log: log}
}

type CreateInput struct {
	Title    string  `json:"title"`
	Content  *string `json:"content"`
	Link     *string `json:"link"`
	IsActive *bool   `json:"isActive"`
	Order    *int    `json:"order"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Link     *string `json:"link"`
	IsActive *bool   `json:"isActive"`
	Order    *int    `json:"order"`
}

func notFound(id string) *apperrors.Error {
	return apperrors.NotFound("News with ID %s not found", id)
}

func checkLink(link *string) error {
	if link == nil {
		return nil
	}
	u, err := url.ParseRequestURI(*link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.InvalidOperation("link must be an absolute http(s) URL")
	}
	return nil
}

func checkOrder(order *int) error {
	if order != nil && *order < 0 {
		return apperrors.InvalidOperation("order must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.News, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidOperation("title is required")
	}
	if err := checkLink(in.Link); err != nil {
		return nil, err
	}
	if err := checkOrder(in.Order); err != nil {
		return nil, err
	}
	n := &models.News{Title: title, Content: in.Content, Link: in.Link, IsActive: true}
	if in.IsActive != nil {
		n.IsActive = *in.IsActive
	}
	if in.Order != nil {
		n.Order = *in.Order
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.CreateNews(ctx, n); err != nil {
		return nil, store.AsAppError(err, nil)
	}
	s.log.Info("News created", zap.String("news_id", n.ID))
	return n, nil
}

// List returns active news, or all of it when includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.News, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	out, err := s.store.ListNews(ctx, includeInactive)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.News, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	n, err := s.store.FindNews(ctx, id)
	if err != nil {
		return nil, store.AsAppError(err, notFound(id))
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.News, error) {
	if err := checkLink(in.Link); err != nil {
		return nil, err
	}
	if err := checkOrder(in.Order); err != nil {
		return nil, err
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	var n *models.News
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		n, err = tx.FindNews(ctx, id)
		if err != nil {
			return store.AsAppError(err, notFound(id))
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperrors.InvalidOperation("title cannot be empty")
			}
			n.Title = title
		}
		if in.Content != nil {
			n.Content = in.Content
		}
		if in.Link != nil {
			n.Link = in.Link
		}
		if in.IsActive != nil {
			n.IsActive = *in.IsActive
		}
		if in.Order != nil {
			n.Order = *in.Order
		}
		return tx.SaveNews(ctx, n)
	})
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return n, nil
}

func (s *Service) ToggleActive(ctx context.Context, id string) (*models.News, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !n.IsActive
	return s.Update(ctx, id, UpdateInput{IsActive: &active})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.DeleteNews(ctx, id); err != nil {
		return store.AsAppError(err, notFound(id))
	}
	s.log.Info("News deleted", zap.String("news_id", id))
	return nil
}
