package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// CategoryService manages the categories products are filed under.
type CategoryService struct {
	store   *store.Store
	timeout time.Duration
	log     *zap.Logger
}

func NewCategoryService(st *store.Store, timeout time.Duration, log *zap.Logger) *CategoryService {
	return &CategoryService{store: st, timeout: timeout, log: log}
}

type CreateCategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidOperation("name is required")
	}
	c := &models.Category{
		Name:        name,
		Slug:        slug.Make(name),
		Description: in.Description,
	}
	if c.Slug == "" {
		return nil, apperrors.InvalidOperation("Category name %q does not produce a usable slug", name)
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("Category with slug %q already exists", c.Slug)
		}
		return nil, store.AsAppError(err, nil)
	}
	s.log.Info("Category created", zap.String("category_id", c.ID), zap.String("slug", c.Slug))
	return c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	c, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return nil, store.AsAppError(err, apperrors.NotFound("Category with ID %s not found", id))
	}
	return c, nil
}
