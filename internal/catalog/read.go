package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

// invalidate drops the listing and the given product keys. Cache errors are logged only.
func (s *Service) invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, listKey)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.log.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Invalidate drops the listing and the cached reads of ids after a write made outside
// this service, such as stock taken by an order.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	s.invalidate(ctx, ids...)
}

// InvalidateProduct drops cached reads of a product and its parent after a write made
// outside this service, such as a variant materialized by the cart.
func (s *Service) InvalidateProduct(ctx context.Context, p *models.Product) {
	if p == nil {
		return
	}
	ids := []string{p.ID}
	if p.ParentProductID != nil {
		ids = append(ids, *p.ParentProductID)
	}
	s.invalidate(ctx, ids...)
}

// cached serves key from the cache, loading it once per key on a miss.
func cached[T any](s *Service, ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	found, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return out, nil
	}

	v, err, shared := s.sf.Do(key, func() (any, error) {
		sctx, cancel := store.TimeoutContext(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		loaded, err := load(sctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(sctx, key, loaded); err != nil {
			s.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return loaded, nil
	})
	if err != nil {
		return out, err
	}
	if shared {
		// Joined callers each get their own copy, so none can see another's edits.
		return clone(v.(T))
	}
	return v.(T), nil
}

// clone deep-copies v through its JSON form, the same form a cache hit decodes from.
func clone[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, apperrors.Wrap("Failed to copy cached value", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, apperrors.Wrap("Failed to copy cached value", err)
	}
	return out, nil
}

// ListProducts returns every base product with its category, options and images.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cached(s, ctx, listKey, func(ctx context.Context) ([]models.Product, error) {
		products, err := s.store.ListBaseProducts(ctx)
		if err != nil {
			return nil, store.AsAppError(err, nil)
		}
		return products, nil
	})
}

// GetProduct returns one record with its category, options, images and variants.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return cached(s, ctx, productKey(id), func(ctx context.Context) (*models.Product, error) {
		return s.detail(ctx, id)
	})
}

// variantKey is the natural key of a STANDALONE variant under its parent.
func variantKey(size string, color *string) string {
	if color == nil {
		return size
	}
	return size + "\x1f" + *color
}

// matchColor resolves a requested color against the declared ones, returning the
// declared spelling. A base without declared colors accepts the color as given.
func matchColor(base *models.Product, color *string) (*string, error) {
	if color == nil {
		return nil, nil
	}
	requested := strings.TrimSpace(*color)
	if requested == "" {
		return nil, nil
	}
	if len(base.Colors) == 0 {
		return &requested, nil
	}
	for _, c := range base.Colors {
		if strings.EqualFold(c.Color, requested) {
			declared := c.Color
			return &declared, nil
		}
	}
	return nil, apperrors.InvalidOperation("Color %q is not available for this product", requested)
}

// ResolveStandaloneVariant returns the VARIANT of a STANDALONE base for (size, color),
// creating it on first use. base must be loaded with its sizes and colors. created
// reports whether this call inserted the row; the caller owns cache invalidation.
func (s *Service) ResolveStandaloneVariant(ctx context.Context, tx *store.Store, base *models.Product, size string, color *string) (*models.Product, bool, error) {
	// 1. --- The base must be a STANDALONE template ---
	if base.ProductType != models.ProductTypeStandalone || base.RecordType != models.RecordTypeBaseProduct {
		return nil, false, apperrors.InvalidOperation("getOrCreateStandaloneVariant is only for STANDALONE products. " +
			"Use variant ID directly for VARIANT_BASED products.")
	}

	// 2. --- Match the requested options ---
	size = strings.TrimSpace(size)
	declared, ok := base.SizeNamed(size)
	if !ok {
		return nil, false, apperrors.InvalidOperation("Size %q is not available for this product", size)
	}
	color, err := matchColor(base, color)
	if err != nil {
		return nil, false, err
	}
	key := variantKey(size, color)

	// 3. --- Reuse the existing variant ---
	existing, err := tx.FindVariantByKey(ctx, base.ID, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, store.AsAppError(err, nil)
	}

	// 4. --- Or create it; a concurrent writer holding the key wins ---
	title := fmt.Sprintf("%s - %s", base.Title, size)
	name := fmt.Sprintf("%s-%s", base.Name, size)
	if color != nil {
		title = fmt.Sprintf("%s - %s", title, *color)
		name = fmt.Sprintf("%s-%s", name, *color)
	}
	price := declared.Price
	variantSize := size
	v := &models.Product{
		Title:           title,
		Name:            name,
		Description:     base.Description,
		Note:            base.Note,
		Quantity:        0,
		Price:           &price,
		SoldOut:         base.SoldOut,
		Size:            &variantSize,
		Color:           color,
		CategoryID:      base.CategoryID,
		ProductType:     models.ProductTypeStandalone,
		RecordType:      models.RecordTypeVariant,
		ParentProductID: &base.ID,
		VariantKey:      &key,
	}
	row, created, err := tx.CreateVariantIfAbsent(ctx, v)
	if err != nil {
		return nil, false, store.AsAppError(err, nil)
	}
	if created {
		s.log.Info("Standalone variant created",
			zap.String("product_id", row.ID),
			zap.String("parent_id", base.ID),
			zap.String("size", size),
		)
	}
	return row, created, nil
}

// GetOrCreateStandaloneVariant materializes the variant of a STANDALONE base for one
// (size, color) selection. Repeated calls return the same record.
func (s *Service) GetOrCreateStandaloneVariant(ctx context.Context, baseID, size string, color *string) (*models.Product, error) {
	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		variant *models.Product
		created bool
	)
	err := s.store.WithTx(sctx, func(tx *store.Store) error {
		base, err := tx.FindProductWithOptions(sctx, baseID)
		if err != nil {
			return store.AsAppError(err, productNotFound(baseID))
		}
		variant, created, err = s.ResolveStandaloneVariant(sctx, tx, base, size, color)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap("Failed to resolve variant", err)
	}
	if created {
		s.InvalidateProduct(ctx, variant)
	}
	return variant, nil
}
