// Package catalog creates, updates and removes products while keeping every record
// inside the product-type legality table.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/cache"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/producttype"
	"github.com/01moynul/storefront-api/internal/storage"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const listKey = "products:list"

func productKey(id string) string { return "product:" + id }

type Service struct {
	store   *store.Store
	engine  *producttype.Engine
	storage storage.Storage
	cache   cache.Cache
	sf      singleflight.Group
	timeout time.Duration
	log     *zap.Logger
}

func NewService(st *store.Store, files storage.Storage, c cache.Cache, timeout time.Duration, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:   st,
		engine:  producttype.NewEngine(st),
		storage: files,
		cache:   c,
		timeout: timeout,
		log:     log,
	}
}

func productNotFound(id string) *apperrors.Error {
	return apperrors.NotFound("Product with ID %s not found", id)
}

func (s *Service) ensureCategory(ctx context.Context, st *store.Store, id string) error {
	ok, err := st.CategoryExists(ctx, id)
	if err != nil {
		return store.AsAppError(err, nil)
	}
	if !ok {
		return apperrors.NotFound("Category with ID %s not found", id)
	}
	return nil
}

// upload stores files and returns their image rows. Storage failures are fatal.
func (s *Service) upload(ctx context.Context, files []storage.File, label string) ([]models.ProductImage, []string, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}
	urls, err := s.storage.UploadFiles(ctx, files)
	if err != nil {
		s.log.Error("Image upload failed", zap.Int("files", len(files)), zap.Error(err))
		return nil, nil, apperrors.Wrap("Failed to upload images", err)
	}
	return imageRows(urls, label), urls, nil
}

// discard removes uploads that never made it into a committed row.
func (s *Service) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := s.storage.DeleteByURLs(context.WithoutCancel(ctx), urls); err != nil {
		s.log.Error("Failed to remove orphaned uploads", zap.Strings("urls", urls), zap.Error(err))
	}
}

// CreateBase creates a STANDALONE or VARIANT_BASED base product with its options and images.
func (s *Service) CreateBase(ctx context.Context, in CreateBaseInput, files []storage.File) (*models.Product, error) {
	// 1. --- Validate input ---
	if err := in.validate(); err != nil {
		return nil, err
	}
	productType := in.ProductType
	if productType == "" {
		productType = models.ProductTypeStandalone
	}
	shape := producttype.Shape{ProductType: productType, RecordType: models.RecordTypeBaseProduct}
	if err := producttype.ValidateBaseCreate(shape); err != nil {
		return nil, err
	}
	sizes, err := buildSizes(in.Sizes)
	if err != nil {
		return nil, err
	}
	colors, err := buildColors(in.Colors)
	if err != nil {
		return nil, err
	}

	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	err = s.ensureCategory(sctx, s.store, in.CategoryID)
	cancel()
	if err != nil {
		return nil, err
	}

	// 2. --- Upload images ---
	images, urls, err := s.upload(ctx, files, "Product")
	if err != nil {
		return nil, err
	}

	// 3. --- Write product, sizes, colors and images together ---
	p := &models.Product{
		Title:       in.Title,
		Name:        in.Name,
		Description: in.Description,
		Note:        in.Note,
		Quantity:    in.Quantity,
		SoldOut:     in.Quantity == 0,
		CategoryID:  in.CategoryID,
		ProductType: productType,
		RecordType:  models.RecordTypeBaseProduct,
		Sizes:       sizes,
		Colors:      colors,
		Images:      images,
	}
	sctx, cancel = store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.WithTx(sctx, func(tx *store.Store) error {
		return tx.CreateProduct(sctx, p)
	}); err != nil {
		s.discard(ctx, urls)
		return nil, store.AsAppError(err, nil)
	}

	s.invalidate(ctx, p.ID)
	s.log.Info("Product created",
		zap.String("product_id", p.ID),
		zap.String("product_type", string(productType)),
		zap.Int("images", len(images)),
	)
	return s.detail(sctx, p.ID)
}

// CreateVariant adds an explicitly stocked variant under a VARIANT_BASED base.
func (s *Service) CreateVariant(ctx context.Context, parentID string, in CreateVariantInput, files []storage.File) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// 1. --- Check the parent ---
	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	parent, err := s.store.FindProductByID(sctx, parentID)
	if err != nil {
		cancel()
		return nil, store.AsAppError(err, productNotFound(parentID))
	}
	_, err = s.engine.ValidateVariantCreate(sctx, producttype.Shape{
		ProductType:     parent.ProductType,
		RecordType:      models.RecordTypeVariant,
		ParentProductID: &parent.ID,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	// 2. --- Upload images ---
	images, urls, err := s.upload(ctx, files, "Variant")
	if err != nil {
		return nil, err
	}

	// 3. --- Create the variant row ---
	price := in.Price
	size := in.Size
	v := &models.Product{
		Title:           in.Title,
		Name:            in.Name,
		Description:     in.Description,
		Note:            in.Note,
		Quantity:        in.Quantity,
		Price:           &price,
		SoldOut:         in.Quantity == 0,
		Size:            &size,
		Color:           in.Color,
		CategoryID:      parent.CategoryID,
		ProductType:     models.ProductTypeVariantBased,
		RecordType:      models.RecordTypeVariant,
		ParentProductID: &parent.ID,
		Images:          images,
	}
	sctx, cancel = store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.WithTx(sctx, func(tx *store.Store) error {
		return tx.CreateProduct(sctx, v)
	}); err != nil {
		s.discard(ctx, urls)
		return nil, store.AsAppError(err, nil)
	}

	s.invalidate(ctx, v.ID, parent.ID)
	s.log.Info("Variant created", zap.String("product_id", v.ID), zap.String("parent_id", parent.ID))
	return s.detail(sctx, v.ID)
}

// Update patches a product. Sizes and colors are replaced wholesale, images only when
// new files arrive, and soldOut always follows the resulting quantity.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, files []storage.File) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// 1. --- Load and check the record ---
	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	existing, err := s.store.FindProductByID(sctx, id)
	if err == nil && in.CategoryID != nil {
		err = s.ensureCategory(sctx, s.store, *in.CategoryID)
	}
	if err == nil {
		err = s.checkUpdateShape(sctx, existing, in)
	}
	cancel()
	if err != nil {
		return nil, store.AsAppError(err, productNotFound(id))
	}

	var sizes []models.ProductSize
	if in.Sizes != nil {
		if sizes, err = buildSizes(*in.Sizes); err != nil {
			return nil, err
		}
	}
	var colors []models.ProductColor
	if in.Colors != nil {
		if colors, err = buildColors(*in.Colors); err != nil {
			return nil, err
		}
	}

	// 2. --- Upload replacement images first so a failed upload changes nothing ---
	label := "Product"
	if existing.IsVariant() {
		label = "Variant"
	}
	images, newURLs, err := s.upload(ctx, files, label)
	if err != nil {
		return nil, err
	}

	quantity := existing.Quantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	fields := map[string]any{"sold_out": quantity == 0}
	if existing.ProductType == models.ProductTypeStandalone && existing.IsVariant() {
		// availability is the parent's; its soldOut is propagated from there
		delete(fields, "sold_out")
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Note != nil {
		fields["note"] = *in.Note
	}
	if in.Quantity != nil {
		fields["quantity"] = *in.Quantity
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if in.ProductType != nil {
		fields["product_type"] = *in.ProductType
	}

	// 3. --- Apply everything in one transaction ---
	keys := []string{id}
	if existing.ParentProductID != nil {
		keys = append(keys, *existing.ParentProductID)
	}

	sctx, cancel = store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	err = s.store.WithTx(sctx, func(tx *store.Store) error {
		if err := tx.UpdateProductFields(sctx, id, fields); err != nil {
			return err
		}
		if !existing.IsVariant() {
			// Category and soldOut cascade to the children, so their reads go stale too.
			children, err := tx.VariantIDs(sctx, id)
			if err != nil {
				return err
			}
			keys = append(keys, children...)
		}
		if in.Sizes != nil {
			if err := tx.ReplaceSizes(sctx, id, sizes); err != nil {
				return err
			}
		}
		if in.Colors != nil {
			if err := tx.ReplaceColors(sctx, id, colors); err != nil {
				return err
			}
		}
		if in.CategoryID != nil && !existing.IsVariant() {
			if err := tx.SetVariantsCategory(sctx, id, *in.CategoryID); err != nil {
				return err
			}
		}
		if existing.ProductType == models.ProductTypeStandalone && !existing.IsVariant() {
			if err := tx.SetVariantsSoldOut(sctx, id, quantity == 0); err != nil {
				return err
			}
		}
		if len(images) == 0 {
			return nil
		}
		old, err := tx.ListImages(sctx, id)
		if err != nil {
			return err
		}
		if err := tx.ReplaceImages(sctx, id, images); err != nil {
			return err
		}
		// Old objects go last: a storage failure still rolls the rows back.
		oldURLs := make([]string, len(old))
		for i, img := range old {
			oldURLs[i] = img.URL
		}
		return s.storage.DeleteByURLs(ctx, oldURLs)
	})
	if err != nil {
		s.discard(ctx, newURLs)
		return nil, store.AsAppError(err, productNotFound(id))
	}

	s.invalidate(ctx, keys...)
	s.log.Info("Product updated", zap.String("product_id", id), zap.Bool("sold_out", quantity == 0))
	return s.detail(sctx, id)
}

// checkUpdateShape enforces what a patch may touch for the record's role.
func (s *Service) checkUpdateShape(ctx context.Context, existing *models.Product, in UpdateInput) error {
	role, err := producttype.RoleOf(existing)
	if err != nil {
		return err
	}
	if in.ProductType != nil {
		if role.Variant() {
			return apperrors.InvalidOperation("Cannot change productType on a variant record. Update the base product instead.")
		}
		if err := s.engine.ValidateProductTypeConsistency(ctx, existing.ID, *in.ProductType, existing.RecordType); err != nil {
			return err
		}
	}
	if role.Variant() && (in.Sizes != nil || in.Colors != nil) {
		return apperrors.InvalidOperation("Sizes and colors are declared on the base product, not on a variant")
	}
	if role.Variant() && in.CategoryID != nil {
		return apperrors.InvalidOperation("Variants inherit categoryId from the base product")
	}
	if !role.Variant() && in.Price != nil {
		return apperrors.InvalidOperation("Base products are priced per size; set price on sizes or variants")
	}
	if role == producttype.RoleStandaloneVariant && in.Quantity != nil && *in.Quantity != 0 {
		return apperrors.InvalidOperation("Standalone variants carry no stock. Update the base product quantity instead.")
	}
	return nil
}

// Remove deletes a product. The last variant of a VARIANT_BASED family cannot go.
func (s *Service) Remove(ctx context.Context, id string) error {
	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		urls []string
		keys = []string{id}
	)
	err := s.store.WithTx(sctx, func(tx *store.Store) error {
		p, err := tx.FindProductByID(sctx, id)
		if err != nil {
			return err
		}
		// Lock the family so two concurrent deletes cannot both pass the sibling count.
		if p.ParentProductID != nil {
			if _, err := tx.LockProduct(sctx, *p.ParentProductID); err != nil {
				return err
			}
		}
		if err := s.engine.WithReader(tx).AssertNotLastVariant(sctx, p); err != nil {
			return err
		}
		if urls, err = tx.FamilyImageURLs(sctx, id); err != nil {
			return err
		}
		if p.ParentProductID != nil {
			keys = append(keys, *p.ParentProductID)
		} else {
			// The delete cascades to every variant.
			children, err := tx.VariantIDs(sctx, id)
			if err != nil {
				return err
			}
			keys = append(keys, children...)
		}
		return tx.DeleteProduct(sctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrReferenced) {
			return apperrors.Conflict("Product with ID %s is referenced by existing orders and cannot be deleted", id)
		}
		return store.AsAppError(err, productNotFound(id))
	}

	// The rows are gone; leftover objects are only logged.
	if len(urls) > 0 {
		if err := s.storage.DeleteByURLs(ctx, urls); err != nil {
			s.log.Error("Failed to delete product images", zap.String("product_id", id), zap.Error(err))
		}
	}

	s.invalidate(ctx, keys...)
	s.log.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) detail(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.GetProductDetail(ctx, id)
	if err != nil {
		return nil, store.AsAppError(err, productNotFound(id))
	}
	return p, nil
}
