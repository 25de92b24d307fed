// Package cart resolves cart requests to purchasable variants and keeps one cart per user.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/producttype"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store   *store.Store
	catalog *catalog.Service
	timeout time.Duration
	log     *zap.Logger
}

func NewService(st *store.Store, cat *catalog.Service, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, catalog: cat, timeout: timeout, log: log}
}

// AddInput is one add-to-cart request. Color only matters for STANDALONE bases.
type AddInput struct {
	ProductID string  `json:"productId"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Quantity  int     `json:"quantity"`
}

var errInsufficient = apperrors.InvalidOperation("Insufficient product quantity")

func itemNotFound(id string) *apperrors.Error {
	return apperrors.NotFound("Cart item with ID %s not found", id)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// stockHolder is the row whose quantity limits v: the parent of a STANDALONE variant,
// the variant itself otherwise.
func stockHolder(v *models.Product) string {
	if v.ProductType == models.ProductTypeStandalone && v.ParentProductID != nil {
		return *v.ParentProductID
	}
	return v.ID
}

// available locks the stock-bearing row of v and returns its quantity.
func available(ctx context.Context, tx *store.Store, v *models.Product) (int, error) {
	holder, err := tx.LockProduct(ctx, stockHolder(v))
	if err != nil {
		return 0, err
	}
	return holder.Quantity, nil
}

// unitPrice is the variant's own price, else its declared size price, else zero.
func unitPrice(v *models.Product) float64 {
	if v.Price != nil {
		return *v.Price
	}
	if v.Size == nil {
		return 0
	}
	if s, ok := v.SizeNamed(*v.Size); ok {
		return s.Price
	}
	if v.Parent != nil {
		if s, ok := v.Parent.SizeNamed(*v.Size); ok {
			return s.Price
		}
	}
	return 0
}

func (s *Service) load(ctx context.Context, cartID string) (View, error) {
	c, err := s.store.LoadCart(ctx, cartID)
	if err != nil {
		return View{}, store.AsAppError(err, apperrors.NotFound("Cart with ID %s not found", cartID))
	}
	return newView(c), nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first access.
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (View, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	c, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return View{}, store.AsAppError(err, nil)
	}
	return s.load(ctx, c.ID)
}

// resolve turns the addressed record into the purchasable variant the line will hold.
// created reports a STANDALONE variant materialized by this call.
func (s *Service) resolve(ctx context.Context, tx *store.Store, p *models.Product, size, color *string) (*models.Product, bool, error) {
	if p.RecordType == models.RecordTypeBaseProduct {
		if p.ProductType == models.ProductTypeVariantBased {
			return nil, false, apperrors.InvalidOperation("Cannot add a VARIANT_BASED base product to cart. " +
				"Select a specific variant and use its ID.")
		}
		if size == nil {
			return nil, false, apperrors.InvalidOperation("Size is required when adding a STANDALONE product to cart")
		}
		return s.catalog.ResolveStandaloneVariant(ctx, tx, p, *size, color)
	}

	// A standalone variant is only sellable while its parent still declares the size.
	if p.ProductType == models.ProductTypeStandalone && p.Parent != nil && p.Size != nil {
		if _, ok := p.Parent.SizeNamed(*p.Size); !ok {
			return nil, false, apperrors.InvalidOperation("Size %q is not available for this product", *p.Size)
		}
	}
	// A variant-based family is usable only while it has variants.
	if p.ProductType == models.ProductTypeVariantBased && p.ParentProductID != nil {
		if err := producttype.NewEngine(tx).AssertHasVariants(ctx, *p.ParentProductID); err != nil {
			return nil, false, err
		}
	}
	return p, false, nil
}

// AddToCart resolves the product to a variant, checks stock and merges the line into
// the user's cart. Everything runs in one transaction with the stock row locked.
func (s *Service) AddToCart(ctx context.Context, userID string, in AddInput) (View, error) {
	if in.Quantity < 1 {
		return View{}, apperrors.InvalidOperation("quantity must be at least 1")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return View{}, apperrors.InvalidOperation("productId is required")
	}
	size := trimmed(in.Size)
	color := trimmed(in.Color)

	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		cartID  string
		variant *models.Product
		created bool
	)
	err := s.store.WithTx(sctx, func(tx *store.Store) error {
		// 1. --- Find the cart and the addressed record ---
		c, err := tx.GetOrCreateCart(sctx, userID)
		if err != nil {
			return err
		}
		cartID = c.ID

		p, err := tx.FindProductWithOptions(sctx, in.ProductID)
		if err != nil {
			return store.AsAppError(err, apperrors.NotFound("Product with ID %s not found", in.ProductID))
		}

		// 2. --- Resolve to a purchasable variant ---
		if variant, created, err = s.resolve(sctx, tx, p, size, color); err != nil {
			return err
		}
		if err := producttype.AssertPurchasable(variant); err != nil {
			return err
		}

		// 3. --- Check stock on the locked row ---
		qty, err := available(sctx, tx, variant)
		if err != nil {
			return err
		}
		if qty < in.Quantity {
			return errInsufficient
		}

		// 4. --- Merge or insert the line ---
		lineSize := size
		if variant.Size != nil {
			lineSize = variant.Size
		}
		line := &models.CartItem{
			CartID:    c.ID,
			ProductID: variant.ID,
			Size:      lineSize,
			Quantity:  in.Quantity,
			Price:     unitPrice(variant),
		}
		if err := tx.AddCartLine(sctx, line); err != nil {
			return err
		}
		return tx.TouchCart(sctx, c.ID)
	})
	if err != nil {
		return View{}, store.AsAppError(err, nil)
	}

	if created {
		s.catalog.InvalidateProduct(ctx, variant)
	}
	s.log.Info("Cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", variant.ID),
		zap.Int("quantity", in.Quantity),
	)
	return s.load(sctx, cartID)
}

// UpdateCartItem sets the quantity of one line in the user's cart. The price captured
// when the line was added is kept.
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (View, error) {
	if quantity < 1 {
		return View{}, apperrors.InvalidOperation("quantity must be at least 1")
	}

	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var cartID string
	err := s.store.WithTx(sctx, func(tx *store.Store) error {
		c, err := tx.FindCartByUserID(sctx, userID)
		if err != nil {
			return store.AsAppError(err, itemNotFound(itemID))
		}
		cartID = c.ID
		item, err := tx.FindCartItem(sctx, c.ID, itemID)
		if err != nil {
			return store.AsAppError(err, itemNotFound(itemID))
		}
		p, err := tx.FindProductByID(sctx, item.ProductID)
		if err != nil {
			return err
		}
		qty, err := available(sctx, tx, p)
		if err != nil {
			return err
		}
		if qty < quantity {
			return errInsufficient
		}
		if err := tx.SetCartItemQuantity(sctx, item.ID, quantity); err != nil {
			return err
		}
		return tx.TouchCart(sctx, c.ID)
	})
	if err != nil {
		return View{}, store.AsAppError(err, nil)
	}
	return s.load(sctx, cartID)
}

// RemoveFromCart deletes one line from the user's cart.
func (s *Service) RemoveFromCart(ctx context.Context, userID, itemID string) (View, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	c, err := s.store.FindCartByUserID(ctx, userID)
	if err != nil {
		return View{}, store.AsAppError(err, itemNotFound(itemID))
	}
	if err := s.store.DeleteCartItem(ctx, c.ID, itemID); err != nil {
		return View{}, store.AsAppError(err, itemNotFound(itemID))
	}
	return s.load(ctx, c.ID)
}

// ClearCart empties the user's cart and returns the empty cart.
func (s *Service) ClearCart(ctx context.Context, userID string) (View, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	c, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return View{}, store.AsAppError(err, nil)
	}
	n, err := s.store.ClearCart(ctx, c.ID)
	if err != nil {
		return View{}, store.AsAppError(err, nil)
	}
	s.log.Info("Cart cleared", zap.String("cart_id", c.ID), zap.Int64("items", n))
	return s.load(ctx, c.ID)
}

// GetCartByID is the admin read of any cart.
func (s *Service) GetCartByID(ctx context.Context, cartID string) (View, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	return s.load(ctx, cartID)
}

// GetAllCarts lists every cart with its owner.
func (s *Service) GetAllCarts(ctx context.Context) ([]View, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	carts, err := s.store.ListCarts(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	views := make([]View, len(carts))
	for i := range carts {
		views[i] = newView(&carts[i])
	}
	return views, nil
}
