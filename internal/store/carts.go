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

// withCartItems preloads each line with the product snapshot the cart view needs.
func withCartItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Category").
		Preload("Items.Product.Sizes", orderedSizes).
		Preload("Items.Product.Colors").
		Preload("Items.Product.Images", orderedImages).
		Preload("Items.Product.Parent").
		Preload("Items.Product.Parent.Sizes", orderedSizes).
		Preload("Items.Product.Parent.Colors").
		Preload("Items.Product.Parent.Images", orderedImages)
}

// FindCartByUserID returns the bare cart row of a user.
func (s *Store) FindCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	return findCartByUserID(s.conn(ctx), userID)
}

func findCartByUserID(db *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := db.First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return &cart, nil
}

// GetOrCreateCart finds a user's cart or creates an empty one.
// Concurrent first calls converge on the same row through the unique user_id index.
func (s *Store) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	// 1. Try to find an existing cart
	cart, err := s.FindCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// 2. If no cart exists, create one
	cart = &models.Cart{UserID: userID}
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cart)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create cart: %w", translate(res.Error))
	}
	if res.RowsAffected == 1 {
		return cart, nil
	}

	// 3. Another request created it first; read past the snapshot
	return findCartByUserID(sharedLock(s.conn(ctx)), userID)
}

// LoadCart returns a cart with every line resolved to its product.
func (s *Store) LoadCart(ctx context.Context, cartID string) (*models.Cart, error) {
	var cart models.Cart
	if err := withCartItems(s.conn(ctx)).First(&cart, "id = ?", cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// ListCarts returns every cart with its owner and lines, most recently touched first.
func (s *Store) ListCarts(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	err := withCartItems(s.conn(ctx)).Preload("User").Order("updated_at DESC").Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	return carts, nil
}

// FindCartItem returns an item only when it belongs to cartID.
func (s *Store) FindCartItem(ctx context.Context, cartID, itemID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.conn(ctx).First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return &item, nil
}

// AddCartLine inserts item, or adds its quantity to the line of the same cart that
// already holds that product and size. An existing line keeps its captured price.
func (s *Store) AddCartLine(ctx context.Context, item *models.CartItem) error {
	item.LineKey = models.CartLineKey(item.ProductID, item.Size)
	err := s.conn(ctx).Omit("Product").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "line_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", translate(err))
	}
	return nil
}

func (s *Store) SetCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	err := s.conn(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// DeleteCartItem removes one line from cartID; ErrNotFound when nothing matched.
func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID string) error {
	res := s.conn(ctx).Delete(&models.CartItem{}, "id = ? AND cart_id = ?", itemID, cartID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart removes every line of cartID and returns how many were deleted.
func (s *Store) ClearCart(ctx context.Context, cartID string) (int64, error) {
	res := s.conn(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// TouchCart bumps updated_at so admin listings show recent activity first.
func (s *Store) TouchCart(ctx context.Context, cartID string) error {
	err := s.conn(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}
