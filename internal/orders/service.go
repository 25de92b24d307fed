// Package orders turns a user's cart into an order and takes the stock it consumes.
package orders

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

// Invalidator drops cached catalog reads once stock has moved.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

type Service struct {
	store   *store.Store
	cache   Invalidator
	timeout time.Duration
	log     *zap.Logger
}

func NewService(st *store.Store, inv Invalidator, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, cache: inv, timeout: timeout, log: log}
}

var errEmptyCart = apperrors.InvalidOperation("Cart is empty. Cannot create order from empty cart.")

func orderNotFound(id string) *apperrors.Error {
	return apperrors.NotFound("Order with ID %s not found", id)
}

// stockHolder is the row whose quantity a line consumes: the parent of a STANDALONE
// variant, the variant itself otherwise.
func stockHolder(p *models.Product) string {
	if p.ProductType == models.ProductTypeStandalone && p.ParentProductID != nil {
		return *p.ParentProductID
	}
	return p.ID
}

// CreateOrderFromCart places an order for everything in the user's cart, takes the
// stock, snapshots the lines and empties the cart, all in one transaction.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID string) (*models.Order, error) {
	sctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		order *models.Order
		stale []string
	)
	err := s.store.WithTx(sctx, func(tx *store.Store) error {
		// 1. --- Load the cart ---
		c, err := tx.FindCartByUserID(sctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return errEmptyCart
		}
		if err != nil {
			return err
		}
		if c, err = tx.LoadCart(sctx, c.ID); err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return errEmptyCart
		}

		// 2. --- Sum demand per stock row ---
		demand := map[string]int{}
		for _, item := range c.Items {
			if item.Product == nil {
				return apperrors.NotFound("Product with ID %s not found", item.ProductID)
			}
			demand[stockHolder(item.Product)] += item.Quantity
			stale = append(stale, item.ProductID)
		}
		holders := make([]string, 0, len(demand))
		for id := range demand {
			holders = append(holders, id)
		}
		// Lock in a fixed order so concurrent checkouts cannot deadlock.
		sort.Strings(holders)

		// 3. --- Take stock ---
		for _, id := range holders {
			row, err := tx.LockProduct(sctx, id)
			if err != nil {
				return err
			}
			n := demand[id]
			if row.Quantity < n {
				return apperrors.InvalidOperation("Insufficient product quantity for %s", row.Title)
			}
			ok, err := tx.DecrementStock(sctx, id, n)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.InvalidOperation("Insufficient product quantity for %s", row.Title)
			}
			soldOut, err := tx.RefreshSoldOut(sctx, id)
			if err != nil {
				return err
			}
			stale = append(stale, id)
			if row.ProductType == models.ProductTypeStandalone && row.RecordType == models.RecordTypeBaseProduct {
				// Every sibling's soldOut moves with the parent, not only the ordered ones.
				siblings, err := tx.VariantIDs(sctx, id)
				if err != nil {
					return err
				}
				if err := tx.SetVariantsSoldOut(sctx, id, soldOut); err != nil {
					return err
				}
				stale = append(stale, siblings...)
			}
		}

		// 4. --- Snapshot the lines ---
		o := &models.Order{
			UserID: userID,
			CartID: &c.ID,
			Status: models.OrderStatusPending,
			Items:  make([]models.OrderItem, 0, len(c.Items)),
		}
		for _, item := range c.Items {
			o.Items = append(o.Items, models.OrderItem{
				ProductID: item.ProductID,
				Size:      item.Size,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
			o.TotalAmount += item.LineTotal()
		}
		if err := tx.CreateOrder(sctx, o); err != nil {
			return err
		}
		if _, err := tx.ClearCart(sctx, c.ID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}

	s.cache.Invalidate(ctx, stale...)
	s.log.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount),
	)
	return s.GetOrder(ctx, order.ID)
}

// ListMyOrders returns the user's orders, newest first.
func (s *Service) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	o, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, store.AsAppError(err, orderNotFound(id))
	}
	return o, nil
}

// GetUserOrder returns an order only to the user who placed it.
func (s *Service) GetUserOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, orderNotFound(id)
	}
	return o, nil
}

// ListOrders returns every order with its owner, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return orders, nil
}
