// Package dashboard aggregates the counters behind the admin dashboard.
package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentWindow      = 7 * 24 * time.Hour
	lowStockThreshold = 10
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

type Overview struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalRegularUsers int64 `json:"totalRegularUsers"`
	TotalAdmins       int64 `json:"totalAdmins"`
	TotalProducts     int64 `json:"totalProducts"`
	TotalCategories   int64 `json:"totalCategories"`
	TotalPromotions   int64 `json:"totalPromotions"`
	ActivePromotions  int64 `json:"activePromotions"`
	TotalCarts        int64 `json:"totalCarts"`
}

type CategoryCount struct {
	CategoryName string `json:"categoryName"`
	ProductCount int64  `json:"productCount"`
}

type ProductStats struct {
	TotalProducts    int64           `json:"totalProducts"`
	RecentProducts   int64           `json:"recentProducts"`
	LowStockProducts int64           `json:"lowStockProducts"`
	ByCategory       []CategoryCount `json:"byCategory"`
}

type UserStats struct {
	TotalUsers        int64 `json:"totalUsers"`
	RecentUsers       int64 `json:"recentUsers"`
	TotalAdmins       int64 `json:"totalAdmins"`
	TotalRegularUsers int64 `json:"totalRegularUsers"`
}

type CartStats struct {
	TotalCarts          int64   `json:"totalCarts"`
	TotalCartItems      int64   `json:"totalCartItems"`
	TotalCartValue      float64 `json:"totalCartValue"`
	AverageCartValue    float64 `json:"averageCartValue"`
	AverageItemsPerCart float64 `json:"averageItemsPerCart"`
}

type Stats struct {
	Overview Overview     `json:"overview"`
	Products ProductStats `json:"products"`
	Users    UserStats    `json:"users"`
	Cart     CartStats    `json:"cart"`
}

// Counts is the short overview: users, base products and categories.
type Counts struct {
	Users      int64 `json:"users"`
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
}

type RecentUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type RecentProduct struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Quantity     int       `json:"quantity"`
	CategoryName string    `json:"categoryName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RecentPromotion struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	IsActive       bool      `json:"isActive"`
	AppearanceDate time.Time `json:"appearanceDate"`
	CloseDate      time.Time `json:"closeDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Activity struct {
	RecentUsers      []RecentUser      `json:"recentUsers"`
	RecentProducts   []RecentProduct   `json:"recentProducts"`
	RecentPromotions []RecentPromotion `json:"recentPromotions"`
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Stats runs every counter concurrently; the first failure cancels the rest.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		out        Stats
		categories []store.CategoryProductCount
		since      = s.now().Add(-recentWindow)
	)
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}
	count(&out.Overview.TotalUsers, func(ctx context.Context) (int64, error) { return s.store.CountUsers(ctx, "") })
	count(&out.Overview.TotalAdmins, func(ctx context.Context) (int64, error) { return s.store.CountUsers(ctx, models.RoleAdmin) })
	count(&out.Users.RecentUsers, func(ctx context.Context) (int64, error) { return s.store.CountUsersSince(ctx, since) })
	count(&out.Overview.TotalProducts, s.store.CountBaseProducts)
	count(&out.Products.RecentProducts, func(ctx context.Context) (int64, error) { return s.store.CountBaseProductsSince(ctx, since) })
	count(&out.Products.LowStockProducts, func(ctx context.Context) (int64, error) { return s.store.CountLowStock(ctx, lowStockThreshold) })
	count(&out.Overview.TotalCategories, s.store.CountCategories)
	count(&out.Overview.TotalPromotions, func(ctx context.Context) (int64, error) { return s.store.CountPromotions(ctx, false) })
	count(&out.Overview.ActivePromotions, func(ctx context.Context) (int64, error) { return s.store.CountPromotions(ctx, true) })
	g.Go(func() error {
		var err error
		categories, err = s.store.ProductsByCategory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Cart, err = s.cartStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, store.AsAppError(err, nil)
	}

	out.Overview.TotalRegularUsers = out.Overview.TotalUsers - out.Overview.TotalAdmins
	out.Overview.TotalCarts = out.Cart.TotalCarts
	out.Products.TotalProducts = out.Overview.TotalProducts
	out.Products.ByCategory = make([]CategoryCount, 0, len(categories))
	for _, c := range categories {
		out.Products.ByCategory = append(out.Products.ByCategory, CategoryCount{CategoryName: c.Name, ProductCount: c.ProductCount})
	}
	out.Users.TotalUsers = out.Overview.TotalUsers
	out.Users.TotalAdmins = out.Overview.TotalAdmins
	out.Users.TotalRegularUsers = out.Overview.TotalRegularUsers
	return &out, nil
}

func (s *Service) Overview(ctx context.Context) (*Counts, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var out Counts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Users, err = s.store.CountUsers(gctx, ""); return })
	g.Go(func() (err error) { out.Products, err = s.store.CountBaseProducts(gctx); return })
	g.Go(func() (err error) { out.Categories, err = s.store.CountCategories(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return &out, nil
}

// ProductsByCategory lists every category by name with its base product count.
func (s *Service) ProductsByCategory(ctx context.Context) ([]store.CategoryProductCount, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	out, err := s.store.ProductsByCategory(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return out, nil
}

// RecentActivity returns the ten newest users and products and the five newest promotions.
func (s *Service) RecentActivity(ctx context.Context) (*Activity, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	var (
		users      []models.User
		products   []models.Product
		promotions []models.Promotion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = s.store.RecentUsers(gctx, 10); return })
	g.Go(func() (err error) { products, err = s.store.RecentProducts(gctx, 10); return })
	g.Go(func() (err error) { promotions, err = s.store.RecentPromotions(gctx, 5); return })
	if err := g.Wait(); err != nil {
		return nil, store.AsAppError(err, nil)
	}

	out := &Activity{
		RecentUsers:      make([]RecentUser, 0, len(users)),
		RecentProducts:   make([]RecentProduct, 0, len(products)),
		RecentPromotions: make([]RecentPromotion, 0, len(promotions)),
	}
	for _, u := range users {
		out.RecentUsers = append(out.RecentUsers, RecentUser{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	for _, p := range products {
		rp := RecentProduct{ID: p.ID, Name: p.Name, Title: p.Title, Quantity: p.Quantity, CreatedAt: p.CreatedAt}
		if p.Category != nil {
			rp.CategoryName = p.Category.Name
		}
		out.RecentProducts = append(out.RecentProducts, rp)
	}
	for _, p := range promotions {
		out.RecentPromotions = append(out.RecentPromotions, RecentPromotion{
			ID: p.ID, Title: p.Title, IsActive: p.IsActive,
			AppearanceDate: p.AppearanceDate, CloseDate: p.CloseDate, CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) CartStatistics(ctx context.Context) (*CartStats, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	out, err := s.cartStats(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return &out, nil
}

func (s *Service) cartStats(ctx context.Context) (CartStats, error) {
	carts, err := s.store.CountCarts(ctx)
	if err != nil {
		return CartStats{}, err
	}
	lines, err := s.store.SumCartLines(ctx)
	if err != nil {
		return CartStats{}, err
	}
	out := CartStats{
		TotalCarts:     carts,
		TotalCartItems: lines.ItemCount,
		TotalCartValue: round2(lines.LineValue),
	}
	if carts > 0 {
		out.AverageCartValue = round2(lines.LineValue / float64(carts))
		out.AverageItemsPerCart = round2(float64(lines.ItemCount) / float64(carts))
	}
	return out, nil
}
