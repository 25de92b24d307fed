package orders

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/cache"
	"github.com/01moynul/storefront-api/internal/cart"
	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/01moynul/storefront-api/internal/database/dbtest"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/storage/storagetest"
	"github.com/01moynul/storefront-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	st      *store.Store
	catalog *catalog.Service
	carts   *cart.Service
	orders  *Service
	user    *models.User
	shirt   *models.Product
	nine    *models.Product
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.New(dbtest.New(t))
	cat := catalog.NewService(st, storagetest.New(), cache.NewMemory(), 5*time.Second, zap.NewNop())
	f := &fixture{
		st:      st,
		catalog: cat,
		carts:   cart.NewService(st, cat, 5*time.Second, zap.NewNop()),
		orders:  NewService(st, cat, 5*time.Second, zap.NewNop()),
	}

	category, err := catalog.NewCategoryService(st, time.Second, zap.NewNop()).
		CreateCategory(ctx, catalog.CreateCategoryInput{Name: "Apparel"})
	require.NoError(t, err)

	f.shirt, err = cat.CreateBase(ctx, catalog.CreateBaseInput{
		Title: "Shirt", Name: "shirt", Quantity: 5, CategoryID: category.ID,
		Sizes: []catalog.SizeInput{{Size: "S", Price: 20}, {Size: "M", Price: 25}},
	}, nil)
	require.NoError(t, err)

	shoe, err := cat.CreateBase(ctx, catalog.CreateBaseInput{
		Title: "Shoe", Name: "shoe", CategoryID: category.ID, ProductType: models.ProductTypeVariantBased,
	}, nil)
	require.NoError(t, err)
	f.nine, err = cat.CreateVariant(ctx, shoe.ID, catalog.CreateVariantInput{
		Title: "Shoe 9", Name: "shoe-9", Quantity: 3, Price: 50, Size: "9",
	}, nil)
	require.NoError(t, err)

	f.user = &models.User{Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, st.CreateUser(ctx, f.user))
	return f
}

func TestCreateOrderFromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.shirt.ID, Size: strPtr("M"), Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.shirt.ID, Size: strPtr("S"), Quantity: 3})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.nine.ID, Quantity: 1})
	require.NoError(t, err)

	o, err := f.orders.CreateOrderFromCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Len(t, o.Items, 3)
	assert.Equal(t, 2*25.0+3*20.0+50.0, o.TotalAmount)

	// Both shirt lines draw on the parent's stock.
	shirt, err := f.st.FindProductByID(ctx, f.shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, shirt.Quantity)
	assert.True(t, shirt.SoldOut)

	n, err := f.st.CountVariants(ctx, f.shirt.ID, "")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	for _, item := range o.Items {
		if item.ProductID == f.nine.ID {
			continue
		}
		v, err := f.st.FindProductByID(ctx, item.ProductID)
		require.NoError(t, err)
		assert.True(t, v.SoldOut)
		assert.Equal(t, 0, v.Quantity)
	}

	nine, err := f.st.FindProductByID(ctx, f.nine.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, nine.Quantity)
	assert.False(t, nine.SoldOut)

	view, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.CreateOrderFromCart(ctx, f.user.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.orders.CreateOrderFromCart(ctx, f.user.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestCreateOrderRollsBackOnShortStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.nine.ID, Quantity: 2})
	require.NoError(t, err)
	// Each add is checked on its own, so the merged line can exceed stock.
	_, err = f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.nine.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.shirt.ID, Size: strPtr("M"), Quantity: 1})
	require.NoError(t, err)

	_, err = f.orders.CreateOrderFromCart(ctx, f.user.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	shirt, err := f.st.FindProductByID(ctx, f.shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, shirt.Quantity)
	nine, err := f.st.FindProductByID(ctx, f.nine.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, nine.Quantity)

	view, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	mine, err := f.orders.ListMyOrders(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestOrderReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.nine.ID, Quantity: 1})
	require.NoError(t, err)
	o, err := f.orders.CreateOrderFromCart(ctx, f.user.ID)
	require.NoError(t, err)

	mine, err := f.orders.ListMyOrders(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.ID, mine[0].ID)

	got, err := f.orders.GetUserOrder(ctx, f.user.ID, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Shoe 9", got.Items[0].Product.Title)

	_, err = f.orders.GetUserOrder(ctx, "someone-else", o.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	_, err = f.orders.GetOrder(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	all, err := f.orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)
	assert.Equal(t, f.user.Email, all[0].User.Email)
}

func TestCreateOrderRefreshesCachedSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// S is materialized and read but never ordered.
	small, err := f.catalog.GetOrCreateStandaloneVariant(ctx, f.shirt.ID, "S", nil)
	require.NoError(t, err)
	cached, err := f.catalog.GetProduct(ctx, small.ID)
	require.NoError(t, err)
	require.False(t, cached.SoldOut)

	_, err = f.carts.AddToCart(ctx, f.user.ID, cart.AddInput{ProductID: f.shirt.ID, Size: strPtr("M"), Quantity: 5})
	require.NoError(t, err)
	_, err = f.orders.CreateOrderFromCart(ctx, f.user.ID)
	require.NoError(t, err)

	got, err := f.catalog.GetProduct(ctx, small.ID)
	require.NoError(t, err)
	assert.True(t, got.SoldOut)

	base, err := f.catalog.GetProduct(ctx, f.shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, base.Quantity)
}
