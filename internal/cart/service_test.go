package cart

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/cache"
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
	cache   *cache.Memory
	carts   *Service
	user    *models.User
	catID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.New(dbtest.New(t))
	f := &fixture{st: st, cache: cache.NewMemory()}
	f.catalog = catalog.NewService(st, storagetest.New(), f.cache, 5*time.Second, zap.NewNop())
	f.carts = NewService(st, f.catalog, 5*time.Second, zap.NewNop())

	c, err := catalog.NewCategoryService(st, time.Second, zap.NewNop()).
		CreateCategory(ctx, catalog.CreateCategoryInput{Name: "Apparel"})
	require.NoError(t, err)
	f.catID = c.ID

	f.user = &models.User{Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, st.CreateUser(ctx, f.user))
	return f
}

func strPtr(s string) *string { return &s }

func (f *fixture) shirt(t *testing.T, quantity int) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateBase(context.Background(), catalog.CreateBaseInput{
		Title:      "Shirt",
		Name:       "shirt",
		Quantity:   quantity,
		CategoryID: f.catID,
		Sizes:      []catalog.SizeInput{{Size: "S", Price: 20}, {Size: "M", Price: 25}},
		Colors:     []catalog.ColorInput{{Color: "Red"}},
	}, nil)
	require.NoError(t, err)
	return p
}

func (f *fixture) shoe(t *testing.T, quantity int) (*models.Product, *models.Product) {
	t.Helper()
	ctx := context.Background()
	base, err := f.catalog.CreateBase(ctx, catalog.CreateBaseInput{
		Title: "Shoe", Name: "shoe", CategoryID: f.catID, ProductType: models.ProductTypeVariantBased,
	}, nil)
	require.NoError(t, err)
	v, err := f.catalog.CreateVariant(ctx, base.ID, catalog.CreateVariantInput{
		Title: "Shoe 9", Name: "shoe-9", Quantity: quantity, Price: 50, Size: "9",
	}, nil)
	require.NoError(t, err)
	return base, v
}

func TestGetOrCreateCartIsEmptyAndStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	assert.Zero(t, first.Subtotal)

	second, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddStandaloneMaterializesVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 10)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	line := view.Items[0]
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 25.0, line.Price)
	assert.Equal(t, "M", *line.Size)
	require.NotNil(t, line.Product)
	assert.Equal(t, "Shirt - M", line.Product.Title)
	assert.Equal(t, models.RecordTypeVariant, line.Product.RecordType)
	assert.Equal(t, shirt.ID, *line.Product.ParentProductID)
	assert.Equal(t, 25.0, view.Subtotal)
	assert.Equal(t, 1, view.TotalItems)
}

func TestAddMergesLinesAtFirstPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 10)

	_, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Quantity: 2})
	require.NoError(t, err)

	sizes := []catalog.SizeInput{{Size: "S", Price: 20}, {Size: "M", Price: 99}}
	_, err = f.catalog.Update(ctx, shirt.ID, catalog.UpdateInput{Sizes: &sizes}, nil)
	require.NoError(t, err)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 25.0, view.Items[0].Price)
	assert.Equal(t, 125.0, view.Subtotal)
}

func TestStandaloneStockComesFromParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Quantity: 5})
	require.NoError(t, err)
	variantID := view.Items[0].ProductID

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("S"), Quantity: 6})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	v, err := f.st.FindProductByID(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Quantity)

	// The variant id itself is purchasable and still limited by the parent.
	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: variantID, Quantity: 6})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	view, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: variantID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, view.Items[0].Quantity)
}

func TestAddRejectsNonPurchasable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	shoe, _ := f.shoe(t, 3)

	_, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shoe.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	assert.Contains(t, err.Error(), "variant")

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("XL"), Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: "missing", Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Quantity: 0})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	view, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestAddVariantBasedVariantUsesOwnStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, nine := f.shoe(t, 3)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: nine.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 50.0, view.Items[0].Price)
	assert.Equal(t, "9", *view.Items[0].Size)

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: nine.ID, Quantity: 4})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestOrphanedStandaloneVariantCannotBeReadded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("S"), Quantity: 1})
	require.NoError(t, err)
	variantID := view.Items[0].ProductID

	sizes := []catalog.SizeInput{{Size: "M", Price: 25}}
	_, err = f.catalog.Update(ctx, shirt.ID, catalog.UpdateInput{Sizes: &sizes}, nil)
	require.NoError(t, err)

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: variantID, Quantity: 1})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	// The existing line survives.
	view, err = f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 4)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("S"), Quantity: 1})
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = f.carts.UpdateCartItem(ctx, f.user.ID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, 20.0, view.Items[0].Price)

	_, err = f.carts.UpdateCartItem(ctx, f.user.ID, itemID, 5)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.carts.UpdateCartItem(ctx, f.user.ID, itemID, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.carts.UpdateCartItem(ctx, f.user.ID, "missing", 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	other := &models.User{Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, f.st.CreateUser(ctx, other))
	_, err = f.carts.GetOrCreateCart(ctx, other.ID)
	require.NoError(t, err)
	_, err = f.carts.UpdateCartItem(ctx, other.ID, itemID, 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 10)

	_, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("S"), Quantity: 1})
	require.NoError(t, err)
	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("M"), Color: strPtr("red"), Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	view, err = f.carts.RemoveFromCart(ctx, f.user.ID, view.Items[0].ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	_, err = f.carts.RemoveFromCart(ctx, f.user.ID, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	view, err = f.carts.ClearCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalItems)
}

func TestAdminReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, nine := f.shoe(t, 3)

	view, err := f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: nine.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := f.carts.GetCartByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.UserID)

	all, err := f.carts.GetAllCarts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)
	assert.Equal(t, "buyer@example.com", all[0].User.Email)

	_, err = f.carts.GetCartByID(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMaterializingInvalidatesCatalogCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 3)

	got, err := f.catalog.GetProduct(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Variants)

	_, err = f.carts.AddToCart(ctx, f.user.ID, AddInput{ProductID: shirt.ID, Size: strPtr("S"), Quantity: 1})
	require.NoError(t, err)

	got, err = f.catalog.GetProduct(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Len(t, got.Variants, 1)
}
