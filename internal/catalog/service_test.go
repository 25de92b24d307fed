package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/cache"
	"github.com/01moynul/storefront-api/internal/database/dbtest"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/storage"
	"github.com/01moynul/storefront-api/internal/storage/storagetest"
	"github.com/01moynul/storefront-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	st       *store.Store
	files    *storagetest.Fake
	cache    *cache.Memory
	svc      *Service
	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(dbtest.New(t))
	f := &fixture{st: st, files: storagetest.New(), cache: cache.NewMemory()}
	f.svc = NewService(st, f.files, f.cache, 5*time.Second, zap.NewNop())

	cats := NewCategoryService(st, 5*time.Second, zap.NewNop())
	c, err := cats.CreateCategory(context.Background(), CreateCategoryInput{Name: "Apparel"})
	require.NoError(t, err)
	f.category = c
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func (f *fixture) shirt(t *testing.T, quantity int) *models.Product {
	t.Helper()
	p, err := f.svc.CreateBase(context.Background(), CreateBaseInput{
		Title:      "Shirt",
		Name:       "shirt",
		Quantity:   quantity,
		CategoryID: f.category.ID,
		Sizes:      []SizeInput{{Size: "S", Price: 20}, {Size: "M", Price: 25}},
		Colors:     []ColorInput{{Color: "Red"}, {Color: "Blue"}},
	}, nil)
	require.NoError(t, err)
	return p
}

func (f *fixture) shoe(t *testing.T) (*models.Product, *models.Product) {
	t.Helper()
	ctx := context.Background()
	base, err := f.svc.CreateBase(ctx, CreateBaseInput{
		Title:       "Shoe",
		Name:        "shoe",
		CategoryID:  f.category.ID,
		ProductType: models.ProductTypeVariantBased,
	}, nil)
	require.NoError(t, err)
	v, err := f.svc.CreateVariant(ctx, base.ID, CreateVariantInput{
		Title:    "Shoe 9",
		Name:     "shoe-9",
		Quantity: 3,
		Price:    50,
		Size:     "9",
	}, nil)
	require.NoError(t, err)
	return base, v
}

func TestCreateStandaloneBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateBase(ctx, CreateBaseInput{
		Title:      "Shirt",
		Name:       "shirt",
		Quantity:   0,
		CategoryID: f.category.ID,
		Sizes:      []SizeInput{{Size: "M", Price: 25}, {Size: "S", Price: 20}},
	}, []storage.File{{Filename: "front.png", Data: []byte("a")}, {Filename: "back.png", Data: []byte("b")}})
	require.NoError(t, err)

	assert.Equal(t, models.ProductTypeStandalone, p.ProductType)
	assert.Equal(t, models.RecordTypeBaseProduct, p.RecordType)
	assert.True(t, p.SoldOut)
	assert.Nil(t, p.ParentProductID)
	require.NotNil(t, p.Category)
	assert.Equal(t, "apparel", p.Category.Slug)
	require.Len(t, p.Sizes, 2)
	assert.Equal(t, "M", p.Sizes[0].Size)
	require.Len(t, p.Images, 2)
	assert.Equal(t, 0, p.Images[0].Order)
	assert.Equal(t, 2, f.files.Count())
}

func TestCreateBaseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBase(ctx, CreateBaseInput{Title: "Shirt", Name: "shirt", CategoryID: "missing"}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = f.svc.CreateBase(ctx, CreateBaseInput{
		Title: "Shirt", Name: "shirt", CategoryID: f.category.ID,
		Sizes: []SizeInput{{Size: "M", Price: 1}, {Size: "M", Price: 2}},
	}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.svc.CreateBase(ctx, CreateBaseInput{Title: "Shirt", Name: "shirt", CategoryID: f.category.ID, Quantity: -1}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestCreateBaseUploadFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.files.UploadErr = errors.New("bucket offline")

	_, err := f.svc.CreateBase(context.Background(), CreateBaseInput{
		Title: "Shirt", Name: "shirt", CategoryID: f.category.ID,
	}, []storage.File{{Filename: "a.jpg", Data: []byte("a")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	products, err := f.svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGetOrCreateStandaloneVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)

	first, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", strPtr("red"))
	require.NoError(t, err)
	second, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", strPtr("Red"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Shirt - M - Red", first.Title)
	assert.Equal(t, "shirt-M-Red", first.Name)
	assert.Equal(t, 0, first.Quantity)
	require.NotNil(t, first.Price)
	assert.Equal(t, 25.0, *first.Price)
	assert.Equal(t, "Red", *first.Color)
	assert.Equal(t, f.category.ID, first.CategoryID)
	assert.False(t, first.SoldOut)

	n, err := f.st.CountVariants(ctx, shirt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	noColor, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, noColor.ID)
	assert.Equal(t, "Shirt - M", noColor.Title)
}

func TestGetOrCreateStandaloneVariantRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	shoe, _ := f.shoe(t)

	_, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "XL", nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	assert.Contains(t, err.Error(), `"XL"`)

	_, err = f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", strPtr("Green"))
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	assert.Contains(t, err.Error(), `"Green"`)

	_, err = f.svc.GetOrCreateStandaloneVariant(ctx, shoe.ID, "9", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.svc.GetOrCreateStandaloneVariant(ctx, "missing", "M", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCreateVariantRequiresVariantBasedParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 1)

	_, err := f.svc.CreateVariant(ctx, shirt.ID, CreateVariantInput{Title: "x", Name: "x", Size: "M"}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.svc.CreateVariant(ctx, "missing", CreateVariantInput{Title: "x", Name: "x", Size: "M"}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	shoe, v := f.shoe(t)
	assert.Equal(t, shoe.CategoryID, v.CategoryID)
	assert.Equal(t, *v.ParentProductID, shoe.ID)
	assert.False(t, v.SoldOut)

	_, err = f.svc.CreateVariant(ctx, v.ID, CreateVariantInput{Title: "x", Name: "x", Size: "10"}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestRemoveLastVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shoe, nine := f.shoe(t)

	err := f.svc.Remove(ctx, nine.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	ten, err := f.svc.CreateVariant(ctx, shoe.ID, CreateVariantInput{Title: "Shoe 10", Name: "shoe-10", Quantity: 1, Price: 55, Size: "10"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, nine.ID))
	n, err := f.st.CountVariants(ctx, shoe.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = f.svc.Remove(ctx, ten.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	err = f.svc.Remove(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestRemoveBaseDeletesFamilyImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt, err := f.svc.CreateBase(ctx, CreateBaseInput{
		Title: "Shirt", Name: "shirt", CategoryID: f.category.ID, Quantity: 2,
		Sizes: []SizeInput{{Size: "M", Price: 25}},
	}, []storage.File{{Filename: "a.jpg", Data: []byte("a")}})
	require.NoError(t, err)
	_, err = f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, shirt.ID))
	assert.Equal(t, 0, f.files.Count())
	n, err := f.st.CountVariants(ctx, shirt.ID, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemoveReferencedByOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shoe, nine := f.shoe(t)
	_, err := f.svc.CreateVariant(ctx, shoe.ID, CreateVariantInput{Title: "Shoe 10", Name: "shoe-10", Price: 55, Size: "10"}, nil)
	require.NoError(t, err)

	u := &models.User{Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, f.st.CreateUser(ctx, u))
	require.NoError(t, f.st.CreateOrder(ctx, &models.Order{
		UserID: u.ID, Status: models.OrderStatusPending, TotalAmount: 50,
		Items: []models.OrderItem{{ProductID: nine.ID, Quantity: 1, Price: 50}},
	}))

	err = f.svc.Remove(ctx, nine.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestUpdateRecomputesSoldOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	variant, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "S", nil)
	require.NoError(t, err)

	p, err := f.svc.Update(ctx, shirt.ID, UpdateInput{Quantity: intPtr(0)}, nil)
	require.NoError(t, err)
	assert.True(t, p.SoldOut)
	v, err := f.st.FindProductByID(ctx, variant.ID)
	require.NoError(t, err)
	assert.True(t, v.SoldOut)

	p, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Quantity: intPtr(4)}, nil)
	require.NoError(t, err)
	assert.False(t, p.SoldOut)
	assert.Equal(t, 4, p.Quantity)

	// Patching other fields keeps soldOut tied to the stored quantity.
	p, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Title: strPtr("Tee")}, nil)
	require.NoError(t, err)
	assert.False(t, p.SoldOut)
	assert.Equal(t, "Tee", p.Title)

	_, shoeNine := f.shoe(t)
	p, err = f.svc.Update(ctx, shoeNine.ID, UpdateInput{Quantity: intPtr(0)}, nil)
	require.NoError(t, err)
	assert.True(t, p.SoldOut)
}

func TestUpdateReplacesSizesWholesale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)

	sizes := []SizeInput{{Size: "L", Price: 30}}
	p, err := f.svc.Update(ctx, shirt.ID, UpdateInput{Sizes: &sizes}, nil)
	require.NoError(t, err)
	require.Len(t, p.Sizes, 1)
	assert.Equal(t, "L", p.Sizes[0].Size)
	assert.Len(t, p.Colors, 2)

	empty := []ColorInput{}
	p, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Colors: &empty}, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Colors)

	_, err = f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestUpdateReplacesImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateBase(ctx, CreateBaseInput{Title: "Shirt", Name: "shirt", CategoryID: f.category.ID},
		[]storage.File{{Filename: "old.jpg", Data: []byte("old")}})
	require.NoError(t, err)
	oldURL := p.Images[0].URL

	p, err = f.svc.Update(ctx, p.ID, UpdateInput{Note: strPtr("restocked")}, nil)
	require.NoError(t, err)
	require.Len(t, p.Images, 1)
	assert.Equal(t, oldURL, p.Images[0].URL)

	p, err = f.svc.Update(ctx, p.ID, UpdateInput{}, []storage.File{
		{Filename: "new1.png", Data: []byte("1")},
		{Filename: "new2.png", Data: []byte("2")},
	})
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.NotEqual(t, oldURL, p.Images[0].URL)
	assert.Contains(t, f.files.Deleted, oldURL)
	assert.Equal(t, 2, f.files.Count())
}

func TestUpdateImageDeleteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateBase(ctx, CreateBaseInput{Title: "Shirt", Name: "shirt", CategoryID: f.category.ID},
		[]storage.File{{Filename: "old.jpg", Data: []byte("old")}})
	require.NoError(t, err)
	oldURL := p.Images[0].URL

	f.files.DeleteErr = errors.New("delete refused")
	_, err = f.svc.Update(ctx, p.ID, UpdateInput{Title: strPtr("Renamed")}, []storage.File{{Filename: "new.jpg", Data: []byte("n")}})
	require.Error(t, err)

	got, err := f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Title)
	require.Len(t, got.Images, 1)
	assert.Equal(t, oldURL, got.Images[0].URL)
}

func TestUpdateShapeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	variant, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)
	_, shoeNine := f.shoe(t)

	vb := models.ProductTypeVariantBased
	_, err = f.svc.Update(ctx, shoeNine.ID, UpdateInput{ProductType: &vb}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	// The shirt family already holds a variant, so it cannot switch type.
	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{ProductType: &vb}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = f.svc.Update(ctx, variant.ID, UpdateInput{Quantity: intPtr(3)}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Price: new(float64)}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{CategoryID: strPtr("missing")}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = f.svc.Update(ctx, "missing", UpdateInput{}, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	plain, err := f.svc.CreateBase(ctx, CreateBaseInput{Title: "Cap", Name: "cap", CategoryID: f.category.ID}, nil)
	require.NoError(t, err)
	p, err := f.svc.Update(ctx, plain.ID, UpdateInput{ProductType: &vb}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProductTypeVariantBased, p.ProductType)
}

func TestUpdateCategoryMovesVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	variant, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)

	other, err := NewCategoryService(f.st, time.Second, zap.NewNop()).
		CreateCategory(ctx, CreateCategoryInput{Name: "Sale"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{CategoryID: &other.ID}, nil)
	require.NoError(t, err)
	v, err := f.st.FindProductByID(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, v.CategoryID)
}

func TestReadsAreCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)

	list, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got, err := f.svc.GetProduct(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Title)
	assert.Equal(t, 2, f.cache.Len())

	cached, err := f.svc.GetProduct(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, cached.ID)
	assert.Len(t, cached.Sizes, 2)

	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Title: strPtr("Tee")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Len())

	got, err = f.svc.GetProduct(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tee", got.Title)

	_, err = f.svc.GetProduct(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestGetProductListsVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shoe, nine := f.shoe(t)

	got, err := f.svc.GetProduct(ctx, shoe.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, nine.ID, got.Variants[0].ID)

	list, err := f.svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shoe.ID, list[0].ID)
}

func TestRemoveBaseDropsCachedVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	variant, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)

	_, err = f.svc.GetProduct(ctx, variant.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, shirt.ID))

	_, err = f.svc.GetProduct(ctx, variant.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestBaseUpdateRefreshesCachedVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shirt := f.shirt(t, 5)
	m, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "M", nil)
	require.NoError(t, err)
	s, err := f.svc.GetOrCreateStandaloneVariant(ctx, shirt.ID, "S", nil)
	require.NoError(t, err)

	for _, id := range []string{m.ID, s.ID} {
		got, err := f.svc.GetProduct(ctx, id)
		require.NoError(t, err)
		require.False(t, got.SoldOut)
	}

	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{Quantity: intPtr(0)}, nil)
	require.NoError(t, err)

	for _, id := range []string{m.ID, s.ID} {
		got, err := f.svc.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.SoldOut, id)
	}

	other, err := NewCategoryService(f.st, time.Second, zap.NewNop()).
		CreateCategory(ctx, CreateCategoryInput{Name: "Sale"})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, shirt.ID, UpdateInput{CategoryID: &other.ID}, nil)
	require.NoError(t, err)

	got, err := f.svc.GetProduct(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.CategoryID)
}

func TestCloneIsIndependent(t *testing.T) {
	price := 25.0
	orig := &models.Product{ID: "p1", Title: "Shirt", Price: &price, Images: []models.ProductImage{{URL: "a"}, {URL: "b"}}}

	cp, err := clone(orig)
	require.NoError(t, err)
	cp.Images = cp.Images[:1]
	cp.Title = "Tee"
	*cp.Price = 30

	assert.Equal(t, "Shirt", orig.Title)
	assert.Len(t, orig.Images, 2)
	assert.Equal(t, 25.0, *orig.Price)
}
