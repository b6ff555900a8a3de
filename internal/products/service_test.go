package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT,
  brand TEXT,
  unit_price TEXT NOT NULL,
  cost_price TEXT,
  reorder_level INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT uq_products_sku UNIQUE (sku)
);`,
		`CREATE TABLE IF NOT EXISTS inventory_records (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  reserved_quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  last_updated DATETIME
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newProductsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

var (
	productAdmin   = pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	productManager = pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRoleManager}
)

func TestProductCreate(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:          "  LAP-001 ",
		Name:         "Laptop Pro",
		UnitPrice:    decimal.RequireFromString("1299.99"),
		ReorderLevel: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "LAP-001", view.SKU)
	assert.Equal(t, enums.EntityStatusActive, view.Status)
	assert.EqualValues(t, 0, view.TotalStock)

	_, err = svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "LAP-001",
		Name:      "Duplicate",
		UnitPrice: decimal.RequireFromString("1.00"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "SKU already in use", typed.Message())

	// Managers share catalog maintenance with admins.
	managerView, err := svc.Create(ctx, productManager, CreateProductRequest{
		SKU:       "LAP-002",
		Name:      "Laptop Air",
		UnitPrice: decimal.RequireFromString("899.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "LAP-002", managerView.SKU)

	unknownRole := pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRole("auditor")}
	_, err = svc.Create(ctx, unknownRole, CreateProductRequest{
		SKU:       "LAP-004",
		Name:      "Nope",
		UnitPrice: decimal.RequireFromString("1.00"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "LAP-003",
		Name:      "Negative",
		UnitPrice: decimal.RequireFromString("-1.00"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestProductGet_IncludesStockTotals(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "WID-001",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)

	for _, quantity := range []int{7, 5} {
		require.NoError(t, conn.Create(&models.InventoryRecord{
			ProductID:  view.ID,
			LocationID: uuid.New(),
			Quantity:   quantity,
		}).Error)
	}

	got, err := svc.Get(ctx, productManager, view.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 12, got.TotalStock)

	_, err = svc.Get(ctx, productManager, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestProductUpdate_SKUIsImmutable(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "WID-002",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)

	name := "Widget Deluxe"
	price := decimal.RequireFromString("5.25")
	updated, err := svc.Update(ctx, productAdmin, view.ID, UpdateProductRequest{
		Name:      &name,
		UnitPrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget Deluxe", updated.Name)
	assert.True(t, price.Equal(updated.UnitPrice))
	// The request shape carries no SKU field, so it cannot change.
	assert.Equal(t, "WID-002", updated.SKU)
}

func TestProductRetire(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "WID-003",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)

	record := &models.InventoryRecord{ProductID: view.ID, LocationID: uuid.New(), Quantity: 3}
	require.NoError(t, conn.Create(record).Error)

	err = svc.Retire(ctx, productAdmin, view.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, details["remaining_stock"])

	require.NoError(t, conn.Model(record).Update("quantity", 0).Error)
	require.NoError(t, svc.Retire(ctx, productAdmin, view.ID))

	got, err := svc.Get(ctx, productAdmin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusRetired, got.Status)

	// Retiring again is a no-op.
	require.NoError(t, svc.Retire(ctx, productAdmin, view.ID))
}

func TestProductList_Filters(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	electronics := "Electronics"
	acme := "Acme"
	for _, seed := range []CreateProductRequest{
		{SKU: "LAP-010", Name: "Laptop Air", Category: &electronics, Brand: &acme, UnitPrice: decimal.RequireFromString("999.00")},
		{SKU: "MOU-020", Name: "Mouse", Category: &electronics, UnitPrice: decimal.RequireFromString("19.00")},
		{SKU: "DSK-030", Name: "Desk", UnitPrice: decimal.RequireFromString("250.00")},
	} {
		_, err := svc.Create(ctx, productAdmin, seed)
		require.NoError(t, err)
	}

	views, page, err := svc.List(ctx, productManager, ListParams{Search: "laptop"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, views, 1)
	assert.Equal(t, "LAP-010", views[0].SKU)

	views, _, err = svc.List(ctx, productManager, ListParams{Category: "Electronics"})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, _, err = svc.List(ctx, productManager, ListParams{Brand: "Acme"})
	require.NoError(t, err)
	assert.Len(t, views, 1)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics"}, categories)

	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, brands)
}

func TestProductList_CarriesStockTotals(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	stocked, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "WID-040",
		Name:      "Stocked Widget",
		UnitPrice: decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)
	bare, err := svc.Create(ctx, productAdmin, CreateProductRequest{
		SKU:       "WID-041",
		Name:      "Unstocked Widget",
		UnitPrice: decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)

	for _, quantity := range []int{7, 5} {
		require.NoError(t, conn.Create(&models.InventoryRecord{
			ProductID:        stocked.ID,
			LocationID:       uuid.New(),
			Quantity:         quantity,
			ReservedQuantity: 1,
		}).Error)
	}

	views, _, err := svc.List(ctx, productManager, ListParams{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	totals := make(map[uuid.UUID]ProductView, len(views))
	for _, view := range views {
		totals[view.ID] = view
	}
	assert.EqualValues(t, 12, totals[stocked.ID].TotalStock)
	assert.EqualValues(t, 2, totals[stocked.ID].TotalReserved)
	assert.EqualValues(t, 0, totals[bare.ID].TotalStock)
	assert.EqualValues(t, 0, totals[bare.ID].TotalReserved)
}
