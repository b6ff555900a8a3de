package locations

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/internal/users"
	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
)

func setupLocationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  city TEXT,
  state TEXT,
  postal_code TEXT,
  phone TEXT,
  email TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT uq_locations_name UNIQUE (name)
);`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS user_locations (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  created_at DATETIME,
  CONSTRAINT uq_user_locations UNIQUE (user_id, location_id)
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
	} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newLocationsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), users.NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func seedManager(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    "Store",
		LastName:     "Manager",
		Role:         enums.UserRoleManager,
		Status:       enums.EntityStatusActive,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

var (
	locationAdmin   = pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	locationManager = pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRoleManager}
)

func TestLocationCreate(t *testing.T) {
	conn := setupLocationsTestDB(t)
	svc := newLocationsService(t, conn)
	ctx := context.Background()

	city := "Springfield"
	view, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "  Main Store ", City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Main Store", view.Name)
	assert.Equal(t, enums.EntityStatusActive, view.Status)

	_, err = svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "Main Store"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "location name already in use", typed.Message())

	_, err = svc.Create(ctx, locationManager, CreateLocationRequest{Name: "Side Store"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestLocationRetire_BlockedByStockAndManagers(t *testing.T) {
	conn := setupLocationsTestDB(t)
	svc := newLocationsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "Closing Store"})
	require.NoError(t, err)

	record := &models.InventoryRecord{ProductID: uuid.New(), LocationID: view.ID, Quantity: 4}
	require.NoError(t, conn.Create(record).Error)

	err = svc.Retire(ctx, locationAdmin, view.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "location still holds stock", typed.Message())

	require.NoError(t, conn.Model(record).Update("quantity", 0).Error)

	manager := seedManager(t, conn, "closer")
	require.NoError(t, svc.AssignManager(ctx, locationAdmin, view.ID, AssignManagerRequest{UserID: manager.ID}))

	err = svc.Retire(ctx, locationAdmin, view.ID)
	require.Error(t, err)
	assert.Equal(t, "location still has managers assigned", pkgerrors.As(err).Message())

	require.NoError(t, svc.RemoveManager(ctx, locationAdmin, view.ID, manager.ID))
	require.NoError(t, svc.Retire(ctx, locationAdmin, view.ID))

	got, err := svc.Get(ctx, locationAdmin, view.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusRetired, got.Status)
}

func TestAssignManager(t *testing.T) {
	conn := setupLocationsTestDB(t)
	svc := newLocationsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "Staffed Store"})
	require.NoError(t, err)
	manager := seedManager(t, conn, "staffer")

	require.NoError(t, svc.AssignManager(ctx, locationAdmin, view.ID, AssignManagerRequest{UserID: manager.ID}))

	err = svc.AssignManager(ctx, locationAdmin, view.ID, AssignManagerRequest{UserID: manager.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "manager already assigned to this location", typed.Message())

	admin := &models.User{
		Username:     "adminuser",
		Email:        "adminuser@example.com",
		PasswordHash: "x",
		FirstName:    "Ad",
		LastName:     "Min",
		Role:         enums.UserRoleAdmin,
		Status:       enums.EntityStatusActive,
	}
	require.NoError(t, conn.Create(admin).Error)
	err = svc.AssignManager(ctx, locationAdmin, view.ID, AssignManagerRequest{UserID: admin.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.AssignManager(ctx, locationAdmin, view.ID, AssignManagerRequest{UserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	managers, err := svc.Managers(ctx, locationAdmin, view.ID)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "staffer", managers[0].Username)
}

func TestRemoveManager_NotAssigned(t *testing.T) {
	conn := setupLocationsTestDB(t)
	svc := newLocationsService(t, conn)
	ctx := context.Background()

	view, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "Empty Store"})
	require.NoError(t, err)
	manager := seedManager(t, conn, "ghost")

	err = svc.RemoveManager(ctx, locationAdmin, view.ID, manager.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestLocationList_StatusAndSearch(t *testing.T) {
	conn := setupLocationsTestDB(t)
	svc := newLocationsService(t, conn)
	ctx := context.Background()

	for _, name := range []string{"Alpha Store", "Beta Store"} {
		_, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: name})
		require.NoError(t, err)
	}
	view, err := svc.Create(ctx, locationAdmin, CreateLocationRequest{Name: "Gone Store"})
	require.NoError(t, err)
	require.NoError(t, svc.Retire(ctx, locationAdmin, view.ID))

	active := enums.EntityStatusActive
	views, page, err := svc.List(ctx, locationManager, ListParams{Status: &active})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, views, 2)
	assert.Equal(t, "Alpha Store", views[0].Name)

	views, _, err = svc.List(ctx, locationManager, ListParams{Search: "beta"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Beta Store", views[0].Name)
}
