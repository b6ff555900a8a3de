package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/internal/locations"
	"github.com/stocktrailhq/stocktrail-backend/internal/users"
	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/config"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
	"github.com/stocktrailhq/stocktrail-backend/pkg/security"
)

// Minimal Argon2id cost so hashing does not dominate the test run.
var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

var testJWTCfg = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "stocktrail",
	ExpirationMinutes: 60,
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT uq_users_username UNIQUE (username),
  CONSTRAINT uq_users_email UNIQUE (email)
);`,
		`CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  address TEXT,
  city TEXT,
  state TEXT,
  postal_code TEXT,
  phone TEXT,
  email TEXT,
  status TEXT NOT NULL DEFAULT 'active',
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
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newAuthService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		LocationRepo:   locations.NewRepository(conn),
		TxRunner:       db.NewFromConn(conn),
		JWTConfig:      testJWTCfg,
		PasswordConfig: testPasswordCfg,
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, username, password string, role enums.UserRole, status enums.EntityStatus) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, testPasswordCfg)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func TestLogin_Success(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	seeded := seedUser(t, conn, "alice", "s3cretpass", enums.UserRoleAdmin, enums.EntityStatusActive)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, seeded.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleAdmin, claims.Role)

	// last login is persisted, not just echoed.
	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", seeded.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	seedUser(t, conn, "bob", "correct-pass", enums.UserRoleManager, enums.EntityStatusActive)
	seedUser(t, conn, "carol", "whatever", enums.UserRoleManager, enums.EntityStatusRetired)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown username", "nobody", "correct-pass"},
		{"wrong password", "bob", "wrong-pass"},
		{"retired account", "carol", "whatever"},
		{"blank password", "bob", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{Username: tc.username, Password: tc.password})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
			// One message for every failure mode so callers cannot enumerate accounts.
			assert.Equal(t, "invalid credentials", typed.Message())
		})
	}
}

func TestRegister_ManagerWithLocations(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	actor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}

	location := &models.Location{Name: "North Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(location).Error)

	view, err := svc.Register(context.Background(), actor, RegisterRequest{
		Username:    "newmanager",
		Email:       "NewManager@Example.com",
		Password:    "longenough",
		FirstName:   "New",
		LastName:    "Manager",
		Role:        "manager",
		LocationIDs: []uuid.UUID{location.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "newmanager", view.Username)
	assert.Equal(t, "newmanager@example.com", view.Email)
	require.Len(t, view.LocationIDs, 1)
	assert.Equal(t, location.ID, view.LocationIDs[0])

	var assignments int64
	require.NoError(t, conn.Model(&models.UserLocation{}).Where("user_id = ?", view.ID).Count(&assignments).Error)
	assert.EqualValues(t, 1, assignments)

	// The created account can log in.
	resp, err := svc.Login(context.Background(), LoginRequest{Username: "newmanager", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, view.ID, resp.User.ID)
}

func TestRegister_Rejections(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	adminActor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
	ctx := context.Background()

	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	_, err := svc.Register(ctx, pkgAuth.Actor{UserID: manager.ID, Role: enums.UserRoleManager}, RegisterRequest{
		Username: "x", Email: "x@example.com", Password: "longenough",
		FirstName: "X", LastName: "Y", Role: "manager",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.Register(ctx, adminActor, RegisterRequest{
		Username: "dupe", Email: "root@example.com", Password: "longenough",
		FirstName: "Du", LastName: "Pe", Role: "admin",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "email already registered", typed.Message())

	_, err = svc.Register(ctx, adminActor, RegisterRequest{
		Username: "root", Email: "other@example.com", Password: "longenough",
		FirstName: "Du", LastName: "Pe", Role: "admin",
	})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "username already taken", typed.Message())

	location := &models.Location{Name: "South Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(location).Error)
	_, err = svc.Register(ctx, adminActor, RegisterRequest{
		Username: "adminwithloc", Email: "awl@example.com", Password: "longenough",
		FirstName: "A", LastName: "W", Role: "admin",
		LocationIDs: []uuid.UUID{location.ID},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Register(ctx, adminActor, RegisterRequest{
		Username: "ghostloc", Email: "gl@example.com", Password: "longenough",
		FirstName: "G", LastName: "L", Role: "manager",
		LocationIDs: []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListUsers_AdminOnly(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	ctx := context.Background()

	_, _, err := svc.ListUsers(ctx, pkgAuth.Actor{UserID: manager.ID, Role: enums.UserRoleManager}, pagination.Params{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	views, page, err := svc.ListUsers(ctx, pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, views, 2)
	for _, view := range views {
		assert.NotEqual(t, admin.PasswordHash, view.Username)
	}
}

func TestUpdateUser_ReassignsManagerLocations(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	adminActor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	ctx := context.Background()

	oldLoc := &models.Location{Name: "Old Store", Status: enums.EntityStatusActive}
	newLoc := &models.Location{Name: "New Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(oldLoc).Error)
	require.NoError(t, conn.Create(newLoc).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: manager.ID, LocationID: oldLoc.ID}).Error)

	first := "Maya"
	view, err := svc.UpdateUser(ctx, adminActor, manager.ID, UpdateUserRequest{
		FirstName:   &first,
		LocationIDs: &[]uuid.UUID{newLoc.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Maya", view.FirstName)
	require.Len(t, view.LocationIDs, 1)
	assert.Equal(t, newLoc.ID, view.LocationIDs[0])

	// The old assignment row is gone, not merely shadowed.
	var rows []models.UserLocation
	require.NoError(t, conn.Where("user_id = ?", manager.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, newLoc.ID, rows[0].LocationID)
}

func TestUpdateUser_PromotionToAdminClearsAssignments(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	adminActor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	ctx := context.Background()

	location := &models.Location{Name: "Held Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(location).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: manager.ID, LocationID: location.ID}).Error)

	role := "admin"
	view, err := svc.UpdateUser(ctx, adminActor, manager.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, view.Role)
	assert.Empty(t, view.LocationIDs)

	var assignments int64
	require.NoError(t, conn.Model(&models.UserLocation{}).Where("user_id = ?", manager.ID).Count(&assignments).Error)
	assert.EqualValues(t, 0, assignments)
}

func TestUpdateUser_Rejections(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	adminActor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	ctx := context.Background()

	_, err := svc.UpdateUser(ctx, pkgAuth.Actor{UserID: manager.ID, Role: enums.UserRoleManager}, admin.ID, UpdateUserRequest{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.UpdateUser(ctx, adminActor, uuid.New(), UpdateUserRequest{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// Admins never carry assignments.
	location := &models.Location{Name: "Any Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(location).Error)
	_, err = svc.UpdateUser(ctx, adminActor, admin.ID, UpdateUserRequest{
		LocationIDs: &[]uuid.UUID{location.ID},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateUser(ctx, adminActor, manager.ID, UpdateUserRequest{
		LocationIDs: &[]uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateUser_DeactivationBlocksLogin(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	admin := seedUser(t, conn, "root", "rootpass123", enums.UserRoleAdmin, enums.EntityStatusActive)
	adminActor := pkgAuth.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}
	seedUser(t, conn, "leaver", "leaverpass1", enums.UserRoleManager, enums.EntityStatusActive)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Username: "leaver", Password: "leaverpass1"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateUser(ctx, adminActor, resp.User.ID, UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Username: "leaver", Password: "leaverpass1"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestChangePassword(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	user := seedUser(t, conn, "rotator", "original-pass", enums.UserRoleManager, enums.EntityStatusActive)
	actor := pkgAuth.Actor{UserID: user.ID, Role: enums.UserRoleManager}
	ctx := context.Background()

	err := svc.ChangePassword(ctx, actor, ChangePasswordRequest{
		CurrentPassword: "wrong-pass",
		NewPassword:     "replacement1",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "current password is incorrect", typed.Message())

	require.NoError(t, svc.ChangePassword(ctx, actor, ChangePasswordRequest{
		CurrentPassword: "original-pass",
		NewPassword:     "replacement1",
	}))

	_, err = svc.Login(ctx, LoginRequest{Username: "rotator", Password: "original-pass"})
	require.Error(t, err)
	_, err = svc.Login(ctx, LoginRequest{Username: "rotator", Password: "replacement1"})
	require.NoError(t, err)
}

func TestProfile_ReturnsOwnRecord(t *testing.T) {
	conn := setupAuthTestDB(t)
	svc := newAuthService(t, conn)
	manager := seedUser(t, conn, "mgr", "managerpass", enums.UserRoleManager, enums.EntityStatusActive)
	location := &models.Location{Name: "East Store", Status: enums.EntityStatusActive}
	require.NoError(t, conn.Create(location).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: manager.ID, LocationID: location.ID}).Error)

	view, err := svc.Profile(context.Background(), pkgAuth.Actor{UserID: manager.ID, Role: enums.UserRoleManager})
	require.NoError(t, err)
	assert.Equal(t, "mgr", view.Username)
	require.Len(t, view.LocationIDs, 1)
	assert.Equal(t, location.ID, view.LocationIDs[0])

	_, err = svc.Profile(context.Background(), pkgAuth.Actor{UserID: uuid.New(), Role: enums.UserRoleManager})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
