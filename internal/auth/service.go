package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, actor pkgAuth.Actor, req RegisterRequest) (*users.UserView, error)
	Profile(ctx context.Context, actor pkgAuth.Actor) (*users.UserView, error)
	ListUsers(ctx context.Context, actor pkgAuth.Actor, params pagination.Params) ([]users.UserView, pagination.Page, error)
	UpdateUser(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateUserRequest) (*users.UserView, error)
	ChangePassword(ctx context.Context, actor pkgAuth.Actor, req ChangePasswordRequest) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, int64, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	AssignedLocationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	WithTx(tx *gorm.DB) *users.Repository
	AssignLocations(ctx context.Context, userID uuid.UUID, locationIDs []uuid.UUID) error
}

type locationChecker interface {
	ActiveExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	users       userRepository
	locations   locationChecker
	tx          txRunner
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	LocationRepo   locationChecker
	TxRunner       txRunner
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.LocationRepo == nil {
		return nil, fmt.Errorf("location repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		users:       params.UserRepo,
		locations:   params.LocationRepo,
		tx:          params.TxRunner,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.Status.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	locationIDs, err := s.locationsFor(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token: token,
		User:  users.NewUserView(user, locationIDs),
	}, nil
}

// Register creates a user account. Only admins may call it; manager accounts
// and their location assignments are written in one transaction.
func (s *service) Register(ctx context.Context, actor pkgAuth.Actor, req RegisterRequest) (*users.UserView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can register users")
	}

	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role == enums.UserRoleAdmin && len(req.LocationIDs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins do not take location assignments")
	}

	if err := s.checkLocationsActive(ctx, req.LocationIDs); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	dto := users.CreateUserDTO{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "uq_users_username") {
				return pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
			}
			if db.IsUniqueViolation(err, "uq_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		if role == enums.UserRoleManager {
			if err := repo.AssignLocations(ctx, user.ID, req.LocationIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign locations")
			}
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := users.NewUserView(created, req.LocationIDs)
	return &view, nil
}

// Profile returns the authenticated user's own record.
func (s *service) Profile(ctx context.Context, actor pkgAuth.Actor) (*users.UserView, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	locationIDs, err := s.locationsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	view := users.NewUserView(user, locationIDs)
	return &view, nil
}

// ListUsers pages through all accounts. Admin only.
func (s *service) ListUsers(ctx context.Context, actor pkgAuth.Actor, params pagination.Params) ([]users.UserView, pagination.Page, error) {
	if !actor.IsAdmin() {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can list users")
	}

	rows, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	views := make([]users.UserView, 0, len(rows))
	for i := range rows {
		user := &rows[i]
		locationIDs, err := s.locationsFor(ctx, user)
		if err != nil {
			return nil, pagination.Page{}, err
		}
		views = append(views, users.NewUserView(user, locationIDs))
	}
	return views, pagination.NewPage(params, total), nil
}

// UpdateUser applies admin edits to an account. A role change to admin
// clears location assignments; a manager's assignment set is replaced
// wholesale when LocationIDs is present. The user row and the assignment
// rows are written in one transaction.
func (s *service) UpdateUser(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateUserRequest) (*users.UserView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can update users")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Role != nil {
		role, err := enums.ParseUserRole(*req.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		user.Role = role
	}
	if req.Active != nil {
		if *req.Active {
			user.Status = enums.EntityStatusActive
		} else {
			user.Status = enums.EntityStatusRetired
		}
	}

	if user.Role == enums.UserRoleAdmin && req.LocationIDs != nil && len(*req.LocationIDs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admins do not take location assignments")
	}
	if user.Role == enums.UserRoleManager && req.LocationIDs != nil {
		if err := s.checkLocationsActive(ctx, *req.LocationIDs); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := repo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
		switch {
		case user.Role == enums.UserRoleAdmin:
			// Admins carry no assignment rows.
			if err := repo.ReplaceLocations(ctx, user.ID, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear locations")
			}
		case req.LocationIDs != nil:
			if err := repo.ReplaceLocations(ctx, user.ID, *req.LocationIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace locations")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	locationIDs, err := s.locationsFor(ctx, user)
	if err != nil {
		return nil, err
	}
	view := users.NewUserView(user, locationIDs)
	return &view, nil
}

// ChangePassword rotates the caller's own credential after verifying the
// current one.
func (s *service) ChangePassword(ctx context.Context, actor pkgAuth.Actor, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}
	return nil
}

func (s *service) checkLocationsActive(ctx context.Context, locationIDs []uuid.UUID) error {
	for _, locationID := range locationIDs {
		active, err := s.locations.ActiveExists(ctx, locationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check location")
		}
		if !active {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("location %s not found or retired", locationID))
		}
	}
	return nil
}

func (s *service) locationsFor(ctx context.Context, user *models.User) ([]uuid.UUID, error) {
	if user.Role != enums.UserRoleManager {
		return nil, nil
	}
	ids, err := s.users.AssignedLocationIDs(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assigned locations")
	}
	return ids, nil
}
