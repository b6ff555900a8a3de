package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Service defines location management. Every mutation is admin only;
// reads are open to any authenticated actor.
type Service interface {
	Create(ctx context.Context, actor pkgAuth.Actor, req CreateLocationRequest) (*LocationView, error)
	Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*LocationView, error)
	List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]LocationView, pagination.Page, error)
	Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateLocationRequest) (*LocationView, error)
	Retire(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error
	Managers(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) ([]ManagerView, error)
	AssignManager(ctx context.Context, actor pkgAuth.Actor, locationID uuid.UUID, req AssignManagerRequest) error
	RemoveManager(ctx context.Context, actor pkgAuth.Actor, locationID, userID uuid.UUID) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo  *Repository
	users userLookup
}

// NewService constructs the locations service.
func NewService(repo *Repository, users userLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup is required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) Create(ctx context.Context, actor pkgAuth.Actor, req CreateLocationRequest) (*LocationView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can create locations")
	}

	location := &models.Location{
		Name:       strings.TrimSpace(req.Name),
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     enums.EntityStatusActive,
	}

	created, err := s.repo.Create(ctx, location)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_locations_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create location")
	}

	view := NewLocationView(created)
	return &view, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*LocationView, error) {
	location, err := s.findLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewLocationView(location)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]LocationView, pagination.Page, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list locations")
	}

	views := make([]LocationView, 0, len(rows))
	for i := range rows {
		views = append(views, NewLocationView(&rows[i]))
	}
	page := pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total)
	return views, page, nil
}

func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateLocationRequest) (*LocationView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can update locations")
	}

	location, err := s.findLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		location.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		location.Address = req.Address
	}
	if req.City != nil {
		location.City = req.City
	}
	if req.State != nil {
		location.State = req.State
	}
	if req.PostalCode != nil {
		location.PostalCode = req.PostalCode
	}
	if req.Phone != nil {
		location.Phone = req.Phone
	}
	if req.Email != nil {
		location.Email = req.Email
	}

	if err := s.repo.Save(ctx, location); err != nil {
		if db.IsUniqueViolation(err, "uq_locations_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update location")
	}

	view := NewLocationView(location)
	return &view, nil
}

// Retire marks the location retired. A location still holding stock, or one
// with managers assigned, cannot be retired.
func (s *service) Retire(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can retire locations")
	}

	location, err := s.findLocation(ctx, id)
	if err != nil {
		return err
	}
	if location.Status == enums.EntityStatusRetired {
		return nil
	}

	stock, err := s.repo.TotalStock(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum location stock")
	}
	if stock > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "location still holds stock").
			WithDetails(map[string]any{"remaining_stock": stock})
	}

	managers, err := s.repo.ManagerCount(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count assigned managers")
	}
	if managers > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "location still has managers assigned")
	}

	location.Status = enums.EntityStatusRetired
	if err := s.repo.Save(ctx, location); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "retire location")
	}
	return nil
}

func (s *service) Managers(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) ([]ManagerView, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can list location managers")
	}

	if _, err := s.findLocation(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.repo.Managers(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list managers")
	}

	views := make([]ManagerView, 0, len(rows))
	for _, user := range rows {
		views = append(views, ManagerView{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
	return views, nil
}

func (s *service) AssignManager(ctx context.Context, actor pkgAuth.Actor, locationID uuid.UUID, req AssignManagerRequest) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can assign managers")
	}

	location, err := s.findLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if !location.Status.IsActive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot assign managers to a retired location")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.Role != enums.UserRoleManager {
		return pkgerrors.New(pkgerrors.CodeValidation, "only manager accounts can be assigned to locations")
	}
	if !user.Status.IsActive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "user account is retired")
	}

	if err := s.repo.AssignManager(ctx, req.UserID, locationID); err != nil {
		if db.IsUniqueViolation(err, "uq_user_locations") {
			return pkgerrors.New(pkgerrors.CodeConflict, "manager already assigned to this location")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign manager")
	}
	return nil
}

func (s *service) RemoveManager(ctx context.Context, actor pkgAuth.Actor, locationID, userID uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can remove managers")
	}

	if _, err := s.findLocation(ctx, locationID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveManager(ctx, userID, locationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove manager")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "manager assignment not found")
	}
	return nil
}

func (s *service) findLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load location")
	}
	return location, nil
}
