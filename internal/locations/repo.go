package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Repository exposes location persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a locations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new location row.
func (r *Repository) Create(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

// FindByID loads a location by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// FindByName loads a location by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// ActiveExists reports whether an active location with the ID exists.
func (r *Repository) ActiveExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("id = ? AND status = ?", id, enums.EntityStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List pages through locations, optionally filtered by status or a name
// search term.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Location, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Location{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Location
	err := query.
		Order("name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save persists in-place mutations of an existing location.
func (r *Repository) Save(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

// TotalStock sums the on-hand quantity across the location's inventory.
func (r *Repository) TotalStock(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("location_id = ?", locationID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ManagerCount counts manager assignments pointing at the location.
func (r *Repository) ManagerCount(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserLocation{}).
		Where("location_id = ?", locationID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Managers lists the users assigned to the location.
func (r *Repository) Managers(ctx context.Context, locationID uuid.UUID) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_locations ul ON ul.user_id = users.id").
		Where("ul.location_id = ?", locationID).
		Order("users.username ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignManager writes an assignment row for the user/location pair.
func (r *Repository) AssignManager(ctx context.Context, userID, locationID uuid.UUID) error {
	row := models.UserLocation{UserID: userID, LocationID: locationID}
	return r.db.WithContext(ctx).Create(&row).Error
}

// RemoveManager deletes the assignment row. Returns the number of rows
// removed so callers can 404 on a missing assignment.
func (r *Repository) RemoveManager(ctx context.Context, userID, locationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Delete(&models.UserLocation{})
	return result.RowsAffected, result.Error
}
