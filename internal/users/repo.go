package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername retrieves the user matching the provided username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save persists field changes on an existing user row.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdatePasswordHash swaps the stored credential for a user.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// AssignedLocationIDs lists the locations a manager may operate on.
func (r *Repository) AssignedLocationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserLocation{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("location_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AssignLocations appends assignment rows for the user.
func (r *Repository) AssignLocations(ctx context.Context, userID uuid.UUID, locationIDs []uuid.UUID) error {
	if len(locationIDs) == 0 {
		return nil
	}
	rows := make([]models.UserLocation, 0, len(locationIDs))
	for _, locationID := range locationIDs {
		rows = append(rows, models.UserLocation{UserID: userID, LocationID: locationID})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ReplaceLocations drops the user's current assignment rows and writes the
// new set. Call inside a transaction so a failed insert cannot leave the
// user unassigned.
func (r *Repository) ReplaceLocations(ctx context.Context, userID uuid.UUID, locationIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.UserLocation{}).Error
	if err != nil {
		return err
	}
	return r.AssignLocations(ctx, userID, locationIDs)
}

// IsAssignedToLocation reports whether the user has an assignment row for
// the location.
func (r *Repository) IsAssignedToLocation(ctx context.Context, userID, locationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserLocation{}).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
