package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// CreateUserDTO carries the fields required to persist a new user. The
// password arrives already hashed.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.UserRole
}

// ToModel maps the DTO onto a fresh User model.
func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Role:         dto.Role,
		Status:       enums.EntityStatusActive,
	}
}

// UserView is the public projection of a user. The password hash never
// leaves the service layer.
type UserView struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Role        enums.UserRole     `json:"role"`
	Status      enums.EntityStatus `json:"status"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	LocationIDs []uuid.UUID        `json:"location_ids,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewUserView projects a model into its API shape.
func NewUserView(user *models.User, locationIDs []uuid.UUID) UserView {
	return UserView{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Status:      user.Status,
		LastLoginAt: user.LastLoginAt,
		LocationIDs: locationIDs,
		CreatedAt:   user.CreatedAt,
	}
}
