package locations

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// CreateLocationRequest captures the fields for a new location.
type CreateLocationRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateLocationRequest carries the mutable fields of a location. Nil fields
// are left untouched.
type UpdateLocationRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
}

// AssignManagerRequest names the manager to attach to a location.
type AssignManagerRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// ListParams filters location listings.
type ListParams struct {
	Status *enums.EntityStatus
	Search string
	Page   int
	Limit  int
}

// LocationView is the API projection of a location.
type LocationView struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	Address    *string            `json:"address,omitempty"`
	City       *string            `json:"city,omitempty"`
	State      *string            `json:"state,omitempty"`
	PostalCode *string            `json:"postal_code,omitempty"`
	Phone      *string            `json:"phone,omitempty"`
	Email      *string            `json:"email,omitempty"`
	Status     enums.EntityStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ManagerView summarizes a manager assigned to a location.
type ManagerView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// NewLocationView projects a model into its API shape.
func NewLocationView(location *models.Location) LocationView {
	return LocationView{
		ID:         location.ID,
		Name:       location.Name,
		Address:    location.Address,
		City:       location.City,
		State:      location.State,
		PostalCode: location.PostalCode,
		Phone:      location.Phone,
		Email:      location.Email,
		Status:     location.Status,
		CreatedAt:  location.CreatedAt,
		UpdatedAt:  location.UpdatedAt,
	}
}
