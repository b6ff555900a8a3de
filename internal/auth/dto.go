package auth

import (
	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and the authenticated user. Managers also
// receive the list of locations they are assigned to.
type LoginResponse struct {
	Token string         `json:"token"`
	User  users.UserView `json:"user"`
}

// RegisterRequest captures the fields an admin provides to create a user.
// Manager accounts may be created with an initial set of location
// assignments.
type RegisterRequest struct {
	Username    string      `json:"username" validate:"required,min=3,max=50"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	FirstName   string      `json:"first_name" validate:"required,max=100"`
	LastName    string      `json:"last_name" validate:"required,max=100"`
	Role        string      `json:"role" validate:"required,oneof=admin manager"`
	LocationIDs []uuid.UUID `json:"location_ids,omitempty"`
}

// UpdateUserRequest captures the account fields an admin may change. Omitted
// fields keep their current value. LocationIDs, when present, replaces the
// manager's whole assignment set.
type UpdateUserRequest struct {
	FirstName   *string      `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName    *string      `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Role        *string      `json:"role,omitempty" validate:"omitempty,oneof=admin manager"`
	Active      *bool        `json:"active,omitempty"`
	LocationIDs *[]uuid.UUID `json:"location_ids,omitempty"`
}

// ChangePasswordRequest carries a self-service password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
