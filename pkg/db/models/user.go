package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:char(36);primaryKey"`
	Username     string             `gorm:"column:username;size:50;not null;uniqueIndex:uq_users_username"`
	Email        string             `gorm:"column:email;size:255;not null;uniqueIndex:uq_users_email"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	FirstName    string             `gorm:"column:first_name;size:100;not null"`
	LastName     string             `gorm:"column:last_name;size:100;not null"`
	Role         enums.UserRole     `gorm:"column:role;size:20;not null"`
	Status       enums.EntityStatus `gorm:"column:status;size:20;not null;default:active"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
