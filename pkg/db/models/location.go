package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// Location is a physical site that holds stock.
type Location struct {
	ID         uuid.UUID          `gorm:"column:id;type:char(36);primaryKey"`
	Name       string             `gorm:"column:name;size:100;not null;uniqueIndex:uq_locations_name"`
	Address    *string            `gorm:"column:address;size:255"`
	City       *string            `gorm:"column:city;size:100"`
	State      *string            `gorm:"column:state;size:100"`
	PostalCode *string            `gorm:"column:postal_code;size:20"`
	Phone      *string            `gorm:"column:phone;size:20"`
	Email      *string            `gorm:"column:email;size:255"`
	Status     enums.EntityStatus `gorm:"column:status;size:20;not null;default:active"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Location) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// UserLocation assigns a manager to a location. Managers only see and
// mutate stock at their assigned locations.
type UserLocation struct {
	ID         uuid.UUID `gorm:"column:id;type:char(36);primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:char(36);not null;uniqueIndex:uq_user_locations"`
	LocationID uuid.UUID `gorm:"column:location_id;type:char(36);not null;uniqueIndex:uq_user_locations"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ul *UserLocation) BeforeCreate(_ *gorm.DB) error {
	if ul.ID == uuid.Nil {
		ul.ID = uuid.New()
	}
	return nil
}
