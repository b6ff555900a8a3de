package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRecord tracks on-hand stock for one (product, location) pair.
// The row is created lazily on the first stock operation for the pair.
type InventoryRecord struct {
	ID               uuid.UUID `gorm:"column:id;type:char(36);primaryKey"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:char(36);not null;uniqueIndex:uq_inventory_product_location"`
	LocationID       uuid.UUID `gorm:"column:location_id;type:char(36);not null;uniqueIndex:uq_inventory_product_location"`
	Quantity         int       `gorm:"column:quantity;not null;default:0"`
	ReservedQuantity int       `gorm:"column:reserved_quantity;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	LastUpdated      time.Time `gorm:"column:last_updated;autoUpdateTime"`
}

func (ir *InventoryRecord) BeforeCreate(_ *gorm.DB) error {
	if ir.ID == uuid.Nil {
		ir.ID = uuid.New()
	}
	return nil
}
