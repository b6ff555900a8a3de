package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// StockTransaction is the immutable audit row appended for every stock
// mutation. Rows are never updated or deleted; the inventory quantity for
// any (product, location) pair is reconstructible by replaying them in
// creation order.
type StockTransaction struct {
	ID               uuid.UUID             `gorm:"column:id;type:char(36);primaryKey"`
	ProductID        uuid.UUID             `gorm:"column:product_id;type:char(36);not null;index:idx_stock_tx_product"`
	LocationID       uuid.UUID             `gorm:"column:location_id;type:char(36);not null;index:idx_stock_tx_location"`
	TransactionType  enums.TransactionType `gorm:"column:transaction_type;size:20;not null"`
	Quantity         int                   `gorm:"column:quantity;not null"`
	PreviousQuantity int                   `gorm:"column:previous_quantity;not null"`
	NewQuantity      int                   `gorm:"column:new_quantity;not null"`
	Reason           string                `gorm:"column:reason;size:255;not null"`
	ReferenceNumber  *string               `gorm:"column:reference_number;size:100"`
	CreatedBy        uuid.UUID             `gorm:"column:created_by;type:char(36);not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (st *StockTransaction) BeforeCreate(_ *gorm.DB) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	return nil
}
