package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale records one sales transaction. Creating a sale decrements inventory
// through the stock ledger inside the same database transaction; deleting it
// restores the quantity the same way.
type Sale struct {
	ID            uuid.UUID       `gorm:"column:id;type:char(36);primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:char(36);not null;index:idx_sales_product"`
	LocationID    uuid.UUID       `gorm:"column:location_id;type:char(36);not null;index:idx_sales_location"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	CustomerName  *string         `gorm:"column:customer_name;size:100"`
	CustomerEmail *string         `gorm:"column:customer_email;size:255"`
	CustomerPhone *string         `gorm:"column:customer_phone;size:20"`
	CreatedBy     uuid.UUID       `gorm:"column:created_by;type:char(36);not null"`
	SaleDate      time.Time       `gorm:"column:sale_date;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
