package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// Product is a catalog entry. SKU is immutable after creation.
type Product struct {
	ID           uuid.UUID          `gorm:"column:id;type:char(36);primaryKey"`
	SKU          string             `gorm:"column:sku;size:50;not null;uniqueIndex:uq_products_sku"`
	Name         string             `gorm:"column:name;size:150;not null"`
	Description  *string            `gorm:"column:description;type:text"`
	Category     *string            `gorm:"column:category;size:100"`
	Brand        *string            `gorm:"column:brand;size:100"`
	UnitPrice    decimal.Decimal    `gorm:"column:unit_price;type:decimal(10,2);not null"`
	CostPrice    *decimal.Decimal   `gorm:"column:cost_price;type:decimal(10,2)"`
	ReorderLevel int                `gorm:"column:reorder_level;not null;default:0"`
	Status       enums.EntityStatus `gorm:"column:status;size:20;not null;default:active"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
