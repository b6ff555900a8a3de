package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// CreateProductRequest captures a new catalog entry. SKU is immutable once
// created.
type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"required,max=50"`
	Name         string           `json:"name" validate:"required,max=150"`
	Description  *string          `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Brand        *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	UnitPrice    decimal.Decimal  `json:"unit_price" validate:"required"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	ReorderLevel int              `json:"reorder_level" validate:"gte=0"`
}

// UpdateProductRequest carries the mutable product fields. Nil fields are
// left untouched. SKU is deliberately absent.
type UpdateProductRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=150"`
	Description  *string          `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Brand        *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	ReorderLevel *int             `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
}

// ListParams filters catalog listings.
type ListParams struct {
	Search   string
	Category string
	Brand    string
	Status   *enums.EntityStatus
	Page     int
	Limit    int
}

// ProductView is the API projection of a product, including aggregated
// stock totals across all locations.
type ProductView struct {
	ID            uuid.UUID          `json:"id"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Description   *string            `json:"description,omitempty"`
	Category      *string            `json:"category,omitempty"`
	Brand         *string            `json:"brand,omitempty"`
	UnitPrice     decimal.Decimal    `json:"unit_price"`
	CostPrice     *decimal.Decimal   `json:"cost_price,omitempty"`
	ReorderLevel  int                `json:"reorder_level"`
	Status        enums.EntityStatus `json:"status"`
	TotalStock    int64              `json:"total_stock"`
	TotalReserved int64              `json:"total_reserved"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// StockTotals aggregates on-hand and reserved quantities for a product.
type StockTotals struct {
	Stock    int64
	Reserved int64
}

// NewProductView projects a model plus its stock totals into the API shape.
func NewProductView(product *models.Product, totals StockTotals) ProductView {
	return ProductView{
		ID:            product.ID,
		SKU:           product.SKU,
		Name:          product.Name,
		Description:   product.Description,
		Category:      product.Category,
		Brand:         product.Brand,
		UnitPrice:     product.UnitPrice,
		CostPrice:     product.CostPrice,
		ReorderLevel:  product.ReorderLevel,
		Status:        product.Status,
		TotalStock:    totals.Stock,
		TotalReserved: totals.Reserved,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
