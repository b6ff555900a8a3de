package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
)

// CreateSaleRequest records one sales transaction. The inventory decrement
// happens in the same database transaction as the sale row.
type CreateSaleRequest struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	LocationID    uuid.UUID        `json:"location_id" validate:"required"`
	Quantity      int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	CustomerName  *string          `json:"customer_name,omitempty" validate:"omitempty,max=100"`
	CustomerEmail *string          `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone *string          `json:"customer_phone,omitempty" validate:"omitempty,max=20"`
}

// UpdateSaleRequest carries the mutable sale fields. Nil fields are left
// untouched. Changing the quantity writes a compensating ledger adjustment.
type UpdateSaleRequest struct {
	Quantity      *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	CustomerName  *string          `json:"customer_name,omitempty" validate:"omitempty,max=100"`
	CustomerEmail *string          `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone *string          `json:"customer_phone,omitempty" validate:"omitempty,max=20"`
}

// ListParams filters sales listings.
type ListParams struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int

	scopeUserID *uuid.UUID
}

// SummaryParams bounds the analytics window.
type SummaryParams struct {
	From *time.Time
	To   *time.Time

	scopeUserID *uuid.UUID
}

// SaleView is the API projection of one sale.
type SaleView struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductSKU    string          `json:"product_sku"`
	ProductName   string          `json:"product_name"`
	LocationID    uuid.UUID       `json:"location_id"`
	LocationName  string          `json:"location_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CustomerName  *string         `json:"customer_name,omitempty"`
	CustomerEmail *string         `json:"customer_email,omitempty"`
	CustomerPhone *string         `json:"customer_phone,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	SaleDate      time.Time       `json:"sale_date"`
}

// LocationSummary aggregates sales for one location inside the window.
type LocationSummary struct {
	LocationID   uuid.UUID       `json:"location_id"`
	LocationName string          `json:"location_name"`
	SaleCount    int64           `json:"sale_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalUnits   int64           `json:"total_units"`
}

// ProductSummary aggregates sales for one product inside the window.
type ProductSummary struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductSKU   string          `json:"product_sku"`
	ProductName  string          `json:"product_name"`
	SaleCount    int64           `json:"sale_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalUnits   int64           `json:"total_units"`
}

// Summary reports sales analytics over the requested window.
type Summary struct {
	SaleCount    int64             `json:"sale_count"`
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
	TotalUnits   int64             `json:"total_units"`
	ByLocation   []LocationSummary `json:"by_location"`
	TopProducts  []ProductSummary  `json:"top_products"`
}

// BulkUploadRowResult reports the outcome of one CSV row. Row numbers start
// at 2 because row 1 is the header.
type BulkUploadRowResult struct {
	Row     int       `json:"row"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	SaleID  uuid.UUID `json:"sale_id,omitempty"`
}

// BulkUploadResult summarizes a CSV upload.
type BulkUploadResult struct {
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Rows      []BulkUploadRowResult `json:"rows"`
}

type saleRow struct {
	models.Sale
	ProductSKU   string
	ProductName  string
	LocationName string
}

func (row saleRow) view() SaleView {
	return SaleView{
		ID:            row.ID,
		ProductID:     row.ProductID,
		ProductSKU:    row.ProductSKU,
		ProductName:   row.ProductName,
		LocationID:    row.LocationID,
		LocationName:  row.LocationName,
		Quantity:      row.Quantity,
		UnitPrice:     row.UnitPrice,
		TotalAmount:   row.TotalAmount,
		CustomerName:  row.CustomerName,
		CustomerEmail: row.CustomerEmail,
		CustomerPhone: row.CustomerPhone,
		CreatedBy:     row.CreatedBy,
		SaleDate:      row.SaleDate,
	}
}

// NewSaleView projects a bare model; product and location names are filled
// only when the caller has them.
func NewSaleView(sale *models.Sale) SaleView {
	return SaleView{
		ID:            sale.ID,
		ProductID:     sale.ProductID,
		LocationID:    sale.LocationID,
		Quantity:      sale.Quantity,
		UnitPrice:     sale.UnitPrice,
		TotalAmount:   sale.TotalAmount,
		CustomerName:  sale.CustomerName,
		CustomerEmail: sale.CustomerEmail,
		CustomerPhone: sale.CustomerPhone,
		CreatedBy:     sale.CreatedBy,
		SaleDate:      sale.SaleDate,
	}
}
