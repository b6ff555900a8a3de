package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
)

// StockChangeRequest describes one mutation of the stock ledger.
//
// Quantity semantics depend on the transaction type: "in" adds to the
// current level, "out" subtracts from it, and "adjustment" replaces it with
// the given absolute value.
type StockChangeRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	LocationID      uuid.UUID `json:"location_id" validate:"required"`
	TransactionType string    `json:"transaction_type" validate:"required,oneof=in out adjustment"`
	Quantity        int       `json:"quantity"`
	Reason          string    `json:"reason" validate:"required,max=255"`
	ReferenceNumber *string   `json:"reference_number,omitempty" validate:"omitempty,max=100"`

	// AllowRetiredProduct lets restore flows put units back for a product
	// that has since been retired. Deleting a sale must return its stock even
	// when the product is gone from the catalog. Not settable from the API.
	AllowRetiredProduct bool `json:"-"`
}

// BulkStockRequest wraps a batch of independent stock changes.
type BulkStockRequest struct {
	Items []StockChangeRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

// BulkStockResult reports the outcome of one item in a bulk request. Items
// are applied independently; one failing item does not roll back the others.
type BulkStockResult struct {
	Index   int              `json:"index"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Record  *InventoryView   `json:"record,omitempty"`
	Change  *TransactionView `json:"transaction,omitempty"`
}

// ListParams filters inventory listings.
type ListParams struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Page       int
	Limit      int

	// scopeUserID restricts rows to locations assigned to the user. Set by
	// the service for manager actors.
	scopeUserID *uuid.UUID
}

// TransactionListParams filters the stock transaction history. From and To
// bound the entry's creation time (inclusive).
type TransactionListParams struct {
	ProductID       *uuid.UUID
	LocationID      *uuid.UUID
	TransactionType *enums.TransactionType
	From            *time.Time
	To              *time.Time
	Page            int
	Limit           int

	scopeUserID *uuid.UUID
}

// InventoryView is the API projection of one (product, location) stock
// level.
type InventoryView struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductSKU       string    `json:"product_sku"`
	ProductName      string    `json:"product_name"`
	LocationID       uuid.UUID `json:"location_id"`
	LocationName     string    `json:"location_name"`
	Quantity         int       `json:"quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	ReorderLevel     int       `json:"reorder_level"`
	LastUpdated      time.Time `json:"last_updated"`
}

// TransactionView is the API projection of one ledger entry.
type TransactionView struct {
	ID               uuid.UUID             `json:"id"`
	ProductID        uuid.UUID             `json:"product_id"`
	ProductSKU       string                `json:"product_sku"`
	ProductName      string                `json:"product_name"`
	LocationID       uuid.UUID             `json:"location_id"`
	LocationName     string                `json:"location_name"`
	TransactionType  enums.TransactionType `json:"transaction_type"`
	Quantity         int                   `json:"quantity"`
	PreviousQuantity int                   `json:"previous_quantity"`
	NewQuantity      int                   `json:"new_quantity"`
	Reason           string                `json:"reason"`
	ReferenceNumber  *string               `json:"reference_number,omitempty"`
	CreatedBy        uuid.UUID             `json:"created_by"`
	CreatedAt        time.Time             `json:"created_at"`
}

// StockChangeResult bundles the updated record and the ledger entry written
// for it.
type StockChangeResult struct {
	Record      InventoryView   `json:"record"`
	Transaction TransactionView `json:"transaction"`
}
