package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Repository manages persistence for inventory records and the stock
// transaction ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided
// database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindForUpdate loads the inventory row for the pair under a row lock. Must
// run inside a transaction. Returns gorm.ErrRecordNotFound when the pair has
// never been stocked.
func (r *Repository) FindForUpdate(ctx context.Context, productID, locationID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a fresh inventory row for a pair that has never been
// stocked.
func (r *Repository) Create(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Save persists the mutated quantity on an existing row.
func (r *Repository) Save(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// AppendTransaction writes one immutable ledger entry.
func (r *Repository) AppendTransaction(ctx context.Context, tx *models.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// inventoryRow joins the record with product and location names for
// listings.
type inventoryRow struct {
	models.InventoryRecord
	ProductSKU   string
	ProductName  string
	LocationName string
	ReorderLevel int
}

func (r *Repository) listQuery(ctx context.Context, params ListParams) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("inventory_records ir").
		Joins("JOIN products p ON p.id = ir.product_id").
		Joins("JOIN locations l ON l.id = ir.location_id")
	if params.ProductID != nil {
		query = query.Where("ir.product_id = ?", *params.ProductID)
	}
	if params.LocationID != nil {
		query = query.Where("ir.location_id = ?", *params.LocationID)
	}
	if params.scopeUserID != nil {
		query = query.Where("ir.location_id IN (?)", r.assignedLocations(*params.scopeUserID))
	}
	return query
}

// List pages through inventory records with product and location metadata.
func (r *Repository) List(ctx context.Context, params ListParams) ([]inventoryRow, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	query := r.listQuery(ctx, params)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []inventoryRow
	err := query.
		Select("ir.*, p.sku AS product_sku, p.name AS product_name, p.reorder_level, l.name AS location_name").
		Order("p.name ASC, l.name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LowStock lists records at or below the product's reorder level.
func (r *Repository) LowStock(ctx context.Context, params ListParams) ([]inventoryRow, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	query := r.listQuery(ctx, params).
		Where("ir.quantity <= p.reorder_level").
		Where("p.status = ?", "active")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []inventoryRow
	err := query.
		Select("ir.*, p.sku AS product_sku, p.name AS product_name, p.reorder_level, l.name AS location_name").
		Order("ir.quantity ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type transactionRow struct {
	models.StockTransaction
	ProductSKU   string
	ProductName  string
	LocationName string
}

// ListTransactions pages through the ledger, newest first.
func (r *Repository) ListTransactions(ctx context.Context, params TransactionListParams) ([]transactionRow, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()

	query := r.db.WithContext(ctx).
		Table("stock_transactions st").
		Joins("JOIN products p ON p.id = st.product_id").
		Joins("JOIN locations l ON l.id = st.location_id")
	if params.ProductID != nil {
		query = query.Where("st.product_id = ?", *params.ProductID)
	}
	if params.LocationID != nil {
		query = query.Where("st.location_id = ?", *params.LocationID)
	}
	if params.TransactionType != nil {
		query = query.Where("st.transaction_type = ?", *params.TransactionType)
	}
	if params.From != nil {
		query = query.Where("st.created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("st.created_at <= ?", *params.To)
	}
	if params.scopeUserID != nil {
		query = query.Where("st.location_id IN (?)", r.assignedLocations(*params.scopeUserID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []transactionRow
	err := query.
		Select("st.*, p.sku AS product_sku, p.name AS product_name, l.name AS location_name").
		Order("st.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// lockForUpdate adds a SELECT ... FOR UPDATE clause on databases that
// support it. SQLite serializes writes on its own.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *Repository) assignedLocations(userID uuid.UUID) *gorm.DB {
	return r.db.
		Model(&models.UserLocation{}).
		Select("location_id").
		Where("user_id = ?", userID)
}
