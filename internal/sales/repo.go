package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Repository manages sale persistence and the sales analytics queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
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

// Create inserts a sale row.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByID loads a sale by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// Save persists in-place mutations of an existing sale.
func (r *Repository) Save(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Save(sale).Error
}

// Delete removes the sale row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sale{}).Error
}

// InventoryQuantityForUpdate reads the current on-hand quantity for the
// pair under a row lock. Must run inside a transaction; the sale update
// path uses it to compute the compensating adjustment target.
func (r *Repository) InventoryQuantityForUpdate(ctx context.Context, productID, locationID uuid.UUID) (int, error) {
	var record models.InventoryRecord
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&record).Error
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

// List pages through sales with product and location metadata, newest
// first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]saleRow, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()

	query := r.db.WithContext(ctx).
		Table("sales s").
		Joins("JOIN products p ON p.id = s.product_id").
		Joins("JOIN locations l ON l.id = s.location_id")
	query = r.applyFilters(query, params.ProductID, params.LocationID, params.From, params.To, params.scopeUserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []saleRow
	err := query.
		Select("s.*, p.sku AS product_sku, p.name AS product_name, l.name AS location_name").
		Order("s.sale_date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type summaryTotals struct {
	SaleCount    int64
	TotalRevenue decimal.Decimal
	TotalUnits   int64
}

// Totals aggregates overall counts for the window.
func (r *Repository) Totals(ctx context.Context, params SummaryParams) (summaryTotals, error) {
	var totals summaryTotals
	query := r.db.WithContext(ctx).Table("sales s")
	query = r.applyFilters(query, nil, nil, params.From, params.To, params.scopeUserID)
	err := query.
		Select("COUNT(*) AS sale_count, COALESCE(SUM(s.total_amount), 0) AS total_revenue, COALESCE(SUM(s.quantity), 0) AS total_units").
		Scan(&totals).Error
	if err != nil {
		return summaryTotals{}, err
	}
	return totals, nil
}

// TotalsByLocation aggregates the window per location, highest revenue
// first.
func (r *Repository) TotalsByLocation(ctx context.Context, params SummaryParams) ([]LocationSummary, error) {
	var rows []LocationSummary
	query := r.db.WithContext(ctx).
		Table("sales s").
		Joins("JOIN locations l ON l.id = s.location_id")
	query = r.applyFilters(query, nil, nil, params.From, params.To, params.scopeUserID)
	err := query.
		Select("s.location_id, l.name AS location_name, COUNT(*) AS sale_count, COALESCE(SUM(s.total_amount), 0) AS total_revenue, COALESCE(SUM(s.quantity), 0) AS total_units").
		Group("s.location_id, l.name").
		Order("total_revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopProducts lists the best sellers by revenue inside the window.
func (r *Repository) TopProducts(ctx context.Context, params SummaryParams, limit int) ([]ProductSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []ProductSummary
	query := r.db.WithContext(ctx).
		Table("sales s").
		Joins("JOIN products p ON p.id = s.product_id")
	query = r.applyFilters(query, nil, nil, params.From, params.To, params.scopeUserID)
	err := query.
		Select("s.product_id, p.sku AS product_sku, p.name AS product_name, COUNT(*) AS sale_count, COALESCE(SUM(s.total_amount), 0) AS total_revenue, COALESCE(SUM(s.quantity), 0) AS total_units").
		Group("s.product_id, p.sku, p.name").
		Order("total_revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) applyFilters(query *gorm.DB, productID, locationID *uuid.UUID, from, to *time.Time, scopeUserID *uuid.UUID) *gorm.DB {
	if productID != nil {
		query = query.Where("s.product_id = ?", *productID)
	}
	if locationID != nil {
		query = query.Where("s.location_id = ?", *locationID)
	}
	if from != nil {
		query = query.Where("s.sale_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("s.sale_date <= ?", *to)
	}
	if scopeUserID != nil {
		query = query.Where("s.location_id IN (?)", r.db.
			Model(&models.UserLocation{}).
			Select("location_id").
			Where("user_id = ?", *scopeUserID))
	}
	return query
}
