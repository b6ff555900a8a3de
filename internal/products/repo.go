package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU loads a product by its SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ActiveExists reports whether an active product with the ID exists.
func (r *Repository) ActiveExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ?", id, enums.EntityStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// productRow is a catalog row joined with its summed stock totals.
type productRow struct {
	models.Product
	Stock    int64
	Reserved int64
}

// List pages through the catalog applying the optional filters, joining the
// per-product stock totals in the same query. Search matches name, SKU, and
// description.
func (r *Repository) List(ctx context.Context, params ListParams) ([]productRow, int64, error) {
	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()

	totals := r.db.
		Model(&models.InventoryRecord{}).
		Select("product_id, SUM(quantity) AS stock, SUM(reserved_quantity) AS reserved").
		Group("product_id")

	query := r.db.WithContext(ctx).
		Table("products p").
		Joins("LEFT JOIN (?) t ON t.product_id = p.id", totals)
	if params.Search != "" {
		term := "%" + params.Search + "%"
		query = query.Where("p.name LIKE ? OR p.sku LIKE ? OR p.description LIKE ?", term, term, term)
	}
	if params.Category != "" {
		query = query.Where("p.category = ?", params.Category)
	}
	if params.Brand != "" {
		query = query.Where("p.brand = ?", params.Brand)
	}
	if params.Status != nil {
		query = query.Where("p.status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []productRow
	err := query.
		Select("p.*, COALESCE(t.stock, 0) AS stock, COALESCE(t.reserved, 0) AS reserved").
		Order("p.name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save persists in-place mutations of an existing product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// StockTotals sums on-hand and reserved quantities across all locations.
func (r *Repository) StockTotals(ctx context.Context, productID uuid.UUID) (StockTotals, error) {
	var totals StockTotals
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0) AS stock, COALESCE(SUM(reserved_quantity), 0) AS reserved").
		Scan(&totals).Error
	if err != nil {
		return StockTotals{}, err
	}
	return totals, nil
}

// Categories lists the distinct non-empty categories in the catalog.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category IS NOT NULL AND category != ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Brands lists the distinct non-empty brands in the catalog.
func (r *Repository) Brands(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand IS NOT NULL AND brand != ''").
		Distinct().
		Order("brand ASC").
		Pluck("brand", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}
