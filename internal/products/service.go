package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Service defines catalog management. Reads are open to any authenticated
// actor; mutations require the manager or admin role.
type Service interface {
	Create(ctx context.Context, actor pkgAuth.Actor, req CreateProductRequest) (*ProductView, error)
	Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*ProductView, error)
	List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]ProductView, pagination.Page, error)
	Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateProductRequest) (*ProductView, error)
	Retire(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the products service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, actor pkgAuth.Actor, req CreateProductRequest) (*ProductView, error) {
	if !actor.IsManagerOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager or admin role required to create products")
	}
	if req.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if req.CostPrice != nil && req.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}

	product := &models.Product{
		SKU:          strings.TrimSpace(req.SKU),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     req.Category,
		Brand:        req.Brand,
		UnitPrice:    req.UnitPrice,
		CostPrice:    req.CostPrice,
		ReorderLevel: req.ReorderLevel,
		Status:       enums.EntityStatusActive,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "SKU already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	view := NewProductView(created, StockTotals{})
	return &view, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*ProductView, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.StockTotals(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum product stock")
	}

	view := NewProductView(product, totals)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]ProductView, pagination.Page, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	views := make([]ProductView, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		views = append(views, NewProductView(&row.Product, StockTotals{Stock: row.Stock, Reserved: row.Reserved}))
	}
	page := pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total)
	return views, page, nil
}

func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateProductRequest) (*ProductView, error) {
	if !actor.IsManagerOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager or admin role required to update products")
	}

	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Category != nil {
		product.Category = req.Category
	}
	if req.Brand != nil {
		product.Brand = req.Brand
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		product.UnitPrice = *req.UnitPrice
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
		}
		product.CostPrice = req.CostPrice
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level cannot be negative")
		}
		product.ReorderLevel = *req.ReorderLevel
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	totals, err := s.repo.StockTotals(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum product stock")
	}

	view := NewProductView(product, totals)
	return &view, nil
}

// Retire marks the product retired. Retired products are rejected by new
// stock operations and sales but keep their history. A product with stock
// remaining anywhere cannot be retired.
func (s *service) Retire(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error {
	if !actor.IsManagerOrAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "manager or admin role required to retire products")
	}

	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.Status == enums.EntityStatusRetired {
		return nil
	}

	totals, err := s.repo.StockTotals(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum product stock")
	}
	if totals.Stock > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "product still has stock on hand").
			WithDetails(map[string]any{"remaining_stock": totals.Stock})
	}

	product.Status = enums.EntityStatusRetired
	if err := s.repo.Save(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "retire product")
	}
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	values, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return values, nil
}

func (s *service) Brands(ctx context.Context) ([]string, error) {
	values, err := s.repo.Brands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	return values, nil
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}
