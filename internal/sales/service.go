package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stocktrailhq/stocktrail-backend/internal/inventory"
	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Ledger entries written by the sales flows carry fixed reasons and
// reference numbers so the audit trail identifies the originating sale.
const (
	saleReason       = "Sale transaction"
	saleUpdateReason = "Sale update"
	saleDeleteReason = "Sale deletion"
	bulkSaleReason   = "Bulk sale upload"
)

// Service records sales and keeps the stock ledger in sync. A sale and its
// inventory decrement always land in the same database transaction.
type Service interface {
	Create(ctx context.Context, actor pkgAuth.Actor, req CreateSaleRequest) (*SaleView, error)
	Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*SaleView, error)
	List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]SaleView, pagination.Page, error)
	Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateSaleRequest) (*SaleView, error)
	Delete(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error
	Summary(ctx context.Context, actor pkgAuth.Actor, params SummaryParams) (*Summary, error)
	BulkUpload(ctx context.Context, actor pkgAuth.Actor, csvData []byte) (*BulkUploadResult, error)
}

type stockLedger interface {
	ApplyStockChangeTx(ctx context.Context, tx *gorm.DB, actor pkgAuth.Actor, req inventory.StockChangeRequest) (*inventory.StockChangeResult, error)
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
}

type locationLookup interface {
	FindByName(ctx context.Context, name string) (*models.Location, error)
}

type assignmentChecker interface {
	IsAssignedToLocation(ctx context.Context, userID, locationID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        *Repository
	ledger      stockLedger
	products    productLookup
	locations   locationLookup
	assignments assignmentChecker
	tx          txRunner
}

// ServiceParams bundles the dependencies of the sales service.
type ServiceParams struct {
	Repo        *Repository
	Ledger      stockLedger
	Products    productLookup
	Locations   locationLookup
	Assignments assignmentChecker
	TxRunner    txRunner
}

// NewService wires the sales service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location lookup required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment checker required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		ledger:      params.Ledger,
		products:    params.Products,
		locations:   params.Locations,
		assignments: params.Assignments,
		tx:          params.TxRunner,
	}, nil
}

func (s *service) Create(ctx context.Context, actor pkgAuth.Actor, req CreateSaleRequest) (*SaleView, error) {
	return s.create(ctx, actor, req, saleReason, "SALE-%s")
}

// create inserts the sale and books the stock decrement atomically. The
// ledger call validates product/location status and the actor's location
// access, and rejects the whole transaction on insufficient stock.
func (s *service) create(ctx context.Context, actor pkgAuth.Actor, req CreateSaleRequest, reason, refFormat string) (*SaleView, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	unitPrice := product.UnitPrice
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		unitPrice = *req.UnitPrice
	}

	sale := &models.Sale{
		ProductID:     req.ProductID,
		LocationID:    req.LocationID,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		TotalAmount:   unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		CreatedBy:     actor.UserID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale")
		}
		ref := fmt.Sprintf(refFormat, sale.ID)
		_, err := s.ledger.ApplyStockChangeTx(ctx, tx, actor, inventory.StockChangeRequest{
			ProductID:       req.ProductID,
			LocationID:      req.LocationID,
			TransactionType: "out",
			Quantity:        req.Quantity,
			Reason:          reason,
			ReferenceNumber: &ref,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	view := NewSaleView(sale)
	view.ProductSKU = product.SKU
	view.ProductName = product.Name
	return &view, nil
}

func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*SaleView, error) {
	sale, err := s.findSale(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := NewSaleView(sale)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]SaleView, pagination.Page, error) {
	if !actor.IsAdmin() {
		params.scopeUserID = &actor.UserID
	}
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales")
	}

	views := make([]SaleView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total), nil
}

// Update mutates a sale. When the quantity changes, the available pool is
// the current on-hand quantity plus the units the sale already consumed;
// the difference is booked as a compensating ledger adjustment under the
// same row lock.
func (s *service) Update(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID, req UpdateSaleRequest) (*SaleView, error) {
	sale, err := s.findSale(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if req.Quantity != nil && *req.Quantity != sale.Quantity {
			oldQuantity := sale.Quantity
			newQuantity := *req.Quantity

			current, err := txRepo.InventoryQuantityForUpdate(ctx, sale.ProductID, sale.LocationID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory row")
			}

			available := current + oldQuantity
			if newQuantity > available {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for updated quantity").
					WithDetails(map[string]any{
						"available": available,
						"requested": newQuantity,
					})
			}

			ref := fmt.Sprintf("SALE-UPDATE-%s", sale.ID)
			_, err = s.ledger.ApplyStockChangeTx(ctx, tx, actor, inventory.StockChangeRequest{
				ProductID:       sale.ProductID,
				LocationID:      sale.LocationID,
				TransactionType: "adjustment",
				Quantity:        available - newQuantity,
				Reason:          saleUpdateReason,
				ReferenceNumber: &ref,
			})
			if err != nil {
				return err
			}
			sale.Quantity = newQuantity
		}

		if req.UnitPrice != nil {
			sale.UnitPrice = *req.UnitPrice
		}
		if req.CustomerName != nil {
			sale.CustomerName = req.CustomerName
		}
		if req.CustomerEmail != nil {
			sale.CustomerEmail = req.CustomerEmail
		}
		if req.CustomerPhone != nil {
			sale.CustomerPhone = req.CustomerPhone
		}
		sale.TotalAmount = sale.UnitPrice.Mul(decimal.NewFromInt(int64(sale.Quantity)))

		if err := txRepo.Save(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := NewSaleView(sale)
	return &view, nil
}

// Delete removes the sale and returns its units to stock in one
// transaction.
func (s *service) Delete(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) error {
	sale, err := s.findSale(ctx, actor, id)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ref := fmt.Sprintf("SALE-DELETE-%s", sale.ID)
		_, err := s.ledger.ApplyStockChangeTx(ctx, tx, actor, inventory.StockChangeRequest{
			ProductID:       sale.ProductID,
			LocationID:      sale.LocationID,
			TransactionType: "in",
			Quantity:        sale.Quantity,
			Reason:          saleDeleteReason,
			ReferenceNumber: &ref,
			// The sale's units go back even if the product has since been
			// retired from the catalog.
			AllowRetiredProduct: true,
		})
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Delete(ctx, sale.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete sale")
		}
		return nil
	})
}

// Summary aggregates the window: overall totals, per-location totals, and
// the ten best sellers by revenue.
func (s *service) Summary(ctx context.Context, actor pkgAuth.Actor, params SummaryParams) (*Summary, error) {
	if !actor.IsAdmin() {
		params.scopeUserID = &actor.UserID
	}

	totals, err := s.repo.Totals(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum sales")
	}
	byLocation, err := s.repo.TotalsByLocation(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum sales by location")
	}
	topProducts, err := s.repo.TopProducts(ctx, params, 10)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank products")
	}

	return &Summary{
		SaleCount:    totals.SaleCount,
		TotalRevenue: totals.TotalRevenue,
		TotalUnits:   totals.TotalUnits,
		ByLocation:   byLocation,
		TopProducts:  topProducts,
	}, nil
}

// findSale loads the sale and enforces the manager location gate for
// non-admin actors.
func (s *service) findSale(ctx context.Context, actor pkgAuth.Actor, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sale")
	}

	if !actor.IsAdmin() {
		assigned, err := s.assignments.IsAssignedToLocation(ctx, actor.UserID, sale.LocationID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check location assignment")
		}
		if !assigned {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not assigned to this location")
		}
	}
	return sale, nil
}
