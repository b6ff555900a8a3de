package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/metrics"
	"github.com/stocktrailhq/stocktrail-backend/pkg/pagination"
)

// Service owns the stock ledger. Every quantity change flows through
// ApplyStockChange (or its in-transaction variant), which updates the
// inventory record and appends the audit entry atomically.
type Service interface {
	ApplyStockChange(ctx context.Context, actor pkgAuth.Actor, req StockChangeRequest) (*StockChangeResult, error)
	ApplyStockChangeTx(ctx context.Context, tx *gorm.DB, actor pkgAuth.Actor, req StockChangeRequest) (*StockChangeResult, error)
	Bulk(ctx context.Context, actor pkgAuth.Actor, req BulkStockRequest) ([]BulkStockResult, error)
	List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]InventoryView, pagination.Page, error)
	LowStock(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]InventoryView, pagination.Page, error)
	Transactions(ctx context.Context, actor pkgAuth.Actor, params TransactionListParams) ([]TransactionView, pagination.Page, error)
}

type productChecker interface {
	ActiveExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type locationChecker interface {
	ActiveExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type assignmentChecker interface {
	IsAssignedToLocation(ctx context.Context, userID, locationID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        *Repository
	products    productChecker
	locations   locationChecker
	assignments assignmentChecker
	tx          txRunner
	stockMx     *metrics.StockMetrics
}

// ServiceParams bundles the dependencies of the inventory service.
type ServiceParams struct {
	Repo         *Repository
	Products     productChecker
	Locations    locationChecker
	Assignments  assignmentChecker
	TxRunner     txRunner
	StockMetrics *metrics.StockMetrics
}

// NewService wires the inventory service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location checker required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment checker required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		products:    params.Products,
		locations:   params.Locations,
		assignments: params.Assignments,
		tx:          params.TxRunner,
		stockMx:     params.StockMetrics,
	}, nil
}

// ApplyStockChange validates the request and applies it inside its own
// transaction.
func (s *service) ApplyStockChange(ctx context.Context, actor pkgAuth.Actor, req StockChangeRequest) (*StockChangeResult, error) {
	txType, err := s.validate(ctx, actor, req)
	if err != nil {
		s.recordOutcome(req.TransactionType, err)
		return nil, err
	}

	var result *StockChangeResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		result, applyErr = s.apply(ctx, s.repo.WithTx(tx), actor, req, txType)
		return applyErr
	})
	s.recordOutcome(req.TransactionType, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyStockChangeTx applies a validated stock change inside an already-open
// transaction. Callers own the commit; the sales service uses this so the
// sale row and the ledger entry land atomically.
func (s *service) ApplyStockChangeTx(ctx context.Context, tx *gorm.DB, actor pkgAuth.Actor, req StockChangeRequest) (*StockChangeResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	txType, err := s.validate(ctx, actor, req)
	if err != nil {
		s.recordOutcome(req.TransactionType, err)
		return nil, err
	}
	result, err := s.apply(ctx, s.repo.WithTx(tx), actor, req, txType)
	s.recordOutcome(req.TransactionType, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Bulk applies each item independently. A failed item is reported in its
// slot and does not affect the others.
func (s *service) Bulk(ctx context.Context, actor pkgAuth.Actor, req BulkStockRequest) ([]BulkStockResult, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	results := make([]BulkStockResult, 0, len(req.Items))
	for i, item := range req.Items {
		outcome, err := s.ApplyStockChange(ctx, actor, item)
		if err != nil {
			results = append(results, BulkStockResult{
				Index: i,
				Error: publicError(err),
			})
			continue
		}
		results = append(results, BulkStockResult{
			Index:   i,
			Success: true,
			Record:  &outcome.Record,
			Change:  &outcome.Transaction,
		})
	}
	return results, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]InventoryView, pagination.Page, error) {
	params = s.scopeList(actor, params)
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}
	return projectInventory(rows), pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total), nil
}

func (s *service) LowStock(ctx context.Context, actor pkgAuth.Actor, params ListParams) ([]InventoryView, pagination.Page, error) {
	params = s.scopeList(actor, params)
	rows, total, err := s.repo.LowStock(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	return projectInventory(rows), pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total), nil
}

func (s *service) Transactions(ctx context.Context, actor pkgAuth.Actor, params TransactionListParams) ([]TransactionView, pagination.Page, error) {
	if !actor.IsAdmin() {
		params.scopeUserID = &actor.UserID
	}
	rows, total, err := s.repo.ListTransactions(ctx, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stock transactions")
	}

	views := make([]TransactionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, TransactionView{
			ID:               row.ID,
			ProductID:        row.ProductID,
			ProductSKU:       row.ProductSKU,
			ProductName:      row.ProductName,
			LocationID:       row.LocationID,
			LocationName:     row.LocationName,
			TransactionType:  row.TransactionType,
			Quantity:         row.Quantity,
			PreviousQuantity: row.PreviousQuantity,
			NewQuantity:      row.NewQuantity,
			Reason:           row.Reason,
			ReferenceNumber:  row.ReferenceNumber,
			CreatedBy:        row.CreatedBy,
			CreatedAt:        row.CreatedAt,
		})
	}
	return views, pagination.NewPage(pagination.Params{Page: params.Page, Limit: params.Limit}, total), nil
}

// validate checks the request shape, entity status, and the actor's
// location access. It runs before any transaction is opened.
func (s *service) validate(ctx context.Context, actor pkgAuth.Actor, req StockChangeRequest) (enums.TransactionType, error) {
	txType, err := enums.ParseTransactionType(req.TransactionType)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}

	switch txType {
	case enums.TransactionTypeAdjustment:
		if req.Quantity < 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "adjustment quantity cannot be negative")
		}
	default:
		if req.Quantity <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	if strings.TrimSpace(req.Reason) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	if !req.AllowRetiredProduct {
		productActive, err := s.products.ActiveExists(ctx, req.ProductID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
		}
		if !productActive {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "product not found or retired")
		}
	}

	locationActive, err := s.locations.ActiveExists(ctx, req.LocationID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check location")
	}
	if !locationActive {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "location not found or retired")
	}

	if !actor.IsAdmin() {
		assigned, err := s.assignments.IsAssignedToLocation(ctx, actor.UserID, req.LocationID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check location assignment")
		}
		if !assigned {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "not assigned to this location")
		}
	}

	return txType, nil
}

// apply performs the read-modify-write under the row lock held by repo's
// transaction, creating the inventory row lazily on first use.
func (s *service) apply(ctx context.Context, repo *Repository, actor pkgAuth.Actor, req StockChangeRequest, txType enums.TransactionType) (*StockChangeResult, error) {
	record, err := repo.FindForUpdate(ctx, req.ProductID, req.LocationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory row")
		}
		record = &models.InventoryRecord{
			ProductID:  req.ProductID,
			LocationID: req.LocationID,
			Quantity:   0,
		}
		if err := repo.Create(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create inventory row")
		}
	}

	previous := record.Quantity
	var next int
	switch txType {
	case enums.TransactionTypeIn:
		next = previous + req.Quantity
	case enums.TransactionTypeOut:
		if req.Quantity > previous {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"available": previous,
					"requested": req.Quantity,
				})
		}
		next = previous - req.Quantity
	case enums.TransactionTypeAdjustment:
		next = req.Quantity
	}

	record.Quantity = next
	if err := repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save inventory row")
	}

	entry := &models.StockTransaction{
		ProductID:        req.ProductID,
		LocationID:       req.LocationID,
		TransactionType:  txType,
		Quantity:         req.Quantity,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Reason:           strings.TrimSpace(req.Reason),
		ReferenceNumber:  req.ReferenceNumber,
		CreatedBy:        actor.UserID,
	}
	if err := repo.AppendTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append stock transaction")
	}

	return &StockChangeResult{
		Record: InventoryView{
			ID:               record.ID,
			ProductID:        record.ProductID,
			LocationID:       record.LocationID,
			Quantity:         record.Quantity,
			ReservedQuantity: record.ReservedQuantity,
			LastUpdated:      record.LastUpdated,
		},
		Transaction: TransactionView{
			ID:               entry.ID,
			ProductID:        entry.ProductID,
			LocationID:       entry.LocationID,
			TransactionType:  entry.TransactionType,
			Quantity:         entry.Quantity,
			PreviousQuantity: entry.PreviousQuantity,
			NewQuantity:      entry.NewQuantity,
			Reason:           entry.Reason,
			ReferenceNumber:  entry.ReferenceNumber,
			CreatedBy:        entry.CreatedBy,
			CreatedAt:        entry.CreatedAt,
		},
	}, nil
}

func (s *service) scopeList(actor pkgAuth.Actor, params ListParams) ListParams {
	if !actor.IsAdmin() {
		params.scopeUserID = &actor.UserID
	}
	return params
}

func (s *service) recordOutcome(txType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			outcome = "insufficient_stock"
		}
	}
	s.stockMx.IncMutation(txType, outcome)
}

func projectInventory(rows []inventoryRow) []InventoryView {
	views := make([]InventoryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, InventoryView{
			ID:               row.ID,
			ProductID:        row.ProductID,
			ProductSKU:       row.ProductSKU,
			ProductName:      row.ProductName,
			LocationID:       row.LocationID,
			LocationName:     row.LocationName,
			Quantity:         row.Quantity,
			ReservedQuantity: row.ReservedQuantity,
			ReorderLevel:     row.ReorderLevel,
			LastUpdated:      row.LastUpdated,
		})
	}
	return views
}

func publicError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "internal error"
}
