package controllers

import (
	"net/http"
	"strings"

	"github.com/stocktrailhq/stocktrail-backend/api/middleware"
	"github.com/stocktrailhq/stocktrail-backend/api/responses"
	"github.com/stocktrailhq/stocktrail-backend/api/validators"
	"github.com/stocktrailhq/stocktrail-backend/internal/inventory"
	"github.com/stocktrailhq/stocktrail-backend/pkg/enums"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
)

// InventoryApply handles a single stock mutation.
func InventoryApply(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body inventory.StockChangeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		result, err := svc.ApplyStockChange(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// InventoryBulk handles a batch of independent stock mutations.
func InventoryBulk(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body inventory.BulkStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		results, err := svc.Bulk(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := inventoryListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		views, pageInfo, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, views, pageInfo)
	}
}

// InventoryLowStock lists records at or below their product's reorder
// level.
func InventoryLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := inventoryListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		views, pageInfo, err := svc.LowStock(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, views, pageInfo)
	}
}

// InventoryTransactions pages through the stock ledger.
func InventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := inventory.TransactionListParams{
			ProductID:  productID,
			LocationID: locationID,
			From:       from,
			To:         to,
			Page:       page,
			Limit:      limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("transaction_type")); raw != "" {
			txType, err := enums.ParseTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type filter"))
				return
			}
			params.TransactionType = &txType
		}

		actor := middleware.ActorFromContext(r.Context())
		views, pageInfo, err := svc.Transactions(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, views, pageInfo)
	}
}

func inventoryListParams(r *http.Request) (inventory.ListParams, error) {
	page, limit, err := validators.ParsePagination(r)
	if err != nil {
		return inventory.ListParams{}, err
	}
	productID, err := validators.ParseQueryUUID(r, "product_id")
	if err != nil {
		return inventory.ListParams{}, err
	}
	locationID, err := validators.ParseQueryUUID(r, "location_id")
	if err != nil {
		return inventory.ListParams{}, err
	}
	return inventory.ListParams{
		ProductID:  productID,
		LocationID: locationID,
		Page:       page,
		Limit:      limit,
	}, nil
}
