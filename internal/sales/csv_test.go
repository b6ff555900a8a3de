package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrailhq/stocktrail-backend/pkg/db/models"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
)

func TestBulkUpload_IngestsRows(t *testing.T) {
	f := newSalesFixture(t)
	f.stock(t, 20)

	data := []byte(`product_sku,location_name,quantity,unit_price,customer_name
LAP-001,Main Store,2,1299.99,Alice Chen
LAP-001,Main Store,3,1199.00,
`)
	result, err := f.svc.BulkUpload(context.Background(), f.admin, data)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 2, result.Rows[0].Row)
	assert.Equal(t, 3, result.Rows[1].Row)
	assert.True(t, result.Rows[0].Success)

	assert.Equal(t, 15, f.quantityOnHand(t))

	var sale models.Sale
	require.NoError(t, f.conn.First(&sale, "id = ?", result.Rows[0].SaleID).Error)
	require.NotNil(t, sale.CustomerName)
	assert.Equal(t, "Alice Chen", *sale.CustomerName)

	var ledgerEntry models.StockTransaction
	require.NoError(t, f.conn.First(&ledgerEntry, "reason = ?", "Bulk sale upload").Error)
	require.NotNil(t, ledgerEntry.ReferenceNumber)
	assert.Contains(t, *ledgerEntry.ReferenceNumber, "BULK-SALE-")
}

func TestBulkUpload_MissingColumnsRejected(t *testing.T) {
	f := newSalesFixture(t)

	data := []byte("product_sku,quantity\nLAP-001,2\n")
	_, err := f.svc.BulkUpload(context.Background(), f.admin, data)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "location_name")
	assert.Contains(t, typed.Message(), "unit_price")
}

func TestBulkUpload_RowFailuresAreIndependent(t *testing.T) {
	f := newSalesFixture(t)
	f.stock(t, 10)

	data := []byte(`product_sku,location_name,quantity,unit_price
NOPE-999,Main Store,1,10.00
LAP-001,Ghost Town,1,10.00
LAP-001,Main Store,-2,10.00
LAP-001,Main Store,4,1299.99
`)
	result, err := f.svc.BulkUpload(context.Background(), f.admin, data)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Rows, 4)

	assert.Equal(t, 2, result.Rows[0].Row)
	assert.Contains(t, result.Rows[0].Error, "NOPE-999")
	assert.Equal(t, 3, result.Rows[1].Row)
	assert.Contains(t, result.Rows[1].Error, "Ghost Town")
	assert.Equal(t, 4, result.Rows[2].Row)
	assert.Contains(t, result.Rows[2].Error, "positive integer")
	assert.True(t, result.Rows[3].Success)

	// Only the valid row touched stock.
	assert.Equal(t, 6, f.quantityOnHand(t))
}

func TestBulkUpload_EmptyFileRejected(t *testing.T) {
	f := newSalesFixture(t)

	_, err := f.svc.BulkUpload(context.Background(), f.admin, nil)
	require.Error(t, err)

	_, err = f.svc.BulkUpload(context.Background(), f.admin, []byte("product_sku,location_name,quantity,unit_price\n"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "file has no data rows", typed.Message())
}
