package sales

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgAuth "github.com/stocktrailhq/stocktrail-backend/pkg/auth"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
)

// Required CSV columns in order. Customer columns are optional.
var csvRequiredColumns = []string{"product_sku", "location_name", "quantity", "unit_price"}

const maxBulkUploadRows = 1000

type csvColumns struct {
	productSKU    int
	locationName  int
	quantity      int
	unitPrice     int
	customerName  int
	customerEmail int
	customerPhone int
}

// BulkUpload ingests a CSV of sales. Each row is processed independently in
// its own transaction; failed rows are reported by number without aborting
// the rest. Row numbers start at 2, matching the data rows of the file.
func (s *service) BulkUpload(ctx context.Context, actor pkgAuth.Actor, csvData []byte) (*BulkUploadResult, error) {
	if len(csvData) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty file")
	}

	reader := csv.NewReader(bytes.NewReader(csvData))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unable to read CSV header")
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &BulkUploadResult{}
	rowNumber := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNumber++
		if rowNumber-1 > maxBulkUploadRows {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("file exceeds %d rows", maxBulkUploadRows))
		}
		if err != nil {
			result.Rows = append(result.Rows, BulkUploadRowResult{
				Row:   rowNumber,
				Error: "malformed CSV row",
			})
			result.Failed++
			result.Total++
			continue
		}

		result.Total++
		saleID, err := s.ingestRow(ctx, actor, columns, record)
		if err != nil {
			result.Rows = append(result.Rows, BulkUploadRowResult{
				Row:   rowNumber,
				Error: publicRowError(err),
			})
			result.Failed++
			continue
		}
		result.Rows = append(result.Rows, BulkUploadRowResult{
			Row:     rowNumber,
			Success: true,
			SaleID:  saleID,
		})
		result.Succeeded++
	}

	if result.Total == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file has no data rows")
	}
	return result, nil
}

func (s *service) ingestRow(ctx context.Context, actor pkgAuth.Actor, columns csvColumns, record []string) (saleID uuid.UUID, err error) {
	get := func(index int) string {
		if index < 0 || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	sku := get(columns.productSKU)
	if sku == "" {
		return saleID, pkgerrors.New(pkgerrors.CodeValidation, "product_sku is required")
	}
	locationName := get(columns.locationName)
	if locationName == "" {
		return saleID, pkgerrors.New(pkgerrors.CodeValidation, "location_name is required")
	}

	quantity, err := strconv.Atoi(get(columns.quantity))
	if err != nil || quantity <= 0 {
		return saleID, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	unitPrice, err := decimal.NewFromString(get(columns.unitPrice))
	if err != nil || unitPrice.IsNegative() {
		return saleID, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be a non-negative number")
	}

	product, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return saleID, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown product SKU %q", sku))
		}
		return saleID, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product")
	}
	location, err := s.locations.FindByName(ctx, locationName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return saleID, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown location %q", locationName))
		}
		return saleID, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve location")
	}

	req := CreateSaleRequest{
		ProductID:  product.ID,
		LocationID: location.ID,
		Quantity:   quantity,
		UnitPrice:  &unitPrice,
	}
	if v := get(columns.customerName); v != "" {
		req.CustomerName = &v
	}
	if v := get(columns.customerEmail); v != "" {
		req.CustomerEmail = &v
	}
	if v := get(columns.customerPhone); v != "" {
		req.CustomerPhone = &v
	}

	view, err := s.create(ctx, actor, req, bulkSaleReason, "BULK-SALE-%s")
	if err != nil {
		return saleID, err
	}
	return view.ID, nil
}

func mapColumns(header []string) (csvColumns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	missing := []string{}
	for _, name := range csvRequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return csvColumns{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}
	return csvColumns{
		productSKU:    lookup("product_sku"),
		locationName:  lookup("location_name"),
		quantity:      lookup("quantity"),
		unitPrice:     lookup("unit_price"),
		customerName:  lookup("customer_name"),
		customerEmail: lookup("customer_email"),
		customerPhone: lookup("customer_phone"),
	}, nil
}

func publicRowError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "internal error"
}
