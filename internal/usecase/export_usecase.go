package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

type orderExportUsecase struct {
	orders domain.OrderUsecase
}

// NewOrderExportUsecase exports the provider order queue through the order
// usecase, so the same guard and status filter apply.
func NewOrderExportUsecase(orders domain.OrderUsecase) domain.OrderExportUsecase {
	return &orderExportUsecase{orders: orders}
}

func (u *orderExportUsecase) ExportProviderQueue(ctx context.Context, p *domain.Principal, status domain.FulfillmentStatus, format string) ([]byte, string, error) {
	if format != "" && format != ExportFormatXLSX && format != ExportFormatCSV {
		return nil, "", apperror.Validation(fmt.Sprintf("Unsupported export format: %s", format))
	}

	orders, err := u.orders.ListForProvider(ctx, p, status)
	if err != nil {
		return nil, "", err
	}

	if format == ExportFormatCSV {
		return u.exportCSV(orders)
	}
	return u.exportExcel(orders)
}

func exportRow(o domain.Order) []string {
	title := ""
	if o.ProductTitle != nil {
		title = *o.ProductTitle
	}
	return []string{
		o.ID,
		title,
		o.BuyerID,
		fmt.Sprintf("%d", o.Quantity),
		o.UnitPriceSnapshot.StringFixed(2),
		o.TotalPrice.StringFixed(2),
		string(o.FulfillmentStatus),
		string(o.PaymentStatus),
		o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (u *orderExportUsecase) exportExcel(orders []domain.Order) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Orders"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", apperror.Internal(err)
	}

	headerNames := map[string]string{
		"order_id":           "ORDER ID",
		"product":            "PRODUCT",
		"buyer_id":           "BUYER",
		"quantity":           "QUANTITY",
		"unit_price":         "UNIT PRICE",
		"total_price":        "TOTAL PRICE",
		"fulfillment_status": "FULFILLMENT",
		"payment_status":     "PAYMENT",
		"created_at":         "PLACED AT",
	}
	for i, col := range domain.ExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, headerNames[col])
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#2F5D3A"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(domain.ExportColumns), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, order := range orders {
		for colIdx, value := range exportRow(order) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range domain.ExportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperror.Internal(fmt.Errorf("failed to write Excel file: %w", err))
	}

	filename := fmt.Sprintf("order_queue_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func (u *orderExportUsecase) exportCSV(orders []domain.Order) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(domain.ExportColumns); err != nil {
		return nil, "", apperror.Internal(err)
	}
	for _, order := range orders {
		if err := w.Write(exportRow(order)); err != nil {
			return nil, "", apperror.Internal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", apperror.Internal(err)
	}

	filename := fmt.Sprintf("order_queue_%s.csv", time.Now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}
