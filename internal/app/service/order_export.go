package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	ExportSheetName  = "Orders"
	exportTimeLayout = "2006-01-02 15:04"
)

var exportHeaders = []interface{}{
	"Order Number", "Placed At", "Customer", "Email", "Phone",
	"Address", "City", "Postal Code", "Country",
	"Items", "Total (Rs.)", "Payment Method", "Paid", "Tracking Status", "Delivered At",
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func exportRow(order *model.Order) []interface{} {
	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		label := fmt.Sprintf("%s x%d", item.Title, item.Quantity)
		if item.Size != "" {
			label = fmt.Sprintf("%s (%s) x%d", item.Title, item.Size, item.Quantity)
		}
		items = append(items, label)
	}

	deliveredAt := ""
	if order.DeliveredAt != nil {
		deliveredAt = order.DeliveredAt.Format(exportTimeLayout)
	}

	return []interface{}{
		order.OrderNumber,
		order.CreatedAt.Format(exportTimeLayout),
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingAddress.Address,
		order.ShippingAddress.City,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		strings.Join(items, ", "),
		order.TotalPrice,
		string(order.PaymentMethod),
		yesNo(order.IsPaid),
		string(order.TrackingStatus),
		deliveredAt,
	}
}

// ExportOrders writes every order, newest first, as an XLSX workbook and
// returns the number of rows written.
func (s *orderService) ExportOrders(ctx context.Context, w io.Writer) (int, error) {
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(ExportSheetName, "A1", &exportHeaders); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(ExportSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return 0, fmt.Errorf("failed to style header: %w", err)
	}

	for i := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := exportRow(&orders[i])
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write order %s: %w", orders[i].OrderNumber, err)
		}
	}

	if err := f.SetPanes(ExportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	logger.Info("Orders exported", map[string]interface{}{
		"rows": len(orders),
	})
	return len(orders), nil
}
