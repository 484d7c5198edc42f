package oversight

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

const timeLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"ID", "OrderNumber", "Status", "PaymentStatus", "PaymentMethod",
	"TotalAmount", "Currency", "Buyer", "CreatedAt", "UpdatedAt",
}

// ExportOrders writes the orders created since the given time as an xlsx
// workbook and returns how many rows were written.
func (s *Service) ExportOrders(ctx context.Context, w io.Writer, since time.Time) (int, error) {
	orders, err := s.store.OrdersBetween(ctx, since, s.store.Now().Add(time.Second), s.limit())
	if err != nil {
		return 0, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return 0, fmt.Errorf("oversight: create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}
	for _, o := range orders {
		writeOrderRow(sheet.AddRow(), &o)
	}

	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("oversight: write workbook: %w", err)
	}
	return len(orders), nil
}

func writeOrderRow(row *xlsx.Row, o *models.Order) {
	buyer := "guest"
	if o.BuyerUserID != nil {
		buyer = *o.BuyerUserID
	}
	row.AddCell().SetValue(o.ID)
	row.AddCell().SetValue(o.OrderNumber)
	row.AddCell().SetValue(string(o.Status))
	row.AddCell().SetValue(string(o.PaymentStatus))
	row.AddCell().SetValue(string(o.PaymentMethod))
	row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
	row.AddCell().SetValue(o.Currency)
	row.AddCell().SetValue(buyer)
	row.AddCell().SetValue(o.CreatedAt.Format(timeLayout))
	row.AddCell().SetValue(o.UpdatedAt.Format(timeLayout))
}
