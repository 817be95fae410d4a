package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// Service produces XLSX bytes for the expanded monthly ledger.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportMonthlyRowsXLSX returns a workbook with one row per (line item, month)
// allocation, in the order given (chronological per item by construction).
func (s *Service) ExportMonthlyRowsXLSX(rows []entity.MonthlyRow) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Monthly Rows"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Service Month",
		"Invoice Number",
		"Vendor",
		"Currency",
		"Allocated Amount",
		"Split",
		"Confidence",
		"Line Item Ref",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowNum := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Month.Format("2006-01"))
		write(2, r.InvoiceNumber)
		write(3, r.VendorName)
		write(4, r.Currency)
		write(5, r.Amount.StringFixed(constants.MoneyPlaces))
		split := 0
		if r.Split {
			split = 1
		}
		write(6, split)
		write(7, r.Confidence)
		write(8, r.LineItemID.String())

		rowNum++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // month
	_ = f.SetColWidth(sheet, "B", "B", 20) // invoice number
	_ = f.SetColWidth(sheet, "C", "C", 32) // vendor
	_ = f.SetColWidth(sheet, "E", "E", 16) // amount
	_ = f.SetColWidth(sheet, "H", "H", 38) // ref

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
