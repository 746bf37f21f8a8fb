package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteXLSX writes the same table WriteCSV would produce into a single
// worksheet. Decimal cells are stored as numbers.
func WriteXLSX(w io.Writer, sheet string, records []Record) error {
	if len(records) == 0 {
		return ErrNoData
	}
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	header, rows := Table(records)
	headerCells := make([]any, len(header))
	for i, key := range header {
		headerCells[i] = key
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for index, row := range rows {
		cells := make([]any, len(row))
		for i, value := range row {
			cells[i] = cellValue(value)
		}
		cell, err := excelize.CoordinatesToCellName(1, index+2)
		if err != nil {
			return fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", index+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx file: %w", err)
	}
	return nil
}

func cellValue(value any) any {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		return v.InexactFloat64()
	case int, int64, float64, bool:
		return v
	default:
		return FormatValue(v)
	}
}
