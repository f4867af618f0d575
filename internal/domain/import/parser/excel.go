package parser

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet with raw cell values so numeric dates
// stay serial numbers and amounts keep full precision.
func readXLSX(data []byte) ([][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, unreadable("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, unreadable("xlsx", errors.New("workbook has no sheets"))
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unreadable("xlsx", err)
	}

	grid := make([][]Cell, len(rows))
	for i, values := range rows {
		row := make([]Cell, len(values))
		for j, value := range values {
			if strings.TrimSpace(value) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, unreadable("xlsx", err)
			}
			cellType, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, unreadable("xlsx", err)
			}
			row[j] = xlsxCell(value, cellType)
		}
		grid[i] = row
	}
	return grid, nil
}

var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func xlsxCell(value string, cellType excelize.CellType) Cell {
	switch cellType {
	case excelize.CellTypeDate:
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
				return DateCell(t, value)
			}
		}
		return TextCell(value)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError:
		return TextCell(value)
	default:
		// Numbers, formula results and untyped cells.
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return NumberCell(n, value)
		}
		return TextCell(value)
	}
}
