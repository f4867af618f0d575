package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
)

var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// readXLS reads the first worksheet of a legacy BIFF workbook. The library
// renders every cell as text; plain numbers are turned back into numbers so
// date serials and amounts behave as they do for XLSX.
func readXLS(data []byte) (grid [][]Cell, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, unreadable("xls", fmt.Errorf("%v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "cp1252")
	if err != nil {
		return nil, unreadable("xls", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, unreadable("xls", errors.New("workbook has no sheets"))
	}

	grid = make([][]Cell, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]Cell, row.LastCol()+1)
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells[j] = xlsCell(row.Col(j))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func xlsCell(value string) Cell {
	trimmed := strings.TrimSpace(value)
	if plainNumber.MatchString(trimmed) {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberCell(n, trimmed)
		}
	}
	return TextCell(trimmed)
}
