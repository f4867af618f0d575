// Package parser turns an uploaded statement (CSV/TSV, XLSX or XLS) into a
// uniform table of typed cells keyed by header.
package parser

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
)

var (
	ErrUnreadableFile = errors.New("file could not be read")
	ErrEmptyFile      = errors.New("file has no data rows")
)

// Parse decodes f according to the format implied by its extension. The
// first non-empty row provides the headers.
func Parse(f upload.File) (*RawTable, error) {
	var (
		grid [][]Cell
		err  error
	)

	switch format := f.Format(); format {
	case upload.FormatCSV:
		grid, err = readCSV(f.Data)
	case upload.FormatXLSX:
		grid, err = readXLSX(f.Data)
	case upload.FormatXLS:
		grid, err = readXLS(f.Data)
	default:
		return nil, fmt.Errorf("%w: no reader for %q", ErrUnreadableFile, f.Name)
	}
	if err != nil {
		return nil, err
	}

	return buildTable(grid)
}

func unreadable(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnreadableFile, format, err)
}
