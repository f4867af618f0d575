package parser

import (
	"strconv"
	"strings"
	"time"
)

// CellKind is the type of a parsed cell value.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is one value of a row. Text always holds the trimmed source text,
// Number is set for CellNumber and Time for CellDate.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// TextCell builds a text cell; blank input yields an empty cell.
func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell keeping the source text for display.
func NumberCell(n float64, raw string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return Cell{Kind: CellNumber, Number: n, Text: raw}
}

// DateCell builds a native date cell.
func DateCell(t time.Time, raw string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = t.Format(time.RFC3339)
	}
	return Cell{Kind: CellDate, Time: t, Text: raw}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String renders the cell for previews.
func (c Cell) String() string {
	return c.Text
}

// RawRow maps header text to the cell found under that header. Headers with
// no value in the row are absent.
type RawRow map[string]Cell

// Get returns the cell under header, or an empty cell.
func (r RawRow) Get(header string) Cell {
	return r[header]
}

// RawTable is the uniform result of parsing any supported format. Headers are
// unique; Rows excludes the header row and rows with no values at all.
type RawTable struct {
	Headers []string
	Rows    []RawRow
}

// HasHeader reports whether name is one of the table headers.
func (t *RawTable) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func rowIsEmpty(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func rowWidth(row []Cell) int {
	for i := len(row) - 1; i >= 0; i-- {
		if !row[i].IsEmpty() {
			return i + 1
		}
	}
	return 0
}

// buildTable turns a grid of cells into a RawTable. The first non-empty row
// supplies the headers; fully empty rows are skipped.
func buildTable(grid [][]Cell) (*RawTable, error) {
	headerIdx := -1
	for i, row := range grid {
		if !rowIsEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	width := 0
	for _, row := range grid[headerIdx:] {
		width = max(width, rowWidth(row))
	}

	headerCells := grid[headerIdx]
	rawHeaders := make([]string, width)
	for i := 0; i < width && i < len(headerCells); i++ {
		rawHeaders[i] = headerCells[i].String()
	}
	headers := uniqueHeaders(rawHeaders)

	table := &RawTable{Headers: headers}
	for _, row := range grid[headerIdx+1:] {
		if rowIsEmpty(row) {
			continue
		}
		raw := make(RawRow, len(headers))
		for i, h := range headers {
			if i < len(row) && !row[i].IsEmpty() {
				raw[h] = row[i]
			}
		}
		table.Rows = append(table.Rows, raw)
	}

	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return table, nil
}

// uniqueHeaders names blank headers __EMPTY, __EMPTY_1, ... and suffixes
// repeated names with _1, _2, ... in column order.
func uniqueHeaders(raw []string) []string {
	used := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		base := h
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for used[name] {
			counts[base]++
			name = base + "_" + strconv.Itoa(counts[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
