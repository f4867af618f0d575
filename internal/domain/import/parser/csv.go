package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/FACorreiaa/echo-import/internal/domain/import/sniffer"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// readCSV reads delimited text. All cells are text.
func readCSV(data []byte) ([][]Cell, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, unreadable("csv", err)
	}
	if bytes.IndexByte(text, 0) >= 0 {
		return nil, unreadable("csv", errors.New("binary content"))
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = sniffer.DetectDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, unreadable("csv", err)
	}

	grid := make([][]Cell, len(records))
	for i, record := range records {
		row := make([]Cell, len(record))
		for j, value := range record {
			row[j] = TextCell(value)
		}
		grid[i] = row
	}
	return grid, nil
}

// decodeText returns UTF-8 text without a byte order mark. UTF-16 input is
// recognised by its BOM; other invalid UTF-8 is read as Windows-1252, the
// usual encoding of bank exports that are not UTF-8.
func decodeText(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return decoded, err
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	}

	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}
