// Package upload describes a statement file as received from a client.
package upload

import (
	"path/filepath"
	"strings"
)

// Format is the tabular format of an upload, derived from its file extension.
type Format string

const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
)

var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".tsv":  FormatCSV,
	".txt":  FormatCSV,
	".xlsx": FormatXLSX,
	".xls":  FormatXLS,
}

// File is an uploaded statement. Size is the size declared by the client;
// Data holds the payload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Extension returns the lower-cased extension of the file name, dot included.
func (f File) Extension() string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(f.Name)))
}

// Format returns the format implied by the extension, or FormatUnknown.
func (f File) Format() Format {
	return extensionFormats[f.Extension()]
}

// EffectiveSize is the larger of the declared size and the payload length.
func (f File) EffectiveSize() int64 {
	if n := int64(len(f.Data)); n > f.Size {
		return n
	}
	return f.Size
}

// SupportedExtensions lists the accepted extensions in a stable order.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".txt", ".xlsx", ".xls"}
}
