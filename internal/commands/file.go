package commands

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
)

func readStatement(path string) (upload.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return upload.File{}, fmt.Errorf("reading statement: %w", err)
	}
	return upload.File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
