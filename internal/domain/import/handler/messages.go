package handler

import (
	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
)

// PreviewImportRequest carries the raw statement. Content is base64 in JSON.
type PreviewImportRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

type PreviewImportResponse struct {
	Preview *importservice.PreviewResult `json:"preview"`
}

type CommitImportRequest struct {
	FileName          string             `json:"file_name"`
	ContentType       string             `json:"content_type,omitempty"`
	Content           []byte             `json:"content"`
	AccountID         string             `json:"account_id"`
	DefaultCategoryID string             `json:"default_category_id,omitempty"`
	Mapping           normalizer.Mapping `json:"mapping"`
}

type CommitImportResponse struct {
	Result *importservice.CommitResult `json:"result"`
}

type GetImportLogRequest struct {
	LogID string `json:"log_id"`
}

type GetImportLogResponse struct {
	Log *repository.ImportLog `json:"log"`
}

type ListImportLogsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListImportLogsResponse struct {
	Logs []repository.ImportLog `json:"logs"`
}
