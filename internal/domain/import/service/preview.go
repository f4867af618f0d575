package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/upload"
	"github.com/FACorreiaa/echo-import/internal/domain/import/validator"
)

// PreviewResult is what a client needs to confirm a column mapping.
type PreviewResult struct {
	FileName    string             `json:"file_name"`
	Format      upload.Format      `json:"format"`
	ContentType string             `json:"content_type,omitempty"`
	Headers     []string           `json:"headers"`
	Suggested   sniffer.Suggestion `json:"suggested_mapping"`
	// MappingComplete is false when the client must name at least one of
	// the date, description and amount columns before committing.
	MappingComplete bool `json:"mapping_complete"`
	RowCount        int  `json:"row_count"`
	// Rows holds the first data rows as text, aligned with Headers.
	Rows [][]string `json:"rows"`
}

// Preview validates and parses f and suggests a mapping. It never writes.
func (s *ImportService) Preview(ctx context.Context, ownerID string, f upload.File) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Preview")
	defer span.End()
	span.SetAttributes(attribute.String("import.file_name", f.Name))

	report, table, err := s.load(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	n := min(s.opts.PreviewRows, len(table.Rows))
	rows := make([][]string, n)
	for i := range n {
		rows[i] = make([]string, len(table.Headers))
		for j, h := range table.Headers {
			rows[i][j] = table.Rows[i].Get(h).String()
		}
	}

	suggested := sniffer.InferMapping(table.Headers)
	result := &PreviewResult{
		FileName:        f.Name,
		Format:          report.Format,
		ContentType:     report.ContentType,
		Headers:         table.Headers,
		Suggested:       suggested,
		MappingComplete: suggested.Complete(),
		RowCount:        len(table.Rows),
		Rows:            rows,
	}

	s.logger.DebugContext(ctx, "import previewed",
		slog.String("owner_id", ownerID),
		slog.String("file_name", f.Name),
		slog.Int("rows", result.RowCount))
	span.SetAttributes(attribute.Int("import.rows", result.RowCount))
	return result, nil
}

// Normalize runs validation, parsing, mapping resolution and normalization
// without touching the store. It backs dry runs.
func (s *ImportService) Normalize(f upload.File, requested normalizer.Mapping) (*normalizer.Result, normalizer.Mapping, error) {
	_, table, err := s.load(f)
	if err != nil {
		return nil, normalizer.Mapping{}, err
	}
	m, err := ResolveMapping(table, requested)
	if err != nil {
		return nil, m, err
	}
	result := s.normalizer.Normalize(table, m)
	return &result, m, nil
}

// load validates f before parsing it, so an oversized or unsupported file
// is rejected before any byte is decoded.
func (s *ImportService) load(f upload.File) (*validator.Report, *parser.RawTable, error) {
	report, err := s.validator.Validate(f)
	if err != nil {
		return nil, nil, err
	}
	table, err := parser.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %q: %w", f.Name, err)
	}
	return report, table, nil
}
