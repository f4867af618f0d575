package service

import (
	"fmt"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-import/internal/domain/import/sniffer"
)

// ResolveMapping fills fields missing from requested with the inferred
// suggestion, then checks that every named header exists and that date,
// description and amount are set and distinct.
func ResolveMapping(table *parser.RawTable, requested normalizer.Mapping) (normalizer.Mapping, error) {
	suggested := sniffer.InferMapping(table.Headers)

	m := requested
	if m.Date == "" {
		m.Date = suggested.Date
	}
	if m.Description == "" {
		m.Description = suggested.Description
	}
	if m.Amount == "" {
		m.Amount = suggested.Amount
	}
	if m.Category == "" {
		m.Category = suggested.Category
	}

	required := []struct{ field, header string }{
		{"date", m.Date}, {"description", m.Description}, {"amount", m.Amount},
	}
	for _, r := range required {
		if r.header == "" {
			return m, fmt.Errorf("%w: no column for %s", ErrInvalidMapping, r.field)
		}
	}
	for _, header := range []string{m.Date, m.Description, m.Amount, m.Category} {
		if header != "" && !table.HasHeader(header) {
			return m, fmt.Errorf("%w: unknown column %q", ErrInvalidMapping, header)
		}
	}
	if m.Date == m.Description || m.Date == m.Amount || m.Description == m.Amount {
		return m, fmt.Errorf("%w: date, description and amount need distinct columns", ErrInvalidMapping)
	}
	// An inferred category column that collides with a required one is dropped.
	if m.Category == m.Date || m.Category == m.Description || m.Category == m.Amount {
		if requested.Category != "" {
			return m, fmt.Errorf("%w: category column %q is already mapped", ErrInvalidMapping, m.Category)
		}
		m.Category = ""
	}
	return m, nil
}
