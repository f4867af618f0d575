package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
)

var mapping = Mapping{Date: "Data", Description: "Descrição", Amount: "Valor", Category: "Categoria"}

func row(date, desc, amount, category string) parser.RawRow {
	r := parser.RawRow{}
	for header, value := range map[string]string{"Data": date, "Descrição": desc, "Valor": amount, "Categoria": category} {
		if c := parser.TextCell(value); !c.IsEmpty() {
			r[header] = c
		}
	}
	return r
}

func TestNormalizer_Normalize(t *testing.T) {
	table := &parser.RawTable{
		Headers: []string{"Data", "Descrição", "Valor", "Categoria"},
		Rows: []parser.RawRow{
			row("31/01/2026", "  Café   Central ", "-2,50", "Food"),
			row("01/02/2026", "Salário", "1.234,56", ""),
			row("", "No date", "1,00", ""),
			row("01/02/2026", "", "1,00", ""),
			row("01/02/2026", "No amount", "", ""),
			row("31/02/2026", "Bad date", "1,00", ""),
			row("01/02/2026", "Bad amount", "n/a", ""),
			row("01/02/2026", "Zero", "0,00", ""),
		},
	}

	result := New(NegativeIsIncome).Normalize(table, mapping)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 8, result.TotalRows)
	assert.Equal(t, 6, result.DroppedCount())
	assert.Equal(t, map[DropReason]int{DropMissingField: 3, DropInvalidDate: 1, DropInvalidAmount: 2}, result.Dropped)
	assert.Equal(t, result.TotalRows, len(result.Transactions)+result.DroppedCount())

	first := result.Transactions[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, day(2026, 1, 31), first.Date)
	assert.Equal(t, "Café Central", first.Description)
	assert.Equal(t, "2.50", first.Amount.StringFixed(2))
	assert.Equal(t, KindIncome, first.Kind)
	assert.Equal(t, "Food", first.CategoryName)
	assert.Equal(t, Fingerprint(first.Date, first.Amount, "café central"), first.Fingerprint)

	second := result.Transactions[1]
	assert.Equal(t, 2, second.Row)
	assert.Equal(t, KindExpense, second.Kind)
	assert.Equal(t, "1234.56", second.Amount.StringFixed(2))
	assert.Empty(t, second.CategoryName)
}

func TestNormalizer_SignConvention(t *testing.T) {
	table := &parser.RawTable{Rows: []parser.RawRow{row("31/01/2026", "Refund", "-10", "")}}

	result := New(NegativeIsExpense).Normalize(table, mapping)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, KindExpense, result.Transactions[0].Kind)
}

func TestNormalizer_NativeCells(t *testing.T) {
	table := &parser.RawTable{Rows: []parser.RawRow{{
		"Data":      parser.NumberCell(46053, ""),
		"Descrição": parser.NumberCell(12345, ""),
		"Valor":     parser.NumberCell(99.999, ""),
	}}}

	result := New("").Normalize(table, mapping)
	require.Len(t, result.Transactions, 1)

	tx := result.Transactions[0]
	assert.Equal(t, day(2026, 1, 31), tx.Date)
	assert.Equal(t, "12345", tx.Description)
	assert.Equal(t, "100.00", tx.Amount.StringFixed(2))
	assert.Equal(t, KindExpense, tx.Kind)
}

func TestNormalizer_UnknownHeadersDropEverything(t *testing.T) {
	table := &parser.RawTable{Rows: []parser.RawRow{row("31/01/2026", "x", "1", "")}}

	result := New("").Normalize(table, Mapping{Date: "nope", Description: "Descrição", Amount: "Valor"})
	assert.Empty(t, result.Transactions)
	assert.Equal(t, 1, result.Dropped[DropMissingField])
}
