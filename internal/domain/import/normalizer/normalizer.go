// Package normalizer converts parsed statement rows into canonical
// transactions: calendar dates at midday UTC, positive amounts with an
// INCOME/EXPENSE kind, and a fingerprint for duplicate detection.
package normalizer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
)

// Mapping names the headers holding each field. Category is optional.
type Mapping struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
}

// Transaction is a row that passed normalization.
type Transaction struct {
	// Row is the 1-based position of the source row among the data rows.
	Row          int
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	Kind         Kind
	Fingerprint  string
	CategoryName string
}

// DropReason explains why a row was left out.
type DropReason string

const (
	DropMissingField  DropReason = "missing_field"
	DropInvalidDate   DropReason = "invalid_date"
	DropInvalidAmount DropReason = "invalid_amount"
)

// Result holds the normalized rows in source order and per-reason counts
// of the rows that were dropped.
type Result struct {
	Transactions []Transaction
	TotalRows    int
	Dropped      map[DropReason]int
}

// DroppedCount is the number of rows that did not produce a transaction.
func (r Result) DroppedCount() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Normalizer applies the row rules with a fixed sign convention.
type Normalizer struct {
	convention SignConvention
}

// New creates a normalizer. The zero convention behaves as NegativeIsIncome.
func New(convention SignConvention) *Normalizer {
	return &Normalizer{convention: convention}
}

// Normalize processes every data row of table. Rows that fail any rule are
// counted, never reported individually.
func (n *Normalizer) Normalize(table *parser.RawTable, m Mapping) Result {
	result := Result{
		Transactions: make([]Transaction, 0, len(table.Rows)),
		TotalRows:    len(table.Rows),
		Dropped:      make(map[DropReason]int),
	}

	for i, row := range table.Rows {
		tx, reason, ok := n.NormalizeRow(row, m)
		if !ok {
			result.Dropped[reason]++
			continue
		}
		tx.Row = i + 1
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

// NormalizeRow applies the presence, date and amount rules to one row.
func (n *Normalizer) NormalizeRow(row parser.RawRow, m Mapping) (Transaction, DropReason, bool) {
	dateCell := row.Get(m.Date)
	amountCell := row.Get(m.Amount)
	description := cleanDescription(row.Get(m.Description).Text)
	if dateCell.IsEmpty() || amountCell.IsEmpty() || description == "" {
		return Transaction{}, DropMissingField, false
	}

	date, ok := ParseDate(dateCell)
	if !ok {
		return Transaction{}, DropInvalidDate, false
	}

	amount, negative, ok := ParseAmount(amountCell)
	if !ok {
		return Transaction{}, DropInvalidAmount, false
	}

	tx := Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Kind:        n.convention.KindForSign(negative),
		Fingerprint: Fingerprint(date, amount, description),
	}
	if m.Category != "" {
		tx.CategoryName = cleanDescription(row.Get(m.Category).Text)
	}
	return tx, "", true
}

// cleanDescription trims and collapses internal runs of whitespace.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
