package normalizer

import "fmt"

// Kind classifies a transaction as money in or money out.
type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

// SignConvention decides which sign of a statement amount means income.
type SignConvention string

const (
	// NegativeIsIncome maps negative amounts to INCOME and positive ones to
	// EXPENSE. It is the default and matches the historical behaviour of
	// the importer.
	NegativeIsIncome SignConvention = "negative_is_income"
	// NegativeIsExpense is the usual bank-statement reading: debits are
	// negative.
	NegativeIsExpense SignConvention = "negative_is_expense"
)

// ParseSignConvention accepts the configuration spelling of a convention.
// An empty value selects NegativeIsIncome.
func ParseSignConvention(s string) (SignConvention, error) {
	switch SignConvention(s) {
	case "", NegativeIsIncome:
		return NegativeIsIncome, nil
	case NegativeIsExpense:
		return NegativeIsExpense, nil
	default:
		return "", fmt.Errorf("unknown sign convention %q", s)
	}
}

// KindForSign is the single place where an amount's sign becomes a Kind.
func (c SignConvention) KindForSign(negative bool) Kind {
	if c == NegativeIsExpense {
		if negative {
			return KindExpense
		}
		return KindIncome
	}
	if negative {
		return KindIncome
	}
	return KindExpense
}
