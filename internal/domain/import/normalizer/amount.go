package normalizer

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
)

// ParseAmount returns the magnitude of an amount cell rounded to cents and
// whether the source value was negative. Zero, blank and non-numeric values
// are rejected.
func ParseAmount(c parser.Cell) (magnitude decimal.Decimal, negative bool, ok bool) {
	var value decimal.Decimal
	switch c.Kind {
	case parser.CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return decimal.Zero, false, false
		}
		value = decimal.NewFromFloat(c.Number)
	case parser.CellText:
		v, valid := ParseAmountText(c.Text)
		if !valid {
			return decimal.Zero, false, false
		}
		value = v
	default:
		return decimal.Zero, false, false
	}

	magnitude = value.Abs().Round(2)
	if magnitude.IsZero() {
		return decimal.Zero, false, false
	}
	return magnitude, value.IsNegative(), true
}

// ParseAmountText parses a signed amount written with either decimal
// convention. Currency symbols, currency codes and whitespace are ignored; a
// minus sign (ASCII or U+2212) on either side or enclosing parentheses make
// it negative.
//
// When both ',' and '.' occur, the later one is the decimal separator. When
// only one of them occurs it is decimal only if one or two digits follow its
// last occurrence, otherwise it separates thousands.
func ParseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)

	negative, parens := false, false
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		switch {
		case isMinus(r):
			negative = true
		case r == '(':
			parens = true
		case r == '+' || unicode.IsLetter(r):
		default:
			return false
		}
		return true
	})
	s = strings.TrimRightFunc(s, func(r rune) bool {
		switch {
		case isMinus(r):
			negative = true
		case r == ')':
			negative = negative || parens
		case unicode.IsLetter(r):
		default:
			return false
		}
		return true
	})

	canonical, ok := canonicalNumber(s)
	if !ok {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		value = value.Neg()
	}
	return value, true
}

func isMinus(r rune) bool {
	return r == '-' || r == '\u2212'
}

// canonicalNumber rewrites digits and separators into "1234.56" form.
func canonicalNumber(s string) (string, bool) {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	decimalAt := -1
	switch {
	case lastComma >= 0 && lastDot >= 0:
		decimalAt = max(lastComma, lastDot)
	case lastComma >= 0:
		decimalAt = decimalIfShortTail(s, lastComma)
	case lastDot >= 0:
		decimalAt = decimalIfShortTail(s, lastDot)
	}

	var b strings.Builder
	b.Grow(len(s) + 1)
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
			digits++
		case i == decimalAt:
			if digits == 0 {
				b.WriteByte('0')
			}
			b.WriteByte('.')
		case c == ',' || c == '.':
		default:
			return "", false
		}
	}
	if digits == 0 {
		return "", false
	}
	return b.String(), true
}

func decimalIfShortTail(s string, sep int) int {
	if tail := len(s) - sep - 1; tail >= 1 && tail <= 2 {
		return sep
	}
	return -1
}
