package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/echo-import/internal/domain/import/parser"
)

// spreadsheetEpoch is day zero of spreadsheet date serials. Using 1899-12-30
// instead of 1900-01-01 absorbs the fictitious 1900-02-29.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is the serial of 9999-12-31.
const maxSerial = 2958465

// genericDateLayouts are tried, in order, for text that is not a plain
// three-part numeric date.
var genericDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"20060102",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"02-Jan-06",
}

func midday(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// ParseDate normalizes a date cell to midday UTC of its calendar day.
func ParseDate(c parser.Cell) (time.Time, bool) {
	switch c.Kind {
	case parser.CellDate:
		y, m, d := c.Time.Date()
		return midday(y, m, d), true
	case parser.CellNumber:
		return SerialToDate(c.Number)
	case parser.CellText:
		return ParseDateText(c.Text)
	default:
		return time.Time{}, false
	}
}

// SerialToDate converts a spreadsheet date serial. The fractional time of
// day is discarded.
func SerialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSerial {
		return time.Time{}, false
	}
	t := spreadsheetEpoch.AddDate(0, 0, int(math.Floor(serial)))
	return midday(t.Year(), t.Month(), t.Day()), true
}

// ParseDateText parses text dates. Three numeric parts are resolved by
// ParseDateParts and never fall through to the generic layouts.
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if parts, ok := splitDateParts(s); ok {
		return ParseDateParts(parts)
	}

	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return midday(y, m, d), true
		}
	}
	return time.Time{}, false
}

func isDateSeparator(r rune) bool {
	return r == '/' || r == '-' || r == '.' || r == ' '
}

// splitDateParts reports whether s is exactly three runs of digits joined
// by date separators.
func splitDateParts(s string) ([3]string, bool) {
	var out [3]string
	fields := strings.FieldsFunc(s, isDateSeparator)
	if len(fields) != 3 {
		return out, false
	}
	for i, f := range fields {
		for _, r := range f {
			if r < '0' || r > '9' {
				return out, false
			}
		}
		out[i] = f
	}
	return out, true
}

// ParseDateParts resolves a three-part numeric date.
//
// A four-digit first part is a year followed by month and day, unless the
// middle part exceeds 12, in which case it is the day. Otherwise the last
// part is the year and the first two parts are day and month: whichever
// exceeds 12 is the day, and day-first is assumed when neither does.
// Two-digit years map to 2000-2049 and 1950-1999.
func ParseDateParts(parts [3]string) (time.Time, bool) {
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	c, errC := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errC != nil {
		return time.Time{}, false
	}
	if len(parts[1]) > 2 {
		return time.Time{}, false
	}

	var year, month, day int
	switch {
	case len(parts[0]) == 4:
		if len(parts[2]) > 2 {
			return time.Time{}, false
		}
		year = a
		if b > 12 {
			day, month = b, c
		} else {
			month, day = b, c
		}
	case len(parts[0]) <= 2 && (len(parts[2]) == 4 || len(parts[2]) <= 2):
		year = c
		if len(parts[2]) <= 2 {
			year = expandYear(c)
		}
		switch {
		case a > 12:
			day, month = a, b
		case b > 12:
			month, day = a, b
		default:
			day, month = a, b
		}
	default:
		return time.Time{}, false
	}

	return calendarDate(year, month, day)
}

func expandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

// calendarDate rejects impossible dates instead of letting time.Date roll
// them over into the next month.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return time.Time{}, false
	}
	t := midday(year, time.Month(month), day)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
