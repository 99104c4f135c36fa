package control

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary cell into a decimal. Both the Latin style
// "1.234.567,89" and the anglo style "1,234,567.89" are accepted, as well as
// plain numbers, a leading currency symbol and surrounding whitespace.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(strings.TrimSuffix(s, "COP"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// Latin: dots group thousands, comma is the decimal separator.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// Anglo: commas group thousands.
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if thousandsGrouped(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		// "150.000" is a grouped Latin integer, "12.5" is a decimal.
		if thousandsGrouped(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// thousandsGrouped reports whether every separator-delimited group after the
// first has exactly three digits, i.e. the separator groups thousands.
func thousandsGrouped(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
