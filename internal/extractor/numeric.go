package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumericRe   = regexp.MustCompile(`[^\d.,]`)
	decimalCommaRe = regexp.MustCompile(`^\d+(?:\.\d{3})*,\d{1,2}$`)
	countRe        = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d+`)
)

// parseDecimal parses a locale-formatted amount out of marked-up text such as
// "US $1,299.99" or "4,99". Anything that does not reduce to a single
// non-negative number is reported as absent.
func parseDecimal(raw string) (float64, bool) {
	cleaned := nonNumericRe.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}

	if decimalCommaRe.MatchString(cleaned) {
		// Comma-decimal locale: dots are grouping, the comma is the point.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// parseCount pulls the first integer (with optional thousands separators) out
// of text like "(12,345 reviews)".
func parseCount(raw string) (int, bool) {
	match := countRe.FindString(raw)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return value, true
}
