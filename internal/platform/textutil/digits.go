package textutil

import (
	"strconv"
	"strings"
	"unicode"
)

// arabicIndicDigits maps Arabic-Indic and Extended Arabic-Indic digits to ASCII.
var arabicIndicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

// NormalizeDigits rewrites Arabic-Indic digits to their ASCII equivalents,
// leaving every other rune untouched.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := arabicIndicDigits[r]; ok {
			return ascii
		}
		return r
	}, s)
}

// ParseNumber parses user-supplied numeric text leniently. Arabic-Indic digits
// are normalized, a lone comma is treated as a decimal separator, and
// whitespace used as thousand grouping is stripped. The second return value
// reports whether a finite number could be extracted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = NormalizeDigits(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
