package util

import (
	"strconv"
	"strings"
)

// ReplaceDecimalComma turns every comma into a point. It does not look at
// thousands separators or quoting.
func ReplaceDecimalComma(input string) string {
	return strings.ReplaceAll(input, ",", ".")
}

// ParsePercent parses a participation field such as "8,123;" or " 10.5 ".
// Trailing semicolons are stripped before parsing; commas are not touched.
func ParsePercent(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, ";")
	s = strings.TrimSpace(s)
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders a value in the shortest form that parses back to it.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
