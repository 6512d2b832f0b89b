package utils

import "strings"

// NormalizeSymbol upper-cases and trims a ticker symbol so uniqueness and
// filtering are case-insensitive by construction.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
