package domain

import (
	"strings"
)

// NormalizeCity converts city input to normalized form for storage and querying.
// Examples: "Lviv" -> "lviv", "  KYIV  " -> "kyiv"
func NormalizeCity(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
