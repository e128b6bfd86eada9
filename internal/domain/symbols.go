package domain

import "strings"

// NormalizeSymbol collapses index symbol spellings:
// "NIFTY 50" -> "NIFTY", "BANK NIFTY" -> "BANKNIFTY".
func NormalizeSymbol(symbol string) string {
	if symbol == "" {
		return symbol
	}

	s := strings.ToUpper(strings.ReplaceAll(symbol, " ", ""))
	if strings.Contains(s, "BANK") && strings.Contains(s, "NIFTY") {
		return "BANKNIFTY"
	}
	if s == "NIFTY" || s == "NIFTY50" {
		return "NIFTY"
	}

	return symbol
}
