package core

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// numberFormats are humanize directives for '.' thousands and ',' decimals,
// indexed by the number of fractional digits.
var numberFormats = []string{"#.###,", "#.###,#", "#.###,##"}

// FormatNumber renders v with '.' as the thousands separator and ',' as the
// decimal mark, keeping at most decimals (0 to 2) fractional digits.
//
// Examples:
//
//	FormatNumber(1234567.5, 2) -> "1.234.567,5"
//	FormatNumber(-2000, 0)     -> "-2.000"
//	FormatNumber(NaN, 2)       -> "-"
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	decimals = min(max(decimals, 0), len(numberFormats)-1)
	s := humanize.FormatFloat(numberFormats[decimals], v)
	if strings.Contains(s, ",") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ",")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// IsPercent reports whether m is expressed in percentage points.
func (m Metric) IsPercent() bool {
	switch m {
	case InvestmentPct2025, InvestmentPct2026, BudgetDeltaPct, InvestmentDeltaPct:
		return true
	}
	return false
}

// FormatValue renders one metric value for tables and tooltips: percentages
// with one decimal and a '%' sign, amounts in reais without cents. A missing
// value renders as "-".
func FormatValue(m Metric, v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if m.IsPercent() {
		return FormatNumber(v, 1) + "%"
	}
	return "R$ " + FormatNumber(v, 0)
}
