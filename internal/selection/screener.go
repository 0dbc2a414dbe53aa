package selection

import (
	"fmt"

	"github.com/wonny/swingscan/internal/contracts"
)

// QuickFilterSlack widens the quick filter's upper bound. The 52-week high
// understates a multi-year ATH, so the proxy must stay loose.
const QuickFilterSlack = 20.0

// PassesFilters reports whether athMin <= pct_below_ath <= athMax
func PassesFilters(s contracts.EnrichedStock, athMin, athMax float64) bool {
	return athMin <= s.PctBelowATH && s.PctBelowATH <= athMax
}

// QuickFilter screens a live quote using the 52-week high as an ATH proxy.
// It returns an empty reason when the quote passes.
func QuickFilter(price, yearHigh, athMax float64) (pass bool, reason string) {
	if price == 0 || yearHigh == 0 {
		return false, "missing price or 52-week high"
	}

	pctBelowYearHigh := PctBelowATH(price, yearHigh)
	if limit := athMax + QuickFilterSlack; pctBelowYearHigh > limit {
		return false, fmt.Sprintf("%.1f%% below 52-week high exceeds %.1f%%", pctBelowYearHigh, limit)
	}

	return true, ""
}
