package universe

// gicsToFMP maps S&P GICS sector names to FMP's sector taxonomy
var gicsToFMP = map[string]string{
	"Communication Services": "Communication Services",
	"Consumer Discretionary": "Consumer Cyclical",
	"Consumer Staples":       "Consumer Defensive",
	"Energy":                 "Energy",
	"Financials":             "Financial Services",
	"Health Care":            "Healthcare",
	"Industrials":            "Industrials",
	"Information Technology": "Technology",
	"Materials":              "Basic Materials",
	"Real Estate":            "Real Estate",
	"Utilities":              "Utilities",
}

// fmpToGICS is the inverse of gicsToFMP, built once at init
var fmpToGICS = func() map[string]string {
	m := make(map[string]string, len(gicsToFMP))
	for gics, fmp := range gicsToFMP {
		m[fmp] = gics
	}
	return m
}()

// ToFMP converts a GICS sector name; unknown names pass through unchanged
func ToFMP(gics string) string {
	if fmp, ok := gicsToFMP[gics]; ok {
		return fmp
	}
	return gics
}

// ToGICS converts an FMP sector name; unknown names pass through unchanged
func ToGICS(fmp string) string {
	if gics, ok := fmpToGICS[fmp]; ok {
		return gics
	}
	return fmp
}
