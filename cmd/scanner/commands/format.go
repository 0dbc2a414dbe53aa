package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/swingscan/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed title followed by key/value lines
func PrintHeader(title string, fields [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, f := range fields {
		fmt.Printf("  %-10s: %s\n", f[0], f[1])
	}
	PrintSeparator()
}

// PrintProgress prints a progress step with counter
// Example: [S3a] Checked NVDA [12/40]
func PrintProgress(tag string, message string, current int, total int) {
	if total > 0 {
		fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
		return
	}
	fmt.Printf("[%s] %s\n", tag, message)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRanking prints the ranked stocks as a table
func PrintRanking(stocks []contracts.RankedStock) {
	if len(stocks) == 0 {
		PrintInfo("No stocks passed all filters")
		return
	}

	columns := []string{"#", "Ticker", "Name", "Sector", "Price", "ATH", "Below", "Upside", "Score"}
	widths := []int{3, 7, 24, 22, 9, 9, 7, 7, 6}
	PrintTableHeader(columns, widths)

	for _, s := range stocks {
		PrintTableRow([]string{
			fmt.Sprintf("%d", s.Rank),
			s.Symbol,
			truncate(s.Name, widths[2]),
			truncate(s.Sector, widths[3]),
			fmt.Sprintf("%.2f", s.Price),
			fmt.Sprintf("%.2f", s.ATH),
			fmt.Sprintf("%.1f%%", s.PctBelowATH),
			fmt.Sprintf("%.1f%%", s.UpsidePct),
			fmt.Sprintf("%.1f", s.Score),
		}, widths)
	}
}

// PrintScanSummary prints the scan metadata block
func PrintScanSummary(meta contracts.ScanMetadata) {
	sectors := make([]string, 0, len(meta.WinningSectors))
	for _, s := range meta.WinningSectors {
		sectors = append(sectors, fmt.Sprintf("%s (%+.2f%%)", s.Name, s.Performance))
	}

	fmt.Println()
	PrintKeyValue("Run ID", meta.RunID, 16)
	PrintKeyValue("Winning sectors", strings.Join(sectors, ", "), 16)
	PrintKeyValue("Candidates", fmt.Sprintf("%d → %d → %d", meta.TotalCandidates, meta.QuickFiltered, meta.PassedFilters), 16)
	PrintKeyValue("API calls", fmt.Sprintf("%d / %d", meta.APICallsUsed, meta.APICallBudget), 16)
	PrintKeyValue("Elapsed", fmt.Sprintf("%.1fs", meta.ElapsedSeconds), 16)

	if meta.Partial() {
		PrintWarning("Partial result: " + meta.BudgetWarning)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
