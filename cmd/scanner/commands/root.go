package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "swingscan - 미국 주식 스윙 트레이딩 스크리너",
	Long: `swingscan Unified CLI

FMP 데이터 기반 S&P 500 스윙 스크리너.
강세 섹터 선택 → 후보 추출 → 1차 필터 → ATH 분석 → 랭킹.

Usage:
  go run ./cmd/scanner [command]

Examples:
  go run ./cmd/scanner scan
  go run ./cmd/scanner scan --profile config/profiles/swing_default.yaml --csv out.csv
  go run ./cmd/scanner api --port 8080
  go run ./cmd/scanner scheduler start
  go run ./cmd/scanner universe list`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "strategy profile YAML (default: SCAN_PROFILE or env defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
