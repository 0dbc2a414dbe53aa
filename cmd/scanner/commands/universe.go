package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/swingscan/internal/scheduler/jobs"
	"github.com/wonny/swingscan/internal/universe"
	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "종목 유니버스 관리",
	Long: `스캔 대상 유니버스(S&P 500)를 조회하거나 갱신합니다.

Subcommands:
  list     - 섹터별 종목 수 (GICS / FMP 섹터명)
  refresh  - Wikipedia 구성 종목 표를 다시 받아 CSV로 저장

Example:
  go run ./cmd/scanner universe list
  go run ./cmd/scanner universe refresh --out data/sp500.csv`,
}

var (
	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "섹터별 종목 수",
		RunE:  listUniverse,
	}

	universeRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "구성 종목 갱신",
		RunE:  refreshUniverse,
	}

	universeOut string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeListCmd)
	universeCmd.AddCommand(universeRefreshCmd)

	universeRefreshCmd.Flags().StringVar(&universeOut, "out", "", "저장 경로 (기본: UNIVERSE_FILE 또는 data/sp500.csv)")
}

func listUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	u, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	source := cfg.UniverseFile
	if source == "" {
		source = "embedded"
	}
	PrintHeader("Reference Universe", [][2]string{
		{"Source", source},
		{"Members", fmt.Sprintf("%d", u.Len())},
	})

	widths := []int{24, 22, 7}
	PrintTableHeader([]string{"GICS Sector", "FMP Sector", "Members"}, widths)
	for _, gics := range u.Sectors() {
		fmpName := universe.ToFMP(gics)
		PrintTableRow([]string{gics, fmpName, fmt.Sprintf("%d", len(u.SymbolsInSector(fmpName)))}, widths)
	}

	return nil
}

func refreshUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	path := universeOut
	if path == "" {
		path = cfg.UniverseFile
	}
	if path == "" {
		path = defaultUniverseFile
	}

	fmt.Printf("Refreshing universe → %s\n", path)

	// 스케줄러와 같은 검증(최소 종목 수)을 거침
	fetcher := universe.NewFetcher(httputil.New(log), log)
	if err := jobs.NewUniverseRefreshJob(fetcher, path, log).Run(context.Background()); err != nil {
		PrintError(err.Error())
		return fmt.Errorf("refresh universe: %w", err)
	}

	PrintSuccess("Universe refreshed: " + path)
	if cfg.UniverseFile != path {
		PrintInfo("Set UNIVERSE_FILE=" + path + " to scan against the refreshed list")
	}
	return nil
}
