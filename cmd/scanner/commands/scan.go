package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/internal/report"
	"github.com/wonny/swingscan/internal/scanner"
	"github.com/wonny/swingscan/pkg/config"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "스캔 1회 실행",
	Long: `스윙 스캔을 1회 실행하고 결과를 출력합니다.

이 명령어는:
- 섹터 성과 조회 후 상위 섹터 선택
- 1차 필터 (시세) → ATH 분석 (일봉 이력)
- 점수 순 랭킹 출력
- JSON 리포트 저장 (REPORT_DIR), DB 설정 시 이력 저장

API 호출 예산(FMP_MAX_CALLS)이 소진되면 부분 결과를 경고와 함께 출력합니다.

Example:
  go run ./cmd/scanner scan
  go run ./cmd/scanner scan --ath-min 15 --ath-max 40 --top-n 10
  go run ./cmd/scanner scan --csv swing.csv
  go run ./cmd/scanner scan --explain AAPL,MSFT`,
	RunE: runScan,
}

var (
	scanATHMin  float64
	scanATHMax  float64
	scanTopN    int
	scanWorkers int
	scanCSVPath string
	scanExplain []string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags (설정하지 않으면 프로필/환경변수 값 사용)
	scanCmd.Flags().Float64Var(&scanATHMin, "ath-min", 0, "ATH 대비 최소 하락률 (%)")
	scanCmd.Flags().Float64Var(&scanATHMax, "ath-max", 0, "ATH 대비 최대 하락률 (%)")
	scanCmd.Flags().IntVar(&scanTopN, "top-n", 0, "출력 종목 수")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "동시 요청 수")
	scanCmd.Flags().StringVar(&scanCSVPath, "csv", "", "CSV 저장 경로 또는 디렉터리 (비우면 저장 안 함)")
	scanCmd.Flags().StringSliceVar(&scanExplain, "explain", nil, "단계별 처리 결과를 출력할 종목 (쉼표 구분)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := applyScanFlags(cmd, a.defaults)

	PrintHeader("Swing Scan", [][2]string{
		{"ATH range", fmt.Sprintf("%.1f%% ~ %.1f%%", cfg.ATHMin, cfg.ATHMax)},
		{"Top N", fmt.Sprintf("%d", cfg.TopN)},
		{"Workers", fmt.Sprintf("%d", cfg.Workers)},
		{"Budget", fmt.Sprintf("%d calls", a.cfg.FMP.MaxCalls)},
		{"Universe", fmt.Sprintf("%d stocks", a.universe.Len())},
	})

	// Ctrl+C cancels the scan
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case <-quit:
			fmt.Println("\nCancelling scan...")
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := a.service.Run(ctx, cfg, func(p scanner.Progress) {
		PrintProgress(p.Stage.ShortName(), p.Message, p.Current, p.Total)
	})
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			PrintError(err.Error())
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Println()
	PrintRanking(result.Stocks)
	PrintScanSummary(result.Metadata)

	for _, symbol := range scanExplain {
		fmt.Println()
		PrintInfo("Explain " + strings.ToUpper(symbol))
		for _, line := range explain(result, symbol) {
			fmt.Println("   " + line)
		}
	}

	fmt.Println()
	PrintSuccess("Report saved: " + a.reports.Path(result))

	if scanCSVPath != "" {
		path := csvPath(scanCSVPath, time.Now())
		if err := writeCSVFile(path, result.Stocks); err != nil {
			return err
		}
		PrintSuccess("CSV saved: " + path)
	}

	return nil
}

// applyScanFlags overrides only the flags the user actually set
func applyScanFlags(cmd *cobra.Command, cfg scanner.ScanConfig) scanner.ScanConfig {
	flags := cmd.Flags()
	if flags.Changed("ath-min") {
		cfg.ATHMin = scanATHMin
	}
	if flags.Changed("ath-max") {
		cfg.ATHMax = scanATHMax
	}
	if flags.Changed("top-n") {
		cfg.TopN = scanTopN
	}
	if flags.Changed("workers") {
		cfg.Workers = scanWorkers
	}
	return cfg
}

// explain lists what each stage did with symbol
func explain(result *contracts.ScanResult, symbol string) []string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	outcomes := result.Metadata.Outcomes.ForSymbol(symbol)
	if len(outcomes) == 0 {
		return []string{"not a candidate (sector not selected or not in universe)"}
	}

	lines := make([]string, 0, len(outcomes)+1)
	for _, o := range outcomes {
		line := fmt.Sprintf("%-4s %s", o.Stage.ShortName(), o.Outcome)
		if o.Reason != "" {
			line += ": " + o.Reason
		}
		lines = append(lines, line)
	}

	for _, s := range result.Stocks {
		if s.Symbol == symbol {
			return append(lines, fmt.Sprintf("%-4s rank %d (score %.1f)", contracts.StageRank.ShortName(), s.Rank, s.Score))
		}
	}
	if o := outcomes[len(outcomes)-1]; o.Stage == contracts.StageDeepEnrich && o.Outcome == contracts.OutcomePassed {
		lines = append(lines, fmt.Sprintf("%-4s below top %d", contracts.StageRank.ShortName(), len(result.Stocks)))
	}
	return lines
}

func writeCSVFile(path string, stocks []contracts.RankedStock) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	if err := report.WriteCSV(f, stocks); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

// csvPath appends swing_scan_YYYYMMDD.csv when target is a directory
func csvPath(target string, now time.Time) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, report.CSVFilename(now))
	}
	return target
}
