package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/swingscan/internal/api"
	"github.com/wonny/swingscan/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 스캔 실행 및 결과 조회 엔드포인트 제공
- WebSocket으로 스캔 진행 상황 스트리밍

Endpoints:
  GET  /health               - Health check
  GET  /metrics              - Prometheus metrics
  POST /api/scan             - 스캔 실행 (JSON 파라미터 선택)
  GET  /api/scan/stream      - 스캔 실행 + 진행 스트리밍 (WebSocket)
  GET  /api/scans/latest     - 최근 스캔 결과
  GET  /api/csv              - 최근 스캔 CSV 다운로드
  GET  /api/universe         - 유니버스 섹터 요약

Example:
  go run ./cmd/scanner api
  go run ./cmd/scanner api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== swingscan API Server ===")

	// 1. Wire config, logger, stores and the scan service
	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port":     a.cfg.Port,
		"env":      a.cfg.Env,
		"universe": a.universe.Len(),
		"history":  a.repo != nil,
	}).Info("Initializing API server")

	// 2. Create handlers
	scanHandler := handlers.NewScanHandler(a.service, a.defaults, log)
	if a.repo != nil {
		scanHandler = scanHandler.WithHistory(a.repo)
	}

	var db handlers.DBChecker
	if a.db != nil {
		db = a.db
	}

	h := api.Handlers{
		Scan:     scanHandler,
		Health:   handlers.NewHealthHandler(a.service, db).WithBreaker(a.fmpHTTP),
		Universe: handlers.NewUniverseHandler(a.universe),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}

	// 3. Create router + server
	router := api.NewRouter(h, log)
	server := api.New(a.cfg, log, router)

	// 4. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if h.Metrics != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  POST /api/scan")
	fmt.Println("  GET  /api/scan/stream")
	fmt.Println("  GET  /api/scans/latest")
	fmt.Println("  GET  /api/csv")
	fmt.Println("  GET  /api/universe")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
