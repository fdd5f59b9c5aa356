package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/api"
	"github.com/wonny/equityscore/internal/api/handlers"
	"github.com/wonny/equityscore/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                           - Health check
  POST /api/technical/score              - 가격 이력 점수화
  POST /api/validation                   - 스냅샷 필드 검증
  POST /api/valuation                    - 스냅샷 밸류에이션
  GET  /api/stocks                       - 스냅샷 종목 목록
  GET  /api/stocks/{symbol}/fundamentals - 최신 스냅샷 재무 점수
  GET  /api/stocks/{symbol}/technical    - 최신 스냅샷 기술적 점수
  GET  /api/stocks/{symbol}/valuation    - 최신 스냅샷 밸류에이션
  GET  /api/stocks/{symbol}/analysis     - 전체 파이프라인
  GET  /api/sectors                      - 섹터 가중치
  GET  /metrics                          - Prometheus

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config, scoring tables and benchmark
	a, err := newApp(appOptions{benchmark: true, database: true})
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Redis (optional): report cache and shared rate limit
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	var limiter api.Limiter = api.NewLocalLimiter(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
	if rc.Enabled() {
		limiter = api.NewRedisLimiter(redis.NewRateLimiter(rc, "equityscore"), cfg.API.RateLimitRPS)
		log.Info("Using Redis for report cache and rate limiting")
	}

	// 3. Handlers
	stocks := handlers.NewStockHandler(a.store, a.orchestrator(), redis.NewCache(rc, "equityscore"), a.configHash, a.metrics, log).
		WithTTL(cfg.API.CacheTTL)
	router := api.NewRouter(api.RouterDeps{
		Scoring:        handlers.NewScoringHandler(a.scorer(), a.validator(), a.calculator(), a.expectedYears(), log),
		Stocks:         stocks,
		Sectors:        handlers.NewSectorHandler(a.scoring.Valuation, a.scoring.Meta.ConfigID, a.configHash),
		Metrics:        a.metrics,
		Limiter:        limiter,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Logger:         log,
	})

	// 4. Start server with graceful shutdown
	server := api.New(cfg, log, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Server running on http://"+server.Addr())
	PrintKeyValue(out, "benchmark", a.benchPath, 10)
	PrintKeyValue(out, "config", a.scoring.Meta.ConfigID+" "+a.configHash[:12], 10)
	fmt.Fprintln(out, mutedStyle.Render("\nPress Ctrl+C to stop"))

	// Wait for interrupt signal or a failed listen
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

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
