package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "equityscore - 기술적 점수와 밸류에이션 엔진",
	Long: `equityscore Unified CLI

종목 스냅샷(JSON)을 읽어 세 단계로 분석합니다.
S0 필드 검증 → S2 기술적 점수(100점) → S3 섹터 가중 밸류에이션.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant technical AAPL
  go run ./cmd/quant valuation AAPL --json
  go run ./cmd/quant analyze --all --save
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scoring config YAML (default: SCORING_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs on console)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}
