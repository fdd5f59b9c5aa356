package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/brain"
)

var (
	analyzeAll     bool
	analyzeSave    bool
	analyzeWorkers int
	analyzeStages  []string
)

// analyzeCmd runs the full pipeline over one or more symbols
var analyzeCmd = &cobra.Command{
	Use:   "analyze [SYMBOL...]",
	Short: "전체 파이프라인 실행 (S0 → S2 → S3)",
	Long: `스냅샷별로 검증, 기술적 점수, 밸류에이션을 한 번에 실행합니다.
여러 종목은 워커 풀에서 병렬로 처리되며 결과는 입력 순서를 유지합니다.

Example:
  go run ./cmd/quant analyze AAPL MSFT
  go run ./cmd/quant analyze --all --save
  go run ./cmd/quant analyze AAPL --stages technical,valuation`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "analyze every symbol in DATA_DIR")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "write reports to OUTPUT_DIR")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "parallel workers (default: BATCH_WORKERS)")
	analyzeCmd.Flags().StringSliceVar(&analyzeStages, "stages", nil, "subset of validation,fundamentals,technical,valuation")
}

func parseStages(names []string) ([]brain.Stage, error) {
	if len(names) == 0 {
		return nil, nil
	}
	stages := make([]brain.Stage, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "validation", "s0":
			stages = append(stages, brain.StageValidation)
		case "fundamentals", "s1":
			stages = append(stages, brain.StageFundamentals)
		case "technical", "s2":
			stages = append(stages, brain.StageTechnical)
		case "valuation", "s3":
			stages = append(stages, brain.StageValuation)
		default:
			return nil, fmt.Errorf("unknown stage %q", n)
		}
	}
	return stages, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeAll == (len(args) > 0) {
		return fmt.Errorf("give symbols or --all, not both or neither")
	}
	stages, err := parseStages(analyzeStages)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{benchmark: true, database: true})
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	if analyzeAll {
		symbols, err = a.store.ListSymbols()
		if err != nil {
			return err
		}
		if len(symbols) == 0 {
			PrintWarning(cmd.ErrOrStderr(), "No snapshots in "+a.cfg.Scoring.DataDir)
			return nil
		}
	}

	workers := analyzeWorkers
	if workers < 1 {
		workers = a.cfg.Scoring.BatchWorkers
	}

	res := a.orchestrator().RunBatch(cmd.Context(), brain.BatchConfig{
		Workers: workers,
		Stages:  stages,
		Save:    analyzeSave,
	}, a.store, symbols)

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else if len(res.Results) == 1 {
		printRun(out, res.Results[0])
	} else {
		printBatch(out, res)
	}

	if res.Succeeded == 0 {
		return fmt.Errorf("all %d symbols failed", res.Failed)
	}
	return nil
}
