package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s0_data"
	"github.com/wonny/equityscore/internal/s0_data/quality"
)

var (
	technicalSource string
	technicalDays   int
	saveReport      bool
	validateYears   int
	validateStore   bool
	validateLast    bool
)

// technicalCmd scores one symbol's price history
var technicalCmd = &cobra.Command{
	Use:   "technical [SYMBOL]",
	Short: "기술적 점수 (S2)",
	Long: `최신 스냅샷 또는 DB 가격으로 100점 만점 기술적 점수를 계산합니다.

Example:
  go run ./cmd/quant technical AAPL
  go run ./cmd/quant technical AAPL --source db --days 500
  go run ./cmd/quant technical AAPL --save`,
	Args: cobra.ExactArgs(1),
	RunE: runTechnical,
}

// valuationCmd values one symbol against the sector benchmark
var valuationCmd = &cobra.Command{
	Use:   "valuation [SYMBOL]",
	Short: "섹터 가중 밸류에이션 (S3)",
	Args:  cobra.ExactArgs(1),
	RunE:  runValuation,
}

// fundamentalsCmd scores one symbol's statements against the sector benchmark
var fundamentalsCmd = &cobra.Command{
	Use:   "fundamentals [SYMBOL]",
	Short: "재무 점수 (S1)",
	Long: `최신 스냅샷의 재무제표로 수익성·성장성·자본배분 점수(100점)를 계산합니다.

Example:
  go run ./cmd/quant fundamentals AAPL
  go run ./cmd/quant fundamentals AAPL --save --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFundamentals,
}

// validateCmd checks statement field completeness
var validateCmd = &cobra.Command{
	Use:   "validate [SYMBOL]",
	Short: "재무제표 필드 검증 (S0)",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(technicalCmd)
	rootCmd.AddCommand(valuationCmd)
	rootCmd.AddCommand(fundamentalsCmd)
	rootCmd.AddCommand(validateCmd)

	technicalCmd.Flags().StringVar(&technicalSource, "source", "file", "price source (file|db)")
	technicalCmd.Flags().IntVar(&technicalDays, "days", 500, "calendar days of history to read with --source db")
	technicalCmd.Flags().BoolVar(&saveReport, "save", false, "write the report to OUTPUT_DIR")
	valuationCmd.Flags().BoolVar(&saveReport, "save", false, "write the report to OUTPUT_DIR")
	fundamentalsCmd.Flags().BoolVar(&saveReport, "save", false, "write the report to OUTPUT_DIR")

	validateCmd.Flags().IntVar(&validateYears, "years", 0, "expected annual periods (default: EXPECTED_YEARS)")
	validateCmd.Flags().BoolVar(&validateStore, "store", false, "record the result in PostgreSQL")
	validateCmd.Flags().BoolVar(&validateLast, "last", false, "show the last recorded result instead of validating")
}

func runTechnical(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])
	useDB := technicalSource == "db"
	if !useDB && technicalSource != "file" {
		return fmt.Errorf("--source must be file or db, got %q", technicalSource)
	}

	a, err := newApp(appOptions{requireDB: useDB})
	if err != nil {
		return err
	}
	defer a.close()

	var prices []contracts.PriceRecord
	sourceFile := ""
	if useDB {
		to := time.Now()
		from := to.AddDate(0, 0, -technicalDays)
		repo := s0_data.NewPriceRepository(a.db.Pool, a.log)
		prices, err = repo.GetPriceHistory(cmd.Context(), symbol, from, to)
		if err != nil {
			return fmt.Errorf("load prices: %w", err)
		}
	} else {
		data, path, err := a.store.LoadLatest(symbol)
		if err != nil {
			return err
		}
		prices, sourceFile = data.PriceHistory, path
	}

	score := a.scorer().Score(prices)

	if saveReport {
		path, err := a.reportWriter().SaveTechnical(symbol, sourceFile, score)
		if err != nil {
			return err
		}
		defer PrintSuccess(cmd.ErrOrStderr(), "Saved "+path)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, score)
	}
	printTechnical(out, symbol, score)
	return nil
}

func runValuation(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])

	a, err := newApp(appOptions{benchmark: true})
	if err != nil {
		return err
	}
	defer a.close()

	data, path, err := a.store.LoadLatest(symbol)
	if err != nil {
		return err
	}

	report := a.calculator().Calculate(data)

	if saveReport {
		saved, err := a.reportWriter().SaveValuation(symbol, path, report)
		if err != nil {
			return err
		}
		defer PrintSuccess(cmd.ErrOrStderr(), "Saved "+saved)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, report)
	}
	printValuation(out, report)
	return nil
}

func runFundamentals(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])

	a, err := newApp(appOptions{benchmark: true})
	if err != nil {
		return err
	}
	defer a.close()

	data, path, err := a.store.LoadLatest(symbol)
	if err != nil {
		return err
	}

	score := a.fundamentals(a.calculator()).Score(data)

	if saveReport {
		saved, err := a.reportWriter().SaveFundamentals(symbol, path, score)
		if err != nil {
			return err
		}
		defer PrintSuccess(cmd.ErrOrStderr(), "Saved "+saved)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, score)
	}
	printFundamentals(out, symbol, score)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])

	if validateStore && validateLast {
		return fmt.Errorf("--store and --last cannot be combined")
	}

	a, err := newApp(appOptions{requireDB: validateStore || validateLast})
	if err != nil {
		return err
	}
	defer a.close()

	if validateLast {
		return showLastValidation(cmd, a, symbol)
	}

	data, _, err := a.store.LoadLatest(symbol)
	if err != nil {
		return err
	}

	years := validateYears
	if years < 1 {
		years = a.expectedYears()
	}
	result := a.validator().ValidateStock(data, years)
	missing := quality.MissingFields(result)

	if validateStore {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := quality.NewRepository(a.db.Pool).Save(ctx, time.Now(), result); err != nil {
			return fmt.Errorf("store validation: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"validation":     result,
			"missing_fields": missing,
		})
	}
	printValidation(out, result, missing)
	return nil
}

func showLastValidation(cmd *cobra.Command, a *app, symbol string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	stored, err := quality.NewRepository(a.db.Pool).GetLatest(ctx, symbol)
	if err != nil {
		return err
	}
	missing := quality.MissingFields(stored.Result)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]interface{}{
			"validated_at":   stored.ValidatedAt,
			"validation":     stored.Result,
			"missing_fields": missing,
		})
	}
	PrintKeyValue(out, "recorded", stored.ValidatedAt.Format("2006-01-02"), 10)
	printValidation(out, stored.Result, missing)
	return nil
}
