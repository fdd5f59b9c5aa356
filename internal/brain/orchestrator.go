package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/metrics"
	"github.com/wonny/equityscore/internal/s0_data/quality"
	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
	"github.com/wonny/equityscore/pkg/logger"
)

// Stage names one step of the analysis pipeline
type Stage string

const (
	StageValidation   Stage = "S0:Validation"
	StageFundamentals Stage = "S1:Fundamentals"
	StageTechnical    Stage = "S2:Technical"
	StageValuation    Stage = "S3:Valuation"
)

// AllStages in execution order.
// S1 runs only when a fundamental scorer is attached.
var AllStages = []Stage{StageValidation, StageFundamentals, StageTechnical, StageValuation}

// ValidationStore persists validation results (optional)
type ValidationStore interface {
	Save(ctx context.Context, date time.Time, result *contracts.OverallValidationResult) error
}

// Orchestrator coordinates the analysis pipeline for one symbol at a time.
// Engines are stateless so one Orchestrator serves concurrent runs.
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	validator     *quality.Validator
	fundamentals  *s1_fundamentals.Scorer
	scorer        *s2_signals.TechnicalScorer
	valuation     *s3_valuation.Calculator
	expectedYears int

	validationStore ValidationStore
	sink            contracts.ReportSink
	metrics         *metrics.Registry

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string  // generated when empty
	SourceFile string  // snapshot the data came from
	Stages     []Stage // empty = all stages
	Save       bool    // write reports through the sink
}

func (c RunConfig) wants(s Stage) bool {
	if len(c.Stages) == 0 {
		return true
	}
	for _, st := range c.Stages {
		if st == s {
			return true
		}
	}
	return false
}

// RunResult holds the results of one pipeline run
type RunResult struct {
	RunID           string                             `json:"run_id"`
	Symbol          string                             `json:"symbol"`
	SourceFile      string                             `json:"source_file,omitempty"`
	Success         bool                               `json:"success"`
	Error           string                             `json:"error,omitempty"`
	CompletedStages []string                           `json:"completed_stages"`
	Validation      *contracts.OverallValidationResult `json:"validation,omitempty"`
	Fundamentals    *contracts.FinancialScore          `json:"fundamentals,omitempty"`
	Technical       *contracts.CompositeScore          `json:"technical,omitempty"`
	Valuation       *contracts.ValuationReport         `json:"valuation,omitempty"`
	ReportFiles     []string                           `json:"report_files,omitempty"`
	Duration        time.Duration                      `json:"duration"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	validator *quality.Validator,
	scorer *s2_signals.TechnicalScorer,
	valuation *s3_valuation.Calculator,
	expectedYears int,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		validator:     validator,
		scorer:        scorer,
		valuation:     valuation,
		expectedYears: expectedYears,
		logger:        logger,
	}
}

// WithFundamentals enables the S1 stage
func (o *Orchestrator) WithFundamentals(scorer *s1_fundamentals.Scorer) *Orchestrator {
	o.fundamentals = scorer
	return o
}

// WithValidationStore persists every validation result
func (o *Orchestrator) WithValidationStore(store ValidationStore) *Orchestrator {
	o.validationStore = store
	return o
}

// WithReportSink enables RunConfig.Save
func (o *Orchestrator) WithReportSink(sink contracts.ReportSink) *Orchestrator {
	o.sink = sink
	return o
}

// WithMetrics records stage timings and outcomes
func (o *Orchestrator) WithMetrics(m *metrics.Registry) *Orchestrator {
	o.metrics = m
	return o
}

// Run executes the pipeline for one snapshot.
// S0 → S1 → S2 → S3
// Data problems never fail a run: they show up inside the stage results.
// A run fails only on missing input, cancellation, save errors or a panic.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig, data *contracts.StockData) (result *RunResult) {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}

	result = &RunResult{
		RunID:           config.RunID,
		SourceFile:      config.SourceFile,
		CompletedStages: make([]string, 0, len(AllStages)),
	}
	if data != nil {
		result.Symbol = strings.ToUpper(data.Symbol)
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("pipeline panic: %v", r)
			o.logger.WithFields(map[string]interface{}{
				"run_id": result.RunID,
				"symbol": result.Symbol,
				"panic":  fmt.Sprint(r),
			}).Error("Pipeline panic recovered")
		}
		result.Duration = time.Since(startTime)
		o.metrics.ObserveRun(result.Success)
	}()

	if data == nil {
		result.Error = "No stock data"
		return result
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"symbol": result.Symbol,
		"source": config.SourceFile,
	}).Info("Starting analysis run")

	// S0: Field validation
	if config.wants(StageValidation) {
		if err := ctx.Err(); err != nil {
			result.Error = fmt.Sprintf("S0 cancelled: %v", err)
			return result
		}
		t := time.Now()
		result.Validation = o.validator.ValidateStock(data, o.expectedYears)
		o.storeValidation(ctx, result.Validation)
		o.metrics.ObserveStage(string(StageValidation), outcome(result.Validation.IsComplete), time.Since(t))
		result.CompletedStages = append(result.CompletedStages, string(StageValidation))
	}

	// S1: Fundamental score
	if o.fundamentals != nil && config.wants(StageFundamentals) {
		if err := ctx.Err(); err != nil {
			result.Error = fmt.Sprintf("S1 cancelled: %v", err)
			return result
		}
		t := time.Now()
		result.Fundamentals = o.fundamentals.Score(data)
		o.metrics.ObserveStage(string(StageFundamentals), outcome(!result.Fundamentals.Error), time.Since(t))
		result.CompletedStages = append(result.CompletedStages, string(StageFundamentals))
	}

	// S2: Technical score
	if config.wants(StageTechnical) {
		if err := ctx.Err(); err != nil {
			result.Error = fmt.Sprintf("S2 cancelled: %v", err)
			return result
		}
		t := time.Now()
		result.Technical = o.scorer.Score(data.PriceHistory)
		o.metrics.ObserveStage(string(StageTechnical), outcome(!result.Technical.Error), time.Since(t))
		result.CompletedStages = append(result.CompletedStages, string(StageTechnical))
	}

	// S3: Valuation
	if config.wants(StageValuation) {
		if err := ctx.Err(); err != nil {
			result.Error = fmt.Sprintf("S3 cancelled: %v", err)
			return result
		}
		t := time.Now()
		result.Valuation = o.valuation.Calculate(data)
		for name, m := range result.Valuation.MethodResults {
			o.metrics.ObserveModel(name, m.Status)
		}
		o.metrics.ObserveStage(string(StageValuation), outcome(!result.Valuation.Failed()), time.Since(t))
		result.CompletedStages = append(result.CompletedStages, string(StageValuation))
	}

	if config.Save && o.sink != nil {
		if err := o.save(result); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	result.Success = true
	o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"symbol":   result.Symbol,
		"stages":   result.CompletedStages,
		"duration": time.Since(startTime).String(),
	}).Info("Analysis run completed")

	return result
}

// RunSymbol loads the latest snapshot of symbol and runs the pipeline
func (o *Orchestrator) RunSymbol(ctx context.Context, config RunConfig, source contracts.SnapshotSource, symbol string) *RunResult {
	data, path, err := source.LoadLatest(symbol)
	if err != nil {
		o.metrics.ObserveRun(false)
		if config.RunID == "" {
			config.RunID = uuid.NewString()
		}
		o.logger.WithError(err).WithField("symbol", symbol).Warn("Snapshot load failed")
		return &RunResult{
			RunID:           config.RunID,
			Symbol:          strings.ToUpper(symbol),
			Error:           err.Error(),
			CompletedStages: []string{},
		}
	}

	config.SourceFile = path
	return o.Run(ctx, config, data)
}

func (o *Orchestrator) storeValidation(ctx context.Context, result *contracts.OverallValidationResult) {
	if o.validationStore == nil {
		return
	}
	// 저장 실패는 실행을 중단하지 않음
	if err := o.validationStore.Save(ctx, time.Now(), result); err != nil {
		o.logger.WithError(err).WithField("symbol", result.Symbol).Warn("Failed to store validation result")
	}
}

func (o *Orchestrator) save(result *RunResult) error {
	if result.Fundamentals != nil {
		path, err := o.sink.SaveFundamentals(result.Symbol, result.SourceFile, result.Fundamentals)
		if err != nil {
			return fmt.Errorf("save fundamentals report: %w", err)
		}
		result.ReportFiles = append(result.ReportFiles, path)
	}
	if result.Technical != nil {
		path, err := o.sink.SaveTechnical(result.Symbol, result.SourceFile, result.Technical)
		if err != nil {
			return fmt.Errorf("save technical report: %w", err)
		}
		result.ReportFiles = append(result.ReportFiles, path)
	}
	if result.Valuation != nil {
		path, err := o.sink.SaveValuation(result.Symbol, result.SourceFile, result.Valuation)
		if err != nil {
			return fmt.Errorf("save valuation report: %w", err)
		}
		result.ReportFiles = append(result.ReportFiles, path)
	}
	return nil
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "degraded"
}
