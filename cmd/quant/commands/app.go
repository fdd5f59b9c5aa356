package commands

import (
	"fmt"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/metrics"
	"github.com/wonny/equityscore/internal/s0_data"
	"github.com/wonny/equityscore/internal/s0_data/quality"
	"github.com/wonny/equityscore/internal/s1_fundamentals"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
	"github.com/wonny/equityscore/internal/scoringconfig"
	"github.com/wonny/equityscore/pkg/config"
	"github.com/wonny/equityscore/pkg/database"
	"github.com/wonny/equityscore/pkg/logger"
	"github.com/wonny/equityscore/pkg/redis"
)

// app holds what every command builds from config
// ⭐ SSOT: 엔진 조립은 여기서만
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	scoring    *scoringconfig.Config
	configHash string
	store      *s0_data.SnapshotStore
	bench      *s3_valuation.Benchmark
	benchPath  string
	metrics    *metrics.Registry
	db         *database.DB
	rc         *redis.Client
}

type appOptions struct {
	benchmark bool // load the latest benchmark file (fatal when missing)
	database  bool // connect to PostgreSQL when DATABASE_URL is set
	requireDB bool // fail when no database is configured
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}
	if configFile != "" {
		cfg.Scoring.ConfigPath = configFile
	}

	log := logger.New(cfg)

	scoring, err := scoringconfig.LoadOrDefault(cfg.Scoring.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	for _, w := range scoringconfig.Warn(scoring) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	hash, err := scoringconfig.Hash(scoring)
	if err != nil {
		return nil, fmt.Errorf("hash scoring config: %w", err)
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		scoring:    scoring,
		configHash: hash,
		store:      s0_data.NewSnapshotStore(cfg.Scoring.DataDir, log),
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	if opts.benchmark {
		bench, path, err := s3_valuation.LoadLatestBenchmark(cfg.Scoring.BenchmarkDir)
		if err != nil {
			return nil, err
		}
		a.bench, a.benchPath = bench, path
		log.WithFields(map[string]interface{}{
			"file":    path,
			"sectors": len(bench.Sectors),
		}).Info("Loaded benchmark")
	}

	if opts.database || opts.requireDB {
		if !cfg.HasDatabase() {
			if opts.requireDB {
				return nil, fmt.Errorf("DATABASE_URL is not set")
			}
		} else {
			db, err := database.New(cfg)
			if err != nil {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			a.db = db
			log.Info("Connected to database")
		}
	}

	return a, nil
}

func (a *app) close() {
	if a.rc != nil {
		a.rc.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) validator() *quality.Validator {
	return quality.NewValidator(a.log)
}

func (a *app) scorer() *s2_signals.TechnicalScorer {
	return s2_signals.NewTechnicalScorer(a.scoring.Technical, a.log)
}

func (a *app) calculator() *s3_valuation.Calculator {
	return s3_valuation.NewCalculator(a.scoring.Valuation, a.bench, a.log)
}

// fundamentals scores against the benchmark the valuation calculator holds
func (a *app) fundamentals(bench s1_fundamentals.BenchmarkSource) *s1_fundamentals.Scorer {
	return s1_fundamentals.NewScorer(a.scoring.Fundamentals, bench, a.log)
}

func (a *app) reportWriter() *s0_data.ReportWriter {
	return s0_data.NewReportWriter(a.cfg.Scoring.OutputDir, a.configHash, a.log)
}

// orchestrator wires the four stages with the report writer and, when a
// database is connected, the validation store
func (a *app) orchestrator() *brain.Orchestrator {
	calc := a.calculator()
	o := brain.NewOrchestrator(a.validator(), a.scorer(), calc, a.expectedYears(), a.log).
		WithFundamentals(a.fundamentals(calc)).
		WithReportSink(a.reportWriter()).
		WithMetrics(a.metrics)
	if a.db != nil {
		o = o.WithValidationStore(quality.NewRepository(a.db.Pool))
	}
	return o
}

func (a *app) expectedYears() int {
	// 설정 파일이 있으면 파일 값, 없으면 EXPECTED_YEARS
	if a.cfg.Scoring.ConfigPath != "" {
		return a.scoring.Validation.ExpectedYears
	}
	return a.cfg.Scoring.ExpectedYears
}
