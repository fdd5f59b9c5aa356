package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/equityscore/internal/contracts"
)

// BatchConfig holds configuration for a multi-symbol run
type BatchConfig struct {
	RunID   string
	Workers int
	Stages  []Stage
	Save    bool
}

// BatchResult aggregates the runs of one batch.
// Results keep the order of the requested symbols.
type BatchResult struct {
	RunID     string        `json:"run_id"`
	Results   []*RunResult  `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// FailedSymbols lists the symbols whose run failed
func (b *BatchResult) FailedSymbols() []string {
	var out []string
	for _, r := range b.Results {
		if !r.Success {
			out = append(out, r.Symbol)
		}
	}
	return out
}

// RunBatch runs every symbol across a bounded worker pool.
// Each worker loads its own snapshot and builds its own series.
func (o *Orchestrator) RunBatch(ctx context.Context, config BatchConfig, source contracts.SnapshotSource, symbols []string) *BatchResult {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}

	batch := &BatchResult{
		RunID:   config.RunID,
		Results: make([]*RunResult, len(symbols)),
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":  config.RunID,
		"symbols": len(symbols),
		"workers": config.Workers,
	}).Info("Starting batch run")

	runCfg := RunConfig{
		RunID:  config.RunID,
		Stages: config.Stages,
		Save:   config.Save,
	}

	pool := NewWorkerPool(config.Workers)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		submitted := pool.Submit(ctx, func() {
			if err := ctx.Err(); err != nil {
				batch.Results[i] = cancelled(config.RunID, symbol, err)
				return
			}
			batch.Results[i] = o.RunSymbol(ctx, runCfg, source, symbol)
		})
		if !submitted {
			batch.Results[i] = cancelled(config.RunID, symbol, ctx.Err())
		}
	}
	pool.Close()

	for _, r := range batch.Results {
		if r.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"run_id":    config.RunID,
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
		"duration":  batch.Duration.String(),
	}).Info("Batch run completed")

	return batch
}

func cancelled(runID, symbol string, err error) *RunResult {
	return &RunResult{
		RunID:           runID,
		Symbol:          strings.ToUpper(symbol),
		Error:           fmt.Sprintf("cancelled: %v", err),
		CompletedStages: []string{},
	}
}
