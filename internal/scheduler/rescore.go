package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/logger"
)

// RescoreJobName is the registered name of the rescoring job
const RescoreJobName = "rescore"

// RescoreJob reruns the full pipeline over every symbol with a snapshot and
// writes the reports
type RescoreJob struct {
	orch     *brain.Orchestrator
	source   contracts.SnapshotSource
	schedule string
	workers  int
	logger   *logger.Logger

	mu   sync.Mutex
	last *brain.BatchResult
}

// NewRescoreJob creates the rescoring job
func NewRescoreJob(
	orch *brain.Orchestrator,
	source contracts.SnapshotSource,
	schedule string,
	workers int,
	log *logger.Logger,
) *RescoreJob {
	return &RescoreJob{
		orch:     orch,
		source:   source,
		schedule: schedule,
		workers:  workers,
		logger:   log,
	}
}

func (j *RescoreJob) Name() string     { return RescoreJobName }
func (j *RescoreJob) Schedule() string { return j.schedule }

// Run scores every symbol. A batch where some symbols fail still succeeds;
// only a batch where every symbol failed is retried.
func (j *RescoreJob) Run(ctx context.Context) error {
	symbols, err := j.source.ListSymbols()
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(symbols) == 0 {
		j.logger.Warn("No snapshots to rescore")
		j.setLast(&brain.BatchResult{})
		return nil
	}

	result := j.orch.RunBatch(ctx, brain.BatchConfig{
		Workers: j.workers,
		Save:    true,
	}, j.source, symbols)
	j.setLast(result)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rescore interrupted: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":    result.RunID,
		"symbols":   len(symbols),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"duration":  result.Duration.String(),
	}
	if result.Failed > 0 {
		fields["failed_symbols"] = result.FailedSymbols()
		j.logger.WithFields(fields).Warn("Rescore finished with failures")
	} else {
		j.logger.WithFields(fields).Info("Rescore finished")
	}

	if result.Succeeded == 0 {
		return fmt.Errorf("all %d symbols failed", result.Failed)
	}
	return nil
}

// Last returns the most recent batch result, nil before the first run
func (j *RescoreJob) Last() *brain.BatchResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Summary describes the most recent batch for history and notifications
func (j *RescoreJob) Summary() string {
	last := j.Last()
	if last == nil {
		return ""
	}
	return fmt.Sprintf("%d scored, %d failed", last.Succeeded, last.Failed)
}

func (j *RescoreJob) setLast(r *brain.BatchResult) {
	j.mu.Lock()
	j.last = r
	j.mu.Unlock()
}
