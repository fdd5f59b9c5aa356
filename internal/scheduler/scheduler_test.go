package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/equityscore/internal/brain"
	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/internal/s0_data"
	"github.com/wonny/equityscore/internal/s0_data/quality"
	"github.com/wonny/equityscore/internal/s2_signals"
	"github.com/wonny/equityscore/internal/s3_valuation"
	"github.com/wonny/equityscore/pkg/httputil"
	"github.com/wonny/equityscore/pkg/logger"
)

type fakeJob struct {
	name     string
	failures int32 // fail this many times before succeeding
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return "0 0 0 1 1 *" }
func (j *fakeJob) Run(context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("flaky")
	}
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []JobResult
}

func (n *recordingNotifier) Notify(_ context.Context, r JobResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
	return nil
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := New(logger.Nop(), Options{})

	require.NoError(t, s.AddJob(&fakeJob{name: "b"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a"}), "duplicate name")
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())

	_, err := s.RunJob("missing")
	assert.Error(t, err)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(logger.Nop(), Options{})
	job := &badScheduleJob{}
	err := s.AddJob(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule job bad")
}

type badScheduleJob struct{ fakeJob }

func (badScheduleJob) Name() string     { return "bad" }
func (badScheduleJob) Schedule() string { return "every tuesday" }

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	notifier := &recordingNotifier{}
	s := New(logger.Nop(), Options{MaxRetries: 3, RetryDelay: time.Millisecond, Notifier: notifier})
	job := &fakeJob{name: "flaky", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
	require.Len(t, notifier.results, 1)
	assert.True(t, notifier.results[0].Success)
}

func TestScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	s := New(logger.Nop(), Options{MaxRetries: 2, RetryDelay: time.Millisecond})
	job := &fakeJob{name: "broken", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("broken")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "flaky", result.Error)
	assert.EqualValues(t, 3, atomic.LoadInt32(&job.calls))
}

func TestScheduler_StatsAndHistory(t *testing.T) {
	s := New(logger.Nop(), Options{})
	job := &fakeJob{name: "j", failures: 1}
	require.NoError(t, s.AddJob(job))

	first, _ := s.RunJob("j")
	second, _ := s.RunJob("j")
	require.False(t, first.Success)
	require.True(t, second.Success)

	history, err := s.GetJobHistory("j", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].Success)

	stats := s.GetJobStats()["j"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.Equal(t, second.StartTime, *stats.LastRun)
}

func TestScheduler_StopInterruptsBackoff(t *testing.T) {
	s := New(logger.Nop(), Options{MaxRetries: 5, RetryDelay: time.Hour})
	job := &fakeJob{name: "slow", failures: 100}
	require.NoError(t, s.AddJob(job))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		r, _ := s.RunJob("slow")
		done <- r
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case r := <-done:
		assert.False(t, r.Success)
		assert.Equal(t, 1, r.Attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not return after Stop")
	}
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Attempts: i, Success: true})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Equal(t, 20, h.Results[0].Attempts)
	assert.Len(t, h.Latest(5), 5)
	assert.Empty(t, (&JobHistory{}).Latest(3))
	assert.Equal(t, 0.0, (&JobHistory{}).SuccessRate())
}

func f(v float64) contracts.Field { return contracts.NewField(v) }

func stock(symbol string, n int) *contracts.StockData {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := make([]contracts.PriceRecord, n)
	for i := range prices {
		ts := contracts.Timestamp{Time: start.AddDate(0, 0, i)}
		c := 100 + float64(i)*0.5
		prices[i] = contracts.PriceRecord{
			Date: &ts, Open: f(c), High: f(c + 1), Low: f(c - 1), Close: f(c), Volume: f(1e6),
		}
	}
	return &contracts.StockData{
		Symbol:       symbol,
		Profile:      &contracts.CompanyProfile{Sector: contracts.NewTextField("Technology")},
		PriceHistory: prices,
		IncomeStatements: []contracts.IncomeStatement{
			{Period: "2025-09-30", PeriodType: contracts.PeriodFY, EPSDiluted: f(5), Revenue: f(1e9)},
		},
	}
}

func newRescoreJob(t *testing.T, symbols ...string) (*RescoreJob, string) {
	t.Helper()
	log := logger.Nop()
	dataDir, outDir := t.TempDir(), t.TempDir()

	store := s0_data.NewSnapshotStore(dataDir, log)
	for _, sym := range symbols {
		_, err := store.Save(stock(sym, 260), time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}

	bench := &s3_valuation.Benchmark{Sectors: map[string]s3_valuation.SectorBenchmark{
		"Technology": {Metrics: s3_valuation.SectorMetrics{
			ValuationMultiples: s3_valuation.Multiples{PECurrent: f(25)},
		}},
	}}
	orch := brain.NewOrchestrator(
		quality.NewValidator(log),
		s2_signals.NewTechnicalScorer(s2_signals.DefaultConfig(), log),
		s3_valuation.NewCalculator(s3_valuation.DefaultConfig(), bench, log),
		6,
		log,
	).WithReportSink(s0_data.NewReportWriter(outDir, "hash", log))

	return NewRescoreJob(orch, store, "0 30 18 * * 1-5", 2, log), outDir
}

func TestRescoreJob(t *testing.T) {
	job, outDir := newRescoreJob(t, "AAPL", "MSFT", "KO")

	require.NoError(t, job.Run(context.Background()))

	last := job.Last()
	require.NotNil(t, last)
	assert.Equal(t, 3, last.Succeeded)
	assert.Equal(t, "3 scored, 0 failed", job.Summary())

	files, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 6, "technical and valuation report per symbol")
}

func TestRescoreJob_Empty(t *testing.T) {
	job, _ := newRescoreJob(t)
	assert.Empty(t, job.Summary())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "0 scored, 0 failed", job.Summary())
}

func TestRescoreJob_UnreadableDataDir(t *testing.T) {
	log := logger.Nop()
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	job := NewRescoreJob(nil, s0_data.NewSnapshotStore(file, log), "@daily", 1, log)
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list snapshots")
}

func TestRescoreJob_ThroughScheduler(t *testing.T) {
	job, _ := newRescoreJob(t, "AAPL")
	s := New(logger.Nop(), Options{})
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(RescoreJobName)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "1 scored, 0 failed", result.Summary)
}

func TestWebhookNotifier(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(httputil.New(logger.Nop()).DisableRetry(), srv.URL)
	require.NoError(t, n.Notify(context.Background(), JobResult{JobName: "rescore", Error: "boom"}))

	assert.Equal(t, "job.failed", got.Event)
	assert.Equal(t, "rescore", got.Result.JobName)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(httputil.New(logger.Nop()).DisableRetry(), srv.URL)
	err := n.Notify(context.Background(), JobResult{Success: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestWebhookNotifier_Disabled(t *testing.T) {
	n := NewWebhookNotifier(nil, "")
	assert.NoError(t, n.Notify(context.Background(), JobResult{}))
}
