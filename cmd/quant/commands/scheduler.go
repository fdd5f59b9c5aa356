package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/equityscore/internal/scheduler"
	"github.com/wonny/equityscore/pkg/httputil"
	"github.com/wonny/equityscore/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `재채점 스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작 (RESCORE_SCHEDULE)
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행 (결과 출력)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler run rescore`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- rescore: 평일 18:30 (DATA_DIR 전 종목 재채점, 리포트 저장)

NOTIFY_WEBHOOK_URL이 있으면 실행 결과를 웹훅으로 보냅니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	sched.Start()

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Scheduler started")
	printJobs(out, sched)
	fmt.Fprintln(out, mutedStyle.Render("\nPress Ctrl+C to stop"))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	printStats(out, sched)
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	// next run times are only known once cron is running
	sched.Start()
	defer sched.Stop()

	printJobs(cmd.OutOrStdout(), sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.close()

	result, err := sched.RunJob(args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, result)
	}
	msg := fmt.Sprintf("%s: %s in %s (%d attempt(s))", result.JobName, result.Summary, result.Duration.Round(time.Millisecond), result.Attempts)
	if !result.Success {
		PrintError(out, msg+": "+result.Error)
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(out, msg)
	return nil
}

func printJobs(w io.Writer, sched *scheduler.Scheduler) {
	rows := [][]string{}
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{name, stats[name].Schedule, next})
	}
	PrintTable(w, []string{"JOB", "SCHEDULE", "NEXT RUN"}, []int{12, 18, 20}, rows)
}

func printStats(w io.Writer, sched *scheduler.Scheduler) {
	for _, name := range sched.GetAllJobs() {
		stat := sched.GetJobStats()[name]
		fmt.Fprintf(w, "📊 %s\n", name)
		PrintKeyValue(w, "Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
		PrintKeyValue(w, "Success", fmt.Sprintf("%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100), 12)
		PrintKeyValue(w, "Failures", fmt.Sprintf("%d", stat.FailureCount), 12)
		if stat.LastRun != nil {
			PrintKeyValue(w, "Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), 12)
		}
	}
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	// 1. Config, engines, benchmark
	a, err := newApp(appOptions{benchmark: true, database: true})
	if err != nil {
		return nil, nil, err
	}
	cfg, log := a.cfg, a.log

	// 2. Webhook notifier (optional)
	opts := scheduler.Options{
		MaxRetries: cfg.Scheduler.MaxRetries,
		RetryDelay: cfg.Scheduler.RetryDelay,
	}
	if cfg.Scheduler.WebhookURL != "" {
		rc, err := redis.New(cfg)
		if err != nil {
			a.close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rc = rc
		client := httputil.NewWithTimeout(log, 10*time.Second).
			WithRetry(2, time.Second).
			WithRateLimiter(redis.NewRateLimiter(rc, "equityscore"), redis.WebhookRateLimit)
		opts.Notifier = scheduler.NewWebhookNotifier(client, cfg.Scheduler.WebhookURL)
	}

	// 3. Scheduler and jobs
	sched := scheduler.New(log, opts)
	job := scheduler.NewRescoreJob(a.orchestrator(), a.store, cfg.Scheduler.RescoreSchedule, cfg.Scoring.BatchWorkers, log)
	if err := sched.AddJob(job); err != nil {
		a.close()
		return nil, nil, err
	}

	return a, sched, nil
}
