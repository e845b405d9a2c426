package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/scheduler"
	"github.com/RennanRnz/rfv-project/internal/scheduler/jobs"
	"github.com/RennanRnz/rfv-project/internal/store"
	"github.com/RennanRnz/rfv-project/pkg/config"
	"github.com/RennanRnz/rfv-project/pkg/database"
	"github.com/RennanRnz/rfv-project/pkg/httputil"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled segmentation refresh",
	Long: `Runs or inspects the scheduled RFV refresh.

The refresh job reads the ledger table (RFV_SOURCE / RFV_SOURCE_TABLE),
segments it, stores the run in PostgreSQL (rfv_runs, rfv_segments)
and warms the cache served by GET /api/rfv/latest.

Subcommands:
  start    - start the scheduler daemon
  run      - run the refresh once and exit
  history  - list stored runs

Example:
  go run ./cmd/rfv scheduler start
  go run ./cmd/rfv scheduler run
  go run ./cmd/rfv scheduler history --limit 5`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers the refresh job.

Registered jobs:
- rfv_refresh: RFV_SCHEDULE (default every day at 03:00)

Stop the scheduler with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the refresh once",
		RunE:  runRefreshOnce,
	}

	schedulerHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "List stored runs",
		RunE:  showHistory,
	}
)

var (
	historyLimit int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerHistoryCmd)

	schedulerHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "runs to list")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFV Scheduler ===")

	// Initialize dependencies
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, st := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, st.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func runRefreshOnce(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Running rfv_refresh...")
	result, err := sched.RunJob(cmd.Context(), jobs.RefreshJobName)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("rfv_refresh completed in %.2fs (%d attempt(s))", result.Duration.Seconds(), result.Attempts))
	if rep := result.Report; rep != nil {
		fmt.Printf("  run id:       %s\n", rep.RunID)
		fmt.Printf("  source:       %s\n", rep.Source)
		fmt.Printf("  customers:    %d\n", rep.Customers)
		fmt.Printf("  transactions: %d\n", rep.Transactions)
		if rep.Unmapped > 0 {
			PrintWarning(fmt.Sprintf("%d scores have no mapped action", rep.Unmapped))
		}
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	runs, err := store.NewPostgresSink(db.Pool).RecentRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		PrintInfo("No stored runs")
		return nil
	}

	widths := []int{36, 24, 11, 8, 9, 19}
	PrintTableHeader([]string{"Run ID", "Source", "Anchor", "Txns", "Customers", "Created"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.RunID,
			r.Source,
			r.AnchorDate.Format(time.DateOnly),
			strconv.Itoa(r.Transactions),
			strconv.Itoa(r.Customers),
			r.CreatedAt.Local().Format(time.DateTime),
		}, widths)
	}
	return nil
}

// initScheduler wires source → service → sink → notifier into a scheduler
func initScheduler(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 3. Runs are always stored in PostgreSQL
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	closers = append(closers, db.Close)

	sink := store.NewPostgresSink(db.Pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.EnsureSchema(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	// 4. Ledger source; the postgres ledger shares the sink's pool
	source, err := schedulerSource(cfg, db, log, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// 5. Redis cache (warms GET /api/rfv/latest)
	redisClient, err := redis.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	service, err := newService(cfg, redis.NewCache(redisClient, "rfv"), "", log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// 6. Optional webhook
	var notifier jobs.Notifier
	if cfg.RFV.NotifyURL != "" {
		notifier = jobs.NewWebhookNotifier(httputil.New(log), cfg.RFV.NotifyURL)
		log.WithField("url", cfg.RFV.NotifyURL).Info("Refresh notifications enabled")
	}

	// 7. Register job
	sched := scheduler.New(log).WithRetry(2, time.Minute)
	job := jobs.NewRefreshJob(service, source, sink, notifier, cfg.RFV.Schedule, log)
	if err := sched.AddJob(job); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("add job: %w", err)
	}

	return sched, cleanup, nil
}

func schedulerSource(cfg *config.Config, db *database.DB, log *logger.Logger, closers *[]func()) (contracts.TransactionSource, error) {
	if cfg.RFV.Source == "postgres" {
		source, err := store.NewPostgresSource(db.Pool, cfg.RFV.SourceTable)
		if err != nil {
			return nil, err
		}
		return source, nil
	}

	source, closeSource, err := openMySQLSource(cfg, log)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, closeSource)
	return source, nil
}
