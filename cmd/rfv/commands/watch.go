package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RennanRnz/rfv-project/internal/watcher"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Segment every ledger dropped into a folder",
	Long: `Watches a folder and segments each CSV/XLSX ledger copied into it.

Results are written as <out>/<name>_rfv.csv. Files that fail to parse
are logged and skipped; the watcher keeps running.

Example:
  go run ./cmd/rfv watch
  go run ./cmd/rfv watch --dir ./inbox --out ./outbox`,
	RunE: runWatch,
}

var (
	watchDir string
	watchOut string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "folder to watch (default WATCH_DIR)")
	watchCmd.Flags().StringVar(&watchOut, "out", "", "output folder (default WATCH_OUT_DIR)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== RFV Drop Folder ===")

	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if watchDir != "" {
		cfg.Watch.Dir = watchDir
	}
	if watchOut != "" {
		cfg.Watch.OutDir = watchOut
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create service and watcher
	service, err := newService(cfg, redis.NewCache(redis.Disabled(), "rfv"), "", log)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Watch.Dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}

	w, err := watcher.New(service, cfg.Watch.OutDir, log)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	// 4. Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Watching %s → %s\n", cfg.Watch.Dir, cfg.Watch.OutDir)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := w.Run(ctx, cfg.Watch.Dir); err != nil {
		return err
	}

	fmt.Println("\nWatcher stopped")
	return nil
}
