package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/export"
	"github.com/RennanRnz/rfv-project/internal/ingest"
	"github.com/RennanRnz/rfv-project/pkg/logger"
)

// OutputSuffix is appended to the base name of every processed ledger
const OutputSuffix = "_rfv"

// Watcher segments every CSV/XLSX ledger dropped into a directory
// ⭐ SSOT: 드롭 폴더 감시는 여기서만
type Watcher struct {
	fs       *fsnotify.Watcher
	service  *analysis.Service
	outDir   string
	debounce time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	pending map[string]time.Time // path → last event
}

// New creates a watcher writing results to outDir
func New(service *analysis.Service, outDir string, log *logger.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fs:       fs,
		service:  service,
		outDir:   outDir,
		debounce: 500 * time.Millisecond,
		logger:   log,
		pending:  make(map[string]time.Time),
	}, nil
}

// MinDebounce is the shortest quiet window WithDebounce accepts
const MinDebounce = 10 * time.Millisecond

// WithDebounce sets how long a file must stay quiet before it is processed.
// Values below MinDebounce are raised to it.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d < MinDebounce {
		d = MinDebounce
	}
	w.debounce = d
	return w
}

// Run watches dir until ctx is done. Writes are debounced so a file is
// processed once its copy has finished.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"dir": dir,
		"out": w.outDir,
	}).Info("Watching drop folder")

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.accepts(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error")
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if _, err := w.ProcessFile(ctx, path); err != nil {
					w.logger.WithError(err).WithField("file", path).Warn("Ledger not segmented")
				}
			}
		}
	}
}

// Stop releases the underlying watcher
func (w *Watcher) Stop() error {
	return w.fs.Close()
}

// ProcessFile segments one ledger and writes <outDir>/<name>_rfv.csv
func (w *Watcher) ProcessFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	result, err := w.service.AnalyzeFile(ctx, filepath.Base(path), f)
	if err != nil {
		return "", err
	}

	out := OutputPath(w.outDir, path)
	if err := export.ToFile(out, export.FormatCSV, result.RunID, result.Table); err != nil {
		return "", err
	}

	w.logger.WithRun(result.RunID).WithFields(map[string]interface{}{
		"file": path,
		"out":  out,
	}).Info("Ledger segmented")
	return out, nil
}

// OutputPath names the result file of a ledger
func OutputPath(outDir, path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, name+OutputSuffix+".csv")
}

// accepts filters out unsupported files, editor lock files and our own results
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	if strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), OutputSuffix) {
		return false
	}
	return ingest.Supported(base)
}

// due pops every pending path that has been quiet for the debounce window
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}
