package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/rfv"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

const ledger = "ID_cliente,DiaCompra,CodigoCompra,ValorTotal\n" +
	"C1,2024-01-01,X1,100\n" +
	"C1,2024-01-10,X2,50\n" +
	"C2,2024-01-10,X3,500\n"

func newWatcher(t *testing.T, outDir string) *Watcher {
	t.Helper()

	svc, err := analysis.NewService(rfv.NewEngine(nil), redis.NewCache(redis.Disabled(), "rfv"), 0, logger.Nop())
	require.NoError(t, err)

	w, err := New(svc, outDir, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w.WithDebounce(50 * time.Millisecond)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "vendas_rfv.csv"), OutputPath("out", "/in/vendas.xlsx"))
	assert.Equal(t, filepath.Join("out", "a.b_rfv.csv"), OutputPath("out", "a.b.csv"))
}

func TestAccepts(t *testing.T) {
	w := newWatcher(t, t.TempDir())

	assert.True(t, w.accepts("/in/vendas.csv"))
	assert.True(t, w.accepts("/in/vendas.XLSX"))
	assert.False(t, w.accepts("/in/vendas_rfv.csv"))
	assert.False(t, w.accepts("/in/~$vendas.xlsx"))
	assert.False(t, w.accepts("/in/.vendas.csv.swp"))
	assert.False(t, w.accepts("/in/notes.txt"))
}

func TestWithDebounce_Clamped(t *testing.T) {
	w := newWatcher(t, t.TempDir())

	for _, d := range []time.Duration{-time.Second, 0, time.Nanosecond, 2 * time.Nanosecond} {
		w.WithDebounce(d)
		assert.Equal(t, MinDebounce, w.debounce, "debounce %v", d)
	}

	w.WithDebounce(time.Second)
	assert.Equal(t, time.Second, w.debounce)
}

func TestRun_TinyDebounce(t *testing.T) {
	w := newWatcher(t, t.TempDir()).WithDebounce(time.Nanosecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NotPanics(t, func() { _ = w.Run(ctx, t.TempDir()) })
}

func TestDue(t *testing.T) {
	w := newWatcher(t, t.TempDir())
	now := time.Now()

	w.pending["old.csv"] = now.Add(-time.Second)
	w.pending["fresh.csv"] = now

	assert.Equal(t, []string{"old.csv"}, w.due(now))
	assert.Len(t, w.pending, 1)
}

func TestProcessFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	path := filepath.Join(in, "vendas.csv")
	require.NoError(t, os.WriteFile(path, []byte(ledger), 0o644))

	written, err := newWatcher(t, out).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "vendas_rfv.csv"), written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Contains(t, string(data), "C2,0,1,500,A,D,A,ADA,No action defined")
}

func TestProcessFile_DataError(t *testing.T) {
	in := t.TempDir()
	path := filepath.Join(in, "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID_cliente,ValorTotal\nC1,1\n"), 0o644))

	_, err := newWatcher(t, t.TempDir()).ProcessFile(context.Background(), path)
	var mErr *contracts.MissingFieldError
	assert.ErrorAs(t, err, &mErr)
}

func TestRun_ProcessesDroppedFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w := newWatcher(t, out)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, in) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(in, "loja1.csv"), []byte(ledger), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "ignored.txt"), []byte("x"), 0o644))

	expected := filepath.Join(out, "loja1_rfv.csv")
	require.Eventually(t, func() bool {
		_, err := os.Stat(expected)
		return err == nil
	}, 4*time.Second, 50*time.Millisecond)

	_, err := os.Stat(filepath.Join(out, "ignored_rfv.csv"))
	assert.True(t, os.IsNotExist(err))

	cancel()
	assert.NoError(t, <-done)
}
