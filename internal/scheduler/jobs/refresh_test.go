package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/rfv"
	"github.com/RennanRnz/rfv-project/internal/scheduler"
	"github.com/RennanRnz/rfv-project/pkg/httputil"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

type memSource struct {
	txs []contracts.Transaction
	err error
}

func (m memSource) Name() string { return "postgres:transactions" }

func (m memSource) Transactions(context.Context) ([]contracts.Transaction, error) {
	return m.txs, m.err
}

type memSink struct {
	runs map[string]*contracts.SegmentationTable
	err  error
}

func (m *memSink) SaveTable(_ context.Context, runID string, table *contracts.SegmentationTable) error {
	if m.err != nil {
		return m.err
	}
	m.runs[runID] = table
	return nil
}

type memNotifier struct {
	got []RefreshSummary
	err error
}

func (m *memNotifier) Notify(_ context.Context, s RefreshSummary) error {
	m.got = append(m.got, s)
	return m.err
}

func ledger() []contracts.Transaction {
	d := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}
	return []contracts.Transaction{
		{CustomerID: "C1", PurchaseDate: d("2024-01-01"), PurchaseCode: "X1", TotalValue: 100},
		{CustomerID: "C1", PurchaseDate: d("2024-01-10"), PurchaseCode: "X2", TotalValue: 50},
		{CustomerID: "C2", PurchaseDate: d("2024-01-10"), PurchaseCode: "X3", TotalValue: 500},
	}
}

func newService(t *testing.T) *analysis.Service {
	t.Helper()
	svc, err := analysis.NewService(rfv.NewEngine(nil), redis.NewCache(redis.Disabled(), "rfv"), 0, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestRefreshJob_Run(t *testing.T) {
	sink := &memSink{runs: map[string]*contracts.SegmentationTable{}}
	notifier := &memNotifier{}
	job := NewRefreshJob(newService(t), memSource{txs: ledger()}, sink, notifier, "0 0 3 * * *", logger.Nop())

	assert.Equal(t, "rfv_refresh", job.Name())
	assert.Equal(t, "0 0 3 * * *", job.Schedule())

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.runs, 1)
	require.Len(t, notifier.got, 1)

	summary := notifier.got[0]
	assert.Equal(t, summary.RunID, report.RunID)
	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, 3, report.Transactions)
	assert.Equal(t, 2, report.Unmapped)

	table := sink.runs[summary.RunID]
	require.NotNil(t, table)
	assert.Equal(t, "postgres:transactions", table.Source)
	assert.Equal(t, 2, summary.Customers)
	assert.Equal(t, 3, summary.Transactions)
	assert.Equal(t, "2024-01-10", summary.AnchorDate)
	assert.Equal(t, 2, summary.UnmappedScores)
}

func TestRefreshJob_Failures(t *testing.T) {
	svc := newService(t)

	boom := errors.New("db down")
	job := NewRefreshJob(svc, memSource{err: boom}, &memSink{runs: map[string]*contracts.SegmentationTable{}}, nil, "@daily", logger.Nop())
	report, err := job.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, report.RunID)

	sinkErr := errors.New("disk full")
	job = NewRefreshJob(svc, memSource{txs: ledger()}, &memSink{err: sinkErr}, nil, "@daily", logger.Nop())
	_, err = job.Run(context.Background())
	assert.ErrorIs(t, err, sinkErr)

	// a failed notification does not fail the stored refresh
	sink := &memSink{runs: map[string]*contracts.SegmentationTable{}}
	job = NewRefreshJob(svc, memSource{txs: ledger()}, sink, &memNotifier{err: errors.New("timeout")}, "@daily", logger.Nop())
	report, err = job.Run(context.Background())
	assert.NoError(t, err)
	assert.Len(t, sink.runs, 1)
	assert.Contains(t, sink.runs, report.RunID)
}

func TestRefreshJob_StatsCarryRun(t *testing.T) {
	sink := &memSink{runs: map[string]*contracts.SegmentationTable{}}
	job := NewRefreshJob(newService(t), memSource{txs: ledger()}, sink, nil, "@daily", logger.Nop())

	sched := scheduler.New(logger.Nop()).WithRetry(0, time.Millisecond)
	require.NoError(t, sched.AddJob(job))

	result, err := sched.RunJob(context.Background(), RefreshJobName)
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 2, result.Report.Customers)
	assert.Contains(t, sink.runs, result.Report.RunID)

	stats := sched.GetJobStats()[RefreshJobName]
	assert.Equal(t, result.Report.RunID, stats.LastRunID)
	assert.Equal(t, 2, stats.LastCustomers)
	assert.NotNil(t, stats.LastSuccess)
}

func TestWebhookNotifier(t *testing.T) {
	var got RefreshSummary
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewWebhookNotifier(httputil.New(logger.Nop()).DisableRetry(), server.URL)
	require.NoError(t, n.Notify(context.Background(), RefreshSummary{RunID: "r1", Customers: 4}))
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, 4, got.Customers)
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	n := NewWebhookNotifier(httputil.New(logger.Nop()).DisableRetry(), server.URL)
	assert.Error(t, n.Notify(context.Background(), RefreshSummary{}))
}
