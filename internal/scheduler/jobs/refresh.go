package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/scheduler"
	"github.com/RennanRnz/rfv-project/pkg/logger"
)

// RefreshJobName is the scheduler name of the refresh job
const RefreshJobName = "rfv_refresh"

// Notifier is told about every finished refresh
type Notifier interface {
	Notify(ctx context.Context, summary RefreshSummary) error
}

// RefreshSummary is the webhook payload of a finished refresh
type RefreshSummary struct {
	RunID              string             `json:"run_id"`
	Source             string             `json:"source"`
	AnchorDate         string             `json:"anchor_date"`
	Transactions       int                `json:"transactions"`
	Customers          int                `json:"customers"`
	ActionDistribution []contracts.Bucket `json:"action_distribution"`
	UnmappedScores     int                `json:"unmapped_scores"`
}

// RefreshJob re-segments the DB ledger and stores the table
type RefreshJob struct {
	service  *analysis.Service
	source   contracts.TransactionSource
	sink     contracts.SegmentationSink
	notifier Notifier // optional
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates the refresh job. notifier may be nil.
func NewRefreshJob(
	service *analysis.Service,
	source contracts.TransactionSource,
	sink contracts.SegmentationSink,
	notifier Notifier,
	schedule string,
	log *logger.Logger,
) *RefreshJob {
	return &RefreshJob{
		service:  service,
		source:   source,
		sink:     sink,
		notifier: notifier,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return RefreshJobName
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one refresh: source → engine → sink → notify
func (j *RefreshJob) Run(ctx context.Context) (scheduler.RunReport, error) {
	result, err := j.service.AnalyzeSource(ctx, j.source)
	if err != nil {
		return scheduler.RunReport{}, fmt.Errorf("analyze %s: %w", j.source.Name(), err)
	}

	if err := j.sink.SaveTable(ctx, result.RunID, result.Table); err != nil {
		return scheduler.RunReport{}, fmt.Errorf("save run %s: %w", result.RunID, err)
	}

	report := scheduler.RunReport{
		RunID:        result.RunID,
		Source:       result.Table.Source,
		Customers:    result.Table.Len(),
		Transactions: result.Table.Transactions,
		Unmapped:     len(result.Table.Warnings),
	}

	log := j.logger.WithRun(result.RunID)
	log.WithField("customers", report.Customers).Info("Segmentation refresh stored")

	if j.notifier == nil {
		return report, nil
	}

	summary := RefreshSummary{
		RunID:              result.RunID,
		Source:             result.Table.Source,
		AnchorDate:         result.Table.AnchorDate.Format(time.DateOnly),
		Transactions:       result.Table.Transactions,
		Customers:          result.Table.Len(),
		ActionDistribution: result.Table.ActionDistribution(),
		UnmappedScores:     len(result.Table.Warnings),
	}
	// the table is already stored; a failed webhook must not trigger a recompute
	if err := j.notifier.Notify(ctx, summary); err != nil {
		log.WithError(err).Warn("Refresh notification failed")
	}
	return report, nil
}
