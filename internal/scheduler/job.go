package scheduler

import (
	"context"
	"time"
)

// historyLimit bounds the results kept per job
const historyLimit = 100

// Job is a segmentation task the scheduler triggers
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run computes and stores one segmentation run
	Run(ctx context.Context) (RunReport, error)

	// Schedule returns the cron expression, seconds first
	// Examples: "0 0 3 * * *" (every day at 03:00), "@hourly"
	Schedule() string
}

// RunReport identifies the segmentation table a job produced
type RunReport struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	Customers    int    `json:"customers"`
	Transactions int    `json:"transactions"`
	Unmapped     int    `json:"unmapped_scores"`
}

// JobResult is one scheduled execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Report    *RunReport    `json:"report,omitempty"` // nil unless Success
}

// JobHistory holds the latest results of one job, oldest first
type JobHistory struct {
	results []JobResult
}

// Add records a result, dropping the oldest past historyLimit
func (h *JobHistory) Add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > historyLimit {
		h.results = h.results[len(h.results)-historyLimit:]
	}
}

// Len returns the number of results kept
func (h *JobHistory) Len() int {
	return len(h.results)
}

// Latest returns up to n results, newest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}

	latest := make([]JobResult, 0, n)
	for i := len(h.results) - 1; i >= len(h.results)-n; i-- {
		latest = append(latest, h.results[i])
	}
	return latest
}

// LastRun returns the newest segmentation run that was stored
func (h *JobHistory) LastRun() (JobResult, bool) {
	for i := len(h.results) - 1; i >= 0; i-- {
		if h.results[i].Success && h.results[i].Report != nil {
			return h.results[i], true
		}
	}
	return JobResult{}, false
}

// Failures counts the failed results
func (h *JobHistory) Failures() int {
	n := 0
	for _, r := range h.results {
		if !r.Success {
			n++
		}
	}
	return n
}

// SuccessRate returns the share of successful results (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.results) == 0 {
		return 0.0
	}
	return float64(len(h.results)-h.Failures()) / float64(len(h.results))
}
