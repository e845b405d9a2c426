package rfv

import (
	"context"
	"sort"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// Engine runs the RFV pipeline: aggregate → profile → classify → score.
// It holds no run state; one Engine may serve concurrent runs.
type Engine struct {
	actions *ActionTable
}

// NewEngine creates an engine using the given action table (defaults when nil)
func NewEngine(actions *ActionTable) *Engine {
	if actions == nil {
		actions = DefaultActionTable()
	}
	return &Engine{actions: actions}
}

// Actions returns the engine's action table
func (e *Engine) Actions() *ActionTable {
	return e.actions
}

// Run segments a fully materialized ledger.
// Any error aborts the whole run; no partial table is returned.
// ⭐ SSOT: Store → Engine → SegmentationTable
func (e *Engine) Run(ctx context.Context, txs []contracts.Transaction) (*contracts.SegmentationTable, error) {
	metrics, anchor, err := Aggregate(txs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds, err := Profile(metrics)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := &contracts.SegmentationTable{
		AnchorDate:     anchor,
		Transactions:   len(txs),
		Boundaries:     bounds,
		Records:        make([]contracts.SegmentationRecord, 0, len(metrics)),
		UnmappedAction: e.actions.Unmapped(),
		Warnings:       []contracts.UnmappedScoreWarning{},
	}

	// A lone customer has nobody to be compared with and is graded top on every dimension.
	sole := len(metrics) == 1

	unmapped := make(map[string]int)
	for _, m := range metrics {
		r, f, v := contracts.GradeA, contracts.GradeA, contracts.GradeA
		if !sole {
			r, f, v = ClassifyCustomer(m, bounds)
		}

		score := Score(r, f, v)
		action, mapped := e.actions.Lookup(score)
		if !mapped {
			unmapped[score]++
		}

		table.Records = append(table.Records, contracts.SegmentationRecord{
			CustomerID:     m.CustomerID,
			RecencyDays:    m.RecencyDays,
			Frequency:      m.Frequency,
			Value:          m.Value,
			RecencyGrade:   r,
			FrequencyGrade: f,
			ValueGrade:     v,
			Score:          score,
			Action:         action,
			Mapped:         mapped,
		})
	}

	for score, count := range unmapped {
		table.Warnings = append(table.Warnings, contracts.UnmappedScoreWarning{Score: score, Count: count})
	}
	sort.Slice(table.Warnings, func(i, j int) bool {
		return table.Warnings[i].Score < table.Warnings[j].Score
	})

	return table, nil
}
