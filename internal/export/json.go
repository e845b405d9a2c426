package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// Document is the JSON shape of an analysis result
type Document struct {
	RunID              string                           `json:"run_id"`
	AnchorDate         string                           `json:"anchor_date"`
	Transactions       int                              `json:"transactions"`
	Customers          int                              `json:"customers"`
	Boundaries         contracts.QuantileBoundaries     `json:"boundaries"`
	Records            []contracts.SegmentationRecord   `json:"records"`
	ScoreDistribution  []contracts.Bucket               `json:"score_distribution"`
	ActionDistribution []contracts.Bucket               `json:"action_distribution"`
	UnmappedAction     string                           `json:"unmapped_action"`
	Warnings           []contracts.UnmappedScoreWarning `json:"warnings"`
}

// NewDocument flattens a table and its distributions
func NewDocument(runID string, table *contracts.SegmentationTable) Document {
	warnings := table.Warnings
	if warnings == nil {
		warnings = []contracts.UnmappedScoreWarning{}
	}

	return Document{
		RunID:              runID,
		AnchorDate:         table.AnchorDate.Format(time.DateOnly),
		Transactions:       table.Transactions,
		Customers:          table.Len(),
		Boundaries:         table.Boundaries,
		Records:            table.Records,
		ScoreDistribution:  table.ScoreDistribution(),
		ActionDistribution: table.ActionDistribution(),
		UnmappedAction:     table.UnmappedAction,
		Warnings:           warnings,
	}
}

// WriteJSON writes an indented JSON document
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
