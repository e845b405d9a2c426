package rfv

import (
	"fmt"
	"sort"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// DefaultUnmappedAction is the visible placeholder for scores without an entry
const DefaultUnmappedAction = "No action defined"

// Default action entries
const (
	ActionVIP      = "VIP customers - exclusive benefits"
	ActionInactive = "Inactive customers - deprioritize"
	ActionAtRisk   = "High-value customers at risk - reactivation campaign"
	ActionSlipping = "Valuable customers slipping away - reactivation campaign"
)

// DefaultActions returns a fresh copy of the recognized default entries
func DefaultActions() map[string]string {
	return map[string]string{
		"AAA": ActionVIP,
		"DDD": ActionInactive,
		"DAA": ActionAtRisk,
		"CAA": ActionSlipping,
	}
}

// ActionTable maps scores to recommended actions. Immutable once built.
type ActionTable struct {
	entries  map[string]string
	unmapped string
}

// NewActionTable builds a table from entries. An empty unmapped text falls back to the default.
func NewActionTable(entries map[string]string, unmapped string) (*ActionTable, error) {
	if unmapped == "" {
		unmapped = DefaultUnmappedAction
	}

	copied := make(map[string]string, len(entries))
	for score, action := range entries {
		if err := ValidateScore(score); err != nil {
			return nil, err
		}
		if action == "" {
			return nil, fmt.Errorf("action for score %s is empty", score)
		}
		copied[score] = action
	}

	return &ActionTable{entries: copied, unmapped: unmapped}, nil
}

// DefaultActionTable returns the table holding only the default entries
func DefaultActionTable() *ActionTable {
	return &ActionTable{entries: DefaultActions(), unmapped: DefaultUnmappedAction}
}

// Lookup returns the action for score and whether it was configured
func (t *ActionTable) Lookup(score string) (string, bool) {
	if action, ok := t.entries[score]; ok {
		return action, true
	}
	return t.unmapped, false
}

// Unmapped returns the placeholder text
func (t *ActionTable) Unmapped() string {
	return t.unmapped
}

// Entries returns a copy of the configured entries
func (t *ActionTable) Entries() map[string]string {
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Scores returns the configured scores in sorted order
func (t *ActionTable) Scores() []string {
	scores := make([]string, 0, len(t.entries))
	for s := range t.entries {
		scores = append(scores, s)
	}
	sort.Strings(scores)
	return scores
}

// ValidateScore checks that s is three grades from {A,B,C,D}
func ValidateScore(s string) error {
	if len(s) != 3 {
		return fmt.Errorf("score %q must have exactly 3 grades", s)
	}
	for i := 0; i < 3; i++ {
		if !contracts.Grade(s[i : i+1]).Valid() {
			return fmt.Errorf("score %q has invalid grade %q", s, s[i:i+1])
		}
	}
	return nil
}

// Score concatenates the grades in the fixed recency, frequency, value order
// ⭐ SSOT: Scorer
func Score(r, f, v contracts.Grade) string {
	return string(r) + string(f) + string(v)
}
