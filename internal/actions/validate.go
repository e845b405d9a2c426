package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RennanRnz/rfv-project/internal/rfv"
)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks every score key and action text
func Validate(f *File) error {
	if f.UnmappedAction != "" && strings.TrimSpace(f.UnmappedAction) == "" {
		return ValidationError{"unmapped_action", "must not be blank"}
	}

	for _, score := range sortedScores(f.Actions) {
		if err := rfv.ValidateScore(score); err != nil {
			return ValidationError{"actions." + score, err.Error()}
		}
		if strings.TrimSpace(f.Actions[score]) == "" {
			return ValidationError{"actions." + score, "action text required"}
		}
	}

	if f.ReplaceDefaults && len(f.Actions) == 0 {
		return ValidationError{"actions", "required when replace_defaults is true"}
	}
	return nil
}

// Warn reports recommended-practice violations
func Warn(f *File) []Warning {
	var warnings []Warning

	if f.Meta.TableID == "" {
		warnings = append(warnings, Warning{"NO_TABLE_ID", "meta.table_id is empty; runs cannot be traced to a table"})
	}

	defaults := rfv.DefaultActions()
	for _, score := range sortedScores(defaults) {
		if f.ReplaceDefaults {
			if _, ok := f.Actions[score]; !ok {
				warnings = append(warnings, Warning{"DEFAULT_DROPPED", fmt.Sprintf("default entry %s is not mapped", score)})
			}
			continue
		}
		if action, ok := f.Actions[score]; ok && action != defaults[score] {
			warnings = append(warnings, Warning{"DEFAULT_OVERRIDDEN", fmt.Sprintf("default entry %s overridden", score)})
		}
	}

	if f.UnmappedAction != "" && containsValue(f.Actions, f.UnmappedAction) {
		warnings = append(warnings, Warning{"AMBIGUOUS_PLACEHOLDER", "unmapped_action equals a configured action text"})
	}

	return warnings
}

func sortedScores(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsValue(m map[string]string, v string) bool {
	for _, x := range m {
		if x == v {
			return true
		}
	}
	return false
}
