package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RennanRnz/rfv-project/internal/rfv"
)

const sampleYAML = `
meta:
  table_id: crm_test
  version: "2"
unmapped_action: "Review manually"
actions:
  AAA: "Gold club"
  ABA: "Upsell"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	f, raw, err := Load(writeFile(t, sampleYAML))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "crm_test", f.Meta.TableID)

	table, err := Table(f)
	require.NoError(t, err)

	action, ok := table.Lookup("AAA")
	assert.True(t, ok)
	assert.Equal(t, "Gold club", action)

	action, ok = table.Lookup("DDD")
	assert.True(t, ok)
	assert.Equal(t, rfv.ActionInactive, action)

	action, ok = table.Lookup("ABA")
	assert.True(t, ok)
	assert.Equal(t, "Upsell", action)

	action, ok = table.Lookup("BBB")
	assert.False(t, ok)
	assert.Equal(t, "Review manually", action)
}

func TestLoad_ReplaceDefaults(t *testing.T) {
	f, _, err := Load(writeFile(t, "replace_defaults: true\nactions:\n  ABA: Upsell\n"))
	require.NoError(t, err)

	table, err := Table(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABA"}, table.Scores())
	assert.Equal(t, rfv.DefaultUnmappedAction, table.Unmapped())
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	_, _, err := Load(writeFile(t, "actionz:\n  AAA: VIP\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RepositoryDefaultFile(t *testing.T) {
	path := "../../config/actions.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	f, _, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, Warn(f))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		file  File
		field string
	}{
		{"bad score", File{Actions: map[string]string{"AAE": "x"}}, "actions.AAE"},
		{"short score", File{Actions: map[string]string{"AA": "x"}}, "actions.AA"},
		{"blank action", File{Actions: map[string]string{"AAA": "  "}}, "actions.AAA"},
		{"blank placeholder", File{UnmappedAction: "   "}, "unmapped_action"},
		{"replace without entries", File{ReplaceDefaults: true}, "actions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.file)
			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.NoError(t, Validate(&File{}))
}

func TestWarn(t *testing.T) {
	f := &File{
		UnmappedAction: "Upsell",
		Actions:        map[string]string{"AAA": "Other", "ABA": "Upsell"},
	}

	codes := make([]string, 0)
	for _, w := range Warn(f) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"NO_TABLE_ID", "DEFAULT_OVERRIDDEN", "AMBIGUOUS_PLACEHOLDER"}, codes)

	replaced := &File{Meta: Meta{TableID: "x"}, ReplaceDefaults: true, Actions: map[string]string{"AAA": "VIP"}}
	assert.Len(t, Warn(replaced), 3) // CAA, DAA, DDD dropped
}

func TestHash_Deterministic(t *testing.T) {
	a, err := LoadTable(writeFile(t, sampleYAML))
	require.NoError(t, err)
	b, err := LoadTable(writeFile(t, sampleYAML))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)

	hd, err := Hash(rfv.DefaultActionTable())
	require.NoError(t, err)
	assert.NotEqual(t, ha, hd)
}

func TestLoadTable_EmptyPath(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Equal(t, rfv.DefaultActionTable().Scores(), table.Scores())
}
