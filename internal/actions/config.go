package actions

// File is the action-table configuration file
type File struct {
	Meta            Meta              `yaml:"meta" json:"meta"`
	UnmappedAction  string            `yaml:"unmapped_action" json:"unmapped_action"`
	ReplaceDefaults bool              `yaml:"replace_defaults" json:"replace_defaults"`
	Actions         map[string]string `yaml:"actions" json:"actions"` // score → action text
}

// Meta 메타 정보
type Meta struct {
	TableID string `yaml:"table_id" json:"table_id"`
	Version string `yaml:"version" json:"version"`
}

// Effective returns the entries in force: the defaults overlaid with the file's
// entries, or the file's entries alone when replace_defaults is set.
func (f *File) Effective(defaults map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(f.Actions))
	if !f.ReplaceDefaults {
		for score, action := range defaults {
			out[score] = action
		}
	}
	for score, action := range f.Actions {
		out[score] = action
	}
	return out
}
