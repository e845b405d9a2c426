package actions

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RennanRnz/rfv-project/internal/rfv"
)

// Load reads an action-table YAML file and returns it with the raw bytes.
// Unknown fields fail immediately so a typo never silently drops an entry.
func Load(path string) (*File, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	f, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return f, data, nil
}

// Parse decodes and validates action-table YAML
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}

	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Table builds the engine's action table from a file (nil → defaults)
func Table(f *File) (*rfv.ActionTable, error) {
	if f == nil {
		return rfv.DefaultActionTable(), nil
	}
	return rfv.NewActionTable(f.Effective(rfv.DefaultActions()), f.UnmappedAction)
}

// LoadTable reads path and builds the action table. An empty path yields the defaults.
func LoadTable(path string) (*rfv.ActionTable, error) {
	if path == "" {
		return rfv.DefaultActionTable(), nil
	}
	f, _, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Table(f)
}

// Hash returns the SHA-256 of the table's canonical JSON.
// encoding/json sorts map keys, so equal tables hash equally.
func Hash(t *rfv.ActionTable) (string, error) {
	jsonBytes, err := json.Marshal(struct {
		Entries  map[string]string `json:"entries"`
		Unmapped string            `json:"unmapped"`
	}{t.Entries(), t.Unmapped()})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
