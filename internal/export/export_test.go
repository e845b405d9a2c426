package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

func sampleTable() *contracts.SegmentationTable {
	return &contracts.SegmentationTable{
		AnchorDate:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Transactions: 3,
		Boundaries: contracts.QuantileBoundaries{
			Frequency: contracts.Quartiles{Q25: 1.25, Q50: 1.5, Q75: 1.75},
			Value:     contracts.Quartiles{Q25: 237.5, Q50: 325, Q75: 412.5},
		},
		Records: []contracts.SegmentationRecord{
			{
				CustomerID: "C1", RecencyDays: 0, Frequency: 2, Value: 150.5,
				RecencyGrade: "A", FrequencyGrade: "A", ValueGrade: "D",
				Score: "AAD", Action: "Promoção, \"relâmpago\"", Mapped: true,
			},
			{
				CustomerID: "C2", RecencyDays: 0, Frequency: 1, Value: 500,
				RecencyGrade: "A", FrequencyGrade: "D", ValueGrade: "A",
				Score: "ADA", Action: "No action defined",
			},
		},
		UnmappedAction: "No action defined",
		Warnings:       []contracts.UnmappedScoreWarning{{Score: "ADA", Count: 1}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"CSV", FormatCSV},
		{" xlsx ", FormatXLSX},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, "RFV_resultado.xlsx", FormatXLSX.FileName())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, contracts.Columns, rows[0])
	assert.Equal(t, []string{"C1", "0", "2", "150.5", "A", "A", "D", "AAD", "Promoção, \"relâmpago\""}, rows[1])
	assert.Equal(t, "No action defined", rows[2][8])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, contracts.Columns, rows[0])
	assert.Equal(t, "C2", rows[2][0])
	assert.Equal(t, "500", rows[2][3])
	assert.Equal(t, "ADA", rows[2][7])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, "run-1", sampleTable()))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	for _, key := range []string{"run_id", "anchor_date", "boundaries", "records", "score_distribution", "action_distribution", "warnings"} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, "2024-01-10", doc["anchor_date"])
	assert.Len(t, doc["records"], 2)
	assert.Len(t, doc["action_distribution"], 2)
}

func TestNewDocument_NilWarnings(t *testing.T) {
	table := sampleTable()
	table.Warnings = nil

	doc := NewDocument("x", table)
	assert.NotNil(t, doc.Warnings)
	assert.Equal(t, 2, doc.Customers)
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", FormatCSV.FileName())
	require.NoError(t, ToFile(path, FormatCSV, "", sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "customer_id,recency_days")
}
