package contracts

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Grade is the per-dimension tier, A (best) to D (worst)
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Grades lists every valid grade from best to worst
var Grades = []Grade{GradeA, GradeB, GradeC, GradeD}

// Valid reports whether g is one of A, B, C, D
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD:
		return true
	}
	return false
}

// Dimension identifies one of the three RFV metrics
type Dimension int

const (
	Recency Dimension = iota
	Frequency
	Value
)

// Dimensions in score order
var Dimensions = []Dimension{Recency, Frequency, Value}

func (d Dimension) String() string {
	switch d {
	case Recency:
		return "recency"
	case Frequency:
		return "frequency"
	case Value:
		return "value"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// CustomerMetrics is the per-customer aggregate built by the aggregator
type CustomerMetrics struct {
	CustomerID  string  `json:"customer_id"`
	RecencyDays int     `json:"recency_days"` // days between dataset max date and customer's last purchase
	Frequency   int     `json:"frequency"`    // transaction rows
	Value       float64 `json:"value"`        // sum of total_value
}

// Metric returns the raw value of dimension d
func (m CustomerMetrics) Metric(d Dimension) float64 {
	switch d {
	case Recency:
		return float64(m.RecencyDays)
	case Frequency:
		return float64(m.Frequency)
	default:
		return m.Value
	}
}

// Quartiles holds the 25th/50th/75th percentile of one metric
type Quartiles struct {
	Q25 float64 `json:"q25"`
	Q50 float64 `json:"q50"`
	Q75 float64 `json:"q75"`
}

// QuantileBoundaries holds one Quartiles triple per dimension.
// Computed once per run, shared read-only by every classification of that run.
type QuantileBoundaries struct {
	Recency   Quartiles `json:"recency"`
	Frequency Quartiles `json:"frequency"`
	Value     Quartiles `json:"value"`
}

// For returns the triple of dimension d
func (b QuantileBoundaries) For(d Dimension) Quartiles {
	switch d {
	case Recency:
		return b.Recency
	case Frequency:
		return b.Frequency
	default:
		return b.Value
	}
}

// SegmentationRecord is one output row
// ⭐ SSOT: Engine → 출력 테이블 행
type SegmentationRecord struct {
	CustomerID     string  `json:"customer_id"`
	RecencyDays    int     `json:"recency_days"`
	Frequency      int     `json:"frequency"`
	Value          float64 `json:"value"`
	RecencyGrade   Grade   `json:"recency_grade"`
	FrequencyGrade Grade   `json:"frequency_grade"`
	ValueGrade     Grade   `json:"value_grade"`
	Score          string  `json:"score"`  // recency + frequency + value grade
	Action         string  `json:"action"` // never empty; unmapped placeholder when no entry exists
	Mapped         bool    `json:"mapped"`
}

// Columns is the header of the tabular output
var Columns = []string{
	"customer_id",
	"recency_days",
	"frequency",
	"value",
	"recency_grade",
	"frequency_grade",
	"value_grade",
	"score",
	"action",
}

// Strings renders the record in Columns order
func (r SegmentationRecord) Strings() []string {
	return []string{
		r.CustomerID,
		strconv.Itoa(r.RecencyDays),
		strconv.Itoa(r.Frequency),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
		string(r.RecencyGrade),
		string(r.FrequencyGrade),
		string(r.ValueGrade),
		r.Score,
		r.Action,
	}
}

// UnmappedScoreWarning reports a score with no configured action.
// Non-fatal: the rows still carry the unmapped placeholder.
type UnmappedScoreWarning struct {
	Score string `json:"score"`
	Count int    `json:"count"`
}

func (w UnmappedScoreWarning) String() string {
	return fmt.Sprintf("score %s has no action defined (%d customers)", w.Score, w.Count)
}

// SegmentationTable is the terminal output of one analysis run
type SegmentationTable struct {
	Source         string                 `json:"source,omitempty"` // ledger the table was computed from
	AnchorDate     time.Time              `json:"anchor_date"`      // max purchase date of the dataset
	Transactions   int                    `json:"transactions"`
	Boundaries     QuantileBoundaries     `json:"boundaries"`
	Records        []SegmentationRecord   `json:"records"` // ordered by customer_id
	UnmappedAction string                 `json:"unmapped_action"`
	Warnings       []UnmappedScoreWarning `json:"warnings"`
}

// Bucket is one bar of a distribution
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Len returns the number of customers
func (t *SegmentationTable) Len() int {
	return len(t.Records)
}

// ScoreDistribution counts customers per score, sorted by score
func (t *SegmentationTable) ScoreDistribution() []Bucket {
	return distribution(t.Records, func(r SegmentationRecord) string { return r.Score })
}

// ActionDistribution counts customers per action, sorted by action text.
// Unmapped rows are counted under the placeholder.
func (t *SegmentationTable) ActionDistribution() []Bucket {
	return distribution(t.Records, func(r SegmentationRecord) string { return r.Action })
}

// Get returns the record of a customer
func (t *SegmentationTable) Get(customerID string) (SegmentationRecord, bool) {
	i := sort.Search(len(t.Records), func(i int) bool {
		return t.Records[i].CustomerID >= customerID
	})
	if i < len(t.Records) && t.Records[i].CustomerID == customerID {
		return t.Records[i], true
	}
	return SegmentationRecord{}, false
}

func distribution(records []SegmentationRecord, key func(SegmentationRecord) string) []Bucket {
	counts := make(map[string]int)
	for _, r := range records {
		counts[key(r)]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for k, c := range counts {
		buckets = append(buckets, Bucket{Key: k, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}
