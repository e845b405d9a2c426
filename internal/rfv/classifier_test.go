package rfv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

func uniform(q25, q50, q75 float64) contracts.QuantileBoundaries {
	q := contracts.Quartiles{Q25: q25, Q50: q50, Q75: q75}
	return contracts.QuantileBoundaries{Recency: q, Frequency: q, Value: q}
}

func TestClassify_Polarity(t *testing.T) {
	b := uniform(10, 20, 30)

	tests := []struct {
		value     float64
		recency   contracts.Grade
		frequency contracts.Grade
	}{
		{0, contracts.GradeA, contracts.GradeD},
		{10, contracts.GradeA, contracts.GradeD}, // equal to q25
		{15, contracts.GradeB, contracts.GradeC},
		{20, contracts.GradeB, contracts.GradeC},
		{25, contracts.GradeC, contracts.GradeB},
		{30, contracts.GradeC, contracts.GradeB},
		{30.0001, contracts.GradeD, contracts.GradeA},
		{1e9, contracts.GradeD, contracts.GradeA},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.recency, Classify(tt.value, contracts.Recency, b), "recency %v", tt.value)
		assert.Equal(t, tt.frequency, Classify(tt.value, contracts.Frequency, b), "frequency %v", tt.value)
		assert.Equal(t, tt.frequency, Classify(tt.value, contracts.Value, b), "value %v", tt.value)
	}
}

func TestClassify_DegenerateBoundaries(t *testing.T) {
	b := uniform(5, 5, 5)

	assert.Equal(t, contracts.GradeA, Classify(5, contracts.Recency, b))
	assert.Equal(t, contracts.GradeA, Classify(4, contracts.Recency, b))
	assert.Equal(t, contracts.GradeD, Classify(6, contracts.Recency, b))

	assert.Equal(t, contracts.GradeD, Classify(5, contracts.Frequency, b))
	assert.Equal(t, contracts.GradeD, Classify(4, contracts.Frequency, b))
	assert.Equal(t, contracts.GradeA, Classify(6, contracts.Frequency, b))
}

func TestClassify_UsesDimensionBoundaries(t *testing.T) {
	b := contracts.QuantileBoundaries{
		Recency:   contracts.Quartiles{Q25: 1, Q50: 2, Q75: 3},
		Frequency: contracts.Quartiles{Q25: 100, Q50: 200, Q75: 300},
		Value:     contracts.Quartiles{Q25: 0.1, Q50: 0.2, Q75: 0.3},
	}

	m := contracts.CustomerMetrics{RecencyDays: 2, Frequency: 250, Value: 0.05}
	r, f, v := ClassifyCustomer(m, b)

	assert.Equal(t, contracts.GradeB, r)
	assert.Equal(t, contracts.GradeB, f)
	assert.Equal(t, contracts.GradeD, v)
}
