package rfv

import (
	"math"
	"sort"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// Quartile levels used for grading
const (
	LevelQ25 = 0.25
	LevelQ50 = 0.50
	LevelQ75 = 0.75
)

// Quantile returns the q-quantile (0..1) of sorted values by linear interpolation
// between the order statistics around position q*(n-1).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	pos := q * float64(n-1)
	lower := int(math.Floor(pos))
	frac := pos - float64(lower)
	if frac == 0 || lower+1 >= n {
		return sorted[lower]
	}

	// 선형 보간
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// Quartiles computes the 25/50/75 triple of unsorted values
func Quartiles(values []float64) contracts.Quartiles {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return contracts.Quartiles{
		Q25: Quantile(sorted, LevelQ25),
		Q50: Quantile(sorted, LevelQ50),
		Q75: Quantile(sorted, LevelQ75),
	}
}

// Profile computes the boundaries of every dimension over the whole population
// ⭐ SSOT: Quantile Profiler
func Profile(metrics []contracts.CustomerMetrics) (contracts.QuantileBoundaries, error) {
	if len(metrics) == 0 {
		return contracts.QuantileBoundaries{}, contracts.ErrEmptyDataset
	}

	column := func(d contracts.Dimension) []float64 {
		out := make([]float64, len(metrics))
		for i, m := range metrics {
			out[i] = m.Metric(d)
		}
		return out
	}

	return contracts.QuantileBoundaries{
		Recency:   Quartiles(column(contracts.Recency)),
		Frequency: Quartiles(column(contracts.Frequency)),
		Value:     Quartiles(column(contracts.Value)),
	}, nil
}
