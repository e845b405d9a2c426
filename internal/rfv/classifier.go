package rfv

import "github.com/RennanRnz/rfv-project/internal/contracts"

// Classify grades a raw metric value against the run's boundaries.
// Recency is inverted (lower is better), frequency and value are direct.
// Every tier compares with <=, so a value equal to a boundary lands in the lower bucket.
// ⭐ SSOT: Classifier
func Classify(value float64, dim contracts.Dimension, b contracts.QuantileBoundaries) contracts.Grade {
	q := b.For(dim)

	if dim == contracts.Recency {
		switch {
		case value <= q.Q25:
			return contracts.GradeA
		case value <= q.Q50:
			return contracts.GradeB
		case value <= q.Q75:
			return contracts.GradeC
		default:
			return contracts.GradeD
		}
	}

	switch {
	case value <= q.Q25:
		return contracts.GradeD
	case value <= q.Q50:
		return contracts.GradeC
	case value <= q.Q75:
		return contracts.GradeB
	default:
		return contracts.GradeA
	}
}

// ClassifyCustomer grades all three dimensions of one customer
func ClassifyCustomer(m contracts.CustomerMetrics, b contracts.QuantileBoundaries) (r, f, v contracts.Grade) {
	return Classify(m.Metric(contracts.Recency), contracts.Recency, b),
		Classify(m.Metric(contracts.Frequency), contracts.Frequency, b),
		Classify(m.Metric(contracts.Value), contracts.Value, b)
}
