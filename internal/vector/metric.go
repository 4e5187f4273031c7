package vector

import (
	"fmt"
	"math"
)

// Metric identifies the distance function of a store. It is fixed at creation
// and recorded in the persisted header; mixing metrics across an index is a
// configuration error.
type Metric string

const (
	// MetricSquaredL2 is the default: sum of squared componentwise
	// differences. The square root is skipped since monotonicity is preserved
	// for ranking; raw distances are therefore not calibrated similarity
	// scores and must not be interpreted as such.
	MetricSquaredL2 Metric = "l2sq"

	// MetricCosine is cosine distance (1 - cosine similarity). A
	// zero-magnitude vector has distance 1 to everything.
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric identifier. Empty means the default.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricSquaredL2, "":
		return MetricSquaredL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("unknown metric %q (supported: l2sq, cosine)", s)
	}
}

// Distance computes the metric between two vectors of equal length.
// Callers guarantee len(a) == len(b).
func (m Metric) Distance(a, b []float32) float64 {
	switch m {
	case MetricCosine:
		return cosineDistance(a, b)
	default:
		return squaredL2(a, b)
	}
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cosineDistance(a, b []float32) float64 {
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2))
}
