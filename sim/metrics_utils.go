package sim

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution captures a statistical summary of one tank's level series.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P05    float64 `json:"p05"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d := Distribution{
		Mean:  stat.Mean(sorted, nil),
		P05:   stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		Count: len(sorted),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// LevelStatistics summarizes every tank's series, keyed by tank name.
func LevelStatistics(ts *TimeSeries) map[string]Distribution {
	return map[string]Distribution{
		"A":         NewDistribution(ts.A),
		"B":         NewDistribution(ts.B),
		"C":         NewDistribution(ts.C),
		"Principal": NewDistribution(ts.Principal),
	}
}

// HoursAtOrBelow counts the samples at or below a threshold, e.g. hours Principal spent
// under the transfer start level.
func HoursAtOrBelow(values []float64, threshold float64) int {
	n := 0
	for _, v := range values {
		if v <= threshold {
			n++
		}
	}
	return n
}
