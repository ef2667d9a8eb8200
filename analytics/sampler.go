package analytics

import (
	"iter"
	"slices"
	"strconv"

	"ocpp-monitor/models"
)

const DefaultMaxPoints = 50

// Sampled yields at most maxPoints values by taking every step-th element
// from index 0, where step = len(data) / maxPoints. Short inputs are yielded
// unchanged. The sequence can be ranged over any number of times.
func Sampled(data []float64, maxPoints int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if maxPoints <= 0 || len(data) <= maxPoints {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
			return
		}
		step := len(data) / maxPoints
		n := 0
		for i := 0; i < len(data) && n < maxPoints; i += step {
			if !yield(data[i]) {
				return
			}
			n++
		}
	}
}

// Sample collects Sampled into a slice.
func Sample(data []float64, maxPoints int) []float64 {
	out := slices.Collect(Sampled(data, maxPoints))
	if out == nil {
		return []float64{}
	}
	return out
}

// Points labels sampled values T-n .. T-1, oldest label first.
func Points(values []float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = models.SeriesPoint{
			Label: "T-" + strconv.Itoa(len(values)-i),
			Value: v,
		}
	}
	return out
}
