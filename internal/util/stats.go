package util

import (
	"math"
	"sort"
	"time"
)

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	v := 0.0
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)))
}

// CoefficientOfVariation is stddev/mean, 0 when the mean is 0.
func CoefficientOfVariation(xs []float64) float64 {
	m := Mean(xs)
	if m == 0 {
		return 0
	}
	return StdDev(xs) / m
}

// Intervals returns the gaps in seconds between sorted copies of ts.
func Intervals(ts []time.Time) []float64 {
	if len(ts) < 2 {
		return nil
	}
	sorted := append([]time.Time(nil), ts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	out := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, sorted[i].Sub(sorted[i-1]).Seconds())
	}
	return out
}

// Burstiness is the fraction of gaps shorter than half the mean gap.
func Burstiness(gaps []float64) float64 {
	if len(gaps) == 0 {
		return 0
	}
	expected := Mean(gaps)
	short := 0
	for _, g := range gaps {
		if g < 0.5*expected {
			short++
		}
	}
	return float64(short) / float64(len(gaps))
}

func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}

func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SortedKeys returns the keys of a string set in ascending order.
func SortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
