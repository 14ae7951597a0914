package render

import (
	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/stats"
)

// Default node size bounds.
const (
	DefaultMinSize = 10.0
	DefaultMaxSize = 40.0
)

// SizeMap maps every node to a size in [min, max] by linear min-max
// rescaling of metric m.
func SizeMap(s *stats.GraphStats, m Metric, min, max float64) (map[string]float64, error) {
	values, err := m.Values(s)
	if err != nil {
		return nil, err
	}
	return Rescale(values, min, max)
}

// Rescale maps values linearly onto [min, max]: the smallest value gets
// min and the largest max. When every value is equal, every node gets min.
func Rescale(values map[string]float64, min, max float64) (map[string]float64, error) {
	if min >= max {
		return nil, errs.Invalid("min_node_size", min, "must be less than max_node_size")
	}

	out := make(map[string]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}

	lo, hi := 0.0, 0.0
	first := true
	for _, v := range values {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	span := hi - lo
	for name, v := range values {
		if span == 0 {
			out[name] = min
			continue
		}
		out[name] = min + (v-lo)/span*(max-min)
	}
	return out, nil
}

// RescaleInts is Rescale for integer measures such as raw degrees.
func RescaleInts(values map[string]int, min, max float64) (map[string]float64, error) {
	f := make(map[string]float64, len(values))
	for k, v := range values {
		f[k] = float64(v)
	}
	return Rescale(f, min, max)
}
