package render

import (
	"strings"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/stats"
)

// Metric selects the measure that drives node size.
type Metric int

const (
	Degree Metric = iota
	Betweenness
	Closeness
	PageRank
)

var metricNames = [...]string{
	Degree:      "Degree",
	Betweenness: "Betweenness",
	Closeness:   "Closeness",
	PageRank:    "PageRank",
}

// Metrics lists every metric in declaration order.
func Metrics() []Metric { return []Metric{Degree, Betweenness, Closeness, PageRank} }

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return "Unknown"
	}
	return metricNames[m]
}

// ParseMetric resolves a metric name, ignoring case.
func ParseMetric(name string) (Metric, error) {
	for i, n := range metricNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Metric(i), nil
		}
	}
	return 0, &errs.UnknownMetricError{Name: name}
}

// MarshalText encodes the metric by name.
func (m Metric) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(metricNames) {
		return nil, &errs.UnknownMetricError{Name: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a metric name, ignoring case.
func (m *Metric) UnmarshalText(b []byte) error {
	parsed, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Values returns the per-node values of m from s. Degree uses degree
// centrality, a linear function of degree, so the size mapping is the same
// as for raw degrees.
func (m Metric) Values(s *stats.GraphStats) (map[string]float64, error) {
	switch m {
	case Degree:
		return s.Degree, nil
	case Betweenness:
		return s.Betweenness, nil
	case Closeness:
		return s.Closeness, nil
	case PageRank:
		return s.PageRank, nil
	}
	return nil, &errs.UnknownMetricError{Name: m.String()}
}
