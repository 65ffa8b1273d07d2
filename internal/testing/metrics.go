package testing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricValue gathers reg and returns the counter or histogram sample count
// of the named metric whose labels include every pair in labels. It returns
// 0 when no such series exists.
func MetricValue(reg *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !hasLabels(m.GetLabel(), labels) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return 0
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func hasLabels[L labelPair](pairs []L, want map[string]string) bool {
	found := 0
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; ok && v == p.GetValue() {
			found++
		}
	}
	return found == len(want)
}
