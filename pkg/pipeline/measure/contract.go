package measure

import "time"

// Measure collects one Metric per node.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric holds the counters of one node.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	Total() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
