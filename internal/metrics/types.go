package metrics

import "time"

// Point represents a single metric data point
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
}

// Aggregation represents aggregated statistics for a metric.
// Count, Sum, Min, Max and Mean cover every recorded value; percentiles
// cover only the retained points.
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

// Summary is the per-session view served to clients
type Summary struct {
	StartTime    time.Time               `json:"start_time"`
	Steps        int64                   `json:"steps"`
	RealVerdicts int64                   `json:"real_verdicts"`
	FakeVerdicts int64                   `json:"fake_verdicts"`
	RealRatio    float64                 `json:"real_ratio"`
	Aggregations map[string]*Aggregation `json:"aggregations,omitempty"`
	Series       []string                `json:"series"`
}
