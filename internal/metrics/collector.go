package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultMaxPoints bounds the retained series per metric
const DefaultMaxPoints = 1000

type running struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

func (r *running) add(v float64) {
	if r.count == 0 {
		r.min, r.max = v, v
	} else {
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	r.count++
	r.sum += v
}

// Collector collects time-series metrics for one simulator session
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	maxPoints int

	// metric name -> retained points, oldest first
	series map[string][]Point
	// metric name -> lifetime totals
	totals map[string]*running
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return NewCollectorWithLimit(DefaultMaxPoints)
}

// NewCollectorWithLimit creates a collector retaining at most maxPoints per metric
func NewCollectorWithLimit(maxPoints int) *Collector {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Collector{
		startTime: time.Now(),
		maxPoints: maxPoints,
		series:    make(map[string][]Point),
		totals:    make(map[string]*running),
	}
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := append(c.series[name], Point{Timestamp: timestamp, Name: name, Value: value})
	if len(points) > c.maxPoints {
		points = points[len(points)-c.maxPoints:]
	}
	c.series[name] = points

	t, ok := c.totals[name]
	if !ok {
		t = &running{}
		c.totals[name] = t
	}
	t.add(value)
}

// GetTimeSeries returns a copy of the retained points for a metric
func (c *Collector) GetTimeSeries(name string) []Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.series[name]
	if points == nil {
		return nil
	}
	return append([]Point{}, points...)
}

// Count returns how many values were ever recorded for a metric
func (c *Collector) Count(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.totals[name]; ok {
		return t.count
	}
	return 0
}

// GetAggregation returns aggregated statistics for a metric, or nil if unseen
func (c *Collector) GetAggregation(name string) *Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aggregationUnsafe(name)
}

// GetMetricNames returns all metric names that have been collected, sorted
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.totals))
	for name := range c.totals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear clears all collected metrics
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series = make(map[string][]Point)
	c.totals = make(map[string]*running)
	c.startTime = time.Now()
}

// StartTime returns when collection began or was last cleared
func (c *Collector) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// aggregationUnsafe computes an aggregation without locking (caller must hold lock)
func (c *Collector) aggregationUnsafe(name string) *Aggregation {
	t, ok := c.totals[name]
	if !ok || t.count == 0 {
		return nil
	}

	values := make([]float64, len(c.series[name]))
	for i, p := range c.series[name] {
		values[i] = p.Value
	}
	sort.Float64s(values)

	return &Aggregation{
		Count: t.count,
		Sum:   t.sum,
		Min:   t.min,
		Max:   t.max,
		Mean:  t.sum / float64(t.count),
		P50:   calculatePercentile(values, 0.50),
		P95:   calculatePercentile(values, 0.95),
	}
}

// calculatePercentile calculates the percentile value from a sorted slice
func calculatePercentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return 0.0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	index := p * float64(len(sortedValues)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedValues) {
		return sortedValues[len(sortedValues)-1]
	}

	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
