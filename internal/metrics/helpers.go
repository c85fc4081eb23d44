package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
)

// Metric names recorded per step
const (
	MetricSteps              = "steps_total"
	MetricVerdictReal        = "verdict_real"
	MetricVerdictFake        = "verdict_fake"
	MetricFakeValue          = "fake_value"
	MetricGeneratorLoss      = "generator_loss"
	MetricDiscriminatorLoss  = "discriminator_loss"
	MetricGeneratorSkill     = "generator_skill"
	MetricDiscriminatorSkill = "discriminator_skill"
)

// RecordStep records every metric derived from one step outcome
func RecordStep(collector *Collector, out sim.Outcome, timestamp time.Time) {
	collector.Record(MetricSteps, 1, timestamp)
	if out.Verdict == sim.VerdictReal {
		collector.Record(MetricVerdictReal, 1, timestamp)
	} else {
		collector.Record(MetricVerdictFake, 1, timestamp)
	}
	collector.Record(MetricFakeValue, out.FakeValue, timestamp)
	collector.Record(MetricGeneratorLoss, out.FakeLoss, timestamp)
	collector.Record(MetricDiscriminatorLoss, out.RealLoss, timestamp)
	collector.Record(MetricGeneratorSkill, out.State.GeneratorSkill, timestamp)
	collector.Record(MetricDiscriminatorSkill, out.State.DiscriminatorSkill, timestamp)
}

// Summarize builds the session summary from a collector
func Summarize(collector *Collector) *Summary {
	steps := collector.Count(MetricSteps)
	realCount := collector.Count(MetricVerdictReal)

	summary := &Summary{
		StartTime:    collector.StartTime(),
		Steps:        steps,
		RealVerdicts: realCount,
		FakeVerdicts: collector.Count(MetricVerdictFake),
		Aggregations: make(map[string]*Aggregation),
		Series:       collector.GetMetricNames(),
	}
	if steps > 0 {
		summary.RealRatio = float64(realCount) / float64(steps)
	}

	for _, name := range []string{MetricFakeValue, MetricGeneratorLoss, MetricDiscriminatorLoss, MetricGeneratorSkill, MetricDiscriminatorSkill} {
		if agg := collector.GetAggregation(name); agg != nil {
			summary.Aggregations[name] = agg
		}
	}
	return summary
}
