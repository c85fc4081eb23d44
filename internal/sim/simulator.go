// Package sim implements the toy adversarial training loop: two scalar skills
// nudged up or down by a random comparison, with rolling history for display.
package sim

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Transition applies one step of the update rule to s using the given sample.
// It never mutates s; the returned Outcome carries the new state.
func Transition(s State, sample float64, p Params) Outcome {
	fakeValue := sample * s.GeneratorSkill

	verdict := VerdictFake
	if fakeValue > s.DiscriminatorSkill {
		verdict = VerdictReal
	}

	next := s.Clone()
	if verdict == VerdictReal {
		next.GeneratorSkill = math.Min(1, s.GeneratorSkill+p.LearningRate)
		next.DiscriminatorSkill = math.Max(0, s.DiscriminatorSkill-p.LearningRate)
	} else {
		next.GeneratorSkill = math.Max(0, s.GeneratorSkill-p.LearningRate)
		next.DiscriminatorSkill = math.Min(1, s.DiscriminatorSkill+p.LearningRate)
	}

	fakeLoss := 1 - fakeValue
	realLoss := math.Abs(next.DiscriminatorSkill - fakeValue)
	label := len(s.Log) + 1

	next.LossHistory.GeneratorLoss = keepLast(append(next.LossHistory.GeneratorLoss, fakeLoss), p.Window)
	next.LossHistory.DiscriminatorLoss = keepLast(append(next.LossHistory.DiscriminatorLoss, realLoss), p.Window)
	next.LossHistory.StepLabel = keepLast(append(next.LossHistory.StepLabel, label), p.Window)

	next.Progress = min(MaxProgress, s.Progress+p.ProgressIncrement)
	next.Steps = s.Steps + 1

	line := FormatLogLine(fakeValue, verdict, next.GeneratorSkill, next.DiscriminatorSkill)
	log := make([]string, 0, len(s.Log)+1)
	log = append(log, line)
	log = append(log, s.Log...)
	if len(log) > p.Window {
		log = log[:p.Window]
	}
	next.Log = log

	return Outcome{
		Sample:    sample,
		FakeValue: fakeValue,
		Verdict:   verdict,
		FakeLoss:  fakeLoss,
		RealLoss:  realLoss,
		StepLabel: label,
		LogLine:   line,
		State:     next,
	}
}

// FormatLogLine renders the human-readable trace line for one step.
func FormatLogLine(fakeValue float64, verdict Verdict, generatorSkill, discriminatorSkill float64) string {
	return fmt.Sprintf("Fake Score: %s → %s (G: %s, D: %s)",
		toFixed(fakeValue), verdict, toFixed(generatorSkill), toFixed(discriminatorSkill))
}

// toFixed renders v with two decimals. Exact halves round away from zero,
// judged on the exact binary value: 0.125 gives 0.13, 1.005 gives 1.00.
func toFixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	scaled := new(big.Float).SetPrec(256).SetFloat64(v)
	scaled.Mul(scaled, big.NewFloat(100))
	n, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}
	whole, cents := new(big.Int).QuoRem(n, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, whole.String(), cents.Int64())
}

func keepLast[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

// Simulator owns a single simulation state and the sampler that drives it.
// It is not safe for concurrent use; callers serialize Step and Reset.
type Simulator struct {
	params  Params
	sampler Sampler
	state   State
	last    *Outcome
}

// New creates a simulator at the default initial state.
func New(sampler Sampler) *Simulator {
	return NewWithParams(sampler, DefaultParams())
}

// NewWithParams creates a simulator with custom constants.
func NewWithParams(sampler Sampler, p Params) *Simulator {
	return &Simulator{
		params:  p,
		sampler: sampler,
		state:   InitialState(p),
	}
}

// Params returns the constants the simulator was built with.
func (s *Simulator) Params() Params {
	return s.params
}

// Step draws a sample and advances the simulation by one step.
func (s *Simulator) Step() State {
	return s.Advance().State
}

// Advance is Step with the full per-step detail.
func (s *Simulator) Advance() Outcome {
	out := Transition(s.state, s.sampler.Float64(), s.params)
	s.state = out.State
	s.last = &out
	// The returned copy must not share slices with owned state.
	out.State = s.state.Clone()
	return out
}

// Reset wipes the simulation back to its initial values.
func (s *Simulator) Reset() State {
	s.state = InitialState(s.params)
	s.last = nil
	return s.state.Clone()
}

// State returns a snapshot of the current state without mutating it.
func (s *Simulator) State() State {
	return s.state.Clone()
}

// LastOutcome returns the most recent step outcome, if any since the last reset.
func (s *Simulator) LastOutcome() (Outcome, bool) {
	if s.last == nil {
		return Outcome{}, false
	}
	out := *s.last
	out.State = out.State.Clone()
	return out, true
}
