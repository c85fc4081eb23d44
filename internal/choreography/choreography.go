// Package choreography describes the visual effects a front-end plays after a
// simulation step. The core completes synchronously; effects are data the
// view schedules on its own clock.
package choreography

import (
	"context"
	"sort"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
)

// DefaultDelay separates consecutive phases of the step animation.
const DefaultDelay = 1200 * time.Millisecond

// Target is the UI element an effect applies to.
type Target string

const (
	TargetGenerator     Target = "generator_network"
	TargetArrow         Target = "generator_arrow"
	TargetFakeData      Target = "fake_data"
	TargetDiscriminator Target = "discriminator_network"
	TargetDecision      Target = "decision_box"
	TargetLog           Target = "log_list"
)

// Action is what happens to a Target.
type Action string

const (
	ActionPulseStart Action = "pulse_start"
	ActionPulseEnd   Action = "pulse_end"
	ActionExtend     Action = "extend"
	ActionRetract    Action = "retract"
	ActionMarkReal   Action = "mark_real"
	ActionMarkFake   Action = "mark_fake"
	ActionClear      Action = "clear"
	ActionAppend     Action = "append"
)

// Effect is a single visual change at an offset from the triggering event.
type Effect struct {
	At     time.Duration `json:"at"`
	Target Target        `json:"target"`
	Action Action        `json:"action"`
	Detail string        `json:"detail,omitempty"`
}

// ForStep returns the four-phase animation for a completed step:
// generator, fake sample, discriminator, then the decision and log line.
func ForStep(out sim.Outcome, delay time.Duration) []Effect {
	mark := ActionMarkFake
	if out.Verdict == sim.VerdictReal {
		mark = ActionMarkReal
	}
	return []Effect{
		{At: 0, Target: TargetArrow, Action: ActionExtend},
		{At: 0, Target: TargetGenerator, Action: ActionPulseStart},
		{At: delay, Target: TargetGenerator, Action: ActionPulseEnd},
		{At: delay, Target: TargetArrow, Action: ActionRetract},
		{At: delay, Target: TargetFakeData, Action: ActionPulseStart},
		{At: 2 * delay, Target: TargetFakeData, Action: ActionPulseEnd},
		{At: 2 * delay, Target: TargetDiscriminator, Action: ActionPulseStart},
		{At: 3 * delay, Target: TargetDiscriminator, Action: ActionPulseEnd},
		{At: 3 * delay, Target: TargetDecision, Action: mark, Detail: string(out.Verdict)},
		{At: 3 * delay, Target: TargetLog, Action: ActionAppend, Detail: out.LogLine},
	}
}

// ForNoise is the standalone noise pulse through the generator.
func ForNoise(delay time.Duration) []Effect {
	return []Effect{
		{At: 0, Target: TargetGenerator, Action: ActionPulseStart},
		{At: delay, Target: TargetGenerator, Action: ActionPulseEnd},
	}
}

// ForReset clears the log, arrow and decision immediately.
func ForReset() []Effect {
	return []Effect{
		{At: 0, Target: TargetLog, Action: ActionClear},
		{At: 0, Target: TargetArrow, Action: ActionRetract},
		{At: 0, Target: TargetDecision, Action: ActionClear},
	}
}

// Duration is the offset of the last effect.
func Duration(effects []Effect) time.Duration {
	var d time.Duration
	for _, e := range effects {
		d = max(d, e.At)
	}
	return d
}

// Play calls fn for each effect at its offset, scaled by 1/speed.
// A speed <= 0 plays everything immediately. Play returns ctx.Err() if the
// context is cancelled before the last effect fires.
func Play(ctx context.Context, effects []Effect, speed float64, fn func(Effect)) error {
	ordered := append([]Effect{}, effects...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At < ordered[j].At })

	start := time.Now()
	for _, e := range ordered {
		if speed > 0 {
			wait := time.Duration(float64(e.At)/speed) - time.Since(start)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(e)
	}
	return nil
}
