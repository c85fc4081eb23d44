package choreography

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
)

func TestForStepPhases(t *testing.T) {
	out := sim.Outcome{Verdict: sim.VerdictReal, LogLine: "Fake Score: 0.99 → Real (G: 1.00, D: 0.05)"}
	effects := ForStep(out, time.Second)

	if got := Duration(effects); got != 3*time.Second {
		t.Fatalf("expected 3s animation, got %v", got)
	}

	var decision, logEntry *Effect
	for i := range effects {
		switch effects[i].Target {
		case TargetDecision:
			decision = &effects[i]
		case TargetLog:
			logEntry = &effects[i]
		}
	}
	if decision == nil || decision.Action != ActionMarkReal || decision.At != 3*time.Second {
		t.Fatalf("unexpected decision effect: %+v", decision)
	}
	if logEntry == nil || logEntry.Detail != out.LogLine {
		t.Fatalf("unexpected log effect: %+v", logEntry)
	}

	// Every pulse that starts must also end.
	open := map[Target]int{}
	for _, e := range effects {
		switch e.Action {
		case ActionPulseStart:
			open[e.Target]++
		case ActionPulseEnd:
			open[e.Target]--
		}
	}
	for target, n := range open {
		if n != 0 {
			t.Errorf("unbalanced pulse on %s: %d", target, n)
		}
	}
}

func TestForStepFakeVerdict(t *testing.T) {
	effects := ForStep(sim.Outcome{Verdict: sim.VerdictFake}, DefaultDelay)
	for _, e := range effects {
		if e.Target == TargetDecision && e.Action != ActionMarkFake {
			t.Fatalf("expected mark_fake, got %s", e.Action)
		}
	}
}

func TestForNoiseAndReset(t *testing.T) {
	if got := Duration(ForNoise(DefaultDelay)); got != DefaultDelay {
		t.Errorf("expected noise pulse of %v, got %v", DefaultDelay, got)
	}
	reset := ForReset()
	if len(reset) != 3 || Duration(reset) != 0 {
		t.Errorf("expected three immediate reset effects, got %+v", reset)
	}
}

func TestPlayOrdersEffects(t *testing.T) {
	effects := []Effect{
		{At: 20 * time.Millisecond, Target: TargetLog, Action: ActionAppend},
		{At: 0, Target: TargetArrow, Action: ActionExtend},
		{At: 10 * time.Millisecond, Target: TargetFakeData, Action: ActionPulseStart},
	}

	var got []Target
	if err := Play(context.Background(), effects, 0, func(e Effect) { got = append(got, e.Target) }); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	want := []Target{TargetArrow, TargetFakeData, TargetLog}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPlayHonorsTiming(t *testing.T) {
	effects := ForNoise(40 * time.Millisecond)
	start := time.Now()
	if err := Play(context.Background(), effects, 2, func(Effect) {}); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected playback to take at least 20ms at 2x speed, took %v", elapsed)
	}
}

func TestPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	effects := ForNoise(time.Hour)

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Play(ctx, effects, 1, func(Effect) { calls++ })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected only the immediate effect to fire, got %d", calls)
	}
}
