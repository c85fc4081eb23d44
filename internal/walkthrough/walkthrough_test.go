package walkthrough

import "testing"

func TestNextCyclesThroughStages(t *testing.T) {
	want := []Stage{StageNoise, StageGenerator, StageDiscriminator, StageResult, StageLoss, StageNoise}
	s := StageNone
	for i, w := range want {
		s = Next(s)
		if s != w {
			t.Fatalf("step %d: got %q, want %q", i, s, w)
		}
	}
}

func TestNextUnknownStartsAtNoise(t *testing.T) {
	if got := Next(Stage("bogus")); got != StageNoise {
		t.Fatalf("expected noise, got %q", got)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageNone, "START"},
		{StageNoise, "NOISE"},
		{StageDiscriminator, "DISCRIMINATOR"},
	}
	for _, tt := range tests {
		if got := tt.stage.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestExplanationCoversEveryStage(t *testing.T) {
	for _, st := range Order {
		if Explanation(st) == "" {
			t.Errorf("missing explanation for %q", st)
		}
	}
	if Explanation(StageNone) != "" {
		t.Errorf("expected no explanation before the walkthrough starts")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"", StageNone, false},
		{"START", StageNone, false},
		{" Generator ", StageGenerator, false},
		{"loss", StageLoss, false},
		{"encoder", StageNone, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSkillPercent(t *testing.T) {
	tests := []struct {
		skill float64
		want  string
	}{
		{0.3, "30%"},
		{0.7, "70%"},
		{0.25, "25%"},
		{1, "100%"},
		{0, "0%"},
		{1.2, "100%"},
		{-0.1, "0%"},
	}
	for _, tt := range tests {
		if got := SkillPercent(tt.skill); got != tt.want {
			t.Errorf("SkillPercent(%v) = %q, want %q", tt.skill, got, tt.want)
		}
	}
}
