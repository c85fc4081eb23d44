// Package walkthrough drives the guided explanation of the adversarial loop:
// a cyclic sequence of pipeline stages, each with a short description.
package walkthrough

import (
	"fmt"
	"math"
	"strings"

	"github.com/GoSim-25-26J-441/gansim/pkg/utils"
)

// Stage is one box of the notional pipeline.
type Stage string

const (
	StageNone          Stage = ""
	StageNoise         Stage = "noise"
	StageGenerator     Stage = "generator"
	StageDiscriminator Stage = "discriminator"
	StageResult        Stage = "result"
	StageLoss          Stage = "loss"
)

// Order lists the stages in the sequence the walkthrough visits them.
var Order = []Stage{StageNoise, StageGenerator, StageDiscriminator, StageResult, StageLoss}

var explanations = map[Stage]string{
	StageNoise:         "Latent Space: We start with random noise vector z, representing no structured data.",
	StageGenerator:     "Generator: Converts noise into a data-like output (fake sample) via learned weights.",
	StageDiscriminator: "Discriminator: Evaluates both real and generated data, outputs real/fake.",
	StageResult:        "Training: If D is fooled, G improves. If D detects fake, it improves.",
	StageLoss:          "Loss Graph: Tracks how good/bad G and D are. The goal is to find balance.",
}

// Next returns the stage after s, wrapping from loss back to noise.
// StageNone and unknown stages start the cycle at noise.
func Next(s Stage) Stage {
	for i, st := range Order {
		if st == s {
			return Order[(i+1)%len(Order)]
		}
	}
	return StageNoise
}

// Parse converts a user-supplied name to a Stage.
func Parse(name string) (Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "start" {
		return StageNone, nil
	}
	for _, st := range Order {
		if string(st) == name {
			return st, nil
		}
	}
	return StageNone, fmt.Errorf("unknown stage %q", name)
}

// Label is the button caption for the stage.
func (s Stage) Label() string {
	if s == StageNone {
		return "START"
	}
	return strings.ToUpper(string(s))
}

// Explanation returns the description shown for s, or "" for StageNone.
func Explanation(s Stage) string {
	return explanations[s]
}

// SkillPercent renders a skill in [0,1] as a whole percentage, e.g. "30%".
// Out-of-range skills are clamped first.
func SkillPercent(skill float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(utils.ClampFloat64(skill, 0, 1)*100))
}
