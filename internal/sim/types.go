package sim

// Verdict is the discriminator's classification of a generated sample.
type Verdict string

const (
	VerdictReal Verdict = "Real"
	VerdictFake Verdict = "Fake"
)

// Default simulation constants.
const (
	DefaultGeneratorSkill     = 0.3
	DefaultDiscriminatorSkill = 0.7
	DefaultLearningRate       = 0.05
	DefaultProgressIncrement  = 5
	DefaultWindow             = 10
	MaxProgress               = 100
)

// Sampler supplies uniformly distributed floats in [0.0, 1.0).
type Sampler interface {
	Float64() float64
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func() float64

// Float64 calls f.
func (f SamplerFunc) Float64() float64 { return f() }

// Params holds the tunable constants of the update rule.
type Params struct {
	InitialGeneratorSkill     float64
	InitialDiscriminatorSkill float64
	LearningRate              float64
	ProgressIncrement         int
	Window                    int
}

// DefaultParams returns the reference constants.
func DefaultParams() Params {
	return Params{
		InitialGeneratorSkill:     DefaultGeneratorSkill,
		InitialDiscriminatorSkill: DefaultDiscriminatorSkill,
		LearningRate:              DefaultLearningRate,
		ProgressIncrement:         DefaultProgressIncrement,
		Window:                    DefaultWindow,
	}
}

// LossHistory is three index-aligned rolling series used for charting.
type LossHistory struct {
	GeneratorLoss     []float64 `json:"generator_loss"`
	DiscriminatorLoss []float64 `json:"discriminator_loss"`
	StepLabel         []int     `json:"step_label"`
}

// Len returns the number of aligned points in the history.
func (h LossHistory) Len() int {
	return len(h.StepLabel)
}

func (h LossHistory) clone() LossHistory {
	return LossHistory{
		GeneratorLoss:     append([]float64{}, h.GeneratorLoss...),
		DiscriminatorLoss: append([]float64{}, h.DiscriminatorLoss...),
		StepLabel:         append([]int{}, h.StepLabel...),
	}
}

// State is a snapshot of the simulation.
type State struct {
	GeneratorSkill     float64     `json:"generator_skill"`
	DiscriminatorSkill float64     `json:"discriminator_skill"`
	Log                []string    `json:"log"`
	LossHistory        LossHistory `json:"loss_history"`
	Progress           int         `json:"progress"`
	// Steps counts every step since the last reset; unlike the log it is not windowed.
	Steps int `json:"steps"`
}

// InitialState returns the state a fresh or reset simulator starts from.
func InitialState(p Params) State {
	return State{
		GeneratorSkill:     p.InitialGeneratorSkill,
		DiscriminatorSkill: p.InitialDiscriminatorSkill,
		Log:                []string{},
		LossHistory: LossHistory{
			GeneratorLoss:     []float64{},
			DiscriminatorLoss: []float64{},
			StepLabel:         []int{},
		},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Log = append([]string{}, s.Log...)
	out.LossHistory = s.LossHistory.clone()
	return out
}

// Outcome describes what happened during a single step.
type Outcome struct {
	Sample    float64 `json:"sample"`
	FakeValue float64 `json:"fake_value"`
	Verdict   Verdict `json:"verdict"`
	FakeLoss  float64 `json:"fake_loss"`
	RealLoss  float64 `json:"real_loss"`
	StepLabel int     `json:"step_label"`
	LogLine   string  `json:"log_line"`
	State     State   `json:"state"`
}
