package config

import (
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
)

// Config represents the gansim daemon and CLI configuration
type Config struct {
	LogLevel  string    `yaml:"log_level"`
	LogFormat string    `yaml:"log_format"` // text or json
	Simulator Simulator `yaml:"simulator"`
	Server    Server    `yaml:"server"`
	Journal   Journal   `yaml:"journal"`
	Notify    Notify    `yaml:"notify"`
}

// Simulator holds the constants of the skill update rule
type Simulator struct {
	InitialGeneratorSkill     float64 `yaml:"initial_generator_skill"`
	InitialDiscriminatorSkill float64 `yaml:"initial_discriminator_skill"`
	LearningRate              float64 `yaml:"learning_rate"`
	ProgressIncrement         int     `yaml:"progress_increment"`
	Window                    int     `yaml:"window"`
	Seed                      int64   `yaml:"seed"` // 0 = seeded from the clock
}

// Server configures the HTTP and gRPC listeners
type Server struct {
	HTTPAddr       string `yaml:"http_addr"`
	GRPCAddr       string `yaml:"grpc_addr"`
	MaxSessions    int    `yaml:"max_sessions"`
	StreamInterval string `yaml:"stream_interval"` // e.g., "500ms"
	EffectDelay    string `yaml:"effect_delay"`    // spacing of visual effects, e.g., "1200ms"
	StepRateLimit  int    `yaml:"step_rate_limit"` // steps per second per session, 0 = unlimited
}

// Journal configures the SQLite step journal
type Journal struct {
	Path string `yaml:"path"` // empty disables the journal
}

// Notify configures retries of completion callbacks
type Notify struct {
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential, linear, constant
	BaseMs     int    `yaml:"base_ms"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	p := sim.DefaultParams()
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Simulator: Simulator{
			InitialGeneratorSkill:     p.InitialGeneratorSkill,
			InitialDiscriminatorSkill: p.InitialDiscriminatorSkill,
			LearningRate:              p.LearningRate,
			ProgressIncrement:         p.ProgressIncrement,
			Window:                    p.Window,
		},
		Server: Server{
			HTTPAddr:       ":8080",
			GRPCAddr:       ":50051",
			MaxSessions:    1000,
			StreamInterval: "500ms",
			EffectDelay:    "1200ms",
		},
		Notify: Notify{
			MaxRetries: 3,
			Backoff:    "exponential",
			BaseMs:     1000,
		},
	}
}

// SimParams converts the simulator section into sim.Params
func (c *Config) SimParams() sim.Params {
	return sim.Params{
		InitialGeneratorSkill:     c.Simulator.InitialGeneratorSkill,
		InitialDiscriminatorSkill: c.Simulator.InitialDiscriminatorSkill,
		LearningRate:              c.Simulator.LearningRate,
		ProgressIncrement:         c.Simulator.ProgressIncrement,
		Window:                    c.Simulator.Window,
	}
}

// GetStreamInterval parses the stream interval string to time.Duration
func (s *Server) GetStreamInterval() (time.Duration, error) {
	return time.ParseDuration(s.StreamInterval)
}

// GetEffectDelay parses the effect delay string to time.Duration
func (s *Server) GetEffectDelay() (time.Duration, error) {
	return time.ParseDuration(s.EffectDelay)
}
