package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadConfig(path)
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", cfg.LogFormat)
	}

	if err := validateSimulator(&cfg.Simulator); err != nil {
		return fmt.Errorf("simulator validation failed: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := validateNotify(&cfg.Notify); err != nil {
		return fmt.Errorf("notify validation failed: %w", err)
	}

	return nil
}

// validateSimulator validates the update-rule constants
func validateSimulator(s *Simulator) error {
	if s.InitialGeneratorSkill < 0 || s.InitialGeneratorSkill > 1 {
		return fmt.Errorf("initial_generator_skill must be between 0 and 1, got %f", s.InitialGeneratorSkill)
	}
	if s.InitialDiscriminatorSkill < 0 || s.InitialDiscriminatorSkill > 1 {
		return fmt.Errorf("initial_discriminator_skill must be between 0 and 1, got %f", s.InitialDiscriminatorSkill)
	}
	if s.LearningRate <= 0 || s.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %f", s.LearningRate)
	}
	if s.ProgressIncrement <= 0 {
		return fmt.Errorf("progress_increment must be positive, got %d", s.ProgressIncrement)
	}
	if s.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", s.Window)
	}
	return nil
}

// validateServer validates listener and session settings
func validateServer(s *Server) error {
	if s.HTTPAddr == "" && s.GRPCAddr == "" {
		return fmt.Errorf("at least one of http_addr or grpc_addr must be set")
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", s.MaxSessions)
	}
	if d, err := s.GetStreamInterval(); err != nil {
		return fmt.Errorf("invalid stream_interval %s: %w", s.StreamInterval, err)
	} else if d <= 0 {
		return fmt.Errorf("stream_interval must be positive, got %s", s.StreamInterval)
	}
	if d, err := s.GetEffectDelay(); err != nil {
		return fmt.Errorf("invalid effect_delay %s: %w", s.EffectDelay, err)
	} else if d < 0 {
		return fmt.Errorf("effect_delay cannot be negative, got %s", s.EffectDelay)
	}
	if s.StepRateLimit < 0 {
		return fmt.Errorf("step_rate_limit cannot be negative, got %d", s.StepRateLimit)
	}
	return nil
}

// validateNotify validates the callback retry settings
func validateNotify(n *Notify) error {
	if n.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", n.MaxRetries)
	}
	if n.BaseMs < 0 {
		return fmt.Errorf("base_ms cannot be negative, got %d", n.BaseMs)
	}
	switch n.Backoff {
	case "exponential", "linear", "constant":
	default:
		return fmt.Errorf("invalid backoff: %s (must be exponential, linear, or constant)", n.Backoff)
	}
	return nil
}
