package utils

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RandSource is a thread-safe random number generator
type RandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// SequenceSource replays a fixed list of samples, cycling when exhausted.
// An empty source always returns 0.
type SequenceSource struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

// NewSequenceSource creates a source that yields samples in order
func NewSequenceSource(samples ...float64) *SequenceSource {
	return &SequenceSource{samples: append([]float64{}, samples...)}
}

// Float64 returns the next sample in the sequence
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return 0
	}
	v := s.samples[s.next]
	s.next = (s.next + 1) % len(s.samples)
	return v
}

// ParseSamples parses a comma-separated list of samples in [0, 1)
func ParseSamples(text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(text, ",")
	out := make([]float64, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		if v < 0 || v >= 1 {
			return nil, fmt.Errorf("sample %d: %v outside [0, 1)", i, v)
		}
		out = append(out, v)
	}
	return out, nil
}
