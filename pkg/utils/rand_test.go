package utils

import (
	"math"
	"testing"
)

func TestNewRandSource(t *testing.T) {
	// Test with seed
	rng1 := NewRandSource(12345)
	if rng1 == nil {
		t.Fatal("Expected RandSource to be created")
	}

	// Test with zero seed (should use current time)
	rng2 := NewRandSource(0)
	if rng2 == nil {
		t.Fatal("Expected RandSource to be created with zero seed")
	}
}

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	samples := make([]float64, 1000)
	for i := range samples {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
		samples[i] = val
	}

	// Uniform on [0, 1) has mean 0.5
	if mean := Mean(samples); math.Abs(mean-0.5) > 0.05 {
		t.Errorf("Float64 mean %f not close to 0.5", mean)
	}
}

func TestRandSourceDeterministicWithSeed(t *testing.T) {
	a := NewRandSource(99)
	b := NewRandSource(99)
	for i := 0; i < 20; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("Expected identical sequences for identical seeds at draw %d", i)
		}
	}
}

func TestSequenceSourceCycles(t *testing.T) {
	src := NewSequenceSource(0.1, 0.2, 0.3)
	want := []float64{0.1, 0.2, 0.3, 0.1, 0.2}
	for i, w := range want {
		if got := src.Float64(); got != w {
			t.Errorf("draw %d: got %f, want %f", i, got, w)
		}
	}
}

func TestSequenceSourceEmpty(t *testing.T) {
	src := NewSequenceSource()
	if got := src.Float64(); got != 0 {
		t.Errorf("Expected empty source to return 0, got %f", got)
	}
}

func TestParseSamples(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "0.5", []float64{0.5}, false},
		{"spaces", " 0.1, 0.99 ,0", []float64{0.1, 0.99, 0}, false},
		{"not a number", "0.1,abc", nil, true},
		{"one is out of range", "0.2,1", nil, true},
		{"negative", "-0.1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSamples(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSamples(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d: got %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}
