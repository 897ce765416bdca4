package metadata

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// recorder collects diagnostics for assertions
type recorder struct {
	events []Diagnostic
}

func (r *recorder) sink() DiagnosticFunc {
	return func(d Diagnostic) {
		r.events = append(r.events, d)
	}
}

func TestEstimateDownsample(t *testing.T) {
	testCases := []struct {
		name                    string
		fullWidth, fullHeight   int
		levelWidth, levelHeight int
		expected                float64
		expectWarning           bool
	}{
		{"PowerOfTwo", 4096, 4096, 1024, 1024, 4, false},
		{"FullResolution", 4096, 3000, 4096, 3000, 1, false},
		{"PowerOfTwoWithRounding", 4097, 3001, 1024, 750, 4, false},
		{"NearInteger", 1000, 1000, 333, 333, 3, false},
		{"IntegerPerAxis", 3000, 3000, 1000, 1000, 3, false},
		{"Divergent", 1000, 2000, 100, 150, (10 + 2000.0/150) / 2, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			got := EstimateDownsample(tc.fullWidth, tc.fullHeight, tc.levelWidth, tc.levelHeight, 0, rec.sink())

			if !scalar.EqualWithinAbs(got, tc.expected, 1e-9) {
				t.Errorf("Expected downsample %v, got %v", tc.expected, got)
			}
			if tc.expectWarning && len(rec.events) != 1 {
				t.Fatalf("Expected 1 diagnostic, got %d", len(rec.events))
			}
			if !tc.expectWarning && len(rec.events) != 0 {
				t.Errorf("Expected no diagnostics, got %v", rec.events)
			}
			if tc.expectWarning {
				if rec.events[0].Kind != DownsampleMismatch {
					t.Errorf("Expected DownsampleMismatch, got %v", rec.events[0].Kind)
				}
				if rec.events[0].Level != 0 {
					t.Errorf("Expected diagnostic for level 0, got %d", rec.events[0].Level)
				}
			}
		})
	}
}

func TestEstimateDownsampleDivergentValue(t *testing.T) {
	var rec recorder
	got := EstimateDownsample(1000, 2000, 100, 150, 3, rec.sink())

	if math.Abs(got-11.6667) > 1e-3 {
		t.Errorf("Expected downsample ~11.67, got %v", got)
	}
	if len(rec.events) != 1 || rec.events[0].Level != 3 {
		t.Fatalf("Expected one diagnostic for level 3, got %v", rec.events)
	}
}

func TestEstimateDownsampleNegativeLevelIsSilent(t *testing.T) {
	var rec recorder
	got := EstimateDownsample(1000, 2000, 100, 150, -1, rec.sink())

	if math.Abs(got-11.6667) > 1e-3 {
		t.Errorf("Expected downsample ~11.67, got %v", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("Expected no diagnostics for negative level, got %v", rec.events)
	}
}

func TestEstimateDownsampleNilSink(t *testing.T) {
	// Must not panic
	got := EstimateDownsample(1000, 2000, 100, 150, 0, nil)
	if got <= 10 || got >= 14 {
		t.Errorf("Expected averaged downsample, got %v", got)
	}
}

func TestLevelBuilder(t *testing.T) {
	var rec recorder
	levels := NewLevelBuilder(4096, 2048).
		WithDiagnostics(rec.sink()).
		AddFullResolutionLevel().
		AddLevelByDownsample(4).
		AddLevel(8, 510, 255).
		AddLevelBySize(256, 128).
		AddResolutionLevel(ResolutionLevel{downsample: 32, width: 128, height: 64}).
		Build()

	expected := []ResolutionLevel{
		{1, 4096, 2048},
		{4, 1024, 512},
		{8, 510, 255},
		{16, 256, 128},
		{32, 128, 64},
	}

	if len(levels) != len(expected) {
		t.Fatalf("Expected %d levels, got %d", len(expected), len(levels))
	}
	for i := range expected {
		if levels[i] != expected[i] {
			t.Errorf("Level %d: expected %v, got %v", i, expected[i], levels[i])
		}
	}
	if len(rec.events) != 0 {
		t.Errorf("Expected no diagnostics, got %v", rec.events)
	}
}

func TestLevelBuilderKeepsOrderAndDuplicates(t *testing.T) {
	levels := NewLevelBuilder(1000, 1000).
		AddLevelByDownsample(4).
		AddLevelByDownsample(1).
		AddLevelByDownsample(4).
		Build()

	ds := []float64{4, 1, 4}
	for i, l := range levels {
		if l.Downsample() != ds[i] {
			t.Errorf("Level %d: expected downsample %v, got %v", i, ds[i], l.Downsample())
		}
	}
}

func TestAddLevelByDownsampleFloors(t *testing.T) {
	levels := NewLevelBuilder(1001, 999).AddLevelByDownsample(3).Build()

	if levels[0].Width() != 333 || levels[0].Height() != 333 {
		t.Errorf("Expected 333x333, got %dx%d", levels[0].Width(), levels[0].Height())
	}
}

func TestAddLevelBySizePassesInsertionIndex(t *testing.T) {
	var rec recorder
	NewLevelBuilder(1000, 2000).
		WithDiagnostics(rec.sink()).
		AddFullResolutionLevel().
		AddLevelByDownsample(2).
		AddLevelBySize(100, 150).
		Build()

	if len(rec.events) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(rec.events))
	}
	if rec.events[0].Level != 2 {
		t.Errorf("Expected level index 2, got %d", rec.events[0].Level)
	}
}

func TestLevelBuilderBuildIsIndependent(t *testing.T) {
	b := NewLevelBuilder(100, 100).AddFullResolutionLevel()
	first := b.Build()
	b.AddLevelByDownsample(2)
	first[0] = ResolutionLevel{downsample: 9}

	second := b.Build()
	if len(second) != 2 {
		t.Fatalf("Expected 2 levels, got %d", len(second))
	}
	if second[0].Downsample() != 1 {
		t.Errorf("Expected builder state to be unaffected by caller mutation, got %v", second[0])
	}
}

func TestResolutionLevelString(t *testing.T) {
	testCases := []struct {
		level    ResolutionLevel
		expected string
	}{
		{ResolutionLevel{1, 4096, 4096}, "Level: 4096x4096 (1)"},
		{ResolutionLevel{2.5, 100, 50}, "Level: 100x50 (2.5)"},
		{ResolutionLevel{1.0 / 3, 3, 3}, "Level: 3x3 (0.33333)"},
	}

	for _, tc := range testCases {
		if got := tc.level.String(); got != tc.expected {
			t.Errorf("Expected %q, got %q", tc.expected, got)
		}
	}
}

func TestResolutionLevelCompareAndHash(t *testing.T) {
	a := ResolutionLevel{2, 100, 100}
	b := ResolutionLevel{2, 100, 100}
	c := ResolutionLevel{2, 100, 101}
	d := ResolutionLevel{4, 50, 50}

	if a.Compare(b) != 0 || a != b {
		t.Error("Expected identical levels to be equal")
	}
	if a.Hash() != b.Hash() {
		t.Error("Expected equal levels to hash equally")
	}
	if a.Compare(c) >= 0 {
		t.Error("Expected a < c by height")
	}
	if d.Compare(a) <= 0 {
		t.Error("Expected d > a by downsample")
	}
	if a.Hash() == c.Hash() {
		t.Error("Expected different levels to hash differently")
	}
}

func BenchmarkEstimateDownsample(b *testing.B) {
	for i := 0; i < b.N; i++ {
		EstimateDownsample(98304, 75264, 3072, 2352, 5, nil)
	}
}
