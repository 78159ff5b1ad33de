package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFeatureVectorCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b FeatureVector
		want int
	}{
		{"equal", FeatureVector{1, 2}, FeatureVector{1, 2}, 0},
		{"first dim smaller", FeatureVector{0, 9}, FeatureVector{1, 0}, -1},
		{"second dim larger", FeatureVector{1, 3}, FeatureVector{1, 2}, 1},
		{"shorter prefix", FeatureVector{1}, FeatureVector{1, 0}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFeatureVectorKey(t *testing.T) {
	a := FeatureVector{1.5, 0, -2}
	b := FeatureVector{1.5, math.Copysign(0, -1), -2}
	if a.Key() != b.Key() {
		t.Error("+0 and -0 should share a key")
	}
	if a.Key() == (FeatureVector{1.5, 0, -2.0000001}).Key() {
		t.Error("distinct vectors should not share a key")
	}
}

func TestFeatureVectorCloneIsIndependent(t *testing.T) {
	a := FeatureVector{1, 2, 3}
	b := a.Clone()
	b[0] = 42
	if a[0] != 1 {
		t.Errorf("clone aliases original: a[0] = %v", a[0])
	}
}

func TestConfidenceVector(t *testing.T) {
	c := ConfidenceVector{0.9, 0.8, 0.85}

	if !c.Satisfies(0.8) {
		t.Error("0.8 target should be satisfied")
	}
	if c.Satisfies(0.81) {
		t.Error("0.81 target should not be satisfied")
	}
	if got := c.Surplus(0.8); math.Abs(got-0.15) > 1e-9 {
		t.Errorf("Surplus = %v, want 0.15", got)
	}
	if !c.AnyBelow(ConfidenceVector{0.9, 0.81, 0.5}) {
		t.Error("0.8 < 0.81 should be reported")
	}
	if c.AnyBelow(c) {
		t.Error("a vector is never below itself")
	}
}

func TestControllableFeatureClamp(t *testing.T) {
	f := ControllableFeature{Min: 0, Max: 100, Direction: Increase}

	tests := []struct {
		in      float64
		want    float64
		clamped bool
	}{
		{50, 50, false},
		{0, 0, false},
		{100, 100, false},
		{101, 100, true},
		{-0.5, 0, true},
	}
	for _, tt := range tests {
		got, clamped := f.Clamp(tt.in)
		if got != tt.want || clamped != tt.clamped {
			t.Errorf("Clamp(%v) = (%v, %v), want (%v, %v)", tt.in, got, clamped, tt.want, tt.clamped)
		}
	}
}

func TestRegimeConstraintSatisfiable(t *testing.T) {
	if !RegimeValidRanked.ConstraintSatisfiable() || !RegimeValidAll.ConstraintSatisfiable() {
		t.Error("valid regimes should report satisfiable")
	}
	if RegimeClosest.ConstraintSatisfiable() {
		t.Error("closest regime should not report satisfiable")
	}
}

func TestLinearScore(t *testing.T) {
	s := LinearScore{Weights: []float64{1, -0.5}, Bias: 2}
	if got := s.Score(FeatureVector{4, 2, 100}); got != 5 {
		t.Errorf("Score = %v, want 5", got)
	}
}

func TestDirectionUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{`"increase"`, Increase, false},
		{`"Decrease"`, Decrease, false},
		{`"-1"`, Decrease, false},
		{`1`, Increase, false},
		{`-1`, Decrease, false},
		{`0`, 0, false},
		{`"sideways"`, 0, true},
	}
	for _, tt := range tests {
		var d Direction
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if d != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, d, tt.want)
		}
	}
}
