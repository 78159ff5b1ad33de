package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FeatureVector is one entity configuration: controllable dimensions plus
// fixed external ones, in dataset column order.
type FeatureVector []float64

// Clone returns an independent copy.
func (v FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// Equal reports exact element-wise equality.
func (v FeatureVector) Equal(o FeatureVector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Compare orders vectors lexicographically.
func (v FeatureVector) Compare(o FeatureVector) int {
	n := min(len(v), len(o))
	for i := 0; i < n; i++ {
		switch {
		case v[i] < o[i]:
			return -1
		case v[i] > o[i]:
			return 1
		}
	}
	switch {
	case len(v) < len(o):
		return -1
	case len(v) > len(o):
		return 1
	}
	return 0
}

// Key returns a string usable as a map key for exact-equality dedup.
func (v FeatureVector) Key() string {
	b := make([]byte, 0, len(v)*8)
	for _, x := range v {
		bits := math.Float64bits(x)
		if x == 0 {
			bits = 0 // fold -0 into +0
		}
		for s := 0; s < 64; s += 8 {
			b = append(b, byte(bits>>s))
		}
	}
	return string(b)
}

// ConfidenceVector holds one confidence in [0,1] per requirement predictor.
type ConfidenceVector []float64

func (c ConfidenceVector) Clone() ConfidenceVector {
	out := make(ConfidenceVector, len(c))
	copy(out, c)
	return out
}

// Satisfies reports whether every requirement reaches target.
func (c ConfidenceVector) Satisfies(target float64) bool {
	for _, x := range c {
		if x < target {
			return false
		}
	}
	return true
}

// AnyBelow reports whether some component is strictly below its counterpart
// in ref.
func (c ConfidenceVector) AnyBelow(ref ConfidenceVector) bool {
	for i, x := range c {
		if i < len(ref) && x < ref[i] {
			return true
		}
	}
	return false
}

// Surplus returns sum(c - target).
func (c ConfidenceVector) Surplus(target float64) float64 {
	var s float64
	for _, x := range c {
		s += x - target
	}
	return s
}

// Direction is the preferred direction of change for a controllable feature
// when optimizing the score.
type Direction int

const (
	Decrease Direction = -1
	Increase Direction = 1
)

func (d Direction) Valid() bool {
	return d == Decrease || d == Increase
}

func (d Direction) String() string {
	switch d {
	case Decrease:
		return "decrease"
	case Increase:
		return "increase"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts "increase", "decrease", "1", "+1" and "-1".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increase", "1", "+1":
		return Increase, nil
	case "decrease", "-1":
		return Decrease, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// UnmarshalJSON takes either the numeric or the named form.
func (d *Direction) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = Direction(n)
	return nil
}

// ControllableFeature describes a dimension the planner may change.
type ControllableFeature struct {
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Index     int       `json:"index" yaml:"index"`
	Min       float64   `json:"min" yaml:"min"`
	Max       float64   `json:"max" yaml:"max"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Clamp bounds x to the feature domain. The second result is true when x was
// outside the domain.
func (f ControllableFeature) Clamp(x float64) (float64, bool) {
	if x < f.Min {
		return f.Min, true
	}
	if x > f.Max {
		return f.Max, true
	}
	return x, false
}

// Contains reports whether x lies in [Min, Max].
func (f ControllableFeature) Contains(x float64) bool {
	return x >= f.Min && x <= f.Max
}
