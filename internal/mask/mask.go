// Package mask turns per-vertex distances, sphere zones and bone weights
// into the final per-vertex mask value, where 0 suppresses fur and 1 leaves
// it untouched.
package mask

import (
	"fmt"
	"strings"

	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/mathutil"
)

// CombineMode folds several mask components into one value.
type CombineMode int

const (
	// CombineMin keeps the most restrictive component.
	CombineMin CombineMode = iota
	// CombineMultiply multiplies the components.
	CombineMultiply
)

func (m CombineMode) String() string {
	switch m {
	case CombineMultiply:
		return "multiply"
	default:
		return "min"
	}
}

// ParseCombineMode accepts "min", "multiply" or "" (min).
func ParseCombineMode(s string) (CombineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "min":
		return CombineMin, nil
	case "multiply", "mul":
		return CombineMultiply, nil
	}
	return CombineMin, fmt.Errorf("mask: unknown combine mode %q", s)
}

// Combine folds values with mode. No values yields 1.
func Combine(mode CombineMode, values ...float64) float64 {
	out := 1.0
	for _, v := range values {
		v = mathutil.Clamp01(v)
		if mode == CombineMultiply {
			out *= v
		} else if v < out {
			out = v
		}
	}
	return out
}

// FromDistance normalizes a proxy distance into a mask value. A zero or
// negative maxDistance masks everything.
func FromDistance(d, maxDistance float64) float64 {
	if maxDistance <= 0 {
		return 0
	}
	return mathutil.Clamp01(d / maxDistance)
}

// FromBone converts a bone suppression weight into a mask value.
func FromBone(b float64) float64 {
	return 1 - mathutil.Clamp01(b)
}

// Sphere is a painted exclusion zone. Inside Radius the mask drops by
// Intensity; across Gradient it fades back to 1.
type Sphere struct {
	Position  mathutil.Vec3
	Radius    float64
	Gradient  float64
	Intensity float64
	Mirror    bool // also apply at Position reflected across X=0
}

// Evaluate returns the sphere's mask value at p.
func (s *Sphere) Evaluate(p mathutil.Vec3) float64 {
	v := s.evaluateAt(s.Position, p)
	if s.Mirror {
		m := s.Position
		m[0] = -m[0]
		if mv := s.evaluateAt(m, p); mv < v {
			v = mv
		}
	}
	return v
}

func (s *Sphere) evaluateAt(center, p mathutil.Vec3) float64 {
	d := p.Sub(center).Len()
	var falloff float64
	switch {
	case d <= s.Radius:
		falloff = 1
	case s.Gradient > 0 && d < s.Radius+s.Gradient:
		falloff = 1 - (d-s.Radius)/s.Gradient
	}
	return 1 - mathutil.Clamp01(s.Intensity)*falloff
}

// EvaluateSpheres returns the most restrictive sphere value at p, or 1.
func EvaluateSpheres(spheres []Sphere, p mathutil.Vec3) float64 {
	out := 1.0
	for i := range spheres {
		if v := spheres[i].Evaluate(p); v < out {
			out = v
		}
	}
	return out
}

// Inputs are the per-bake components folded into each vertex.
type Inputs struct {
	Distances   []float64 // per vertex, nil treats every vertex as unoccluded
	MaxDistance float64
	Spheres     []Sphere
	Mode        CombineMode
}

// VertexValues computes the mask value of every vertex in b.
func VertexValues(b *geometry.Buffers, in Inputs) []float64 {
	out := make([]float64, b.Len())
	for v := range out {
		dist := 1.0
		if in.Distances != nil {
			dist = FromDistance(in.Distances[v], in.MaxDistance)
		}
		out[v] = Combine(in.Mode,
			dist,
			EvaluateSpheres(in.Spheres, b.Positions[v]),
			FromBone(b.BoneMask[v]),
		)
	}
	return out
}
