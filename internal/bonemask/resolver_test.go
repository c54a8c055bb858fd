package bonemask

import (
	"testing"

	"fur-mask-baker/internal/skeleton"
)

// countingGraph wraps a hierarchy and counts Parent calls.
type countingGraph struct {
	*skeleton.Hierarchy
	parentCalls int
}

func (g *countingGraph) Parent(n int) int {
	g.parentCalls++
	return g.Hierarchy.Parent(n)
}

func testGraph() *countingGraph {
	return &countingGraph{Hierarchy: skeleton.NewHierarchy([]skeleton.Node{
		{Name: "Root", Parent: -1},
		{Name: "Hips", Parent: 0},
		{Name: "Spine", Parent: 1},
		{Name: "Chest", Parent: 2},
		{Name: "Leg", Parent: 1},
		{Name: "Foot", Parent: 4},
	})}
}

func TestNodeValueInheritance(t *testing.T) {
	g := testGraph()
	r := NewResolver(g, map[string]float64{
		"Root/Hips/Spine":     0.8,
		"Root/Hips/Leg":       0.3,
		"Root/Does/Not/Exist": 1,
	}, nil)

	if r.Len() != 2 {
		t.Errorf("expected 2 resolved entries, got %d", r.Len())
	}

	tests := []struct {
		name string
		node int
		want float64
	}{
		{"root without entry", 0, 0},
		{"hips without entry", 1, 0},
		{"explicit spine", 2, 0.8},
		{"chest inherits spine", 3, 0.8},
		{"explicit leg", 4, 0.3},
		{"foot inherits leg", 5, 0.3},
		{"invalid node", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.NodeValue(tt.node); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNodeValueIsMemoized(t *testing.T) {
	g := testGraph()
	r := NewResolver(g, map[string]float64{"Root": 0.5}, nil)

	r.NodeValue(5)
	first := g.parentCalls
	for i := 0; i < 10; i++ {
		if got := r.NodeValue(5); got != 0.5 {
			t.Fatalf("expected 0.5, got %v", got)
		}
	}
	if g.parentCalls != first {
		t.Errorf("expected no further parent walks, got %d extra", g.parentCalls-first)
	}

	// Foot's ancestors were cached on the way up.
	r.NodeValue(4)
	if g.parentCalls != first {
		t.Errorf("expected ancestor cache hit, got %d extra walks", g.parentCalls-first)
	}
}

func TestVertexValue(t *testing.T) {
	r := NewResolver(testGraph(), map[string]float64{
		"Root/Hips/Spine": 1,
		"Root/Hips/Leg":   0.5,
	}, nil)

	tests := []struct {
		name    string
		bones   [4]int
		weights [4]float32
		want    float64
	}{
		{"single bone", [4]int{3, -1, -1, -1}, [4]float32{1, 0, 0, 0}, 1},
		{"blend", [4]int{2, 4, -1, -1}, [4]float32{0.5, 0.5, 0, 0}, 0.75},
		{"no entries anywhere", [4]int{0, 1, -1, -1}, [4]float32{0.5, 0.5, 0, 0}, 0},
		{"zero weights", [4]int{2, 4, 5, 3}, [4]float32{}, 0},
		{"overweight clamps", [4]int{2, 3, -1, -1}, [4]float32{1, 1, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.VertexValue(tt.bones, tt.weights)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got < 0 || got > 1 {
				t.Errorf("value %v out of [0,1]", got)
			}
		})
	}
}

func TestNilGraph(t *testing.T) {
	r := NewResolver(nil, map[string]float64{"Root": 1}, nil)
	if got := r.VertexValue([4]int{0, -1, -1, -1}, [4]float32{1}); got != 0 {
		t.Errorf("expected 0 without a graph, got %v", got)
	}
}

func TestEntryValuesClamped(t *testing.T) {
	r := NewResolver(testGraph(), map[string]float64{"Root": 4}, nil)
	if got := r.NodeValue(2); got != 1 {
		t.Errorf("expected clamped 1, got %v", got)
	}
}
