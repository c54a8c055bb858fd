package skeleton

import (
	"testing"

	"fur-mask-baker/internal/mathutil"
)

func testHierarchy() *Hierarchy {
	return NewHierarchy([]Node{
		{Name: "Armature", Parent: -1},
		{Name: "Hips", Parent: 0, Local: mathutil.FromTRS(mathutil.Vec3{0, 1, 0}, mathutil.QuatIdentity(), mathutil.Vec3{1, 1, 1})},
		{Name: "Spine", Parent: 1, Local: mathutil.FromTRS(mathutil.Vec3{0, 0.5, 0}, mathutil.QuatIdentity(), mathutil.Vec3{1, 1, 1})},
		{Name: "Tail", Parent: 1},
	})
}

func TestPaths(t *testing.T) {
	h := testHierarchy()

	tests := []struct {
		path string
		id   int
	}{
		{"Armature", 0},
		{"Armature/Hips", 1},
		{"Armature/Hips/Spine", 2},
		{"/Armature/Hips/Tail/", 3},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id, ok := h.Find(tt.path)
			if !ok {
				t.Fatalf("expected %q to resolve", tt.path)
			}
			if id != tt.id {
				t.Errorf("expected id %d, got %d", tt.id, id)
			}
		})
	}

	if _, ok := h.Find("Armature/Missing"); ok {
		t.Error("expected missing path to fail")
	}
	if got := h.Path(2); got != "Armature/Hips/Spine" {
		t.Errorf("expected Armature/Hips/Spine, got %s", got)
	}
	if got := h.Path(99); got != "" {
		t.Errorf("expected empty path for invalid id, got %s", got)
	}
}

func TestParent(t *testing.T) {
	h := testHierarchy()
	if h.Parent(0) != -1 {
		t.Errorf("expected root parent -1, got %d", h.Parent(0))
	}
	if h.Parent(2) != 1 {
		t.Errorf("expected parent 1, got %d", h.Parent(2))
	}
	if h.Parent(-5) != -1 {
		t.Error("expected -1 for invalid id")
	}
}

func TestWorldMatrices(t *testing.T) {
	h := testHierarchy()
	worlds := h.WorldMatrices()

	got := worlds[2].MulPoint(mathutil.Vec3{})
	want := mathutil.Vec3{0, 1.5, 0}
	if got != want {
		t.Errorf("expected spine origin %v, got %v", want, got)
	}
	if !worlds[0].IsIdentity() {
		t.Error("expected zero local matrix to act as identity")
	}
}

func TestWorldMatricesChildBeforeParent(t *testing.T) {
	h := NewHierarchy([]Node{
		{Name: "Child", Parent: 1, Local: mathutil.FromTRS(mathutil.Vec3{1, 0, 0}, mathutil.QuatIdentity(), mathutil.Vec3{1, 1, 1})},
		{Name: "Root", Parent: -1, Local: mathutil.FromTRS(mathutil.Vec3{0, 0, 2}, mathutil.QuatIdentity(), mathutil.Vec3{1, 1, 1})},
	})
	got := h.WorldMatrices()[0].MulPoint(mathutil.Vec3{})
	if got != (mathutil.Vec3{1, 0, 2}) {
		t.Errorf("expected [1 0 2], got %v", got)
	}
	if h.Path(0) != "Root/Child" {
		t.Errorf("expected Root/Child, got %s", h.Path(0))
	}
}
