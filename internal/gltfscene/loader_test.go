package gltfscene

import (
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// quadDocument builds Body -> Fur, where Fur carries a one-quad mesh.
func quadDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	prim := &gltf.Primitive{Indices: gltf.Index(idx), Material: gltf.Index(0)}
	prim.Attributes = map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv}
	doc.Meshes = []*gltf.Mesh{{Name: "fur", Primitives: []*gltf.Primitive{prim}}}
	doc.Materials = []*gltf.Material{{Name: "fur_mat"}}

	body := &gltf.Node{Name: "Body", Children: []int{1}}
	fur := &gltf.Node{Name: "Fur", Mesh: gltf.Index(0)}
	fur.Translation[2] = 2
	doc.Nodes = []*gltf.Node{body, fur, {}}
	return doc
}

func TestFromDocument(t *testing.T) {
	scene, err := FromDocument(quadDocument(t), nil)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if scene.Hierarchy.Len() != 3 {
		t.Fatalf("nodes = %d, want 3", scene.Hierarchy.Len())
	}
	if _, ok := scene.Hierarchy.Find("node_2"); !ok {
		t.Error("unnamed node should be named node_2")
	}
	if len(scene.Surfaces) != 1 {
		t.Fatalf("surfaces = %d, want 1", len(scene.Surfaces))
	}

	s := scene.Surfaces[0]
	if s.Path != "Body/Fur" {
		t.Errorf("path = %q, want Body/Fur", s.Path)
	}
	if got := s.World.MulPoint(s.Positions[2]); math.Abs(got[2]-2) > 1e-9 || math.Abs(got[0]-1) > 1e-9 {
		t.Errorf("world position = %v, want (1,1,2)", got)
	}
	if s.UVs[0][1] != 0 || s.UVs[2][1] != 1 {
		t.Errorf("V not flipped: %v", s.UVs)
	}
	if len(s.Submeshes) != 1 || s.Submeshes[0].Material != "fur_mat" {
		t.Fatalf("submeshes = %+v", s.Submeshes)
	}
	if s.TriangleCount() != 2 {
		t.Errorf("triangles = %d, want 2", s.TriangleCount())
	}
	if s.Normals != nil {
		t.Error("normals should be nil when absent")
	}
}

func TestFromDocumentMergesPrimitives(t *testing.T) {
	doc := quadDocument(t)
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}})
	second := &gltf.Primitive{}
	second.Attributes = map[string]int{gltf.POSITION: pos}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, second)

	scene, err := FromDocument(doc, nil)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	s := scene.Surfaces[0]
	if len(s.Positions) != 7 || len(s.UVs) != 7 {
		t.Fatalf("positions=%d uvs=%d, want 7", len(s.Positions), len(s.UVs))
	}
	sm := s.Submeshes[1]
	if sm.Material != "default" {
		t.Errorf("material = %q, want default", sm.Material)
	}
	want := []int{4, 5, 6}
	for i := range want {
		if sm.Indices[i] != want[i] {
			t.Fatalf("generated indices = %v, want %v", sm.Indices, want)
		}
	}
}

func TestSelect(t *testing.T) {
	scene, err := FromDocument(quadDocument(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, missing := scene.Select([]string{"/Body/", "Nope"})
	if len(got) != 1 {
		t.Errorf("selected %d surfaces, want 1", len(got))
	}
	if len(missing) != 1 || missing[0] != "Nope" {
		t.Errorf("missing = %v", missing)
	}
	if m := scene.Materials(); len(m) != 1 || m[0] != "fur_mat" {
		t.Errorf("materials = %v", m)
	}
}

func TestLocalMatrixDefaults(t *testing.T) {
	m := localMatrix(&gltf.Node{})
	if !m.IsIdentity() {
		t.Errorf("zero node should give identity, got %v", m)
	}
}
