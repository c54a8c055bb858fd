// Package gltfscene loads bake surfaces and the node hierarchy from glTF 2.0
// files (.gltf or .glb).
package gltfscene

import (
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/mesh"
	"fur-mask-baker/internal/skeleton"
)

// Scene is a loaded glTF document: the node tree and one surface per node
// that carries a mesh.
type Scene struct {
	Hierarchy *skeleton.Hierarchy
	Surfaces  []mesh.Surface
}

// Load opens and converts a glTF file.
func Load(path string, log *zap.Logger) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltfscene: open %s: %w", path, err)
	}
	return FromDocument(doc, log)
}

// FromDocument converts a decoded document. Primitives that are not
// triangle lists are skipped.
func FromDocument(doc *gltf.Document, log *zap.Logger) (*Scene, error) {
	log = logger.OrNop(log)

	nodes := make([]skeleton.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		nodes[i] = skeleton.Node{Name: name, Parent: -1, Local: localMatrix(n)}
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			child := int(c)
			if child >= 0 && child < len(nodes) && child != i {
				nodes[child].Parent = i
			}
		}
	}
	h := skeleton.NewHierarchy(nodes)
	world := h.WorldMatrices()

	scene := &Scene{Hierarchy: h}
	for i, n := range doc.Nodes {
		if n.Mesh == nil || int(*n.Mesh) >= len(doc.Meshes) {
			continue
		}
		s, err := readSurface(doc, doc.Meshes[int(*n.Mesh)], log)
		if err != nil {
			return nil, fmt.Errorf("gltfscene: node %s: %w", h.Path(i), err)
		}
		if s.Empty() {
			log.Warn("node mesh has no triangles", zap.String("node", h.Path(i)))
			continue
		}
		s.Path = h.Path(i)
		s.World = world[i]
		if n.Skin != nil && int(*n.Skin) < len(doc.Skins) {
			skin := doc.Skins[int(*n.Skin)]
			s.Bones = make([]int, len(skin.Joints))
			for j, node := range skin.Joints {
				s.Bones[j] = int(node)
			}
			// Skinned vertices are authored in bind space.
			s.World = mathutil.Mat4Identity()
		}
		scene.Surfaces = append(scene.Surfaces, s)
	}
	log.Debug("gltf scene loaded",
		zap.Int("nodes", len(nodes)), zap.Int("surfaces", len(scene.Surfaces)))
	return scene, nil
}

func localMatrix(n *gltf.Node) mathutil.Mat4 {
	var c [16]float64
	zero := true
	for i := range c {
		c[i] = float64(n.Matrix[i])
		if c[i] != 0 {
			zero = false
		}
	}
	if !zero {
		if m := mathutil.FromColumnMajor(c); !m.IsIdentity() {
			return m
		}
	}

	t := mathutil.Vec3{float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2])}
	q := mathutil.Quat{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2]), float64(n.Rotation[3])}
	if q == (mathutil.Quat{}) {
		q = mathutil.QuatIdentity()
	}
	s := mathutil.Vec3{float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2])}
	if s == (mathutil.Vec3{}) {
		s = mathutil.Vec3{1, 1, 1}
	}
	return mathutil.FromTRS(t, q, s)
}

// readSurface merges every triangle primitive of m into one surface, one
// submesh per primitive.
func readSurface(doc *gltf.Document, m *gltf.Mesh, log *zap.Logger) (mesh.Surface, error) {
	var s mesh.Surface
	hasNormals, hasTangents, hasSkin := true, true, true

	for pi, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			log.Debug("skipping non-triangle primitive", zap.String("mesh", m.Name), zap.Int("primitive", pi))
			continue
		}
		posIdx, ok := p.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return s, fmt.Errorf("read positions: %w", err)
		}
		base := len(s.Positions)
		n := len(pos)
		for _, v := range pos {
			s.Positions = append(s.Positions, mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
		}

		if a, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[a], nil)
			if err != nil {
				return s, fmt.Errorf("read uvs: %w", err)
			}
			// glTF UVs have a top-left origin.
			for _, v := range uvs {
				s.UVs = append(s.UVs, mathutil.Vec2{float64(v[0]), 1 - float64(v[1])})
			}
		}
		s.UVs = pad(s.UVs, base+n)

		if a, ok := p.Attributes[gltf.NORMAL]; ok && hasNormals {
			normals, err := modeler.ReadNormal(doc, doc.Accessors[a], nil)
			if err != nil {
				return s, fmt.Errorf("read normals: %w", err)
			}
			for _, v := range normals {
				s.Normals = append(s.Normals, mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
			}
		} else {
			hasNormals = false
		}

		if a, ok := p.Attributes[gltf.TANGENT]; ok && hasTangents {
			tangents, err := modeler.ReadTangent(doc, doc.Accessors[a], nil)
			if err != nil {
				return s, fmt.Errorf("read tangents: %w", err)
			}
			for _, v := range tangents {
				s.Tangents = append(s.Tangents, mathutil.Vec4{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])})
			}
		} else {
			hasTangents = false
		}

		wa, okW := p.Attributes[gltf.WEIGHTS_0]
		ja, okJ := p.Attributes[gltf.JOINTS_0]
		if okW && okJ && hasSkin {
			weights, err := modeler.ReadWeights(doc, doc.Accessors[wa], nil)
			if err != nil {
				return s, fmt.Errorf("read weights: %w", err)
			}
			joints, err := modeler.ReadJoints(doc, doc.Accessors[ja], nil)
			if err != nil {
				return s, fmt.Errorf("read joints: %w", err)
			}
			for k := range weights {
				s.Weights = append(s.Weights, [4]float32{weights[k][0], weights[k][1], weights[k][2], weights[k][3]})
			}
			for k := range joints {
				s.Joints = append(s.Joints, [4]int{int(joints[k][0]), int(joints[k][1]), int(joints[k][2]), int(joints[k][3])})
			}
		} else {
			hasSkin = false
		}

		var idx []int
		if p.Indices != nil {
			raw, err := modeler.ReadIndices(doc, doc.Accessors[int(*p.Indices)], nil)
			if err != nil {
				return s, fmt.Errorf("read indices: %w", err)
			}
			idx = make([]int, len(raw))
			for k, v := range raw {
				idx[k] = base + int(v)
			}
		} else {
			idx = make([]int, n)
			for k := range idx {
				idx[k] = base + k
			}
		}
		s.Submeshes = append(s.Submeshes, mesh.Submesh{
			Indices:  idx,
			Material: materialName(doc, p.Material),
		})
	}

	// An attribute missing on any primitive is dropped for the whole surface.
	if !hasNormals {
		s.Normals = nil
	}
	if !hasTangents {
		s.Tangents = nil
	}
	if !hasSkin {
		s.Joints, s.Weights = nil, nil
	}
	return s, nil
}

func pad(uvs []mathutil.Vec2, n int) []mathutil.Vec2 {
	for len(uvs) < n {
		uvs = append(uvs, mathutil.Vec2{})
	}
	return uvs
}

func materialName(doc *gltf.Document, idx *int) string {
	if idx == nil || int(*idx) >= len(doc.Materials) {
		return "default"
	}
	if name := doc.Materials[int(*idx)].Name; name != "" {
		return name
	}
	return fmt.Sprintf("material_%d", int(*idx))
}

// Select returns the surfaces whose path equals, or sits under, one of the
// given paths, in scene order, plus the paths that matched nothing.
func (s *Scene) Select(paths []string) ([]mesh.Surface, []string) {
	var out []mesh.Surface
	used := make([]bool, len(paths))
	for _, surf := range s.Surfaces {
		for i, p := range paths {
			p = strings.Trim(p, skeleton.PathSeparator)
			if surf.Path == p || strings.HasPrefix(surf.Path, p+skeleton.PathSeparator) {
				out = append(out, surf)
				used[i] = true
				break
			}
		}
	}
	var missing []string
	for i, ok := range used {
		if !ok {
			missing = append(missing, paths[i])
		}
	}
	return out, missing
}

// Materials returns the distinct material names in scene order.
func (s *Scene) Materials() []string {
	seen := make(map[string]bool)
	var out []string
	for _, surf := range s.Surfaces {
		for _, sm := range surf.Submeshes {
			if !seen[sm.Material] {
				seen[sm.Material] = true
				out = append(out, sm.Material)
			}
		}
	}
	return out
}
