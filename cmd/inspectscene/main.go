package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"fur-mask-baker/internal/gltfscene"
	"fur-mask-baker/internal/mathutil"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: inspectscene <scene.gltf|scene.glb>")
		os.Exit(2)
	}
	scene, err := gltfscene.Load(os.Args[1], nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	h := scene.Hierarchy
	fmt.Printf("Nodes: %d, Surfaces: %d\n", h.Len(), len(scene.Surfaces))
	for id := 0; id < h.Len(); id++ {
		depth := strings.Count(h.Path(id), "/")
		fmt.Printf("  %s%s\n", strings.Repeat("  ", depth), h.Path(id))
	}

	fmt.Println("\nSurfaces:")
	for i, s := range scene.Surfaces {
		lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for _, p := range s.Positions {
			w := s.World.MulPoint(p)
			lo, hi = lo.Min(w), hi.Max(w)
		}
		skin := "no"
		if s.Skinned() {
			skin = fmt.Sprintf("%d bones", len(s.Bones))
		}
		fmt.Printf("  [%d] %s: verts=%d, tris=%d, uvs=%v, normals=%v, tangents=%v, skin=%s\n",
			i, s.Path, len(s.Positions), s.TriangleCount(),
			len(s.UVs) > 0, len(s.Normals) > 0, len(s.Tangents) > 0, skin)
		fmt.Printf("    BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
		for j, sm := range s.Submeshes {
			fmt.Printf("    Submesh[%d]: material=%q, tris=%d\n", j, sm.Material, len(sm.Indices)/3)
		}
	}

	fmt.Printf("\nMaterials: %s\n", strings.Join(scene.Materials(), ", "))
}
