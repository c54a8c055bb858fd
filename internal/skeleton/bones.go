// Package skeleton holds the scene node hierarchy: names, parents, local
// transforms, path lookup and world matrices.
package skeleton

import (
	"strings"

	"fur-mask-baker/internal/mathutil"
)

// PathSeparator joins node names into hierarchy paths ("Armature/Hips/Spine").
const PathSeparator = "/"

// Node is one entry in the hierarchy. Parent is -1 for roots.
type Node struct {
	Name   string
	Parent int
	Local  mathutil.Mat4
}

// Hierarchy is an index-addressed node tree. Node IDs are slice indices.
type Hierarchy struct {
	Nodes []Node

	paths  []string
	byPath map[string]int
}

// NewHierarchy indexes nodes by path. Parent indices outside the slice are
// treated as roots.
func NewHierarchy(nodes []Node) *Hierarchy {
	h := &Hierarchy{Nodes: nodes}
	for i := range h.Nodes {
		p := h.Nodes[i].Parent
		if p < 0 || p >= len(h.Nodes) || p == i {
			h.Nodes[i].Parent = -1
		}
	}
	h.index()
	return h
}

func (h *Hierarchy) index() {
	h.paths = make([]string, len(h.Nodes))
	h.byPath = make(map[string]int, len(h.Nodes))
	for i := range h.Nodes {
		p := h.buildPath(i)
		h.paths[i] = p
		// First node wins on duplicate paths.
		if _, exists := h.byPath[p]; !exists {
			h.byPath[p] = i
		}
	}
}

func (h *Hierarchy) buildPath(id int) string {
	var parts []string
	seen := make(map[int]bool)
	for n := id; n >= 0 && !seen[n]; n = h.Nodes[n].Parent {
		seen[n] = true
		parts = append(parts, h.Nodes[n].Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, PathSeparator)
}

// Len returns the node count.
func (h *Hierarchy) Len() int {
	return len(h.Nodes)
}

// Find resolves a path to a node ID. Leading and trailing separators are ignored.
func (h *Hierarchy) Find(path string) (int, bool) {
	id, ok := h.byPath[strings.Trim(path, PathSeparator)]
	return id, ok
}

// Path returns the path of node id, or "" when out of range.
func (h *Hierarchy) Path(id int) string {
	if id < 0 || id >= len(h.paths) {
		return ""
	}
	return h.paths[id]
}

// Parent returns the parent of node id, or -1 for roots and invalid IDs.
func (h *Hierarchy) Parent(id int) int {
	if id < 0 || id >= len(h.Nodes) {
		return -1
	}
	return h.Nodes[id].Parent
}

// WorldMatrices computes the world transform for every node by chaining
// local transforms through the parent links. Parents may appear after
// their children in the slice.
func (h *Hierarchy) WorldMatrices() []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(h.Nodes))
	done := make([]bool, len(h.Nodes))

	var resolve func(i int, depth int) mathutil.Mat4
	resolve = func(i int, depth int) mathutil.Mat4 {
		if done[i] {
			return worlds[i]
		}
		local := h.Nodes[i].Local
		if local == (mathutil.Mat4{}) {
			local = mathutil.Mat4Identity()
		}
		p := h.Nodes[i].Parent
		if p >= 0 && depth < len(h.Nodes) {
			worlds[i] = mathutil.Mat4Mul(resolve(p, depth+1), local)
		} else {
			worlds[i] = local
		}
		done[i] = true
		return worlds[i]
	}

	for i := range h.Nodes {
		resolve(i, 0)
	}
	return worlds
}
