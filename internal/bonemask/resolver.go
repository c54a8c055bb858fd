// Package bonemask turns path-keyed bone mask entries into per-vertex values.
package bonemask

import (
	"sort"

	"go.uber.org/zap"

	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/mathutil"
)

// Graph answers hierarchy queries. It must be side-effect free.
type Graph interface {
	Find(path string) (int, bool)
	Parent(node int) int
}

// Resolver maps hierarchy nodes to inherited mask values.
// Not safe for concurrent use; the cache fills lazily.
type Resolver struct {
	graph    Graph
	explicit map[int]float64
	cache    map[int]float64
}

// NewResolver resolves every entry path through graph. Entries whose path
// does not resolve are dropped. Values are clamped to [0,1].
func NewResolver(graph Graph, entries map[string]float64, log *zap.Logger) *Resolver {
	log = logger.OrNop(log)
	r := &Resolver{
		graph:    graph,
		explicit: make(map[int]float64, len(entries)),
		cache:    make(map[int]float64),
	}
	if graph == nil {
		if len(entries) > 0 {
			log.Warn("bone masks ignored: no hierarchy", zap.Int("entries", len(entries)))
		}
		return r
	}

	// Sorted so duplicate-node resolution does not depend on map order.
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		id, ok := graph.Find(p)
		if !ok {
			log.Warn("bone mask path not found", zap.String("path", p))
			continue
		}
		r.explicit[id] = mathutil.Clamp01(entries[p])
	}
	return r
}

// Len returns the number of entries that resolved to a node.
func (r *Resolver) Len() int {
	return len(r.explicit)
}

// NodeValue returns the value of the nearest ancestor-or-self with an
// explicit entry, or 0 when the walk reaches the root without one.
func (r *Resolver) NodeValue(node int) float64 {
	if node < 0 || r.graph == nil || len(r.explicit) == 0 {
		return 0
	}
	if v, ok := r.cache[node]; ok {
		return v
	}

	var chain []int
	value := 0.0
	seen := make(map[int]bool)
	for n := node; n >= 0 && !seen[n]; n = r.graph.Parent(n) {
		if v, ok := r.cache[n]; ok {
			value = v
			break
		}
		if v, ok := r.explicit[n]; ok {
			value = v
			r.cache[n] = v
			break
		}
		seen[n] = true
		chain = append(chain, n)
	}

	for _, n := range chain {
		r.cache[n] = value
	}
	return value
}

// VertexValue blends up to four bone influences by skin weight.
// bones holds hierarchy node IDs (-1 for unused slots).
func (r *Resolver) VertexValue(bones [4]int, weights [4]float32) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		w := float64(weights[i])
		if w <= 0 || bones[i] < 0 {
			continue
		}
		sum += w * r.NodeValue(bones[i])
	}
	return mathutil.Clamp01(sum)
}
