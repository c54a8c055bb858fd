package geometry

import (
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/mesh"
)

// Triangle is one world-space proxy triangle.
type Triangle [3]mathutil.Vec3

// Proxy is the world-space triangle soup distance rays are cast against.
type Proxy struct {
	Triangles []Triangle
}

// Len returns the triangle count.
func (p *Proxy) Len() int {
	return len(p.Triangles)
}

// AddSurface appends every valid triangle of s transformed into world space
// and returns the number added.
func (p *Proxy) AddSurface(s *mesh.Surface) int {
	world := s.World
	if world == (mathutil.Mat4{}) {
		world = mathutil.Mat4Identity()
	}
	n := len(s.Positions)
	ws := make([]mathutil.Vec3, n)
	for i, v := range s.Positions {
		ws[i] = world.MulPoint(v)
	}
	added := 0
	for _, sm := range s.Submeshes {
		for t := 0; t+2 < len(sm.Indices); t += 3 {
			i0, i1, i2 := sm.Indices[t], sm.Indices[t+1], sm.Indices[t+2]
			if !inRange(i0, n) || !inRange(i1, n) || !inRange(i2, n) {
				continue
			}
			p.Triangles = append(p.Triangles, Triangle{ws[i0], ws[i1], ws[i2]})
			added++
		}
	}
	return added
}

// AddGroupTriangles appends the listed triangles of b's group g. Indices in
// tris are triangle numbers within the group.
func (p *Proxy) AddGroupTriangles(b *Buffers, g int, tris []int) int {
	idx := b.Groups[g].Indices
	added := 0
	for _, t := range tris {
		o := t * 3
		if o < 0 || o+2 >= len(idx) {
			continue
		}
		p.Triangles = append(p.Triangles, Triangle{
			b.Positions[idx[o]], b.Positions[idx[o+1]], b.Positions[idx[o+2]],
		})
		added++
	}
	return added
}

// Release drops the triangle list.
func (p *Proxy) Release() {
	p.Triangles = nil
}

// BuildProxy combines the cloth surfaces into one proxy and reports how many
// surfaces were skipped as empty.
func BuildProxy(cloth []mesh.Surface) (*Proxy, int) {
	p := &Proxy{}
	skipped := 0
	for i := range cloth {
		if cloth[i].Empty() || p.AddSurface(&cloth[i]) == 0 {
			skipped++
		}
	}
	return p, skipped
}
