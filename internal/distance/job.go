// Package distance measures, per skin vertex, how far the cloth proxy lies
// along the vertex normal. The work runs as an incremental job so a host
// can interleave it with other per-tick work and cancel between batches.
package distance

import (
	"math"
	"time"

	"fur-mask-baker/internal/bvh"
	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/mathutil"
)

// NormalSource bends the sampling normal of a vertex, e.g. by a normal map.
type NormalSource interface {
	Resample(material string, uv mathutil.Vec2, normal mathutil.Vec3, vertex int) mathutil.Vec3
}

// Input is the geometry a Job samples.
type Input struct {
	Buffers *geometry.Buffers
	Proxy   *bvh.Tree    // nil or empty: every vertex gets MaxDistance
	Normals NormalSource // nil: stored vertex normals
	Anchors []int        // vertices pinned at distance 0
	Weld    []int        // canonical vertex IDs; computed when nil
}

// Job is one incremental distance computation. It is not safe for
// concurrent use.
type Job struct {
	in    Input
	opts  Options
	clock func() time.Time

	total     int
	batchSize int
	next      int

	raw      []float64
	anchored []bool
	cone     []coneDir

	lastReport time.Time
}

type coneDir struct {
	cos, sin, cosPhi, sinPhi float64
}

// NewJob prepares a job over every vertex of in.Buffers.
func NewJob(in Input, opts Options) *Job {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	total := in.Buffers.Len()
	j := &Job{
		in:        in,
		opts:      opts,
		clock:     clock,
		total:     total,
		batchSize: BatchSize(total, opts),
		raw:       make([]float64, total),
		anchored:  make([]bool, total),
	}
	for _, v := range in.Anchors {
		if v >= 0 && v < total {
			j.anchored[v] = true
		}
	}
	if opts.ConeSamples > 0 {
		a := mathutil.Deg2Rad(opts.ConeAngle)
		for k := 0; k < opts.ConeSamples; k++ {
			phi := 2 * math.Pi * float64(k) / float64(opts.ConeSamples)
			j.cone = append(j.cone, coneDir{math.Cos(a), math.Sin(a), math.Cos(phi), math.Sin(phi)})
		}
	}
	j.lastReport = clock()
	return j
}

// Total returns the number of vertices to sample.
func (j *Job) Total() int { return j.total }

// Processed returns the number of vertices sampled so far.
func (j *Job) Processed() int { return j.next }

// BatchSize returns the vertices processed per Step.
func (j *Job) BatchSize() int { return j.batchSize }

// Done reports whether every batch has run.
func (j *Job) Done() bool { return j.next >= j.total }

// Raw returns the unsmoothed distances sampled so far.
func (j *Job) Raw() []float64 { return j.raw }

// Step samples the next batch in vertex order and reports whether more
// batches remain.
func (j *Job) Step() bool {
	if j.Done() {
		return false
	}
	end := min(j.next+j.batchSize, j.total)
	for v := j.next; v < end; v++ {
		j.raw[v] = j.sample(v)
	}
	j.next = end

	now := j.clock()
	last := j.Done()
	if j.opts.Progress != nil && (last || now.Sub(j.lastReport) >= j.opts.ProgressInterval) {
		j.opts.Progress(j.next, j.total)
		j.lastReport = now
	}
	return !last
}

func (j *Job) sample(v int) float64 {
	maxD := j.opts.MaxDistance
	if maxD <= 0 || j.anchored[v] {
		return 0
	}
	tree := j.in.Proxy
	if tree == nil || tree.Len() == 0 {
		return maxD
	}

	b := j.in.Buffers
	n := b.Normals[v]
	if j.in.Normals != nil {
		n = j.in.Normals.Resample(b.MaterialName(v), b.UVs[v], n, v)
	}
	n = n.Normalize()
	if n == (mathutil.Vec3{}) {
		return maxD
	}
	origin := b.Positions[v]

	if j.opts.PenetrationDepth > 0 {
		if _, hit := tree.Intersect(origin, n.Scale(-1), j.opts.PenetrationDepth); hit {
			return 0
		}
	}

	best := maxD
	if d, hit := tree.Intersect(origin, n, best); hit {
		best = d
	}
	if len(j.cone) > 0 {
		u, w := basis(n)
		for _, c := range j.cone {
			side := u.Scale(c.cosPhi).Add(w.Scale(c.sinPhi))
			dir := n.Scale(c.cos).Add(side.Scale(c.sin)).Normalize()
			if d, hit := tree.Intersect(origin, dir, best); hit {
				best = d
			}
		}
	}
	return mathutil.Clamp(best, 0, maxD)
}

// basis returns two unit vectors perpendicular to n and each other.
func basis(n mathutil.Vec3) (mathutil.Vec3, mathutil.Vec3) {
	ref := mathutil.Vec3{0, 0, 1}
	if math.Abs(n[2]) > 0.9 {
		ref = mathutil.Vec3{1, 0, 0}
	}
	u := ref.Cross(n).Normalize()
	return u, n.Cross(u)
}

// Finish runs any batches left, then smooths the distances and returns
// them clamped to [0, MaxDistance].
func (j *Job) Finish() []float64 {
	for j.Step() {
	}
	out := j.smooth()
	maxD := math.Max(j.opts.MaxDistance, 0)
	for i := range out {
		out[i] = mathutil.Clamp(out[i], 0, maxD)
	}
	return out
}

// smooth runs Laplacian smoothing over welded vertices. Each co-located
// group shares one value; anchored groups stay fixed.
func (j *Job) smooth() []float64 {
	out := make([]float64, j.total)
	iters := j.opts.SmoothingIterations
	if iters <= 0 || j.total == 0 {
		copy(out, j.raw)
		return out
	}

	weld := j.in.Weld
	if len(weld) != j.total {
		weld = geometry.Weld(j.in.Buffers.Positions, geometry.DefaultWeldTolerance)
	}
	neighbors := geometry.VertexNeighbors(j.in.Buffers.Groups, weld)

	cur := make([]float64, j.total)
	count := make([]int, j.total)
	fixed := make([]bool, j.total)
	for v, c := range weld {
		cur[c] += j.raw[v]
		count[c]++
		if j.anchored[v] {
			fixed[c] = true
		}
	}
	for c := range cur {
		switch {
		case fixed[c]:
			cur[c] = 0
		case count[c] > 0:
			cur[c] /= float64(count[c])
		}
	}

	prev := make([]float64, j.total)
	for it := 0; it < iters; it++ {
		cur, prev = prev, cur
		for c := range cur {
			nb := neighbors[c]
			if count[c] == 0 || fixed[c] || len(nb) == 0 {
				cur[c] = prev[c]
				continue
			}
			sum := prev[c]
			for _, n := range nb {
				sum += prev[n]
			}
			cur[c] = sum / float64(len(nb)+1)
		}
	}

	for v, c := range weld {
		out[v] = cur[c]
	}
	return out
}

// Release drops the job's arrays.
func (j *Job) Release() {
	j.raw = nil
	j.anchored = nil
	j.in = Input{}
	j.total = 0
	j.next = 0
}
