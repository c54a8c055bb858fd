package distance

import (
	"runtime"
	"time"
)

// Options tunes sampling, batching and smoothing.
type Options struct {
	MaxDistance float64

	ConeSamples int     // extra rays around the normal, 0 disables the cone
	ConeAngle   float64 // degrees between the normal and each cone ray

	// PenetrationDepth is the length of a backward ray; a proxy hit
	// behind the vertex means the skin pokes through and forces distance 0.
	PenetrationDepth float64

	SmoothingIterations int

	TargetBatches int
	MinBatchSize  int
	MaxBatchSize  int

	ProgressInterval time.Duration
	Progress         func(done, total int)

	// MemoryPressure, when set, halves the batch size while it reports true.
	MemoryPressure func() bool

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the settings used by the bake.
func DefaultOptions() Options {
	return Options{
		MaxDistance:         0.02,
		ConeSamples:         4,
		ConeAngle:           25,
		SmoothingIterations: 2,
		TargetBatches:       64,
		MinBatchSize:        256,
		MaxBatchSize:        8192,
		ProgressInterval:    250 * time.Millisecond,
		MemoryPressure:      HeapPressure(1 << 30),
	}
}

// RaysPerVertex returns how many rays each vertex casts.
func (o *Options) RaysPerVertex() int {
	n := 1 + max(o.ConeSamples, 0)
	if o.PenetrationDepth > 0 {
		n++
	}
	return n
}

// HeapPressure reports pressure once the live heap exceeds limit bytes.
func HeapPressure(limit uint64) func() bool {
	return func() bool {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ms.HeapAlloc > limit
	}
}

// BatchSize computes the vertices processed per step: total/TargetBatches
// clamped to [MinBatchSize, MaxBatchSize], divided by the rays cast per
// vertex, then halved while memory pressure persists. Never below 1.
func BatchSize(total int, o Options) int {
	target := o.TargetBatches
	if target < 1 {
		target = 1
	}
	size := total / target
	if o.MinBatchSize > 0 && size < o.MinBatchSize {
		size = o.MinBatchSize
	}
	if o.MaxBatchSize > 0 && size > o.MaxBatchSize {
		size = o.MaxBatchSize
	}
	size /= o.RaysPerVertex()
	if size < 1 {
		size = 1
	}
	if o.MemoryPressure != nil {
		for size > 1 && o.MemoryPressure() {
			size /= 2
		}
	}
	return size
}
