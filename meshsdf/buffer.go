package meshsdf

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/chewxy/math32"
)

// NoSeed marks a voxel that has not been reached by any seed yet.
const NoSeed int32 = -1

// buffers owns the ping-pong storage of one generator. dist[0] is the
// canonical buffer the finalizer reads; seeds are only held in jump mode.
type buffers struct {
	dist  [2][]float32
	seeds [2][]int32
}

// ensure sizes the buffers for count voxels. Storage is kept while the count
// is unchanged and reallocated otherwise. It reports whether anything was
// allocated.
func (b *buffers) ensure(count int, jump bool) bool {
	allocated := false
	for i := range b.dist {
		if len(b.dist[i]) != count {
			b.dist[i] = make([]float32, count)
			allocated = true
		}
	}
	if !jump {
		b.seeds = [2][]int32{}
		return allocated
	}
	for i := range b.seeds {
		if len(b.seeds[i]) != count {
			b.seeds[i] = make([]int32, count)
			allocated = true
		}
	}
	return allocated
}

func (b *buffers) release() {
	b.dist = [2][]float32{}
	b.seeds = [2][]int32{}
}

// closer orders distances by magnitude. Equal magnitudes prefer the positive
// sign, so the order is total and a minimum over any set of candidates does
// not depend on the order they arrive in.
func closer(a, b float32) bool {
	aa, ab := math32.Abs(a), math32.Abs(b)
	if aa != ab {
		return aa < ab
	}
	return a > b
}

// atomicMinDistance merges d into *addr, keeping whichever value is closer.
// Concurrent splat tasks race on shared voxels, so a plain read-modify-write
// would lose updates.
func atomicMinDistance(addr *float32, d float32) {
	p := (*uint32)(unsafe.Pointer(addr))
	nb := math.Float32bits(d)
	for {
		ob := atomic.LoadUint32(p)
		if !closer(d, math.Float32frombits(ob)) {
			return
		}
		if atomic.CompareAndSwapUint32(p, ob, nb) {
			return
		}
	}
}
