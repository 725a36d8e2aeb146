package meshsdf

import "math"

const (
	// threadGroupSize is the number of logical tasks in one group.
	threadGroupSize = 64
	// maxThreadGroups is the largest group count along one dispatch axis.
	maxThreadGroups = 65535
)

// dispatchShape lays out the groups needed for tasks logical tasks. Above
// maxThreadGroups the groups are folded into a roughly square 2D grid; the
// trailing groups of the last row may then be empty.
func dispatchShape(tasks int) (x, y int) {
	groups := (tasks + threadGroupSize - 1) / threadGroupSize
	if groups <= maxThreadGroups {
		return groups, 1
	}
	x = int(math.Ceil(math.Sqrt(float64(groups))))
	y = (groups + x - 1) / x
	return x, y
}

// dispatch runs kernel over the task range [0, n) and returns once every task
// has completed. Each kernel call receives the tasks of a contiguous run of
// groups as [lo, hi); the kernel must not depend on how the range is split.
func (p *workerPool) dispatch(n int, kernel func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.workers == 1 {
		kernel(0, n)
		return
	}
	gx, gy := dispatchShape(n)
	perRow := max(1, p.workers*4/gy)
	cols := max(1, (gx+perRow-1)/perRow)

	work := make([]func(), 0, gy*perRow)
	for row := 0; row < gy; row++ {
		for c0 := 0; c0 < gx; c0 += cols {
			c1 := min(gx, c0+cols)
			lo := (row*gx + c0) * threadGroupSize
			hi := min(n, (row*gx+c1)*threadGroupSize)
			if lo >= hi {
				continue
			}
			work = append(work, func() { kernel(lo, hi) })
		}
	}
	p.executeAll(work)
}
