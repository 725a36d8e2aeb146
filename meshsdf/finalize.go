package meshsdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// writeTarget copies src into dst, adding offset to every distance, and
// stores gradients when gt is not nil.
func writeTarget(p *workerPool, src []float32, grid VoxelGrid, dst Target, gt GradientTarget, offset float32) {
	p.dispatch(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst.SetDistance(i, src[i]+offset)
		}
	})
	if gt == nil {
		return
	}
	p.dispatch(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x, y, z := grid.Coord(i)
			gt.SetGradient(i, fieldGradient(src, grid, x, y, z))
		}
	})
}

// fieldGradient estimates the normalized gradient at (x, y, z) by central
// differences, one-sided on the grid border. Flat or non-finite gradients are
// returned as zero.
func fieldGradient(src []float32, grid VoxelGrid, x, y, z int) mgl32.Vec3 {
	c := [3]int{x, y, z}
	var g mgl32.Vec3
	for k := 0; k < 3; k++ {
		lo, hi := c, c
		if lo[k] > 0 {
			lo[k]--
		}
		if hi[k] < grid.Resolution[k]-1 {
			hi[k]++
		}
		span := hi[k] - lo[k]
		if span == 0 {
			continue
		}
		a := src[grid.Index(lo[0], lo[1], lo[2])]
		b := src[grid.Index(hi[0], hi[1], hi[2])]
		g[k] = (b - a) / (float32(span) * grid.CellSize)
	}
	l := g.Len()
	if !(l > 0) || math32.IsInf(l, 0) {
		return mgl32.Vec3{}
	}
	return g.Mul(1 / l)
}
