package meshsdf

import (
	"context"

	"github.com/chewxy/math32"
)

// neighbor is a voxel offset and the cost, in cells, of crossing it.
type neighbor struct {
	dx, dy, dz int
	cost       float32
}

var faceNeighbors = []neighbor{
	{-1, 0, 0, 1}, {1, 0, 0, 1},
	{0, -1, 0, 1}, {0, 1, 0, 1},
	{0, 0, -1, 1}, {0, 0, 1, 1},
}

var allNeighbors = func() []neighbor {
	costs := [4]float32{0, 1, math32.Sqrt(2), math32.Sqrt(3)}
	out := make([]neighbor, 0, 26)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				n := dx*dx + dy*dy + dz*dz
				if n == 0 {
					continue
				}
				out = append(out, neighbor{dx, dy, dz, costs[n]})
			}
		}
	}
	return out
}()

func linearNeighbors(q Quality) []neighbor {
	if q == QualityUltra {
		return allNeighbors
	}
	return faceNeighbors
}

// linearSplatBuffer is the buffer the voxelizer must fill so that, after
// iterations ping-pong passes, the result lands in buffer 0.
func linearSplatBuffer(iterations int) int {
	return iterations % 2
}

// linearFlood relaxes distances outward from the splatted shell. Each
// iteration reads one buffer and writes the other; the result is in
// bufs.dist[0].
func linearFlood(ctx context.Context, p *workerPool, bufs *buffers, grid VoxelGrid, quality Quality, iterations int) error {
	offs := linearNeighbors(quality)
	cur := linearSplatBuffer(iterations)
	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		linearIteration(p, bufs.dist[cur], bufs.dist[1-cur], grid, offs)
		cur = 1 - cur
	}
	return nil
}

// linearIteration writes, for every voxel, the smallest-magnitude value among
// its own distance and each neighbour's distance grown by the crossing cost.
// A voxel keeps its own value on ties, so the +0 shell never flips the sign of
// the voxels next to it.
func linearIteration(p *workerPool, src, dst []float32, grid VoxelGrid, offs []neighbor) {
	cell := grid.CellSize
	p.dispatch(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x, y, z := grid.Coord(i)
			best := src[i]
			bestAbs := math32.Abs(best)
			for _, n := range offs {
				nx, ny, nz := x+n.dx, y+n.dy, z+n.dz
				if !grid.Contains(nx, ny, nz) {
					continue
				}
				d := src[grid.Index(nx, ny, nz)]
				step := n.cost * cell
				var cand float32
				if d < 0 {
					cand = d - step
				} else {
					cand = d + step
				}
				if a := math32.Abs(cand); a < bestAbs {
					best, bestAbs = cand, a
				}
			}
			dst[i] = best
		}
	})
}
