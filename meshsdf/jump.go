package meshsdf

import (
	"context"
	"math/bits"

	"github.com/chewxy/math32"
)

// jumpSplatBuffer holds the voxelizer output in jump mode. It stays intact
// through the passes and seeds read their exact surface distance from it.
const jumpSplatBuffer = 1

// JumpPassCount returns the number of halving steps needed for a grid whose
// largest axis is maxDim. The steps 2^(n-1), ..., 2, 1 sum to 2^n - 1, which
// is at least maxDim-1, so a seed can reach every voxel of the grid.
func JumpPassCount(maxDim int) int {
	if maxDim <= 1 {
		return 0
	}
	return bits.Len(uint(maxDim - 1))
}

// jumpStepSize is the offset of pass k out of n.
func jumpStepSize(k, n int) int {
	return 1 << (n - 1 - k)
}

// jumpAxes holds the directions of the per-axis sub-passes.
var jumpAxes = [3][]neighbor{
	{{-1, 0, 0, 0}, {1, 0, 0, 0}},
	{{0, -1, 0, 0}, {0, 1, 0, 0}},
	{{0, 0, -1, 0}, {0, 0, 1, 0}},
}

// jumpSeedInit marks every voxel the voxelizer reached as its own seed.
func jumpSeedInit(p *workerPool, splat []float32, seeds []int32, far float32) {
	p.dispatch(len(seeds), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if math32.Abs(splat[i]) < far {
				seeds[i] = int32(i)
			} else {
				seeds[i] = NoSeed
			}
		}
	})
}

// jumpFlood runs the seed passes and returns which seed buffer holds the
// result. Normal quality sweeps the three axes as separate sub-passes, Ultra
// considers all 26 directions at once; every sub-pass flips the buffers.
// Both qualities end with the two correction sweeps of jumpRefineSteps.
func jumpFlood(ctx context.Context, p *workerPool, bufs *buffers, grid VoxelGrid, quality Quality) (cur int, passes int, err error) {
	n := JumpPassCount(grid.MaxDim())
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return cur, passes, err
		}
		step := jumpStepSize(k, n)
		if quality == QualityUltra {
			jumpStep(p, bufs.seeds[cur], bufs.seeds[1-cur], grid, allNeighbors, step)
			cur = 1 - cur
			passes++
			continue
		}
		for axis := 0; axis < 3; axis++ {
			if grid.Resolution[axis] <= step {
				continue
			}
			jumpStep(p, bufs.seeds[cur], bufs.seeds[1-cur], grid, jumpAxes[axis], step)
			cur = 1 - cur
			passes++
		}
	}
	if n == 0 {
		return cur, passes, nil
	}
	// Halving alone can settle on a farther seed when several seeds compete.
	// Two more sweeps at steps 2 and 1 in all directions settle those voxels.
	for _, step := range jumpRefineSteps {
		if err := ctx.Err(); err != nil {
			return cur, passes, err
		}
		jumpStep(p, bufs.seeds[cur], bufs.seeds[1-cur], grid, allNeighbors, step)
		cur = 1 - cur
		passes++
	}
	return cur, passes, nil
}

// jumpRefineSteps are the offsets of the correction sweeps run after the
// halving passes.
var jumpRefineSteps = [...]int{2, 1}

// jumpStep lets every voxel adopt the seed of a voxel step cells away in one
// of dirs when that seed is strictly closer than its own.
func jumpStep(p *workerPool, src, dst []int32, grid VoxelGrid, dirs []neighbor, step int) {
	p.dispatch(len(src), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x, y, z := grid.Coord(i)
			best := src[i]
			bestD := int64(-1)
			if best != NoSeed {
				bestD = seedDistance2(grid, x, y, z, best)
			}
			for _, d := range dirs {
				nx, ny, nz := x+d.dx*step, y+d.dy*step, z+d.dz*step
				if !grid.Contains(nx, ny, nz) {
					continue
				}
				s := src[grid.Index(nx, ny, nz)]
				if s == NoSeed || s == best {
					continue
				}
				if d2 := seedDistance2(grid, x, y, z, s); bestD < 0 || d2 < bestD {
					best, bestD = s, d2
				}
			}
			dst[i] = best
		}
	})
}

// seedDistance2 is the squared distance, in voxels, from (x, y, z) to seed.
func seedDistance2(grid VoxelGrid, x, y, z int, seed int32) int64 {
	sx, sy, sz := grid.Coord(int(seed))
	dx, dy, dz := int64(x-sx), int64(y-sy), int64(z-sz)
	return dx*dx + dy*dy + dz*dz
}

// jumpFinalize converts resolved seeds into distances. A voxel that is its
// own seed keeps its exact surface distance; others get the distance between
// voxel centers; voxels no seed reached get far.
func jumpFinalize(p *workerPool, seeds []int32, splat, dst []float32, grid VoxelGrid, far float32) {
	cell := grid.CellSize
	p.dispatch(len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s := seeds[i]
			switch {
			case s == NoSeed:
				dst[i] = far
			case int(s) == i:
				dst[i] = math32.Abs(splat[i])
			default:
				x, y, z := grid.Coord(i)
				dst[i] = math32.Min(math32.Sqrt(float32(seedDistance2(grid, x, y, z, s)))*cell, far)
			}
		}
	})
}
