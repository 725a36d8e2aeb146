package meshsdf

import (
	"context"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestJumpPassCount(t *testing.T) {
	tests := []struct{ dim, want int }{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {16, 4}, {17, 5}, {2048, 11},
	}
	for _, tt := range tests {
		if got := JumpPassCount(tt.dim); got != tt.want {
			t.Fatalf("JumpPassCount(%d) = %d, want %d", tt.dim, got, tt.want)
		}
		// The halving steps must add up to at least dim-1.
		reach := 0
		for k := 0; k < tt.want; k++ {
			reach += jumpStepSize(k, tt.want)
		}
		if tt.dim > 0 && reach < tt.dim-1 {
			t.Fatalf("JumpPassCount(%d): steps reach %d", tt.dim, reach)
		}
	}
}

// jumpFrom runs seed init, the passes and the finalizer on a splat buffer
// that is far everywhere except the given voxels.
func jumpFrom(t *testing.T, grid VoxelGrid, quality Quality, seeds map[int]float32) []float32 {
	t.Helper()
	var bufs buffers
	bufs.ensure(grid.VoxelCount(), true)
	far := grid.MaxDistance()
	splat := bufs.dist[jumpSplatBuffer]
	for i := range splat {
		splat[i] = far
	}
	for i, d := range seeds {
		splat[i] = d
	}
	p := newWorkerPool(3)
	defer p.close()
	jumpSeedInit(p, splat, bufs.seeds[0], far)
	cur, _, err := jumpFlood(context.Background(), p, &bufs, grid, quality)
	if err != nil {
		t.Fatalf("jumpFlood failed: %v", err)
	}
	jumpFinalize(p, bufs.seeds[cur], splat, bufs.dist[0], grid, far)
	return bufs.dist[0]
}

// bruteForce returns, per voxel, the distance to the closest seed center.
func bruteForce(grid VoxelGrid, seeds map[int]float32) []float32 {
	out := make([]float32, grid.VoxelCount())
	for i := range out {
		x, y, z := grid.Coord(i)
		best := int64(-1)
		for s := range seeds {
			if d := seedDistance2(grid, x, y, z, int32(s)); best < 0 || d < best {
				best = d
			}
		}
		out[i] = math32.Sqrt(float32(best)) * grid.CellSize
	}
	return out
}

func TestJumpFloodSingleSeedIsExact(t *testing.T) {
	grids := []VoxelGrid{
		Volume{Size: mgl32.Vec3{1, 1, 1}, Resolution: 8}.Grid(),
		Volume{Size: mgl32.Vec3{2, 1, 0.5}, Resolution: 13}.Grid(),
	}
	for _, grid := range grids {
		for _, quality := range []Quality{QualityNormal, QualityUltra} {
			seedIdx := []int{0, grid.VoxelCount() - 1, grid.Index(grid.Resolution[0]/2, grid.Resolution[1]-1, 0)}
			for _, s := range seedIdx {
				seeds := map[int]float32{s: 0}
				got := jumpFrom(t, grid, quality, seeds)
				want := bruteForce(grid, seeds)
				for i := range want {
					if got[i] != want[i] {
						x, y, z := grid.Coord(i)
						t.Fatalf("grid %v %s seed %d: (%d,%d,%d) = %v, want %v",
							grid.Resolution, quality, s, x, y, z, got[i], want[i])
					}
				}
			}
		}
	}
}

func TestJumpFloodPlaneIsExact(t *testing.T) {
	grid := Volume{Size: mgl32.Vec3{1, 1, 1}, Resolution: 11}.Grid()
	seeds := map[int]float32{}
	for z := 0; z < grid.Resolution[2]; z++ {
		for y := 0; y < grid.Resolution[1]; y++ {
			seeds[grid.Index(3, y, z)] = 0
		}
	}
	for _, quality := range []Quality{QualityNormal, QualityUltra} {
		got := jumpFrom(t, grid, quality, seeds)
		for i, d := range got {
			x, _, _ := grid.Coord(i)
			want := float32(abs(x-3)) * grid.CellSize
			if d != want {
				t.Fatalf("%s: voxel %d = %v, want %v", quality, i, d, want)
			}
		}
	}
}

func TestJumpFloodRandomSeedsAreExact(t *testing.T) {
	grid := Volume{Size: mgl32.Vec3{1, 1, 1}, Resolution: 8}.Grid()
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 60; trial++ {
		seeds := map[int]float32{}
		count := 2 + rng.Intn(10)
		for len(seeds) < count {
			seeds[rng.Intn(grid.VoxelCount())] = 0
		}
		want := bruteForce(grid, seeds)
		for _, quality := range []Quality{QualityNormal, QualityUltra} {
			got := jumpFrom(t, grid, quality, seeds)
			for i := range got {
				if got[i] != want[i] {
					x, y, z := grid.Coord(i)
					t.Fatalf("trial %d %s (%d seeds): (%d,%d,%d) = %v, brute force %v",
						trial, quality, count, x, y, z, got[i], want[i])
				}
			}
		}
	}
}

func TestJumpFloodSeedKeepsSplatDistance(t *testing.T) {
	grid := smallGrid()
	s := grid.Index(2, 2, 2)
	got := jumpFrom(t, grid, QualityNormal, map[int]float32{s: -0.03})
	if got[s] != 0.03 {
		t.Fatalf("seed voxel = %v, want 0.03", got[s])
	}
	if d := got[grid.Index(3, 2, 2)]; d != grid.CellSize {
		t.Fatalf("neighbour = %v, want %v", d, grid.CellSize)
	}
}

func TestJumpFloodWithoutSeeds(t *testing.T) {
	grid := smallGrid()
	got := jumpFrom(t, grid, QualityUltra, nil)
	far := grid.MaxDistance()
	for i, d := range got {
		if d != far {
			t.Fatalf("voxel %d = %v, want far", i, d)
		}
	}
}

func TestJumpFloodPassCounts(t *testing.T) {
	grid := Volume{Size: mgl32.Vec3{4, 1, 1}, Resolution: 16}.Grid()
	var bufs buffers
	bufs.ensure(grid.VoxelCount(), true)
	for i := range bufs.seeds[0] {
		bufs.seeds[0][i] = NoSeed
	}
	// 16x4x4: steps 8 and 4 skip the short axes; the correction sweeps follow.
	_, passes, err := jumpFlood(context.Background(), nil, &bufs, grid, QualityNormal)
	if err != nil {
		t.Fatalf("jumpFlood failed: %v", err)
	}
	if want := 1 + 1 + 3 + 3 + len(jumpRefineSteps); passes != want {
		t.Fatalf("normal passes = %d, want %d", passes, want)
	}
	_, passes, err = jumpFlood(context.Background(), nil, &bufs, grid, QualityUltra)
	if err != nil {
		t.Fatalf("jumpFlood failed: %v", err)
	}
	if want := JumpPassCount(16) + len(jumpRefineSteps); passes != want {
		t.Fatalf("ultra passes = %d, want %d", passes, want)
	}
}
