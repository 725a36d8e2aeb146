package meshsdf

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func smallGrid() VoxelGrid {
	return Volume{Size: mgl32.Vec3{1, 1, 1}, Resolution: 8}.Grid()
}

func TestLinearSplatBuffer(t *testing.T) {
	for it, want := range []int{0, 1, 0, 1, 0} {
		if got := linearSplatBuffer(it); got != want {
			t.Fatalf("linearSplatBuffer(%d) = %d, want %d", it, got, want)
		}
	}
}

func TestLinearNeighbors(t *testing.T) {
	if n := len(linearNeighbors(QualityNormal)); n != 6 {
		t.Fatalf("normal quality has %d neighbours, want 6", n)
	}
	all := linearNeighbors(QualityUltra)
	if len(all) != 26 {
		t.Fatalf("ultra quality has %d neighbours, want 26", len(all))
	}
	for _, n := range all {
		want := math32.Sqrt(float32(n.dx*n.dx + n.dy*n.dy + n.dz*n.dz))
		if math32.Abs(n.cost-want) > 1e-6 {
			t.Fatalf("neighbour %+v has cost %v, want %v", n, n.cost, want)
		}
	}
}

// floodFrom runs iterations of the linear flood from a field that is far
// everywhere except the given voxels.
func floodFrom(t *testing.T, grid VoxelGrid, quality Quality, iterations int, seeds map[[3]int]float32) []float32 {
	t.Helper()
	var bufs buffers
	bufs.ensure(grid.VoxelCount(), false)
	far := grid.MaxDistance()
	splat := bufs.dist[linearSplatBuffer(iterations)]
	for i := range splat {
		splat[i] = far
	}
	for c, d := range seeds {
		splat[grid.Index(c[0], c[1], c[2])] = d
	}
	if err := linearFlood(context.Background(), nil, &bufs, grid, quality, iterations); err != nil {
		t.Fatalf("linearFlood failed: %v", err)
	}
	return bufs.dist[0]
}

func TestLinearFloodManhattan(t *testing.T) {
	grid := smallGrid()
	cell := grid.CellSize
	far := grid.MaxDistance()
	for _, iterations := range []int{1, 2, 3, 4} {
		out := floodFrom(t, grid, QualityNormal, iterations, map[[3]int]float32{{3, 3, 3}: 0})
		for i, d := range out {
			x, y, z := grid.Coord(i)
			k := abs(x-3) + abs(y-3) + abs(z-3)
			want := far
			if k <= iterations {
				want = float32(k) * cell
			}
			if math32.Abs(d-want) > 1e-5 {
				t.Fatalf("iterations=%d (%d,%d,%d) = %v, want %v", iterations, x, y, z, d, want)
			}
		}
	}
}

func TestLinearFloodUltraDiagonals(t *testing.T) {
	grid := smallGrid()
	cell := grid.CellSize
	out := floodFrom(t, grid, QualityUltra, 1, map[[3]int]float32{{3, 3, 3}: 0})
	tests := []struct {
		x, y, z int
		want    float32
	}{
		{4, 3, 3, cell},
		{4, 4, 3, math32.Sqrt(2) * cell},
		{4, 4, 4, math32.Sqrt(3) * cell},
		{2, 4, 2, math32.Sqrt(3) * cell},
	}
	for _, tt := range tests {
		if d := out[grid.Index(tt.x, tt.y, tt.z)]; math32.Abs(d-tt.want) > 1e-5 {
			t.Fatalf("(%d,%d,%d) = %v, want %v", tt.x, tt.y, tt.z, d, tt.want)
		}
	}
	if d := out[grid.Index(5, 3, 3)]; d != grid.MaxDistance() {
		t.Fatalf("two cells away after one iteration = %v, want far", d)
	}
}

func TestLinearFloodKeepsSign(t *testing.T) {
	grid := smallGrid()
	cell := grid.CellSize
	// A +0 surface voxel next to an inside voxel.
	out := floodFrom(t, grid, QualityNormal, 3, map[[3]int]float32{
		{3, 3, 3}: 0,
		{4, 3, 3}: -cell,
	})
	if d := out[grid.Index(4, 3, 3)]; d != -cell {
		t.Fatalf("inside voxel = %v, want %v", d, -cell)
	}
	if d := out[grid.Index(5, 3, 3)]; math32.Abs(d+2*cell) > 1e-6 {
		t.Fatalf("voxel behind the inside voxel = %v, want %v", d, -2*cell)
	}
	if d := out[grid.Index(2, 3, 3)]; math32.Abs(d-cell) > 1e-6 {
		t.Fatalf("outside voxel = %v, want %v", d, cell)
	}
	if d := out[grid.Index(3, 3, 3)]; d != 0 || math32.Signbit(d) {
		t.Fatalf("surface voxel = %v, want +0", d)
	}
}

func TestLinearFloodNeverGrows(t *testing.T) {
	grid := smallGrid()
	seeds := map[[3]int]float32{{1, 1, 1}: 0.01, {6, 2, 5}: -0.02, {3, 7, 0}: 0.3}
	prev := floodFrom(t, grid, QualityUltra, 0, seeds)
	prev = append([]float32(nil), prev...)
	for it := 1; it <= 6; it++ {
		cur := floodFrom(t, grid, QualityUltra, it, seeds)
		for i := range cur {
			if math32.Abs(cur[i]) > math32.Abs(prev[i]) {
				t.Fatalf("iteration %d grew voxel %d from %v to %v", it, i, prev[i], cur[i])
			}
		}
		prev = append(prev[:0], cur...)
	}
}

func TestLinearFloodCancelled(t *testing.T) {
	grid := smallGrid()
	var bufs buffers
	bufs.ensure(grid.VoxelCount(), false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := linearFlood(ctx, nil, &bufs, grid, QualityNormal, 4); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if err := linearFlood(ctx, nil, &bufs, grid, QualityNormal, 0); err != nil {
		t.Fatalf("zero iterations should not look at the context, got %v", err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
