package meshsdf

import (
	"testing"

	"github.com/chewxy/math32"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
)

// rampField stores the world x coordinate of every voxel center.
func rampField() *Field {
	grid := Volume{Size: mgl32.Vec3{2, 1, 1}, Resolution: 8}.Grid()
	f := NewField(grid, false)
	for i := range f.Distances {
		x, y, z := grid.Coord(i)
		f.Distances[i] = grid.VoxelCenter(x, y, z).X()
	}
	return f
}

func TestFieldSample(t *testing.T) {
	f := rampField()
	tests := []struct {
		name string
		p    mgl32.Vec3
		want float32
	}{
		{"voxel center", mgl32.Vec3{-0.375, 0, 0}, -0.375},
		{"between centers", mgl32.Vec3{0.1, 0.1, -0.2}, 0.1},
		{"clamped low", mgl32.Vec3{-5, 0, 0}, -0.875},
		{"clamped high", mgl32.Vec3{5, 3, -3}, 0.875},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Sample(tt.p); math32.Abs(got-tt.want) > 1e-5 {
				t.Fatalf("Sample(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
	if got := (&Field{}).Sample(mgl32.Vec3{}); got != 0 {
		t.Fatalf("empty field sample = %v", got)
	}
}

func TestFieldAccessors(t *testing.T) {
	f := rampField()
	lo, hi := f.Range()
	if lo != -0.875 || hi != 0.875 {
		t.Fatalf("Range = %v, %v", lo, hi)
	}
	if f.Resolution() != [3]int{8, 4, 4} {
		t.Fatalf("Resolution = %v", f.Resolution())
	}
	if f.Gradient(1, 1, 1) != (mgl32.Vec3{}) {
		t.Fatalf("field without gradients returned one")
	}
	f.SetGradient(0, mgl32.Vec3{1, 0, 0})

	sum := f.Checksum()
	if sum != rampField().Checksum() {
		t.Fatalf("equal fields have different checksums")
	}
	f.SetDistance(3, 42)
	if f.At(3, 0, 0) != 42 {
		t.Fatalf("At(3,0,0) = %v", f.At(3, 0, 0))
	}
	if f.Checksum() == sum {
		t.Fatalf("checksum did not change")
	}
}

func TestHalfField(t *testing.T) {
	f := rampField()
	f.Signed = true
	h := f.Half()
	if !h.Signed || h.Grid != f.Grid {
		t.Fatalf("half field lost its metadata")
	}
	back := h.Float()
	for i, d := range f.Distances {
		// Every ramp value is a multiple of 1/8, exact in half precision.
		if back.Distances[i] != d {
			t.Fatalf("voxel %d: %v became %v", i, d, back.Distances[i])
		}
	}
	h.SetDistance(0, 0.1)
	if got := h.At(0, 0, 0); math32.Abs(got-0.1) > 1e-3 || got == 0.1 {
		t.Fatalf("half precision 0.1 = %v", got)
	}
}

func TestFieldSDF3(t *testing.T) {
	f := rampField()
	s := f.SDF3()
	bb := s.BoundingBox()
	if bb.Min.X != -1 || bb.Max.X != 1 || bb.Min.Y != -0.5 || bb.Max.Z != 0.5 {
		t.Fatalf("BoundingBox = %+v", bb)
	}
	if d := s.Evaluate(v3.Vec{X: 0.25}); d < 0.249 || d > 0.251 {
		t.Fatalf("Evaluate = %v, want 0.25", d)
	}
}

func TestIsosurfaceOfCube(t *testing.T) {
	grid := testGrid()
	f := generate(t, testCube(), grid, WithIterations(8))
	m, err := Isosurface(f, 0, 32)
	if err != nil {
		t.Fatalf("Isosurface failed: %v", err)
	}
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		t.Fatalf("got %d positions", len(m.Positions))
	}
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	lo, hi := snap.Bounds()
	// The zero crossing lies on the cube faces, give or take one cell.
	want := mgl32.Vec3{-0.4375, -0.4375, -0.4375}
	if !vecNear(lo, want, 0.15) {
		t.Fatalf("lower bound %v, want about %v", lo, want)
	}
	want = mgl32.Vec3{0.5625, 0.5625, 0.5625}
	if !vecNear(hi, want, 0.15) {
		t.Fatalf("upper bound %v, want about %v", hi, want)
	}

	if _, err := Isosurface(nil, 0, 8); err == nil {
		t.Fatalf("Isosurface of nil field should fail")
	}
}

func TestAnalyticShapes(t *testing.T) {
	for _, name := range ShapeNames {
		t.Run(name, func(t *testing.T) {
			s, err := AnalyticShape(name)
			if err != nil {
				t.Fatalf("AnalyticShape failed: %v", err)
			}
			m := MeshFromSDF3(s, 16)
			if m.TriangleCount() == 0 {
				t.Fatalf("no triangles")
			}
			if _, err := m.Snapshot(); err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
		})
	}
	if _, err := AnalyticShape("torus"); err == nil {
		t.Fatalf("unknown shape should fail")
	}
}

func TestSphereRoundTrip(t *testing.T) {
	s, err := AnalyticShape("sphere")
	if err != nil {
		t.Fatalf("AnalyticShape failed: %v", err)
	}
	sphere := MeshFromSDF3(s, 24)
	grid := Volume{Size: mgl32.Vec3{1.5, 1.5, 1.5}, Resolution: 24}.Grid()
	f := generate(t, sphere, grid, WithIterations(12))

	// Winding decides which side is negative; the two sides must differ.
	inside := f.At(12, 12, 12)
	outside := f.At(21, 12, 12)
	if !(inside*outside < 0) {
		t.Fatalf("center %v and outside %v have the same sign", inside, outside)
	}
	if a := math32.Abs(inside); a < 0.35 || a > 0.6 {
		t.Fatalf("center distance magnitude = %v, want about 0.45", a)
	}
	if a := math32.Abs(outside); a > 0.15 {
		t.Fatalf("outside distance magnitude = %v, want about 0.09", a)
	}
}
