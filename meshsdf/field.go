package meshsdf

import (
	"encoding/binary"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
)

// Target receives the finished field. The finalizer writes distinct indices
// from several goroutines at once, so SetDistance must allow that.
type Target interface {
	Resolution() [3]int
	SetDistance(index int, d float32)
}

// GradientTarget is a Target that can also store a gradient per voxel.
type GradientTarget interface {
	Target
	SetGradient(index int, g mgl32.Vec3)
}

// Field is a dense float32 distance field on a voxel grid.
type Field struct {
	Grid      VoxelGrid
	Signed    bool
	Distances []float32
	// Gradients is nil unless the field was created with gradients.
	Gradients []mgl32.Vec3
}

// NewField allocates a zeroed field for grid.
func NewField(grid VoxelGrid, gradients bool) *Field {
	f := &Field{
		Grid:      grid,
		Distances: make([]float32, grid.VoxelCount()),
	}
	if gradients {
		f.Gradients = make([]mgl32.Vec3, grid.VoxelCount())
	}
	return f
}

func (f *Field) Resolution() [3]int { return f.Grid.Resolution }

func (f *Field) SetDistance(i int, d float32) { f.Distances[i] = d }

// HasGradients reports whether the field holds a gradient per voxel.
func (f *Field) HasGradients() bool { return f.Gradients != nil && len(f.Gradients) == len(f.Distances) }

// SetGradient stores g; it is a no-op on a field without gradients.
func (f *Field) SetGradient(i int, g mgl32.Vec3) {
	if f.Gradients != nil {
		f.Gradients[i] = g
	}
}

// At returns the distance stored at voxel (x, y, z).
func (f *Field) At(x, y, z int) float32 {
	return f.Distances[f.Grid.Index(x, y, z)]
}

// Gradient returns the stored gradient at voxel (x, y, z), or zero.
func (f *Field) Gradient(x, y, z int) mgl32.Vec3 {
	if f.Gradients == nil {
		return mgl32.Vec3{}
	}
	return f.Gradients[f.Grid.Index(x, y, z)]
}

// Sample interpolates the field trilinearly at world position p. Positions
// outside the voxel centers are clamped to the nearest border voxel.
func (f *Field) Sample(p mgl32.Vec3) float32 {
	g := f.Grid
	if g.Empty() || len(f.Distances) == 0 {
		return 0
	}
	var i0, i1 [3]int
	var t [3]float32
	for k := 0; k < 3; k++ {
		u := (p[k]-g.Origin[k])/g.CellSize - 0.5
		last := g.Resolution[k] - 1
		if !(u > 0) {
			u = 0
		}
		if u > float32(last) {
			u = float32(last)
		}
		fl := math32.Floor(u)
		i0[k] = int(fl)
		i1[k] = min(i0[k]+1, last)
		t[k] = u - fl
	}
	c := func(x, y, z int) float32 { return f.Distances[g.Index(x, y, z)] }
	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }

	c00 := lerp(c(i0[0], i0[1], i0[2]), c(i1[0], i0[1], i0[2]), t[0])
	c10 := lerp(c(i0[0], i1[1], i0[2]), c(i1[0], i1[1], i0[2]), t[0])
	c01 := lerp(c(i0[0], i0[1], i1[2]), c(i1[0], i0[1], i1[2]), t[0])
	c11 := lerp(c(i0[0], i1[1], i1[2]), c(i1[0], i1[1], i1[2]), t[0])
	return lerp(lerp(c00, c10, t[1]), lerp(c01, c11, t[1]), t[2])
}

// Range returns the smallest and largest stored distance.
func (f *Field) Range() (lo, hi float32) {
	if len(f.Distances) == 0 {
		return 0, 0
	}
	lo, hi = f.Distances[0], f.Distances[0]
	for _, d := range f.Distances[1:] {
		lo = math32.Min(lo, d)
		hi = math32.Max(hi, d)
	}
	return lo, hi
}

// Checksum hashes the raw distance bits. Two runs on the same input give the
// same checksum.
func (f *Field) Checksum() uint64 {
	return checksumFloats(f.Distances)
}

func checksumFloats(v []float32) uint64 {
	d := xxhash.New()
	var b [4]byte
	for _, x := range v {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(x))
		_, _ = d.Write(b[:])
	}
	return d.Sum64()
}

// Half converts the distances to half precision. Gradients are dropped.
func (f *Field) Half() *HalfField {
	h := NewHalfField(f.Grid)
	h.Signed = f.Signed
	for i, d := range f.Distances {
		h.Distances[i] = float16.Fromfloat32(d)
	}
	return h
}

// HalfField is a distance field stored as IEEE 754 half floats, the smallest
// precision the output contract allows.
type HalfField struct {
	Grid      VoxelGrid
	Signed    bool
	Distances []float16.Float16
}

func NewHalfField(grid VoxelGrid) *HalfField {
	return &HalfField{Grid: grid, Distances: make([]float16.Float16, grid.VoxelCount())}
}

func (h *HalfField) Resolution() [3]int { return h.Grid.Resolution }

func (h *HalfField) SetDistance(i int, d float32) { h.Distances[i] = float16.Fromfloat32(d) }

func (h *HalfField) At(x, y, z int) float32 {
	return h.Distances[h.Grid.Index(x, y, z)].Float32()
}

// Float widens the field back to float32.
func (h *HalfField) Float() *Field {
	f := NewField(h.Grid, false)
	f.Signed = h.Signed
	for i, d := range h.Distances {
		f.Distances[i] = d.Float32()
	}
	return f
}
