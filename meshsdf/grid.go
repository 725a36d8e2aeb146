package meshsdf

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Limits caps the voxel resolution of a volume. MaxAxis bounds each axis
// (3D texture limit), MaxVoxels bounds the total voxel count (buffer limit).
type Limits struct {
	MaxAxis   int
	MaxVoxels int
}

// DefaultLimits mirrors the largest 3D texture and compute buffer a GPU
// implementation of the pipeline can address.
var DefaultLimits = Limits{MaxAxis: 2048, MaxVoxels: 1024 * 1024 * 1024 / 2}

// initialDistanceScale keeps INITIAL_DISTANCE strictly above any distance
// reachable inside the volume.
const initialDistanceScale = 1.01

// Volume describes the box an SDF is generated for. Resolution is the voxel
// count along X; Y and Z follow from the aspect ratio of Size.
type Volume struct {
	Center     mgl32.Vec3
	Size       mgl32.Vec3
	Resolution int
}

func (v Volume) valid() bool {
	for i := 0; i < 3; i++ {
		s := v.Size[i]
		if !(s > 0) || math32.IsInf(s, 0) {
			return false
		}
	}
	return v.Resolution > 0
}

// MaxResolution returns the largest X resolution whose derived grid stays
// inside the voxel budget:
//
//	res * (res*sy/sx) * (res*sz/sx) = maxVoxels
//	res^3 = maxVoxels * sx * sx / (sy * sz)
func (v Volume) MaxResolution(l Limits) int {
	if !v.valid() {
		return 0
	}
	sx, sy, sz := float64(v.Size.X()), float64(v.Size.Y()), float64(v.Size.Z())
	r := math.Cbrt(float64(l.MaxVoxels) * sx * sx / (sy * sz))
	if r > float64(l.MaxAxis) {
		return l.MaxAxis
	}
	return clampInt(int(r), 1, l.MaxAxis)
}

// Grid returns the voxel grid for the volume under DefaultLimits.
func (v Volume) Grid() VoxelGrid {
	return v.GridWithLimits(DefaultLimits)
}

// GridWithLimits quantizes the volume to cubic voxels. The effective extent is
// resolution*cellSize, so it can be slightly smaller than Size on Y and Z.
// An invalid volume yields the empty grid.
func (v Volume) GridWithLimits(l Limits) VoxelGrid {
	if !v.valid() || l.MaxAxis <= 0 || l.MaxVoxels <= 0 {
		return VoxelGrid{}
	}
	sx, sy, sz := float64(v.Size.X()), float64(v.Size.Y()), float64(v.Size.Z())
	rx := clampInt(v.Resolution, 1, v.MaxResolution(l))
	var ry, rz int
	for {
		ry = clampInt(int(float64(rx)*sy/sx), 1, l.MaxAxis)
		rz = clampInt(int(float64(rx)*sz/sx), 1, l.MaxAxis)
		if rx*ry*rz <= l.MaxVoxels || rx == 1 {
			break
		}
		rx--
	}
	if rx*ry*rz > l.MaxVoxels {
		return VoxelGrid{}
	}
	cell := v.Size.X() / float32(rx)
	res := [3]int{rx, ry, rz}
	extent := mgl32.Vec3{float32(rx) * cell, float32(ry) * cell, float32(rz) * cell}
	return VoxelGrid{
		Resolution: res,
		Origin:     v.Center.Sub(extent.Mul(0.5)),
		CellSize:   cell,
	}
}

// VolumeAround returns a volume enclosing the box [min, max], grown by
// padding (a fraction of the largest side) on every side.
func VolumeAround(min, max mgl32.Vec3, padding float32, resolution int) Volume {
	size := max.Sub(min)
	largest := math32.Max(size.X(), math32.Max(size.Y(), size.Z()))
	if padding < 0 {
		padding = 0
	}
	pad := largest * padding
	for i := 0; i < 3; i++ {
		size[i] = math32.Max(size[i], largest*0.01) + 2*pad
	}
	return Volume{
		Center:     min.Add(max).Mul(0.5),
		Size:       size,
		Resolution: resolution,
	}
}

// VoxelGrid is the geometric addressing of a dense voxel volume. Voxel
// (x, y, z) covers [Origin + (x,y,z)*CellSize, Origin + (x+1,y+1,z+1)*CellSize).
type VoxelGrid struct {
	Resolution [3]int
	Origin     mgl32.Vec3
	CellSize   float32
}

// Empty reports whether the grid has no voxels.
func (g VoxelGrid) Empty() bool {
	return g.Resolution[0] <= 0 || g.Resolution[1] <= 0 || g.Resolution[2] <= 0 || !(g.CellSize > 0)
}

func (g VoxelGrid) VoxelCount() int {
	if g.Empty() {
		return 0
	}
	return g.Resolution[0] * g.Resolution[1] * g.Resolution[2]
}

// MaxDim is the largest per-axis resolution.
func (g VoxelGrid) MaxDim() int {
	return max(g.Resolution[0], g.Resolution[1], g.Resolution[2])
}

// Index returns the flat index x + y*resX + z*resX*resY.
func (g VoxelGrid) Index(x, y, z int) int {
	return x + y*g.Resolution[0] + z*g.Resolution[0]*g.Resolution[1]
}

// Coord is the inverse of Index.
func (g VoxelGrid) Coord(i int) (x, y, z int) {
	rx, ry := g.Resolution[0], g.Resolution[1]
	x = i % rx
	y = (i / rx) % ry
	z = i / (rx * ry)
	return
}

func (g VoxelGrid) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Resolution[0] && y < g.Resolution[1] && z < g.Resolution[2]
}

// Extent is the world-space size of the grid (resolution * cellSize).
func (g VoxelGrid) Extent() mgl32.Vec3 {
	if g.Empty() {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{
		float32(g.Resolution[0]) * g.CellSize,
		float32(g.Resolution[1]) * g.CellSize,
		float32(g.Resolution[2]) * g.CellSize,
	}
}

// Bounds returns the world-space box covered by the grid. The empty grid has
// zero-extent bounds.
func (g VoxelGrid) Bounds() (min, max mgl32.Vec3) {
	return g.Origin, g.Origin.Add(g.Extent())
}

func (g VoxelGrid) Center() mgl32.Vec3 {
	return g.Origin.Add(g.Extent().Mul(0.5))
}

// VoxelCenter returns the world-space center of voxel (x, y, z).
func (g VoxelGrid) VoxelCenter(x, y, z int) mgl32.Vec3 {
	return mgl32.Vec3{
		g.Origin.X() + (float32(x)+0.5)*g.CellSize,
		g.Origin.Y() + (float32(y)+0.5)*g.CellSize,
		g.Origin.Z() + (float32(z)+0.5)*g.CellSize,
	}
}

// WorldToVoxel maps world space to continuous voxel space, where voxel
// (x, y, z) spans [x, x+1) and its center sits at x+0.5.
func (g VoxelGrid) WorldToVoxel() mgl32.Mat4 {
	if g.Empty() {
		return mgl32.Ident4()
	}
	s := 1 / g.CellSize
	return mgl32.Scale3D(s, s, s).Mul4(mgl32.Translate3D(-g.Origin.X(), -g.Origin.Y(), -g.Origin.Z()))
}

// VoxelToWorld is the inverse of WorldToVoxel.
func (g VoxelGrid) VoxelToWorld() mgl32.Mat4 {
	if g.Empty() {
		return mgl32.Ident4()
	}
	s := g.CellSize
	return mgl32.Translate3D(g.Origin.X(), g.Origin.Y(), g.Origin.Z()).Mul4(mgl32.Scale3D(s, s, s))
}

// MaxDistance is the diagonal of the grid, the largest distance two points
// inside it can have.
func (g VoxelGrid) MaxDistance() float32 {
	return g.Extent().Len()
}

// InitialDistance is the sentinel written before splatting.
func (g VoxelGrid) InitialDistance() float32 {
	return g.MaxDistance() * initialDistanceScale
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
