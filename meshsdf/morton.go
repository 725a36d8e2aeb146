package meshsdf

import (
	"cmp"
	"slices"
)

// Morton3D interleaves the low 21 bits of x, y and z into a Z-order key.
func Morton3D(x, y, z uint32) uint64 {
	return part1By2(uint64(x)) |
		(part1By2(uint64(y)) << 1) |
		(part1By2(uint64(z)) << 2)
}

// MortonDecode3D is the inverse of Morton3D.
func MortonDecode3D(key uint64) (x, y, z uint32) {
	x = uint32(compact1By2(key))
	y = uint32(compact1By2(key >> 1))
	z = uint32(compact1By2(key >> 2))
	return
}

func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// mortonOrder returns the flat indices of grid in Z-order. Neighbouring
// voxels end up close in the stream, which helps the compressors on smooth
// fields.
func mortonOrder(grid VoxelGrid) []int32 {
	n := grid.VoxelCount()
	keys := make([]uint64, n)
	order := make([]int32, n)
	for i := range order {
		x, y, z := grid.Coord(i)
		keys[i] = Morton3D(uint32(x), uint32(y), uint32(z))
		order[i] = int32(i)
	}
	slices.SortFunc(order, func(a, b int32) int {
		return cmp.Compare(keys[a], keys[b])
	})
	return order
}
