package meshsdf

import "github.com/go-gl/mathgl/mgl32"

type faceDir struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

var faceDirs = []faceDir{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

// blockMesher turns the voxels of a field below a threshold into a blocky,
// watertight surface.
type blockMesher struct {
	f         *Field
	threshold float32
	mesh      *Mesh
}

func (b *blockMesher) solid(x, y, z int) bool {
	if !b.f.Grid.Contains(x, y, z) {
		return false
	}
	return b.f.At(x, y, z) < b.threshold
}

// addQuad appends the face of size w x h starting at voxel-space corner start
// ({perp, u, v}), wound counter-clockwise seen from outside.
func (b *blockMesher) addQuad(dir faceDir, start [3]int, w, h, perp int) {
	var base [3]float32
	base[perp] = float32(start[0])
	if dir.normal[perp] > 0 {
		base[perp]++
	}
	base[dir.u] = float32(start[1])
	base[dir.v] = float32(start[2])

	corner := func(su, sv int) mgl32.Vec3 {
		var p mgl32.Vec3
		for k := 0; k < 3; k++ {
			p[k] = base[k] + float32(dir.du[k]*su+dir.dv[k]*sv)
		}
		return mgl32.TransformCoordinate(p, b.f.Grid.VoxelToWorld())
	}
	verts := [4]mgl32.Vec3{corner(0, 0), corner(h, 0), corner(h, w), corner(0, w)}
	if (dir.normal[perp] < 0) != (perp == 1) {
		verts[1], verts[3] = verts[3], verts[1]
	}

	m := b.mesh
	i := uint32(len(m.Positions))
	m.Positions = append(m.Positions, verts[:]...)
	m.Indices = append(m.Indices, i, i+1, i+2, i, i+2, i+3)
}

// GenerateBlockMesh greedy-meshes every voxel whose distance is below
// threshold. With threshold 0 on a signed field this is the voxelized
// interior of the mesh the field was generated from.
func GenerateBlockMesh(f *Field, threshold float32) *Mesh {
	b := &blockMesher{
		f:         f,
		threshold: threshold,
		mesh:      &Mesh{Name: "blocks", Topology: TopologyTriangles, IndexFormat: IndexFormat32, Indices: []uint32{}},
	}
	if f == nil || f.Grid.Empty() {
		return b.mesh
	}
	dims := f.Grid.Resolution

	for _, dir := range faceDirs {
		perp := 3 - dir.u - dir.v
		nu, nv := dims[dir.u], dims[dir.v]
		mask := make([]bool, nu*nv)
		visited := make([]bool, nu*nv)

		for p := 0; p < dims[perp]; p++ {
			clear(mask)
			clear(visited)
			for u := 0; u < nu; u++ {
				for v := 0; v < nv; v++ {
					var pos [3]int
					pos[dir.u], pos[dir.v], pos[perp] = u, v, p
					if !b.solid(pos[0], pos[1], pos[2]) {
						continue
					}
					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp]--
					} else {
						adj[perp]++
					}
					mask[u*nv+v] = !b.solid(adj[0], adj[1], adj[2])
				}
			}

			for u := 0; u < nu; u++ {
				for v := 0; v < nv; {
					if !mask[u*nv+v] || visited[u*nv+v] {
						v++
						continue
					}
					width := 1
					for w := v + 1; w < nv && mask[u*nv+w] && !visited[u*nv+w]; w++ {
						width++
					}
					height := 1
				grow:
					for h := u + 1; h < nu; h++ {
						for w := v; w < v+width; w++ {
							if !mask[h*nv+w] || visited[h*nv+w] {
								break grow
							}
						}
						height++
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[hu*nv+hv] = true
						}
					}
					b.addQuad(dir, [3]int{p, u, v}, width, height, perp)
					v += width
				}
			}
		}
	}
	return b.mesh
}
