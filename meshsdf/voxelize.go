package meshsdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SplatRadius is how far, in cells, a triangle splats beyond its bounding box.
const SplatRadius = 1

// initializeDistances fills dst with the sentinel.
func initializeDistances(p *workerPool, dst []float32, sentinel float32) {
	p.dispatch(len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = sentinel
		}
	})
}

// splatTriangles writes, for every voxel near a triangle, the distance from
// the voxel center to the closest triangle. When signed is set the sign comes
// from the side of the triangle plane the voxel lies on. Distances at or
// beyond far carry no information and are dropped.
func splatTriangles(p *workerPool, dst []float32, snap *MeshSnapshot, grid VoxelGrid, signed bool, far float32) {
	p.dispatch(snap.TriangleCount(), func(lo, hi int) {
		for t := lo; t < hi; t++ {
			splatTriangle(dst, snap, grid, t, signed, far)
		}
	})
}

func splatTriangle(dst []float32, snap *MeshSnapshot, grid VoxelGrid, t int, signed bool, far float32) {
	a, b, c := snap.Triangle(t)
	if !finite(a) || !finite(b) || !finite(c) {
		return
	}
	lo, hi, ok := triangleVoxelRange(grid, a, b, c)
	if !ok {
		return
	}
	n := b.Sub(a).Cross(c.Sub(a))
	// Zero-area triangles have no plane; their distances stay positive.
	oriented := signed && n.Dot(n) > 0

	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				v := grid.VoxelCenter(x, y, z)
				d := PointTriangleDistance(v, a, b, c)
				if !(d < far) {
					continue
				}
				if oriented && d > 0 && n.Dot(v.Sub(a)) < 0 {
					d = -d
				}
				atomicMinDistance(&dst[grid.Index(x, y, z)], d)
			}
		}
	}
}

// triangleVoxelRange returns the inclusive voxel range whose centers lie
// within SplatRadius cells of the triangle's bounding box, clipped to the grid.
func triangleVoxelRange(grid VoxelGrid, a, b, c mgl32.Vec3) (lo, hi [3]int, ok bool) {
	inv := 1 / grid.CellSize
	for k := 0; k < 3; k++ {
		mn := math32.Min(a[k], math32.Min(b[k], c[k]))
		mx := math32.Max(a[k], math32.Max(b[k], c[k]))
		l := (mn-grid.Origin[k])*inv - SplatRadius - 0.5
		h := (mx-grid.Origin[k])*inv + SplatRadius - 0.5
		last := float32(grid.Resolution[k] - 1)
		if h < 0 || l > last {
			return lo, hi, false
		}
		lo[k] = int(math32.Ceil(math32.Max(l, 0)))
		hi[k] = int(math32.Floor(math32.Min(h, last)))
		if lo[k] > hi[k] {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

// finalizeSplat turns voxels no triangle reached into +far, a finite value
// the flood stages treat as "not informed yet".
func finalizeSplat(p *workerPool, dst []float32, sentinel, far float32) {
	p.dispatch(len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if !(math32.Abs(dst[i]) < sentinel) {
				dst[i] = far
			}
		}
	})
}

// PointTriangleDistance returns the unsigned distance from p to the triangle
// (a, b, c).
func PointTriangleDistance(p, a, b, c mgl32.Vec3) float32 {
	return p.Sub(ClosestPointOnTriangle(p, a, b, c)).Len()
}

// ClosestPointOnTriangle returns the point of triangle (a, b, c) closest to p,
// found by classifying p against the Voronoi regions of the vertices, edges and
// face. Degenerate triangles fall back to the closest of their edges.
func ClosestPointOnTriangle(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	if n := ab.Cross(ac); n.Dot(n) == 0 {
		return closestPointOnEdges(p, a, b, c)
	}

	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := va + vb + vc
	if !(denom > 0) {
		return closestPointOnEdges(p, a, b, c)
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

func closestPointOnEdges(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	best := closestPointOnSegment(p, a, b)
	bestD := p.Sub(best)
	for _, q := range [2]mgl32.Vec3{closestPointOnSegment(p, b, c), closestPointOnSegment(p, c, a)} {
		if d := p.Sub(q); d.Dot(d) < bestD.Dot(bestD) {
			best, bestD = q, d
		}
	}
	return best
}

func closestPointOnSegment(p, a, b mgl32.Vec3) mgl32.Vec3 {
	ab := b.Sub(a)
	l := ab.Dot(ab)
	if l == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l
	t = math32.Max(0, math32.Min(1, t))
	return a.Add(ab.Mul(t))
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
