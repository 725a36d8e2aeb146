package meshsdf

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
)

// defaultIsoCells is the marching cubes resolution along the longest axis.
const defaultIsoCells = 64

// fieldSDF3 exposes a Field as an sdfx solid whose surface is the iso level.
type fieldSDF3 struct {
	f   *Field
	iso float32
	bb  sdf.Box3
}

func (s *fieldSDF3) Evaluate(p v3.Vec) float64 {
	return float64(s.f.Sample(mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}) - s.iso)
}

func (s *fieldSDF3) BoundingBox() sdf.Box3 { return s.bb }

// SDF3 wraps the field for use with the sdfx renderers and combinators. The
// bounding box is the grid box.
func (f *Field) SDF3() sdf.SDF3 {
	return f.isoSDF3(0)
}

func (f *Field) isoSDF3(iso float32) sdf.SDF3 {
	lo, hi := f.Grid.Bounds()
	return &fieldSDF3{
		f:   f,
		iso: iso,
		bb: sdf.Box3{
			Min: v3.Vec{X: float64(lo.X()), Y: float64(lo.Y()), Z: float64(lo.Z())},
			Max: v3.Vec{X: float64(hi.X()), Y: float64(hi.Y()), Z: float64(hi.Z())},
		},
	}
}

// Isosurface extracts the surface where the field equals iso with uniform
// marching cubes. cells <= 0 uses a default resolution.
func Isosurface(f *Field, iso float32, cells int) (*Mesh, error) {
	if f == nil || f.Grid.Empty() {
		return nil, ErrEmptyVolume
	}
	return MeshFromSDF3(f.isoSDF3(iso), cells), nil
}

// MeshFromSDF3 tessellates s with uniform marching cubes. Every triangle
// corner gets its own vertex.
func MeshFromSDF3(s sdf.SDF3, cells int) *Mesh {
	if cells <= 0 {
		cells = defaultIsoCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	positions := make([]mgl32.Vec3, 0, len(triangles)*3)
	indices := make([]uint32, 0, len(triangles)*3)
	for _, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			indices = append(indices, uint32(len(positions)))
			positions = append(positions, mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)})
		}
	}
	return &Mesh{
		Name:        "isosurface",
		Topology:    TopologyTriangles,
		Positions:   positions,
		Indices:     indices,
		IndexFormat: IndexFormat32,
	}
}

// ShapeNames lists the analytic shapes AnalyticShape knows.
var ShapeNames = []string{"box", "sphere", "cylinder", "capsule"}

// AnalyticShape returns a unit-sized sdfx solid centered on the origin.
func AnalyticShape(name string) (sdf.SDF3, error) {
	switch strings.ToLower(name) {
	case "box":
		return sdf.Box3D(v3.Vec{X: 1, Y: 0.75, Z: 0.5}, 0.05)
	case "sphere":
		return sdf.Sphere3D(0.5)
	case "cylinder":
		return sdf.Cylinder3D(1, 0.4, 0.05)
	case "capsule":
		return sdf.Capsule3D(1, 0.3)
	}
	return nil, fmt.Errorf("unknown shape %q (want one of %s)", name, strings.Join(ShapeNames, ", "))
}
