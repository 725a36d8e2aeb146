package api

import (
	"context"
	"fmt"

	"github.com/voxelsplace/meshsdf/meshsdf"
)

// Settings drives a mesh to field conversion.
type Settings struct {
	// Resolution is the voxel count along X of the volume around the mesh.
	Resolution int
	// Padding grows the mesh bounds by this fraction of their largest side.
	Padding float32
	Options []meshsdf.Option
	Encode  meshsdf.EncodeOptions
}

// DefaultSettings matches the defaults of the command line tool.
func DefaultSettings() Settings {
	return Settings{Resolution: 64, Padding: 0.1}
}

// MeshToField voxelizes m into a volume fitted around its bounds after the
// transform in s.Options.
func MeshToField(ctx context.Context, m meshsdf.MeshSource, s Settings) (*meshsdf.Field, error) {
	if m == nil {
		return nil, meshsdf.ErrNoMesh
	}
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	// The volume has to hold the mesh where the generator will place it.
	o := meshsdf.ResolveOptions(s.Options...)
	lo, hi := snap.Transformed(o.Transform).Bounds()
	grid := meshsdf.VolumeAround(lo, hi, s.Padding, s.Resolution).Grid()
	return meshsdf.RunOnce(ctx, m, grid, s.Options...)
}

// GLBToFieldBytes converts .glb bytes to .msdf bytes.
func GLBToFieldBytes(ctx context.Context, glb []byte, s Settings) ([]byte, error) {
	m, err := meshsdf.DecodeGLB(glb)
	if err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	f, err := MeshToField(ctx, m, s)
	if err != nil {
		return nil, err
	}
	return meshsdf.SaveFieldToBytes(f, s.Encode)
}

// CubeToFieldBytes generates the field of a unit cube centered in a volume
// of twice its size.
func CubeToFieldBytes(ctx context.Context, s Settings) ([]byte, error) {
	vol := meshsdf.Volume{Size: [3]float32{2, 2, 2}, Resolution: s.Resolution}
	grid := vol.Grid()
	f, err := meshsdf.RunOnce(ctx, meshsdf.Cube([3]float32{}, 1), grid, s.Options...)
	if err != nil {
		return nil, err
	}
	return meshsdf.SaveFieldToBytes(f, s.Encode)
}

// FieldToGLB extracts the iso surface of a .msdf file as .glb bytes.
func FieldToGLB(fieldBytes []byte, iso float32, cells int) ([]byte, error) {
	f, err := meshsdf.LoadFieldFromBytes(fieldBytes)
	if err != nil {
		return nil, err
	}
	m, err := meshsdf.Isosurface(f, iso, cells)
	if err != nil {
		return nil, err
	}
	if len(m.Positions) == 0 {
		return nil, fmt.Errorf("no surface at iso level %g (field range %s)", iso, rangeString(f))
	}
	return meshsdf.EncodeGLB(m, "MSDF -> GLB (isosurface)")
}

// FieldBlocksToGLB greedy-meshes the voxels below threshold as .glb bytes.
func FieldBlocksToGLB(fieldBytes []byte, threshold float32) ([]byte, error) {
	f, err := meshsdf.LoadFieldFromBytes(fieldBytes)
	if err != nil {
		return nil, err
	}
	m := meshsdf.GenerateBlockMesh(f, threshold)
	if len(m.Positions) == 0 {
		return nil, fmt.Errorf("no voxel below %g (field range %s)", threshold, rangeString(f))
	}
	return meshsdf.EncodeGLB(m, "MSDF -> GLB (blocks)")
}

// ShapeToGLB tessellates one of the analytic sdfx shapes, or the 12 triangle
// cube for "cube".
func ShapeToGLB(name string, cells int) ([]byte, error) {
	if name == "cube" {
		return meshsdf.EncodeGLB(meshsdf.Cube([3]float32{}, 1), "meshsdf cube")
	}
	s, err := meshsdf.AnalyticShape(name)
	if err != nil {
		return nil, err
	}
	m := meshsdf.MeshFromSDF3(s, cells)
	m.Name = name
	return meshsdf.EncodeGLB(m, "sdfx "+name)
}

// Info summarizes a .msdf file.
type Info struct {
	Header      meshsdf.FieldHeader
	Grid        meshsdf.VoxelGrid
	Min, Max    float32
	Checksum    uint64
	EncodedSize int
}

func FieldInfo(fieldBytes []byte) (Info, error) {
	hdr, _, _, err := meshsdf.ParseFieldHeaderFromBytes(fieldBytes)
	if err != nil {
		return Info{}, err
	}
	f, err := meshsdf.LoadFieldFromBytes(fieldBytes)
	if err != nil {
		return Info{}, err
	}
	lo, hi := f.Range()
	return Info{
		Header:      hdr,
		Grid:        f.Grid,
		Min:         lo,
		Max:         hi,
		Checksum:    f.Checksum(),
		EncodedSize: len(fieldBytes),
	}, nil
}

func (i Info) String() string {
	h := i.Header
	format := "float32"
	if h.Half() {
		format = "float16"
	}
	order := "linear"
	if h.Morton() {
		order = "morton"
	}
	return fmt.Sprintf("MSDF v%d\nresolution: %dx%dx%d\ncell size: %g\norigin: %v\nsamples: %s, %s order, %s\nsigned: %t\ngradient: %t\nrange: [%g, %g]\nchecksum: %016x\nsize: %d bytes",
		h.Ver, i.Grid.Resolution[0], i.Grid.Resolution[1], i.Grid.Resolution[2],
		i.Grid.CellSize, i.Grid.Origin, format, order, h.Compression(),
		h.Signed(), h.Gradient(), i.Min, i.Max, i.Checksum, i.EncodedSize)
}

func rangeString(f *meshsdf.Field) string {
	lo, hi := f.Range()
	return fmt.Sprintf("[%g, %g]", lo, hi)
}
