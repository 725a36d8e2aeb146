package meshsdf

import (
	"encoding/binary"
	"fmt"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// IndexFormat is the width of one entry in an index buffer.
type IndexFormat uint8

const (
	IndexFormat16 IndexFormat = 16
	IndexFormat32 IndexFormat = 32
)

// Size returns the byte width of one index, or 0 for an unknown format.
func (f IndexFormat) Size() int {
	switch f {
	case IndexFormat16:
		return 2
	case IndexFormat32:
		return 4
	}
	return 0
}

func (f IndexFormat) String() string {
	switch f {
	case IndexFormat16:
		return "uint16"
	case IndexFormat32:
		return "uint32"
	}
	return fmt.Sprintf("IndexFormat(%d)", uint8(f))
}

// Topology is the primitive layout of an index buffer. Only triangle lists
// can be voxelized.
type Topology uint8

const (
	TopologyTriangles Topology = iota
	TopologyTriangleStrip
	TopologyTriangleFan
	TopologyLines
	TopologyPoints
)

func (t Topology) String() string {
	switch t {
	case TopologyTriangles:
		return "triangles"
	case TopologyTriangleStrip:
		return "triangle-strip"
	case TopologyTriangleFan:
		return "triangle-fan"
	case TopologyLines:
		return "lines"
	case TopologyPoints:
		return "points"
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// MeshSource hands the pipeline an immutable triangle snapshot.
type MeshSource interface {
	Snapshot() (*MeshSnapshot, error)
}

// Mesh is a decoded triangle mesh. A nil Indices slice means the mesh is not
// indexed and every three consecutive positions form a triangle.
// IndexFormat records the width the indices came in; zero means 32-bit.
type Mesh struct {
	Name        string
	Topology    Topology
	Positions   []mgl32.Vec3
	Indices     []uint32
	IndexFormat IndexFormat
}

// TriangleCount returns the number of whole triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if m.Indices == nil {
		return len(m.Positions) / 3
	}
	return len(m.Indices) / 3
}

// Snapshot validates the mesh and copies it into an immutable snapshot.
func (m *Mesh) Snapshot() (*MeshSnapshot, error) {
	if m.Topology != TopologyTriangles {
		return nil, fmt.Errorf("mesh %q: %w (got %s)", m.Name, ErrTopology, m.Topology)
	}
	if len(m.Positions) == 0 {
		return nil, fmt.Errorf("mesh %q: %w", m.Name, ErrNoPositions)
	}
	format := m.IndexFormat
	if format == 0 {
		format = IndexFormat32
	}
	if format.Size() == 0 {
		return nil, fmt.Errorf("mesh %q: %w (%s)", m.Name, ErrIndexFormat, format)
	}

	positions := make([]mgl32.Vec3, len(m.Positions))
	copy(positions, m.Positions)

	var indices []uint32
	if m.Indices == nil {
		n := len(positions) / 3 * 3
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	} else {
		n := len(m.Indices) / 3 * 3
		indices = make([]uint32, n)
		copy(indices, m.Indices[:n])
	}
	if err := checkIndices(indices, len(positions), format); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	return &MeshSnapshot{positions: positions, indices: indices}, nil
}

// VertexBuffer is a raw, encoding-level view of a mesh: interleaved
// little-endian vertex data with a float3 position at PositionOffset within
// each Stride-sized vertex, and an index buffer whose entry width is given by
// IndexFormat. A negative PositionOffset means the stream carries no position.
type VertexBuffer struct {
	Name           string
	Topology       Topology
	Vertices       []byte
	Stride         int
	PositionOffset int
	Indices        []byte
	IndexFormat    IndexFormat
}

// Snapshot decodes positions and indices the way the splat kernel reads them.
func (b *VertexBuffer) Snapshot() (*MeshSnapshot, error) {
	if b.Topology != TopologyTriangles {
		return nil, fmt.Errorf("vertex buffer %q: %w (got %s)", b.Name, ErrTopology, b.Topology)
	}
	if b.PositionOffset < 0 {
		return nil, fmt.Errorf("vertex buffer %q: %w", b.Name, ErrNoPositions)
	}
	if b.Stride < b.PositionOffset+12 {
		return nil, fmt.Errorf("vertex buffer %q: %w (stride %d, offset %d)", b.Name, ErrStride, b.Stride, b.PositionOffset)
	}
	width := b.IndexFormat.Size()
	if width == 0 {
		return nil, fmt.Errorf("vertex buffer %q: %w (%s)", b.Name, ErrIndexFormat, b.IndexFormat)
	}

	vertexCount := 0
	if len(b.Vertices) >= b.PositionOffset+12 {
		vertexCount = (len(b.Vertices)-b.PositionOffset-12)/b.Stride + 1
	}
	if vertexCount == 0 {
		return nil, fmt.Errorf("vertex buffer %q: %w", b.Name, ErrNoPositions)
	}
	positions := make([]mgl32.Vec3, vertexCount)
	for i := range positions {
		o := i*b.Stride + b.PositionOffset
		positions[i] = mgl32.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(b.Vertices[o:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b.Vertices[o+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b.Vertices[o+8:])),
		}
	}

	count := len(b.Indices) / width / 3 * 3
	indices := make([]uint32, count)
	for i := range indices {
		if b.IndexFormat == IndexFormat16 {
			indices[i] = uint32(binary.LittleEndian.Uint16(b.Indices[i*2:]))
		} else {
			indices[i] = binary.LittleEndian.Uint32(b.Indices[i*4:])
		}
	}
	if err := checkIndices(indices, vertexCount, b.IndexFormat); err != nil {
		return nil, fmt.Errorf("vertex buffer %q: %w", b.Name, err)
	}
	return &MeshSnapshot{positions: positions, indices: indices}, nil
}

func checkIndices(indices []uint32, vertexCount int, format IndexFormat) error {
	limit := uint64(vertexCount)
	if format == IndexFormat16 && limit > 1<<16 {
		limit = 1 << 16
	}
	for i, idx := range indices {
		if uint64(idx) >= limit {
			return fmt.Errorf("%w: index %d = %d, %d vertices", ErrIndexRange, i, idx, vertexCount)
		}
	}
	return nil
}

// MeshSnapshot is the immutable triangle list one pipeline run reads.
type MeshSnapshot struct {
	positions []mgl32.Vec3
	indices   []uint32
}

// TriangleCount is indexCount/3.
func (s *MeshSnapshot) TriangleCount() int { return len(s.indices) / 3 }

func (s *MeshSnapshot) VertexCount() int { return len(s.positions) }

// Triangle returns the corners of triangle i.
func (s *MeshSnapshot) Triangle(i int) (a, b, c mgl32.Vec3) {
	return s.positions[s.indices[3*i]], s.positions[s.indices[3*i+1]], s.positions[s.indices[3*i+2]]
}

// Bounds returns the axis-aligned box of the referenced vertices.
func (s *MeshSnapshot) Bounds() (min, max mgl32.Vec3) {
	if len(s.indices) == 0 {
		return
	}
	min = s.positions[s.indices[0]]
	max = min
	for _, idx := range s.indices[1:] {
		p := s.positions[idx]
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return
}

// Transformed returns a snapshot with every position mapped through m.
func (s *MeshSnapshot) Transformed(m mgl32.Mat4) *MeshSnapshot {
	positions := make([]mgl32.Vec3, len(s.positions))
	for i, p := range s.positions {
		positions[i] = mgl32.TransformCoordinate(p, m)
	}
	return &MeshSnapshot{positions: positions, indices: s.indices}
}

// Fingerprint hashes the geometry, so callers can detect mesh changes
// between updates.
func (s *MeshSnapshot) Fingerprint() uint64 {
	d := xxhash.New()
	var b [12]byte
	for _, p := range s.positions {
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(p[2]))
		_, _ = d.Write(b[:])
	}
	for _, idx := range s.indices {
		binary.LittleEndian.PutUint32(b[0:], idx)
		_, _ = d.Write(b[:4])
	}
	return d.Sum64()
}

// cubeIndices lists the 12 outward-facing (counter-clockwise) triangles of a
// cube whose corner i sits at ((i>>0)&1, (i>>1)&1, (i>>2)&1).
var cubeIndices = []uint32{
	0, 4, 6, 0, 6, 2, // -X
	1, 3, 7, 1, 7, 5, // +X
	0, 1, 5, 0, 5, 4, // -Y
	2, 6, 7, 2, 7, 3, // +Y
	0, 2, 3, 0, 3, 1, // -Z
	4, 5, 7, 4, 7, 6, // +Z
}

// Cube returns a closed cube mesh with 8 vertices and 12 triangles.
func Cube(center mgl32.Vec3, size float32) *Mesh {
	positions := make([]mgl32.Vec3, 8)
	for i := range positions {
		positions[i] = mgl32.Vec3{
			center.X() + (float32(i&1)-0.5)*size,
			center.Y() + (float32((i>>1)&1)-0.5)*size,
			center.Z() + (float32((i>>2)&1)-0.5)*size,
		}
	}
	indices := make([]uint32, len(cubeIndices))
	copy(indices, cubeIndices)
	return &Mesh{
		Name:        "cube",
		Topology:    TopologyTriangles,
		Positions:   positions,
		Indices:     indices,
		IndexFormat: IndexFormat16,
	}
}
