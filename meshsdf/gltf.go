package meshsdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF reads a .gltf or .glb file and merges all its triangle primitives.
func LoadGLTF(filename string) (*Mesh, error) {
	doc, err := gltf.Open(filename)
	if err != nil {
		return nil, err
	}
	return MeshFromGLTF(doc)
}

// DecodeGLB parses an in-memory .glb (or embedded .gltf) document.
func DecodeGLB(data []byte) (*Mesh, error) {
	return DecodeGLTF(bytes.NewReader(data))
}

func DecodeGLTF(r io.Reader) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	return MeshFromGLTF(doc)
}

// MeshFromGLTF merges every primitive of every mesh in doc into one Mesh.
// Node transforms are not applied. The index format is 32-bit when any
// primitive uses 32-bit indices or the merged mesh outgrows 16-bit ones.
func MeshFromGLTF(doc *gltf.Document) (*Mesh, error) {
	out := &Mesh{Topology: TopologyTriangles, Indices: []uint32{}}
	wide := false
	for mi, m := range doc.Meshes {
		if out.Name == "" {
			out.Name = m.Name
		}
		for pi, prim := range m.Primitives {
			if t := primitiveTopology(prim.Mode); t != TopologyTriangles {
				return nil, fmt.Errorf("mesh %d primitive %d: %w (got %s)", mi, pi, ErrTopology, t)
			}
			pos, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, ErrNoPositions)
			}
			if pos < 0 || pos >= len(doc.Accessors) {
				return nil, fmt.Errorf("mesh %d primitive %d: %w (accessor %d of %d)", mi, pi, ErrNoPositions, pos, len(doc.Accessors))
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[pos], nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			base := uint32(len(out.Positions))
			for _, p := range positions {
				out.Positions = append(out.Positions, mgl32.Vec3(p))
			}

			if prim.Indices == nil {
				for i := 0; i+2 < len(positions); i += 3 {
					out.Indices = append(out.Indices, base+uint32(i), base+uint32(i+1), base+uint32(i+2))
				}
				continue
			}
			if ia := *prim.Indices; ia < 0 || ia >= len(doc.Accessors) {
				return nil, fmt.Errorf("mesh %d primitive %d: %w (accessor %d of %d)", mi, pi, ErrIndexFormat, ia, len(doc.Accessors))
			}
			acr := doc.Accessors[*prim.Indices]
			switch acr.ComponentType {
			case gltf.ComponentUbyte, gltf.ComponentUshort:
			case gltf.ComponentUint:
				wide = true
			default:
				return nil, fmt.Errorf("mesh %d primitive %d: %w (component type %v)", mi, pi, ErrIndexFormat, acr.ComponentType)
			}
			indices, err := modeler.ReadIndices(doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			for _, idx := range indices[:len(indices)/3*3] {
				out.Indices = append(out.Indices, base+idx)
			}
		}
	}
	if len(out.Positions) == 0 {
		return nil, ErrNoPositions
	}
	out.IndexFormat = IndexFormat16
	if wide || len(out.Positions) > 1<<16 {
		out.IndexFormat = IndexFormat32
	}
	return out, nil
}

func primitiveTopology(mode gltf.PrimitiveMode) Topology {
	switch mode {
	case gltf.PrimitiveTriangles:
		return TopologyTriangles
	case gltf.PrimitiveTriangleStrip:
		return TopologyTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return TopologyTriangleFan
	case gltf.PrimitivePoints:
		return TopologyPoints
	}
	return TopologyLines
}

// EncodeGLB writes m as a binary glTF with flat normals. Triangles do not
// share vertices in the output so each face keeps its own normal.
func EncodeGLB(m *Mesh, generator string) ([]byte, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	n := snap.TriangleCount()
	positions := make([][3]float32, 0, n*3)
	normals := make([][3]float32, 0, n*3)
	indices := make([]uint32, 0, n*3)
	for t := 0; t < n; t++ {
		a, b, c := snap.Triangle(t)
		normal := b.Sub(a).Cross(c.Sub(a))
		if l := normal.Len(); l > 0 {
			normal = normal.Mul(1 / l)
		}
		for _, p := range [3]mgl32.Vec3{a, b, c} {
			indices = append(indices, uint32(len(positions)))
			positions = append(positions, [3]float32(p))
			normals = append(normals, [3]float32(normal))
		}
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = generator
	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	indicesAccessor := modeler.WriteIndices(doc, indices)
	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{0.8, 0.8, 0.8, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}
	name := m.Name
	if name == "" {
		name = "SDFMesh"
	}
	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
