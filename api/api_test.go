package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/voxelsplace/meshsdf/meshsdf"
)

func cubeSettings() Settings {
	s := DefaultSettings()
	s.Resolution = 16
	s.Options = []meshsdf.Option{meshsdf.WithIterations(4)}
	return s
}

func TestCubeToFieldBytes(t *testing.T) {
	data, err := CubeToFieldBytes(context.Background(), cubeSettings())
	if err != nil {
		t.Fatalf("CubeToFieldBytes failed: %v", err)
	}
	info, err := FieldInfo(data)
	if err != nil {
		t.Fatalf("FieldInfo failed: %v", err)
	}
	if info.Grid.Resolution != [3]int{16, 16, 16} || info.Grid.CellSize != 0.125 {
		t.Fatalf("unexpected grid %+v", info.Grid)
	}
	if info.Min >= 0 || info.Max <= 0 {
		t.Fatalf("a signed cube field spans zero, got [%v, %v]", info.Min, info.Max)
	}
	if !info.Header.Signed() || info.EncodedSize != len(data) {
		t.Fatalf("unexpected info %+v", info)
	}
	for _, want := range []string{"resolution: 16x16x16", "signed: true", "checksum: "} {
		if !strings.Contains(info.String(), want) {
			t.Fatalf("info lacks %q:\n%s", want, info)
		}
	}
}

func TestFieldToGLB(t *testing.T) {
	data, err := CubeToFieldBytes(context.Background(), cubeSettings())
	if err != nil {
		t.Fatalf("CubeToFieldBytes failed: %v", err)
	}

	glb, err := FieldToGLB(data, 0, 24)
	if err != nil {
		t.Fatalf("FieldToGLB failed: %v", err)
	}
	m, err := meshsdf.DecodeGLB(glb)
	if err != nil {
		t.Fatalf("DecodeGLB failed: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatalf("iso surface is empty")
	}

	if _, err := FieldToGLB(data, -100, 24); err == nil {
		t.Fatalf("an iso level below the field range should fail")
	}
}

func TestFieldBlocksToGLB(t *testing.T) {
	data, err := CubeToFieldBytes(context.Background(), cubeSettings())
	if err != nil {
		t.Fatalf("CubeToFieldBytes failed: %v", err)
	}
	glb, err := FieldBlocksToGLB(data, 0)
	if err != nil {
		t.Fatalf("FieldBlocksToGLB failed: %v", err)
	}
	m, err := meshsdf.DecodeGLB(glb)
	if err != nil {
		t.Fatalf("DecodeGLB failed: %v", err)
	}
	if m.TriangleCount() != 12 {
		t.Fatalf("the cube interior is one box, got %d triangles", m.TriangleCount())
	}

	if _, err := FieldBlocksToGLB(data, -100); err == nil {
		t.Fatalf("a threshold below the field range should fail")
	}
	if _, err := FieldBlocksToGLB([]byte("junk"), 0); !errors.Is(err, meshsdf.ErrFieldFormat) {
		t.Fatalf("got %v, want ErrFieldFormat", err)
	}
}

func TestShapeToGLB(t *testing.T) {
	for _, name := range append([]string{"cube"}, meshsdf.ShapeNames...) {
		t.Run(name, func(t *testing.T) {
			glb, err := ShapeToGLB(name, 16)
			if err != nil {
				t.Fatalf("ShapeToGLB failed: %v", err)
			}
			m, err := meshsdf.DecodeGLB(glb)
			if err != nil {
				t.Fatalf("DecodeGLB failed: %v", err)
			}
			if m.TriangleCount() == 0 {
				t.Fatalf("shape has no triangles")
			}
		})
	}
	if _, err := ShapeToGLB("torus", 16); err == nil {
		t.Fatalf("unknown shape accepted")
	}
}

func TestGLBToFieldBytes(t *testing.T) {
	glb, err := ShapeToGLB("cube", 0)
	if err != nil {
		t.Fatalf("ShapeToGLB failed: %v", err)
	}
	s := cubeSettings()
	s.Encode = meshsdf.EncodeOptions{Compression: meshsdf.CompressionZlib}
	data, err := GLBToFieldBytes(context.Background(), glb, s)
	if err != nil {
		t.Fatalf("GLBToFieldBytes failed: %v", err)
	}
	info, err := FieldInfo(data)
	if err != nil {
		t.Fatalf("FieldInfo failed: %v", err)
	}
	if info.Header.Compression() != meshsdf.CompressionZlib {
		t.Fatalf("compression = %s", info.Header.Compression())
	}
	if info.Grid.Resolution[0] != 16 || info.Min >= 0 {
		t.Fatalf("unexpected field %+v", info)
	}

	if _, err := GLBToFieldBytes(context.Background(), []byte("junk"), s); err == nil {
		t.Fatalf("junk input accepted")
	}
}

func TestMeshToFieldNilMesh(t *testing.T) {
	if _, err := MeshToField(context.Background(), nil, cubeSettings()); !errors.Is(err, meshsdf.ErrNoMesh) {
		t.Fatalf("got %v, want ErrNoMesh", err)
	}
}

func TestMeshToFieldFollowsTransform(t *testing.T) {
	s := cubeSettings()
	s.Options = append(s.Options, meshsdf.WithTransform(mgl32.Translate3D(10, 0, 0)))
	f, err := MeshToField(context.Background(), meshsdf.Cube([3]float32{}, 1), s)
	if err != nil {
		t.Fatalf("MeshToField failed: %v", err)
	}
	lo, hi := f.Grid.Bounds()
	if lo.X() > 9.5 || hi.X() < 10.5 {
		t.Fatalf("grid x range [%v, %v] misses the moved cube", lo.X(), hi.X())
	}
	if lowest, _ := f.Range(); lowest >= 0 {
		t.Fatalf("no voxel inside the moved cube, min %v", lowest)
	}
}
