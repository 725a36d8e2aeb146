package meshsdf

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDefaultOptions(t *testing.T) {
	o := buildOptions(nil)
	if o.FloodMode != FloodLinear || o.Quality != QualityNormal || o.DistanceMode != DistanceSigned {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if o.UpdateMode != UpdateOnBeginFrame || o.Iterations != 0 || o.Offset != 0 || o.Gradient {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if o.Transform != mgl32.Ident4() {
		t.Fatalf("default transform is not the identity")
	}
}

func TestOptionsNormalization(t *testing.T) {
	o := buildOptions([]Option{nil, WithIterations(-3)})
	if o.Iterations != 0 {
		t.Fatalf("Iterations = %d, want 0", o.Iterations)
	}
	o = buildOptions([]Option{WithOptions(Options{Iterations: 500})})
	if o.Iterations != MaxIterations {
		t.Fatalf("Iterations = %d, want %d", o.Iterations, MaxIterations)
	}
	if o.Transform != mgl32.Ident4() {
		t.Fatalf("zero transform was not replaced by the identity")
	}
}

func TestEffectiveOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		signed     bool
		offset     float32
		iterations int
	}{
		{"signed linear", []Option{WithOffset(0.5), WithIterations(3)}, true, 0.5, 3},
		{"unsigned linear", []Option{WithOffset(0.5), WithIterations(3), WithDistanceMode(DistanceUnsigned)}, false, 0, 3},
		{"jump", []Option{WithOffset(0.5), WithIterations(3), WithFloodMode(FloodJump)}, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := buildOptions(tt.opts)
			if o.Signed() != tt.signed || o.EffectiveOffset() != tt.offset || o.EffectiveIterations() != tt.iterations {
				t.Fatalf("signed=%v offset=%v iterations=%d", o.Signed(), o.EffectiveOffset(), o.EffectiveIterations())
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	for _, m := range []FloodMode{FloodLinear, FloodJump} {
		if got, err := ParseFloodMode(m.String()); err != nil || got != m {
			t.Fatalf("ParseFloodMode(%q) = %v, %v", m, got, err)
		}
	}
	for _, q := range []Quality{QualityNormal, QualityUltra} {
		if got, err := ParseQuality(strings.ToUpper(q.String())); err != nil || got != q {
			t.Fatalf("ParseQuality(%q) = %v, %v", q, got, err)
		}
	}
	for _, m := range []DistanceMode{DistanceSigned, DistanceUnsigned} {
		if got, err := ParseDistanceMode(" " + m.String() + " "); err != nil || got != m {
			t.Fatalf("ParseDistanceMode(%q) = %v, %v", m, got, err)
		}
	}
	for _, m := range []UpdateMode{UpdateOnBeginFrame, UpdateExplicit} {
		if got, err := ParseUpdateMode(m.String()); err != nil || got != m {
			t.Fatalf("ParseUpdateMode(%q) = %v, %v", m, got, err)
		}
	}

	bad := []func() error{
		func() error { _, err := ParseFloodMode("flood"); return err },
		func() error { _, err := ParseQuality("high"); return err },
		func() error { _, err := ParseDistanceMode("absolute"); return err },
		func() error { _, err := ParseUpdateMode("always"); return err },
	}
	for i, fn := range bad {
		if fn() == nil {
			t.Fatalf("bad value %d accepted", i)
		}
	}
	if s := FloodMode(9).String(); s != "FloodMode(9)" {
		t.Fatalf("String = %q", s)
	}
}

func TestGeneratorLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	grid := testGrid()
	generate(t, testCube(), grid, WithIterations(1), WithLogger(logger))
	out := buf.String()
	for _, want := range []string{"field generated", "buffers allocated", "stages", "triangles=12"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	g := NewGenerator(WithLogger(logger))
	defer g.Close()
	_ = g.Update(context.Background(), testCube(), grid, NewField(grid, false))
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("Update in the wrong mode did not log an error:\n%s", buf.String())
	}
}

func TestPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	grid := testGrid()
	generate(t, testCube(), grid)
	if !strings.Contains(buf.String(), "field generated") {
		t.Fatalf("package logger not used:\n%s", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("default logger should be silent")
	}
}

func TestMorton(t *testing.T) {
	tests := []struct {
		x, y, z uint32
		key     uint64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 2},
		{0, 0, 1, 4},
		{1, 1, 1, 7},
		{2, 0, 0, 8},
	}
	for _, tt := range tests {
		if k := Morton3D(tt.x, tt.y, tt.z); k != tt.key {
			t.Fatalf("Morton3D(%d,%d,%d) = %d, want %d", tt.x, tt.y, tt.z, k, tt.key)
		}
	}
	for _, c := range [][3]uint32{{5, 9, 13}, {2047, 0, 1024}, {1<<21 - 1, 1<<21 - 1, 1<<21 - 1}} {
		x, y, z := MortonDecode3D(Morton3D(c[0], c[1], c[2]))
		if [3]uint32{x, y, z} != c {
			t.Fatalf("round trip of %v gave %d,%d,%d", c, x, y, z)
		}
	}
}

func TestMortonOrder(t *testing.T) {
	cube := Volume{Size: mgl32.Vec3{1, 1, 1}, Resolution: 2}.Grid()
	for i, idx := range mortonOrder(cube) {
		if int(idx) != i {
			t.Fatalf("2x2x2 order[%d] = %d, want identity", i, idx)
		}
	}

	grid := Volume{Size: mgl32.Vec3{4, 2, 3}, Resolution: 4}.Grid()
	order := mortonOrder(grid)
	seen := make([]bool, grid.VoxelCount())
	var prev uint64
	for k, idx := range order {
		if seen[idx] {
			t.Fatalf("index %d appears twice", idx)
		}
		seen[idx] = true
		x, y, z := grid.Coord(int(idx))
		key := Morton3D(uint32(x), uint32(y), uint32(z))
		if k > 0 && key <= prev {
			t.Fatalf("keys not increasing at %d", k)
		}
		prev = key
	}
}
