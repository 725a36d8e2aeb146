package meshsdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/x448/float16"
)

// Compression selects the payload compression of a .msdf file.
type Compression uint8

const (
	// CompressionAuto tries every compression and voxel order and keeps the
	// smallest result.
	CompressionAuto Compression = iota
	CompressionNone
	CompressionZlib
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return CompressionAuto, nil
	case "none":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("unknown compression %q (want auto, none, zlib or zstd)", s)
}

// EncodeOptions controls SaveFieldToBytes.
type EncodeOptions struct {
	// Half stores distances and gradients as IEEE half floats.
	Half        bool
	Compression Compression
}

type encoded struct {
	encoding uint8
	payload  []byte
}

// encodeSamples serializes one record per voxel in the given order (nil means
// flat index order): the distance followed by the gradient when present.
func encodeSamples(f *Field, half bool, order []int32) []byte {
	n := len(f.Distances)
	width := 4
	if half {
		width = 2
	}
	rec := width
	if f.Gradients != nil {
		rec *= 4
	}
	out := make([]byte, n*rec)
	put := func(b []byte, v float32) {
		if half {
			binary.LittleEndian.PutUint16(b, float16.Fromfloat32(v).Bits())
		} else {
			binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		}
	}
	for k := 0; k < n; k++ {
		i := k
		if order != nil {
			i = int(order[k])
		}
		b := out[k*rec:]
		put(b, f.Distances[i])
		if f.Gradients != nil {
			g := f.Gradients[i]
			put(b[width:], g[0])
			put(b[2*width:], g[1])
			put(b[3*width:], g[2])
		}
	}
	return out
}

// decodeSamples is the inverse of encodeSamples for the layout in h.
func decodeSamples(h FieldHeader, raw []byte) (*Field, error) {
	grid := h.Grid()
	if grid.Empty() {
		return nil, fmt.Errorf("%w: empty grid %v", ErrFieldFormat, h.Resolution)
	}
	n := grid.VoxelCount()
	rec := h.sampleSize()
	if len(raw) != n*rec {
		return nil, fmt.Errorf("%w: payload has %d bytes, want %d", ErrFieldFormat, len(raw), n*rec)
	}
	width := 4
	if h.Half() {
		width = 2
	}
	get := func(b []byte) float32 {
		if width == 2 {
			return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	var order []int32
	if h.Morton() {
		order = mortonOrder(grid)
	}
	f := NewField(grid, h.Gradient())
	f.Signed = h.Signed()
	for k := 0; k < n; k++ {
		i := k
		if order != nil {
			i = int(order[k])
		}
		b := raw[k*rec:]
		f.Distances[i] = get(b)
		if f.Gradients != nil {
			f.Gradients[i] = mgl32.Vec3{get(b[width:]), get(b[2*width:]), get(b[3*width:])}
		}
	}
	return f, nil
}

func zlibCompress(b []byte) []byte {
	var buf bytes.Buffer
	zw, _ := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	_, _ = zw.Write(b)
	_ = zw.Close()
	return buf.Bytes()
}

// zlibDecompress inflates b, refusing output longer than limit bytes.
func zlibDecompress(b []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		return nil, fmt.Errorf("zlib payload inflates past %d bytes", limit)
	}
	return out, nil
}

func zstdCompress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

func zstdDecompress(b []byte, limit int) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(limit)+1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}

// compress applies c to raw. CompressionAuto is not valid here.
func compress(raw []byte, c Compression) (encoded, error) {
	switch c {
	case CompressionNone:
		return encoded{payload: raw}, nil
	case CompressionZlib:
		return encoded{encoding: encZlib, payload: zlibCompress(raw)}, nil
	case CompressionZstd:
		zb, err := zstdCompress(raw)
		if err != nil {
			return encoded{}, err
		}
		return encoded{encoding: encZstd, payload: zb}, nil
	}
	return encoded{}, fmt.Errorf("unsupported compression %s", c)
}

// bestEncoding encodes f in flat and Morton order under every requested
// compression and keeps the smallest payload. Ties keep the earlier, simpler
// candidate.
func bestEncoding(f *Field, opts EncodeOptions) (encoded, []byte, error) {
	format := uint8(formatF32)
	if opts.Half {
		format = formatF16
	}
	comps := []Compression{opts.Compression}
	if opts.Compression == CompressionAuto {
		comps = []Compression{CompressionNone, CompressionZlib, CompressionZstd}
	}

	var best encoded
	var bestRaw []byte
	found := false
	for _, morton := range []bool{false, true} {
		var order []int32
		enc := format
		if morton {
			order = mortonOrder(f.Grid)
			enc |= encMorton
		}
		raw := encodeSamples(f, opts.Half, order)
		for _, c := range comps {
			e, err := compress(raw, c)
			if err != nil {
				return encoded{}, nil, err
			}
			e.encoding |= enc
			if !found || len(e.payload) < len(best.payload) {
				best, bestRaw, found = e, raw, true
			}
		}
		if opts.Compression == CompressionNone {
			// Order does not change the size of a raw payload.
			break
		}
	}
	return best, bestRaw, nil
}

// decompress undoes the payload compression described by h.
func decompress(h FieldHeader, payload []byte) ([]byte, error) {
	limit := h.Grid().VoxelCount() * h.sampleSize()
	switch h.Compression() {
	case CompressionZstd:
		return zstdDecompress(payload, limit)
	case CompressionZlib:
		return zlibDecompress(payload, limit)
	}
	return payload, nil
}
