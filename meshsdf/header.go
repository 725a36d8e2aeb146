package meshsdf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const fieldMagic = "MSDF"

// FieldVersion is the container version written by SaveFieldToBytes.
const FieldVersion = 1

const (
	// fieldHeaderSize covers magic through payload length.
	fieldHeaderSize   = 4 + 1 + 1 + 1 + 3*2 + 4 + 3*4 + 4
	fieldChecksumSize = 8
)

// Encoding byte layout.
const (
	encZstd   = 0x80
	encZlib   = 0x40
	encMorton = 0x20
	encFormat = 0x0F
	formatF32 = 0
	formatF16 = 1
)

// Flags byte layout.
const (
	flagSigned   = 0x01
	flagGradient = 0x02
)

// FieldHeader holds the fixed fields of a .msdf file.
type FieldHeader struct {
	Ver        uint8
	Encoding   uint8
	Flags      uint8
	Resolution [3]uint16
	CellSize   float32
	Origin     [3]float32
	PLen       uint32
}

func (h FieldHeader) Signed() bool { return h.Flags&flagSigned != 0 }

func (h FieldHeader) Gradient() bool { return h.Flags&flagGradient != 0 }

func (h FieldHeader) Half() bool { return h.Encoding&encFormat == formatF16 }

func (h FieldHeader) Morton() bool { return h.Encoding&encMorton != 0 }

func (h FieldHeader) Compression() Compression {
	switch {
	case h.Encoding&encZstd != 0:
		return CompressionZstd
	case h.Encoding&encZlib != 0:
		return CompressionZlib
	}
	return CompressionNone
}

// Grid rebuilds the voxel grid the field was sampled on.
func (h FieldHeader) Grid() VoxelGrid {
	return VoxelGrid{
		Resolution: [3]int{int(h.Resolution[0]), int(h.Resolution[1]), int(h.Resolution[2])},
		Origin:     mgl32.Vec3(h.Origin),
		CellSize:   h.CellSize,
	}
}

// sampleSize is the byte width of one decoded voxel record.
func (h FieldHeader) sampleSize() int {
	s := 4
	if h.Half() {
		s = 2
	}
	if h.Gradient() {
		return s * 4
	}
	return s
}

// ParseFieldHeaderFromBytes parses the header of a .msdf file and returns it
// together with the still encoded payload and the stored checksum.
func ParseFieldHeaderFromBytes(data []byte) (FieldHeader, []byte, uint64, error) {
	var hdr FieldHeader
	if len(data) < fieldHeaderSize+fieldChecksumSize || string(data[:4]) != fieldMagic {
		return hdr, nil, 0, fmt.Errorf("%w: not an MSDF file", ErrFieldFormat)
	}
	r := bytes.NewReader(data[4:fieldHeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, 0, fmt.Errorf("%w: %v", ErrFieldFormat, err)
	}
	if hdr.Ver != FieldVersion {
		return hdr, nil, 0, fmt.Errorf("%w: %d", ErrFieldVersion, hdr.Ver)
	}
	if f := hdr.Encoding & encFormat; f != formatF32 && f != formatF16 {
		return hdr, nil, 0, fmt.Errorf("%w: sample format %d", ErrFieldFormat, f)
	}
	if hdr.Encoding&encZstd != 0 && hdr.Encoding&encZlib != 0 {
		return hdr, nil, 0, fmt.Errorf("%w: both zstd and zlib set", ErrFieldFormat)
	}
	if uint64(len(data)) != uint64(fieldHeaderSize)+uint64(hdr.PLen)+fieldChecksumSize {
		return hdr, nil, 0, fmt.Errorf("%w: payload length %d does not match file size %d", ErrFieldFormat, hdr.PLen, len(data))
	}
	payload := data[fieldHeaderSize : fieldHeaderSize+int(hdr.PLen)]
	sum := binary.LittleEndian.Uint64(data[fieldHeaderSize+int(hdr.PLen):])
	return hdr, payload, sum, nil
}

// buildField assembles a .msdf file from a header and an encoded payload.
func buildField(h FieldHeader, payload []byte, sum uint64) []byte {
	var buf bytes.Buffer
	buf.Grow(fieldHeaderSize + len(payload) + fieldChecksumSize)
	buf.WriteString(fieldMagic)
	h.PLen = uint32(len(payload))
	_ = binary.Write(&buf, binary.LittleEndian, h)
	_, _ = buf.Write(payload)
	_ = binary.Write(&buf, binary.LittleEndian, sum)
	return buf.Bytes()
}
