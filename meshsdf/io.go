package meshsdf

import (
	"fmt"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
)

// SaveField writes f to filename as a .msdf file.
func SaveField(f *Field, filename string, opts EncodeOptions) error {
	data, err := SaveFieldToBytes(f, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// SaveFieldToBytes encodes f as a complete .msdf file.
func SaveFieldToBytes(f *Field, opts EncodeOptions) ([]byte, error) {
	if f == nil || f.Grid.Empty() {
		return nil, ErrEmptyVolume
	}
	if len(f.Distances) != f.Grid.VoxelCount() {
		return nil, fmt.Errorf("%w: %d distances for %d voxels", ErrFieldFormat, len(f.Distances), f.Grid.VoxelCount())
	}
	if f.Gradients != nil && len(f.Gradients) != len(f.Distances) {
		return nil, fmt.Errorf("%w: %d gradients for %d voxels", ErrFieldFormat, len(f.Gradients), len(f.Distances))
	}
	for _, r := range f.Grid.Resolution {
		if r > 0xFFFF {
			return nil, fmt.Errorf("%w: resolution %v does not fit the header", ErrFieldFormat, f.Grid.Resolution)
		}
	}
	enc, raw, err := bestEncoding(f, opts)
	if err != nil {
		return nil, err
	}
	var flags uint8
	if f.Signed {
		flags |= flagSigned
	}
	if f.Gradients != nil {
		flags |= flagGradient
	}
	r := f.Grid.Resolution
	hdr := FieldHeader{
		Ver:        FieldVersion,
		Encoding:   enc.encoding,
		Flags:      flags,
		Resolution: [3]uint16{uint16(r[0]), uint16(r[1]), uint16(r[2])},
		CellSize:   f.Grid.CellSize,
		Origin:     [3]float32(f.Grid.Origin),
	}
	return buildField(hdr, enc.payload, xxhash.Sum64(raw)), nil
}

func LoadField(filename string) (*Field, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return LoadFieldFromBytes(data)
}

// LoadFieldFromBytes parses a .msdf file from memory. Half precision files
// are widened to float32.
func LoadFieldFromBytes(data []byte) (*Field, error) {
	hdr, payload, sum, err := ParseFieldHeaderFromBytes(data)
	if err != nil {
		return nil, err
	}
	raw, err := decompress(hdr, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldFormat, err)
	}
	if got := xxhash.Sum64(raw); got != sum {
		return nil, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksum, sum, got)
	}
	return decodeSamples(hdr, raw)
}
