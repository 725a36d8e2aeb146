package meshsdf

import "errors"

// Precondition failures. They are detected before any work is dispatched and
// leave the output target untouched.
var (
	ErrEmptyVolume  = errors.New("meshsdf: empty voxel volume")
	ErrNoMesh       = errors.New("meshsdf: no mesh")
	ErrTopology     = errors.New("meshsdf: mesh topology is not a triangle list")
	ErrNoPositions  = errors.New("meshsdf: mesh has no vertex positions")
	ErrIndexFormat  = errors.New("meshsdf: unsupported index format")
	ErrIndexRange   = errors.New("meshsdf: vertex index out of range")
	ErrStride       = errors.New("meshsdf: vertex stride does not fit the position attribute")
	ErrTargetSize   = errors.New("meshsdf: output target does not match the voxel resolution")
	ErrGradient     = errors.New("meshsdf: output target cannot store gradients")
	ErrUpdateMode   = errors.New("meshsdf: update called in the wrong update mode")
	ErrClosed       = errors.New("meshsdf: generator is closed")
	ErrFieldFormat  = errors.New("meshsdf: invalid field data")
	ErrFieldVersion = errors.New("meshsdf: unsupported field version")
	ErrChecksum     = errors.New("meshsdf: field checksum mismatch")
)
