package meshsdf

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// FloodMode selects how distances spread from the splatted shell.
type FloodMode uint8

const (
	// FloodLinear relaxes neighbours a bounded number of times. Signed.
	FloodLinear FloodMode = iota
	// FloodJump fills the whole grid in a logarithmic number of passes. Unsigned.
	FloodJump
)

func (m FloodMode) String() string {
	switch m {
	case FloodLinear:
		return "linear"
	case FloodJump:
		return "jump"
	}
	return fmt.Sprintf("FloodMode(%d)", uint8(m))
}

// ParseFloodMode accepts the names printed by FloodMode.String.
func ParseFloodMode(s string) (FloodMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return FloodLinear, nil
	case "jump":
		return FloodJump, nil
	}
	return 0, fmt.Errorf("unknown flood mode %q (want linear or jump)", s)
}

// Quality selects the neighbourhood used by both flood modes.
type Quality uint8

const (
	// QualityNormal uses face neighbours (linear) or per-axis passes (jump).
	QualityNormal Quality = iota
	// QualityUltra uses all 26 neighbours in both modes.
	QualityUltra
)

func (q Quality) String() string {
	switch q {
	case QualityNormal:
		return "normal"
	case QualityUltra:
		return "ultra"
	}
	return fmt.Sprintf("Quality(%d)", uint8(q))
}

func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return QualityNormal, nil
	case "ultra":
		return QualityUltra, nil
	}
	return 0, fmt.Errorf("unknown quality %q (want normal or ultra)", s)
}

type DistanceMode uint8

const (
	DistanceSigned DistanceMode = iota
	DistanceUnsigned
)

func (m DistanceMode) String() string {
	switch m {
	case DistanceSigned:
		return "signed"
	case DistanceUnsigned:
		return "unsigned"
	}
	return fmt.Sprintf("DistanceMode(%d)", uint8(m))
}

func ParseDistanceMode(s string) (DistanceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signed":
		return DistanceSigned, nil
	case "unsigned":
		return DistanceUnsigned, nil
	}
	return 0, fmt.Errorf("unknown distance mode %q (want signed or unsigned)", s)
}

// UpdateMode decides who triggers a Generator run.
type UpdateMode uint8

const (
	// UpdateOnBeginFrame runs from BeginFrame, at most once per frame.
	UpdateOnBeginFrame UpdateMode = iota
	// UpdateExplicit runs only when the caller invokes Update.
	UpdateExplicit
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateOnBeginFrame:
		return "on-begin-frame"
	case UpdateExplicit:
		return "explicit"
	}
	return fmt.Sprintf("UpdateMode(%d)", uint8(m))
}

func ParseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on-begin-frame", "onbeginframe", "frame":
		return UpdateOnBeginFrame, nil
	case "explicit":
		return UpdateExplicit, nil
	}
	return 0, fmt.Errorf("unknown update mode %q (want on-begin-frame or explicit)", s)
}

// MaxIterations caps the linear flood iteration count.
const MaxIterations = 64

// Options configures a Generator.
type Options struct {
	FloodMode    FloodMode
	Quality      Quality
	Iterations   int
	DistanceMode DistanceMode
	// Offset is added to every distance in signed linear mode. A negative
	// offset grows the surface, a positive one shrinks it.
	Offset     float32
	UpdateMode UpdateMode
	// Gradient asks the finalizer for normalized central-difference gradients.
	Gradient bool
	// Workers sizes the dispatch pool; 0 means GOMAXPROCS.
	Workers int
	// Transform maps mesh space into the world space of the voxel grid.
	Transform mgl32.Mat4
	// Logger overrides the package logger for one Generator.
	Logger *slog.Logger
}

// DefaultOptions returns signed linear flooding at normal quality with no
// iterations, updated once per frame.
func DefaultOptions() Options {
	return Options{
		FloodMode:    FloodLinear,
		Quality:      QualityNormal,
		DistanceMode: DistanceSigned,
		UpdateMode:   UpdateOnBeginFrame,
		Transform:    mgl32.Ident4(),
	}
}

// Option mutates Options.
type Option func(*Options)

func WithFloodMode(m FloodMode) Option { return func(o *Options) { o.FloodMode = m } }

func WithQuality(q Quality) Option { return func(o *Options) { o.Quality = q } }

// WithIterations sets the linear flood iteration count, clamped to
// [0, MaxIterations].
func WithIterations(n int) Option {
	return func(o *Options) { o.Iterations = clampInt(n, 0, MaxIterations) }
}

func WithDistanceMode(m DistanceMode) Option { return func(o *Options) { o.DistanceMode = m } }

func WithOffset(d float32) Option { return func(o *Options) { o.Offset = d } }

func WithUpdateMode(m UpdateMode) Option { return func(o *Options) { o.UpdateMode = m } }

func WithGradient(on bool) Option { return func(o *Options) { o.Gradient = on } }

func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

func WithTransform(m mgl32.Mat4) Option { return func(o *Options) { o.Transform = m } }

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithOptions replaces the whole option set.
func WithOptions(src Options) Option { return func(o *Options) { *o = src } }

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	o.Iterations = clampInt(o.Iterations, 0, MaxIterations)
	if o.Transform == (mgl32.Mat4{}) {
		o.Transform = mgl32.Ident4()
	}
	return o
}

// ResolveOptions applies opts to the defaults the way NewGenerator does.
func ResolveOptions(opts ...Option) Options { return buildOptions(opts) }

// Signed reports whether the run produces signed distances. Jump flooding
// has no sign information, so it is always unsigned.
func (o Options) Signed() bool {
	return o.FloodMode == FloodLinear && o.DistanceMode == DistanceSigned
}

// EffectiveOffset is the offset the finalizer applies: Offset in signed
// linear mode, zero otherwise.
func (o Options) EffectiveOffset() float32 {
	if o.Signed() {
		return o.Offset
	}
	return 0
}

// EffectiveIterations is the number of linear iterations a run performs.
func (o Options) EffectiveIterations() int {
	if o.FloodMode != FloodLinear {
		return 0
	}
	return clampInt(o.Iterations, 0, MaxIterations)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return Logger()
}
