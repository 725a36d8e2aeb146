package meshsdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Stats describes the last completed run of a Generator.
type Stats struct {
	Triangles  int
	Voxels     int
	Resolution [3]int
	FloodMode  FloodMode
	Signed     bool
	// Iterations is the number of linear flood iterations performed.
	Iterations int
	// JumpSubPasses counts jump flood buffer flips.
	JumpSubPasses int
	// Allocated reports whether the run had to (re)allocate its buffers.
	Allocated bool

	Voxelize time.Duration
	Flood    time.Duration
	Finalize time.Duration
	Total    time.Duration
}

// Generator turns meshes into distance fields. It keeps its ping-pong buffers
// between runs while the voxel count is unchanged. A Generator is safe for
// concurrent use; runs are serialized.
type Generator struct {
	mu        sync.Mutex
	opts      Options
	pool      *workerPool
	bufs      buffers
	lastFrame int64
	stats     Stats
	closed    bool
}

// NewGenerator starts a generator and its worker pool. Call Close to stop it.
func NewGenerator(opts ...Option) *Generator {
	o := buildOptions(opts)
	return &Generator{
		opts:      o,
		pool:      newWorkerPool(o.Workers),
		lastFrame: -1,
	}
}

// Options returns the active options.
func (g *Generator) Options() Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts
}

// SetOptions applies opts on top of the active options. The worker count is
// fixed at construction.
func (g *Generator) SetOptions(opts ...Option) {
	g.mu.Lock()
	defer g.mu.Unlock()
	workers := g.opts.Workers
	o := g.opts
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	o.Iterations = clampInt(o.Iterations, 0, MaxIterations)
	if o.Transform == (mgl32.Mat4{}) {
		o.Transform = mgl32.Ident4()
	}
	o.Workers = workers
	g.opts = o
}

// Stats returns the statistics of the last successful run.
func (g *Generator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Update runs the pipeline on caller demand. It is only valid in
// UpdateExplicit mode.
func (g *Generator) Update(ctx context.Context, src MeshSource, grid VoxelGrid, dst Target) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opts.UpdateMode != UpdateExplicit {
		g.opts.logger().Error("meshsdf: switch the generator to explicit update mode before calling Update")
		return fmt.Errorf("%w: mode is %s", ErrUpdateMode, g.opts.UpdateMode)
	}
	return g.run(ctx, src, grid, dst)
}

// BeginFrame runs the pipeline for frame unless it already ran for that
// frame. It does nothing outside UpdateOnBeginFrame mode. The returned bool
// reports whether a run happened.
func (g *Generator) BeginFrame(ctx context.Context, frame int64, src MeshSource, grid VoxelGrid, dst Target) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opts.UpdateMode != UpdateOnBeginFrame || frame == g.lastFrame {
		return false, nil
	}
	if err := g.run(ctx, src, grid, dst); err != nil {
		return false, err
	}
	g.lastFrame = frame
	return true, nil
}

// Run executes the pipeline once regardless of the update mode.
func (g *Generator) Run(ctx context.Context, src MeshSource, grid VoxelGrid, dst Target) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.run(ctx, src, grid, dst)
}

// Close releases the buffers and stops the worker pool.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.bufs.release()
	g.pool.close()
	return nil
}

// RunOnce generates a Field with a short-lived Generator.
func RunOnce(ctx context.Context, src MeshSource, grid VoxelGrid, opts ...Option) (*Field, error) {
	g := NewGenerator(opts...)
	defer g.Close()
	f := NewField(grid, g.opts.Gradient)
	if err := g.Run(ctx, src, grid, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (g *Generator) run(ctx context.Context, src MeshSource, grid VoxelGrid, dst Target) error {
	if g.closed {
		return ErrClosed
	}
	o := g.opts
	log := o.logger()

	snap, gt, err := g.check(src, grid, dst)
	if err != nil {
		log.Warn("meshsdf: run rejected", slog.Any("err", err))
		return err
	}
	if o.Transform != mgl32.Ident4() {
		snap = snap.Transformed(o.Transform)
	}

	start := time.Now()
	st := Stats{
		Triangles:  snap.TriangleCount(),
		Voxels:     grid.VoxelCount(),
		Resolution: grid.Resolution,
		FloodMode:  o.FloodMode,
		Signed:     o.Signed(),
	}
	jump := o.FloodMode == FloodJump
	st.Allocated = g.bufs.ensure(st.Voxels, jump)
	if st.Allocated {
		log.Debug("meshsdf: buffers allocated", slog.Int("voxels", st.Voxels), slog.Bool("seeds", jump))
	}

	fail := func(err error) error {
		g.bufs.release()
		log.Debug("meshsdf: run abandoned", slog.Any("err", err))
		return err
	}

	far := grid.MaxDistance()
	sentinel := grid.InitialDistance()
	splatIdx := linearSplatBuffer(o.EffectiveIterations())
	if jump {
		splatIdx = jumpSplatBuffer
	}
	splat := g.bufs.dist[splatIdx]

	t := time.Now()
	initializeDistances(g.pool, splat, sentinel)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	splatTriangles(g.pool, splat, snap, grid, st.Signed, far)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	finalizeSplat(g.pool, splat, sentinel, far)
	st.Voxelize = time.Since(t)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	t = time.Now()
	if jump {
		jumpSeedInit(g.pool, splat, g.bufs.seeds[0], far)
		cur, passes, err := jumpFlood(ctx, g.pool, &g.bufs, grid, o.Quality)
		if err != nil {
			return fail(err)
		}
		st.JumpSubPasses = passes
		jumpFinalize(g.pool, g.bufs.seeds[cur], splat, g.bufs.dist[0], grid, far)
	} else {
		st.Iterations = o.EffectiveIterations()
		if err := linearFlood(ctx, g.pool, &g.bufs, grid, o.Quality, st.Iterations); err != nil {
			return fail(err)
		}
	}
	st.Flood = time.Since(t)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	t = time.Now()
	switch f := dst.(type) {
	case *Field:
		f.Grid, f.Signed = grid, st.Signed
	case *HalfField:
		f.Grid, f.Signed = grid, st.Signed
	}
	writeTarget(g.pool, g.bufs.dist[0], grid, dst, gt, o.EffectiveOffset())
	st.Finalize = time.Since(t)
	st.Total = time.Since(start)
	g.stats = st

	log.Debug("meshsdf: stages",
		slog.Duration("voxelize", st.Voxelize),
		slog.Duration("flood", st.Flood),
		slog.Duration("finalize", st.Finalize))
	log.Info("meshsdf: field generated",
		slog.Int("triangles", st.Triangles),
		slog.Any("resolution", st.Resolution),
		slog.String("mode", o.FloodMode.String()),
		slog.String("quality", o.Quality.String()),
		slog.Bool("signed", st.Signed),
		slog.Duration("elapsed", st.Total))
	return nil
}

// check validates every precondition before any work is dispatched.
func (g *Generator) check(src MeshSource, grid VoxelGrid, dst Target) (*MeshSnapshot, GradientTarget, error) {
	if grid.Empty() {
		return nil, nil, ErrEmptyVolume
	}
	if src == nil || isNilSource(src) {
		return nil, nil, ErrNoMesh
	}
	if dst == nil {
		return nil, nil, fmt.Errorf("%w: no target", ErrTargetSize)
	}
	if r := dst.Resolution(); r != grid.Resolution {
		return nil, nil, fmt.Errorf("%w: target %v, grid %v", ErrTargetSize, r, grid.Resolution)
	}
	var gt GradientTarget
	if g.opts.Gradient {
		var ok bool
		if gt, ok = dst.(GradientTarget); !ok {
			return nil, nil, ErrGradient
		}
		if h, ok := dst.(interface{ HasGradients() bool }); ok && !h.HasGradients() {
			return nil, nil, fmt.Errorf("%w: target was allocated without gradients", ErrGradient)
		}
	}
	snap, err := src.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, ErrNoMesh
	}
	return snap, gt, nil
}

func isNilSource(src MeshSource) bool {
	switch s := src.(type) {
	case *Mesh:
		return s == nil
	case *VertexBuffer:
		return s == nil
	}
	return false
}

// IsPrecondition reports whether err is a precondition failure, meaning the
// run was rejected before touching its target.
func IsPrecondition(err error) bool {
	for _, e := range []error{
		ErrEmptyVolume, ErrNoMesh, ErrTopology, ErrNoPositions, ErrIndexFormat,
		ErrIndexRange, ErrStride, ErrTargetSize, ErrGradient, ErrUpdateMode,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
