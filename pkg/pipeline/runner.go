package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load → matrix → solve → render with caching. Rendering is
// skipped when opts.Formats is empty. Errors carry a pkg/errors code.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	in, err := r.load(ctx, opts, opts.GridSize())
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("load: %w", err))
	}
	result.TileNames = in.TileNames
	result.Stats.Cells = in.Mosaic.Grid.Len()
	result.Stats.Tiles = len(in.Mosaic.Tiles)
	result.Stats.Solver = opts.Solver
	result.Stats.Metric = opts.Metric
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded images",
		"grid", in.Mosaic.Grid.Size,
		"cell", in.Mosaic.Grid.CellSize,
		"tiles", len(in.Mosaic.Tiles),
		"duration", result.Stats.LoadTime)

	// Stage 2: Matrix
	matrixStart := time.Now()
	costs, matrixHit, err := r.ComputeMatrixWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("matrix: %w", err))
	}
	result.Stats.MatrixTime = time.Since(matrixStart)
	result.CacheInfo.MatrixHit = matrixHit

	r.Logger.Info("computed cost matrix",
		"metric", opts.Metric,
		"rows", costs.Rows,
		"columns", costs.Columns,
		"cached", matrixHit,
		"duration", result.Stats.MatrixTime)

	// Stage 3: Solve
	solveStart := time.Now()
	p, planHit, err := r.SolveWithCacheInfo(ctx, in, costs, opts)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("solve: %w", err))
	}
	result.Plan = p
	result.Stats.Cost = PlanCost(costs, p)
	result.Stats.SolveTime = time.Since(solveStart)
	result.CacheInfo.PlanHit = planHit
	if data, err := plan.Marshal(p); err == nil {
		result.PlanHash = cache.Hash(data)
	}

	r.Logger.Info("solved assignment",
		"solver", opts.Solver,
		"cost", result.Stats.Cost,
		"cached", planHit,
		"duration", result.Stats.SolveTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, in, p, opts)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("render: %w", err))
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads key from the cache and reports the outcome to the cache hooks.
// Backend errors are logged and treated as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
