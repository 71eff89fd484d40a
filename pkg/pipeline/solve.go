package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/matrix"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
	"github.com/matzehuels/tessellate/pkg/observability"
)

// ComputeMatrixWithCacheInfo scores every cell against every tile, using the
// cached matrix when one exists for the same inputs.
func (r *Runner) ComputeMatrixWithCacheInfo(ctx context.Context, in *Inputs, opts Options) (*matrix.CostMatrix, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	if !opts.Refresh {
		if m, ok := r.cachedMatrix(ctx, in); ok {
			return m, true, nil
		}
	}

	fn, err := metric.ByName(opts.Metric)
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnMatrixStart(ctx, opts.Metric, in.Mosaic.Grid.Len(), len(in.Mosaic.Tiles))
	start := time.Now()
	m, err := in.Mosaic.DistanceMatrix(ctx, fn, opts.Workers)
	hooks.OnMatrixComplete(ctx, opts.Metric, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(m); err == nil {
		r.set(ctx, "matrix", in.MatrixKey, data, cache.TTLMatrix)
	}
	return m, false, nil
}

func (r *Runner) cachedMatrix(ctx context.Context, in *Inputs) (*matrix.CostMatrix, bool) {
	data, ok := r.get(ctx, "matrix", in.MatrixKey)
	if !ok {
		return nil, false
	}
	var raw matrix.CostMatrix
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	m, err := matrix.New(raw.Rows, raw.Columns, raw.Data)
	if err != nil || plan.CheckShape(in.Mosaic.Grid.Len(), len(in.Mosaic.Tiles), m) != nil {
		return nil, false
	}
	return m, true
}

// SolveWithCacheInfo assigns tiles to cells and returns the plan, using the
// cached plan when one exists for the same matrix and solver options.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, in *Inputs, costs *matrix.CostMatrix, opts Options) (plan.Plan, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	key := r.planKey(in, opts)
	if !opts.Refresh {
		if data, ok := r.get(ctx, "plan", key); ok {
			if p, err := plan.Unmarshal(data); err == nil && fits(p, in) {
				return p, true, nil
			}
		}
	}

	s, err := solver.New(solver.Kind(opts.Solver))
	if err != nil {
		return plan.Plan{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, s.Name(), costs.Rows, costs.Columns)
	start := time.Now()
	p, err := in.Mosaic.Plan(ctx, costs, s, opts.Progress)
	var total int64
	if err == nil {
		total = PlanCost(costs, p)
	}
	hooks.OnSolveComplete(ctx, s.Name(), total, time.Since(start), err)
	if err != nil {
		return plan.Plan{}, false, err
	}

	if data, err := plan.Marshal(p); err == nil {
		r.set(ctx, "plan", key, data, cache.TTLPlan)
	}
	return p, false, nil
}

func (r *Runner) planKey(in *Inputs, opts Options) string {
	return r.Keyer.PlanKey(cache.Hash([]byte(in.MatrixKey)), opts.PlanKeyOpts())
}

// fits reports whether a cached plan matches the loaded grid and tiles.
func fits(p plan.Plan, in *Inputs) bool {
	g := in.Mosaic.Grid
	return p.GridWidth == g.Size.W && p.GridHeight == g.Size.H &&
		p.CellWidth == g.CellSize.W && p.CellHeight == g.CellSize.H &&
		p.MaxTileIndex() < len(in.Mosaic.Tiles)
}

// PlanCost sums the matrix cost of every placement in p. Cells are matched
// to rows by position.
func PlanCost(costs *matrix.CostMatrix, p plan.Plan) int64 {
	var total int64
	for i, c := range p.Cells {
		if i < costs.Rows && c.TileIndex < costs.Columns {
			total += costs.At(i, c.TileIndex)
		}
	}
	return total
}

// CheckPlan verifies that p can be rendered with in's grid and tiles.
func CheckPlan(p plan.Plan, in *Inputs) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !fits(p, in) {
		g := in.Mosaic.Grid
		return fmt.Errorf("%w: plan is %dx%d cells of %dx%d with max tile %d, inputs give %v cells of %v with %d tiles",
			plan.ErrInvalidPlan, p.GridWidth, p.GridHeight, p.CellWidth, p.CellHeight, p.MaxTileIndex(),
			g.Size, g.CellSize, len(in.Mosaic.Tiles))
	}
	return nil
}
