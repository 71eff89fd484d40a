// Package mosaic wires grid, metric, solver and plan together for one
// target image and tile set.
//
// # Usage
//
//	m, err := mosaic.New(target, tiles, grid.Size{W: 20, H: 20}, 2)
//	costs, err := m.DistanceMatrix(ctx, metric.NormL1, 0)
//	p, err := m.Plan(ctx, costs, solver.Hungarian{}, nil)
//	img, err := m.Render(p)
//
// [New] validates everything the solvers and the plan builder rely on up
// front: tile sizes must equal the grid's cell size, and the tiles must be
// able to cover every cell under the reuse cap.
package mosaic

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/matrix"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
)

// TileSizeError reports a tile whose size differs from the cell size.
type TileSizeError struct {
	Index    int
	Expected image.Point
	Found    image.Point
}

func (e *TileSizeError) Error() string {
	return fmt.Sprintf("mosaic: tile %d is %dx%d, cells are %dx%d (crop or resize tiles to fit)",
		e.Index, e.Found.X, e.Found.Y, e.Expected.X, e.Expected.Y)
}

// InsufficientTilesError reports a tile set too small for the grid.
type InsufficientTilesError struct {
	Provided           int
	Required           int
	MaxTileOccurrences int
}

func (e *InsufficientTilesError) Error() string {
	return fmt.Sprintf("mosaic: not enough tiles: %d tiles × %d occurrences cannot fill %d cells",
		e.Provided, e.MaxTileOccurrences, e.Required)
}

// Mosaic is a validated target grid plus the tiles that will fill it.
type Mosaic struct {
	Grid               *grid.Grid
	Tiles              []*image.NRGBA
	MaxTileOccurrences int
}

// New partitions target into gridSize cells and validates tiles against
// the result.
func New(target image.Image, tiles []*image.NRGBA, gridSize grid.Size, maxTileOccurrences int) (*Mosaic, error) {
	if maxTileOccurrences < 1 {
		return nil, solver.ErrInvalidConfig
	}
	g, err := grid.FromImage(target, gridSize)
	if err != nil {
		return nil, err
	}
	return FromGrid(g, tiles, maxTileOccurrences)
}

// FromGrid validates tiles against an existing grid.
func FromGrid(g *grid.Grid, tiles []*image.NRGBA, maxTileOccurrences int) (*Mosaic, error) {
	if maxTileOccurrences < 1 {
		return nil, solver.ErrInvalidConfig
	}
	cell := image.Pt(g.CellSize.W, g.CellSize.H)
	for i, t := range tiles {
		if size := t.Bounds().Size(); size != cell {
			return nil, &TileSizeError{Index: i, Expected: cell, Found: size}
		}
	}
	if len(tiles)*maxTileOccurrences < g.Len() {
		return nil, &InsufficientTilesError{
			Provided:           len(tiles),
			Required:           g.Len(),
			MaxTileOccurrences: maxTileOccurrences,
		}
	}
	return &Mosaic{Grid: g, Tiles: tiles, MaxTileOccurrences: maxTileOccurrences}, nil
}

// DistanceMatrix scores every cell against every tile.
func (m *Mosaic) DistanceMatrix(ctx context.Context, fn metric.Func, workers int) (*matrix.CostMatrix, error) {
	return metric.DistanceMatrix(ctx, m.Grid.Cells, m.Tiles, fn, workers)
}

// Plan solves costs with s and turns the assignment into a Plan. progress
// may be nil.
func (m *Mosaic) Plan(ctx context.Context, costs *matrix.CostMatrix, s solver.Solver, progress func(done, total int)) (plan.Plan, error) {
	if err := plan.CheckShape(m.Grid.Len(), len(m.Tiles), costs); err != nil {
		return plan.Plan{}, err
	}
	a, err := s.Solve(ctx, costs, solver.Config{
		MaxTileOccurrences: m.MaxTileOccurrences,
		Progress:           progress,
	})
	if err != nil {
		return plan.Plan{}, err
	}
	return plan.Build(m.Grid, len(m.Tiles), a)
}

// Render draws p using the mosaic's tiles at the size of the cropped
// target.
func (m *Mosaic) Render(p plan.Plan) (*image.NRGBA, error) {
	return p.Render(m.Grid.Bounds(), m.Tiles)
}

// Build plans and renders in one step.
func (m *Mosaic) Build(ctx context.Context, costs *matrix.CostMatrix, s solver.Solver) (*image.NRGBA, error) {
	p, err := m.Plan(ctx, costs, s, nil)
	if err != nil {
		return nil, err
	}
	return m.Render(p)
}

// OverlayGrid draws the grid's cells on a white canvas with a one pixel
// gap between neighbours, which shows how the target was partitioned.
func OverlayGrid(g *grid.Grid) image.Image {
	b := g.Bounds()
	dc := gg.NewContext(b.Dx()+g.Size.W-1, b.Dy()+g.Size.H-1)
	dc.SetColor(color.White)
	dc.Clear()
	for i, cell := range g.Cells {
		col, row := i%g.Size.W, i/g.Size.W
		dc.DrawImage(cell, col*g.CellSize.W+col, row*g.CellSize.H+row)
	}
	return dc.Image()
}

// DefaultGridSize picks a square grid that leaves about a fifth of the
// tiles unused, giving the solver some choice.
func DefaultGridSize(tileCount int) grid.Size {
	n := int(math.Round(math.Sqrt(float64(tileCount) * 0.8)))
	n = max(n, 1)
	return grid.Size{W: n, H: n}
}
