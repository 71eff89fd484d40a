// Package plan turns solver assignments into placement plans and renders
// them.
//
// A [Plan] lists, per grid cell, which tile goes there and at which pixel
// offset. It holds no pixel data, so a plan computed in one process can be
// stored as JSON and rendered later wherever the tiles are available:
//
//	p, err := plan.Build(g, len(tiles), assignment)
//	data, err := plan.Marshal(p)
//	...
//	p, err = plan.Unmarshal(data)
//	img, err := p.Render(p.Bounds(), tiles)
package plan

import (
	"errors"
	"fmt"
	"image"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/matrix"
	"github.com/matzehuels/tessellate/pkg/core/solver"
)

var (
	// ErrInvalidTileIndex is returned when a placement references a tile
	// that does not exist.
	ErrInvalidTileIndex = errors.New("plan: invalid tile index")
	// ErrImageCopy is returned when a tile cannot be copied into the output.
	ErrImageCopy = errors.New("plan: image copy failed")
	// ErrInvalidPlan is returned by Validate for malformed plans.
	ErrInvalidPlan = errors.New("plan: invalid plan")
)

// SizeMismatchError reports a cost matrix whose shape does not fit the
// grid and tile set.
type SizeMismatchError struct {
	Expected [2]int // cells, minimum tile columns
	Found    [2]int // rows, columns
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("plan: distance matrix size mismatch: expected %dx%d, found %dx%d",
		e.Expected[0], e.Expected[1], e.Found[0], e.Found[1])
}

// AssignmentLengthError reports an assignment that does not cover every
// cell exactly once.
type AssignmentLengthError struct {
	Expected int
	Found    int
}

func (e *AssignmentLengthError) Error() string {
	return fmt.Sprintf("plan: invalid assignment length: expected %d, found %d", e.Expected, e.Found)
}

// Cell places one tile.
type Cell struct {
	TileIndex int `json:"tile_index" bson:"tile_index"`
	X         int `json:"x" bson:"x"`
	Y         int `json:"y" bson:"y"`
}

// Plan is a deferred render job: tile placements plus grid geometry.
type Plan struct {
	Cells      []Cell `json:"cells" bson:"cells"`
	CellWidth  int    `json:"cell_width" bson:"cell_width"`
	CellHeight int    `json:"cell_height" bson:"cell_height"`
	GridWidth  int    `json:"grid_width" bson:"grid_width"`
	GridHeight int    `json:"grid_height" bson:"grid_height"`
}

// CheckShape verifies that m has one row per cell and at least one column
// per tile.
func CheckShape(cells, tiles int, m *matrix.CostMatrix) error {
	if m.Rows != cells || m.Columns < tiles {
		return &SizeMismatchError{
			Expected: [2]int{cells, tiles},
			Found:    [2]int{m.Rows, m.Columns},
		}
	}
	return nil
}

// Build converts an assignment over g's cells into a Plan. Column indices
// are reduced modulo tiles, so assignments over a tiled matrix are
// accepted.
func Build(g *grid.Grid, tiles int, a solver.Assignment) (Plan, error) {
	if len(a) != g.Len() {
		return Plan{}, &AssignmentLengthError{Expected: g.Len(), Found: len(a)}
	}
	if tiles <= 0 {
		return Plan{}, fmt.Errorf("%w: no tiles", ErrInvalidTileIndex)
	}

	p := Plan{
		Cells:      make([]Cell, len(a)),
		CellWidth:  g.CellSize.W,
		CellHeight: g.CellSize.H,
		GridWidth:  g.Size.W,
		GridHeight: g.Size.H,
	}
	for i, col := range a {
		if col < 0 {
			return Plan{}, fmt.Errorf("%w: cell %d has %d", ErrInvalidTileIndex, i, col)
		}
		origin := g.CellOrigin(i)
		p.Cells[i] = Cell{TileIndex: col % tiles, X: origin.X, Y: origin.Y}
	}
	return p, nil
}

// Bounds returns the rectangle covered by the plan's grid.
func (p Plan) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.GridWidth*p.CellWidth, p.GridHeight*p.CellHeight)
}

// Validate checks the plan geometry and that every cell lies inside
// Bounds.
func (p Plan) Validate() error {
	if p.CellWidth <= 0 || p.CellHeight <= 0 || p.GridWidth <= 0 || p.GridHeight <= 0 {
		return fmt.Errorf("%w: non-positive cell or grid size", ErrInvalidPlan)
	}
	if len(p.Cells) != p.GridWidth*p.GridHeight {
		return fmt.Errorf("%w: %d cells for a %dx%d grid", ErrInvalidPlan, len(p.Cells), p.GridWidth, p.GridHeight)
	}
	b := p.Bounds()
	for i, c := range p.Cells {
		if c.TileIndex < 0 {
			return fmt.Errorf("%w: cell %d: %w", ErrInvalidPlan, i, ErrInvalidTileIndex)
		}
		r := image.Rect(c.X, c.Y, c.X+p.CellWidth, c.Y+p.CellHeight)
		if !r.In(b) {
			return fmt.Errorf("%w: cell %d at (%d,%d) outside %v", ErrInvalidPlan, i, c.X, c.Y, b)
		}
	}
	return nil
}

// Usage counts how many cells each tile index fills.
func (p Plan) Usage() map[int]int {
	u := make(map[int]int)
	for _, c := range p.Cells {
		u[c.TileIndex]++
	}
	return u
}

// MaxTileIndex returns the largest referenced tile index, or -1 for an
// empty plan.
func (p Plan) MaxTileIndex() int {
	m := -1
	for _, c := range p.Cells {
		m = max(m, c.TileIndex)
	}
	return m
}
