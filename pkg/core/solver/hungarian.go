package solver

import (
	"context"
	"math"

	"github.com/matzehuels/tessellate/pkg/core/matrix"
)

const unassigned = -1

// Hungarian is the exact solver: the Jonker-Volgenant shortest augmenting
// path variant of the Hungarian method. Repeated tiles are handled by
// tiling the matrix with MaxTileOccurrences virtual copies of every column.
type Hungarian struct{}

// Name implements Solver.
func (Hungarian) Name() string { return string(KindHungarian) }

// Solve implements Solver. Returned indices are folded back onto the
// untiled columns.
func (Hungarian) Solve(ctx context.Context, m *matrix.CostMatrix, cfg Config) (Assignment, error) {
	if err := checkCapacity(m, cfg); err != nil {
		return nil, err
	}

	tiled := m
	if cfg.MaxTileOccurrences > 1 {
		tiled = m.Tile(cfg.MaxTileOccurrences)
	}

	s := newHungarianState(tiled)
	for r := range tiled.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink, minVal, err := s.shortestPath(r)
		if err != nil {
			return nil, err
		}
		s.updateDuals(r, minVal)
		s.augment(r, sink)
		cfg.report(r+1, tiled.Rows)
	}

	out := make(Assignment, tiled.Rows)
	for r, c := range s.colForRow {
		out[r] = c % m.Columns
	}
	return out, nil
}

// hungarianState holds the working arrays of one Solve call.
type hungarianState struct {
	m *matrix.CostMatrix

	dualRow  []int64
	dualCol  []int64
	pathCost []int64 // shortest path cost per column, reset per row
	path     []int   // predecessor row per column

	colForRow []int
	rowForCol []int

	visitedRows []bool
	visitedCols []bool
	remaining   []int
}

func newHungarianState(m *matrix.CostMatrix) *hungarianState {
	s := &hungarianState{
		m:           m,
		dualRow:     make([]int64, m.Rows),
		dualCol:     make([]int64, m.Columns),
		pathCost:    make([]int64, m.Columns),
		path:        make([]int, m.Columns),
		colForRow:   make([]int, m.Rows),
		rowForCol:   make([]int, m.Columns),
		visitedRows: make([]bool, m.Rows),
		visitedCols: make([]bool, m.Columns),
		remaining:   make([]int, m.Columns),
	}
	for i := range s.colForRow {
		s.colForRow[i] = unassigned
	}
	for j := range s.rowForCol {
		s.rowForCol[j] = unassigned
		s.path[j] = unassigned
	}
	return s
}

// shortestPath grows a Dijkstra-like search from row start over reduced
// costs until it reaches an unassigned column. It returns that sink and the
// path length.
func (s *hungarianState) shortestPath(start int) (int, int64, error) {
	nc := s.m.Columns
	for j := range nc {
		s.remaining[j] = j
		s.pathCost[j] = math.MaxInt64
		s.visitedCols[j] = false
	}
	clear(s.visitedRows)

	var minVal int64
	numRemaining := nc
	row := start
	sink := unassigned

	for sink == unassigned {
		s.visitedRows[row] = true
		costs := s.m.Row(row)

		index := unassigned
		lowest := int64(math.MaxInt64)
		for it := range numRemaining {
			j := s.remaining[it]
			reduced := minVal + costs[j] - s.dualRow[row] - s.dualCol[j]
			if reduced < s.pathCost[j] {
				s.path[j] = row
				s.pathCost[j] = reduced
			}
			// Equal costs prefer a free column; without this the search can
			// walk through assigned columns forever on tied inputs.
			if s.pathCost[j] < lowest || (s.pathCost[j] == lowest && s.rowForCol[j] == unassigned) {
				lowest = s.pathCost[j]
				index = it
			}
		}

		if lowest == math.MaxInt64 {
			return 0, 0, ErrInfeasible
		}
		minVal = lowest

		j := s.remaining[index]
		if s.rowForCol[j] == unassigned {
			sink = j
		} else {
			row = s.rowForCol[j]
		}

		s.visitedCols[j] = true
		numRemaining--
		s.remaining[index], s.remaining[numRemaining] = s.remaining[numRemaining], s.remaining[index]
	}

	return sink, minVal, nil
}

func (s *hungarianState) updateDuals(start int, minVal int64) {
	s.dualRow[start] += minVal
	for i, visited := range s.visitedRows {
		if visited && i != start {
			s.dualRow[i] += minVal - s.pathCost[s.colForRow[i]]
		}
	}
	for j, visited := range s.visitedCols {
		if visited {
			s.dualCol[j] -= minVal - s.pathCost[j]
		}
	}
}

// augment flips the alternating path ending at sink back to row start.
func (s *hungarianState) augment(start, sink int) {
	col := sink
	for {
		row := s.path[col]
		s.rowForCol[col] = row
		s.colForRow[row], col = col, s.colForRow[row]
		if row == start {
			return
		}
	}
}
