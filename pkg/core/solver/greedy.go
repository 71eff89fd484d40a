package solver

import (
	"container/heap"
	"context"

	"github.com/matzehuels/tessellate/pkg/core/matrix"
)

// ctxCheckInterval is how many heap pops Greedy performs between context
// checks.
const ctxCheckInterval = 1 << 14

// Greedy repeatedly takes the cheapest remaining (cell, tile) pair. Every
// pair is pushed up front; ties resolve by lower cell index, then lower
// tile index. There is no optimality guarantee.
type Greedy struct{}

// Name implements Solver.
func (Greedy) Name() string { return string(KindGreedy) }

// Solve implements Solver.
func (Greedy) Solve(ctx context.Context, m *matrix.CostMatrix, cfg Config) (Assignment, error) {
	if err := checkCapacity(m, cfg); err != nil {
		return nil, err
	}

	h := make(pairHeap, 0, m.Rows*m.Columns)
	for r := range m.Rows {
		for c, cost := range m.Row(r) {
			h = append(h, pair{cost: cost, cell: r, tile: c})
		}
	}
	heap.Init(&h)

	out := make(Assignment, m.Rows)
	filled := make([]bool, m.Rows)
	uses := make([]int, m.Columns)
	done := 0

	for pops := 0; done < m.Rows && h.Len() > 0; pops++ {
		if pops%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := heap.Pop(&h).(pair)
		if filled[p.cell] || uses[p.tile] >= cfg.MaxTileOccurrences {
			continue
		}
		out[p.cell] = p.tile
		filled[p.cell] = true
		uses[p.tile]++
		done++
		cfg.report(done, m.Rows)
	}

	return out, nil
}

type pair struct {
	cost int64
	cell int
	tile int
}

// pairHeap is a min-heap ordered by (cost, cell, tile).
type pairHeap []pair

func (h pairHeap) Len() int { return len(h) }

func (h pairHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.cell != b.cell {
		return a.cell < b.cell
	}
	return a.tile < b.tile
}

func (h pairHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pairHeap) Push(x any) { *h = append(*h, x.(pair)) }

func (h *pairHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
