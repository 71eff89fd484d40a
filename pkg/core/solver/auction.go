package solver

import (
	"context"
	"math"

	"github.com/matzehuels/tessellate/pkg/core/matrix"
)

// DefaultEpsilon is the bid increment used by New.
const DefaultEpsilon int64 = 1

// Auction treats cells as bidders and tiles as goods. Each unassigned cell
// bids for its best tile by the margin over its runner-up plus Epsilon,
// raising that tile's price. Epsilon is fixed for the whole solve.
//
// A placed cell is never outbid, so every round settles at least one cell
// and the loop ends after at most Rows rounds.
type Auction struct {
	// Epsilon is the minimum bid increment. Values below 1 use
	// DefaultEpsilon.
	Epsilon int64
}

// Name implements Solver.
func (Auction) Name() string { return string(KindAuction) }

// Solve implements Solver.
func (a Auction) Solve(ctx context.Context, m *matrix.CostMatrix, cfg Config) (Assignment, error) {
	if err := checkCapacity(m, cfg); err != nil {
		return nil, err
	}
	eps := a.Epsilon
	if eps < 1 {
		eps = DefaultEpsilon
	}

	prices := make([]int64, m.Columns)
	uses := make([]int, m.Columns)
	out := make(Assignment, m.Rows)
	for i := range out {
		out[i] = unassigned
	}

	done := 0
	for done < m.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for agent := range m.Rows {
			if out[agent] != unassigned {
				continue
			}
			best, bestVal, secondVal, ok := bestBids(m.Row(agent), prices, uses, cfg.MaxTileOccurrences)
			if !ok {
				return nil, ErrUnassignedAgents
			}
			bid := satAdd(satSub(bestVal, secondVal), eps)
			prices[best] = satAdd(prices[best], bid)
			out[agent] = best
			uses[best]++
			done++
		}
		cfg.report(done, m.Rows)
	}

	return out, nil
}

// bestBids returns the eligible column with the highest value
// -cost-price, that value, and the runner-up value. With a single
// eligible column the runner-up is math.MinInt64. ok is false when no
// column is eligible.
func bestBids(costs, prices []int64, uses []int, limit int) (best int, bestVal, secondVal int64, ok bool) {
	best = unassigned
	bestVal, secondVal = math.MinInt64, math.MinInt64
	for j, cost := range costs {
		if uses[j] >= limit {
			continue
		}
		v := satSub(-cost, prices[j])
		switch {
		case best == unassigned || v > bestVal:
			if best != unassigned {
				secondVal = bestVal
			}
			best, bestVal = j, v
		case v > secondVal:
			secondVal = v
		}
	}
	return best, bestVal, secondVal, best != unassigned
}

func satAdd(a, b int64) int64 {
	s := a + b
	switch {
	case a > 0 && b > 0 && s < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && s >= 0:
		return math.MinInt64
	}
	return s
}

func satSub(a, b int64) int64 {
	if b == math.MinInt64 {
		if a >= 0 {
			return math.MaxInt64
		}
		return a - b
	}
	return satAdd(a, -b)
}
