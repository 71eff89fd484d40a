// Package solver assigns grid cells to tiles by minimising total cost.
//
// # Overview
//
// Every solver consumes an untiled [matrix.CostMatrix] (rows are cells,
// columns are tiles) and a [Config] carrying the reuse cap, and returns an
// [Assignment]: one tile index in [0, Columns) per row. Three algorithms
// share the [Solver] interface:
//
//   - [Hungarian]: exact. Jonker-Volgenant shortest augmenting paths over
//     the matrix tiled by MaxTileOccurrences. O(rows² · columns).
//   - [Greedy]: fast heuristic. Pops (cost, cell, tile) triples from a
//     min-heap over every pair, skipping filled cells and saturated tiles.
//   - [Auction]: market based. Cells bid for tiles with a fixed epsilon
//     increment until every cell holds a tile.
//
// Use [New] to build a solver by [Kind]:
//
//	s, err := solver.New(solver.KindHungarian)
//	a, err := s.Solve(ctx, m, solver.Config{MaxTileOccurrences: 2})
//
// # Capacity
//
// All solvers check the same precondition on the untiled matrix:
// Columns*MaxTileOccurrences must be at least Rows, otherwise a
// [*TooFewColumnsError] is returned. MaxTileOccurrences below 1 is
// [ErrInvalidConfig].
//
// # Concurrency
//
// Solvers hold no state between calls. Working arrays are allocated per
// Solve, so a single Solver value may serve concurrent calls. The context
// is checked between Hungarian rows, between Auction rounds and
// periodically while Greedy drains its heap.
package solver
