// Package matrix provides the dense cell×tile cost matrix consumed by the
// assignment solvers.
//
// # Layout
//
// A [CostMatrix] stores Rows×Columns non-negative int64 costs in a single
// row-major slice: the cost of placing tile c in cell r lives at
// Data[r*Columns+c]. Rows are grid cells in row-major grid order and columns
// are tiles in input order.
//
//	m, err := matrix.New(2, 3, []int64{
//	    4, 1, 3,
//	    2, 0, 5,
//	})
//
// # Repeated Tiles
//
// When a tile may be used up to k times, [CostMatrix.Tile] widens the matrix
// to Columns*k by repeating each row k times. Virtual column j maps back to
// real tile j mod Columns.
//
// A CostMatrix is never mutated after construction and may be shared between
// goroutines.
package matrix
