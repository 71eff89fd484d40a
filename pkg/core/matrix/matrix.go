package matrix

import (
	"errors"
	"slices"
)

var (
	// ErrWrongLength is returned when the data length is not rows*columns.
	ErrWrongLength = errors.New("matrix: data length does not match rows*columns")
	// ErrEmptyRow is returned when a matrix would have no rows.
	ErrEmptyRow = errors.New("matrix: matrix has no rows")
	// ErrEmptyCol is returned when a matrix would have no columns.
	ErrEmptyCol = errors.New("matrix: matrix has no columns")
)

// CostMatrix is a dense row-major matrix of non-negative costs.
type CostMatrix struct {
	Rows    int     `json:"rows"`
	Columns int     `json:"columns"`
	Data    []int64 `json:"data"`
}

// New validates the shape and wraps data without copying it.
//
// Checks run in order: rows, columns, then data length.
func New(rows, columns int, data []int64) (*CostMatrix, error) {
	if rows <= 0 {
		return nil, ErrEmptyRow
	}
	if columns <= 0 {
		return nil, ErrEmptyCol
	}
	if rows*columns != len(data) {
		return nil, ErrWrongLength
	}
	return &CostMatrix{Rows: rows, Columns: columns, Data: data}, nil
}

// Zeros returns a rows×columns matrix filled with zero costs.
func Zeros(rows, columns int) (*CostMatrix, error) {
	if rows <= 0 {
		return nil, ErrEmptyRow
	}
	if columns <= 0 {
		return nil, ErrEmptyCol
	}
	return &CostMatrix{Rows: rows, Columns: columns, Data: make([]int64, rows*columns)}, nil
}

// At returns the cost of assigning column c to row r.
func (m *CostMatrix) At(r, c int) int64 {
	return m.Data[r*m.Columns+c]
}

// Row returns row r as a slice sharing the matrix storage.
func (m *CostMatrix) Row(r int) []int64 {
	start := r * m.Columns
	return m.Data[start : start+m.Columns : start+m.Columns]
}

// Clone returns a deep copy of m.
func (m *CostMatrix) Clone() *CostMatrix {
	return &CostMatrix{Rows: m.Rows, Columns: m.Columns, Data: slices.Clone(m.Data)}
}

// Tile returns a new matrix with Columns*n columns in which every row is
// its original row repeated n times. Virtual column j corresponds to real
// column j mod Columns, so the original matrix is the first Columns
// entries of each tiled row. For n <= 1 a copy of m is returned.
func (m *CostMatrix) Tile(n int) *CostMatrix {
	if n <= 1 {
		return m.Clone()
	}
	columns := m.Columns * n
	data := make([]int64, 0, m.Rows*columns)
	for r := range m.Rows {
		row := m.Row(r)
		for range n {
			data = append(data, row...)
		}
	}
	return &CostMatrix{Rows: m.Rows, Columns: columns, Data: data}
}

// Cost returns the total cost of an assignment where assignment[r] is the
// column chosen for row r. Columns beyond m.Columns are folded back with
// mod Columns so tiled assignments can be scored against the untiled
// matrix.
func (m *CostMatrix) Cost(assignment []int) int64 {
	var total int64
	for r, c := range assignment {
		total += m.At(r, c%m.Columns)
	}
	return total
}
