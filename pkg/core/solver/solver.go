package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/tessellate/pkg/core/matrix"
)

var (
	// ErrInvalidConfig is returned when MaxTileOccurrences is below 1.
	ErrInvalidConfig = errors.New("solver: max tile occurrences must be at least 1")
	// ErrInfeasible is returned by Hungarian when no augmenting path exists.
	// Unreachable when the capacity check passes.
	ErrInfeasible = errors.New("solver: no feasible assignment")
	// ErrUnassignedAgents is returned by Auction when a cell has no tile
	// with remaining capacity.
	ErrUnassignedAgents = errors.New("solver: cell left without an eligible tile")
	// ErrUnknownSolver is returned by New for unrecognised kinds.
	ErrUnknownSolver = errors.New("solver: unknown solver")
)

// TooFewColumnsError reports a matrix whose columns cannot cover its rows
// under the configured reuse cap.
type TooFewColumnsError struct {
	Rows               int
	Columns            int
	MaxTileOccurrences int
}

func (e *TooFewColumnsError) Error() string {
	return fmt.Sprintf("solver: too few columns: %d columns × %d occurrences cannot cover %d rows",
		e.Columns, e.MaxTileOccurrences, e.Rows)
}

// Assignment maps each row (cell) to a column (tile) index.
type Assignment []int

// Config controls a single Solve call.
type Config struct {
	// MaxTileOccurrences caps how many cells may use the same tile.
	MaxTileOccurrences int `json:"max_tile_occurrences"`

	// Progress, when set, is called with the number of rows settled so
	// far and the total. It is called from the solving goroutine.
	Progress func(done, total int) `json:"-"`
}

func (c Config) report(done, total int) {
	if c.Progress != nil {
		c.Progress(done, total)
	}
}

// Solver computes a minimum-cost assignment of rows to columns.
type Solver interface {
	// Name returns the solver's [Kind] as a string.
	Name() string
	// Solve assigns every row of m to a column, using no column more than
	// cfg.MaxTileOccurrences times.
	Solve(ctx context.Context, m *matrix.CostMatrix, cfg Config) (Assignment, error)
}

// Kind identifies a solver implementation.
type Kind string

const (
	KindHungarian Kind = "hungarian"
	KindGreedy    Kind = "greedy"
	KindAuction   Kind = "auction"
)

// Kinds lists every supported solver in display order.
var Kinds = []Kind{KindHungarian, KindGreedy, KindAuction}

// New returns the solver for kind.
func New(kind Kind) (Solver, error) {
	switch kind {
	case KindHungarian:
		return Hungarian{}, nil
	case KindGreedy:
		return Greedy{}, nil
	case KindAuction:
		return Auction{Epsilon: DefaultEpsilon}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, kind)
	}
}

// checkCapacity validates cfg against the untiled matrix m.
func checkCapacity(m *matrix.CostMatrix, cfg Config) error {
	if cfg.MaxTileOccurrences < 1 {
		return ErrInvalidConfig
	}
	if m.Columns*cfg.MaxTileOccurrences < m.Rows {
		return &TooFewColumnsError{Rows: m.Rows, Columns: m.Columns, MaxTileOccurrences: cfg.MaxTileOccurrences}
	}
	return nil
}
