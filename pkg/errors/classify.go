package errors

import (
	"context"
	"errors"
	"io/fs"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/matrix"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
	"github.com/matzehuels/tessellate/pkg/mosaic"
)

// Classify attaches a Code to an engine or I/O error. Errors that already
// carry a code are returned unchanged; nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(classify(err), err, "%s", err.Error())
}

func classify(err error) Code {
	var (
		tileSize   *mosaic.TileSizeError
		tooFew     *mosaic.InsufficientTilesError
		sizeMis    *plan.SizeMismatchError
		assignLen  *plan.AssignmentLengthError
		tooFewCols *solver.TooFewColumnsError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeFileNotFound
	case errors.Is(err, grid.ErrInvalidGridSize), errors.Is(err, grid.ErrGridSizeMismatch):
		return ErrCodeInvalidGrid
	case errors.Is(err, solver.ErrUnknownSolver), errors.Is(err, solver.ErrInvalidConfig):
		return ErrCodeInvalidSolver
	case errors.Is(err, metric.ErrUnknownMetric):
		return ErrCodeInvalidMetric
	case errors.As(err, &tileSize):
		return ErrCodeTileSizeMismatch
	case errors.As(err, &tooFew), errors.As(err, &tooFewCols):
		return ErrCodeInsufficientTiles
	case errors.As(err, &sizeMis), errors.Is(err, matrix.ErrWrongLength),
		errors.Is(err, matrix.ErrEmptyRow), errors.Is(err, matrix.ErrEmptyCol):
		return ErrCodeMatrixSizeMismatch
	case errors.Is(err, plan.ErrInvalidPlan), errors.Is(err, plan.ErrInvalidTileIndex), errors.As(err, &assignLen):
		return ErrCodeInvalidPlan
	case errors.Is(err, solver.ErrInfeasible), errors.Is(err, solver.ErrUnassignedAgents):
		return ErrCodeInfeasible
	default:
		return ErrCodeInternal
	}
}
