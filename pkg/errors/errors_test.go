package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
	"github.com/matzehuels/tessellate/pkg/mosaic"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "failed to render")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodePlanNotFound, "test"),
			expected: ErrCodePlanNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"grid", fmt.Errorf("load: %w", grid.ErrInvalidGridSize), ErrCodeInvalidGrid},
		{"solver", solver.ErrUnknownSolver, ErrCodeInvalidSolver},
		{"metric", metric.ErrUnknownMetric, ErrCodeInvalidMetric},
		{"tile size", &mosaic.TileSizeError{}, ErrCodeTileSizeMismatch},
		{"too few tiles", &mosaic.InsufficientTilesError{}, ErrCodeInsufficientTiles},
		{"too few columns", &solver.TooFewColumnsError{}, ErrCodeInsufficientTiles},
		{"matrix", &plan.SizeMismatchError{}, ErrCodeMatrixSizeMismatch},
		{"plan", plan.ErrInvalidTileIndex, ErrCodeInvalidPlan},
		{"infeasible", solver.ErrInfeasible, ErrCodeInfeasible},
		{"missing file", fs.ErrNotExist, ErrCodeFileNotFound},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"other", errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if GetCode(got) != tt.want {
				t.Errorf("Classify(%v) code = %v, want %v", tt.err, GetCode(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify(%v) lost the cause", tt.err)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
	coded := New(ErrCodePlanNotFound, "gone")
	if Classify(coded) != error(coded) {
		t.Error("Classify should keep existing codes")
	}
}
