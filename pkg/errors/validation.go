package errors

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxGridCells bounds the number of cells a request may ask for. The cost
// matrix is dense, so this also bounds memory.
const MaxGridCells = 200 * 200

// ValidateGridSize checks that a grid is non-empty and within MaxGridCells.
func ValidateGridSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidGrid, "grid size must be positive, got %dx%d", w, h)
	}
	if w*h > MaxGridCells {
		return New(ErrCodeInvalidGrid, "grid %dx%d has more than %d cells", w, h, MaxGridCells)
	}
	return nil
}

// ValidateMaxOccurrences checks the tile reuse cap.
func ValidateMaxOccurrences(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "max occurrences must be at least 1, got %d", n)
	}
	return nil
}

// ValidatePath validates a path relative to a served root directory.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") || filepath.IsAbs(path) {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidatePlanID checks that id is a UUID as issued by the plan store.
func ValidatePlanID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return New(ErrCodeInvalidInput, "invalid plan id %q", id)
	}
	return nil
}

// ValidateFormat checks an output image format name.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff":
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported image format %q", format)
}
