// Package pipeline provides the mosaic build pipeline shared by the CLI and
// the HTTP server.
//
// A build runs four stages:
//
//  1. Load: decode the target and tile directory, pick the grid, fit and
//     colour-match the tiles
//  2. Matrix: score every grid cell against every tile with a metric
//  3. Solve: assign tiles to cells under the reuse cap and build a plan
//  4. Render: draw the plan and encode it in the requested formats
//
// Matrix, plan and artifacts are cached under keys derived from content
// hashes of the inputs, so rerunning with a different solver reuses the
// matrix and rerunning with a different output format reuses the plan.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Target:  "photo.jpg",
//	    TileDir: "tiles/",
//	    Formats: []string{"png"},
//	})
//	png := result.Artifacts["png"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/colormatch"
	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/imgio"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSolver is the solver used when none is given.
	DefaultSolver = string(solver.KindHungarian)

	// DefaultMetric is the cell/tile distance used when none is given.
	DefaultMetric = metric.Default

	// DefaultMaxOccurrences allows every tile exactly once.
	DefaultMaxOccurrences = 1

	// FormatPNG is the default output format.
	FormatPNG = "png"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a mosaic build.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Target     string `json:"target"`
	TileDir    string `json:"tile_dir"`
	GridWidth  int    `json:"grid_width,omitempty"`  // 0 picks a grid from the tile count
	GridHeight int    `json:"grid_height,omitempty"` // 0 picks a grid from the tile count
	TileMode   string `json:"tile_mode,omitempty"`   // "", "crop" or "resize"
	Equalize   bool   `json:"equalize,omitempty"`
	Transfer   string `json:"transfer,omitempty"` // "", "target-to-tiles" or "tiles-to-target"

	// Matrix options
	Metric  string `json:"metric,omitempty"`
	Workers int    `json:"workers,omitempty"`

	// Solve options
	Solver         string `json:"solver,omitempty"`
	MaxOccurrences int    `json:"max_occurrences,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger             `json:"-"`
	Progress func(done, total int) `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the solved placement of tiles on the grid.
	Plan plan.Plan

	// PlanHash is the content hash of the plan JSON.
	PlanHash string

	// TileNames lists tile file names in tile-index order.
	TileNames []string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Cells      int           `json:"cells" bson:"cells"`
	Tiles      int           `json:"tiles" bson:"tiles"`
	Cost       int64         `json:"cost" bson:"cost"`
	Solver     string        `json:"solver" bson:"solver"`
	Metric     string        `json:"metric" bson:"metric"`
	LoadTime   time.Duration `json:"load_time" bson:"load_time"`
	MatrixTime time.Duration `json:"matrix_time" bson:"matrix_time"`
	SolveTime  time.Duration `json:"solve_time" bson:"solve_time"`
	RenderTime time.Duration `json:"render_time" bson:"render_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	MatrixHit bool // Whether the cost matrix came from cache
	PlanHit   bool // Whether the plan came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateSolver checks that a solver name is known.
func ValidateSolver(name string) error {
	if !slices.Contains(solver.Kinds, solver.Kind(name)) {
		return errs.New(errs.ErrCodeInvalidSolver, "invalid solver: %q (must be one of: %s)", name, joinKinds())
	}
	return nil
}

// ValidateMetric checks that a metric name is known.
func ValidateMetric(name string) error {
	if _, err := metric.ByName(name); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidMetric, err, "invalid metric: %q", name)
	}
	return nil
}

// ValidateTileMode checks a tile fitting mode.
func ValidateTileMode(mode string) error {
	switch imgio.TileMode(mode) {
	case imgio.TileAsIs, imgio.TileCrop, imgio.TileResize:
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput, "invalid tile mode: %q (must be crop or resize)", mode)
}

// ValidateTransfer checks a palette transfer direction.
func ValidateTransfer(mode string) error {
	switch colormatch.Mode(mode) {
	case colormatch.ModeNone, colormatch.ModeTargetToTiles, colormatch.ModeTilesToTarget:
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput, "invalid transfer: %q (must be %s or %s)",
		mode, colormatch.ModeTargetToTiles, colormatch.ModeTilesToTarget)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errs.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func joinKinds() string {
	s := ""
	for i, k := range solver.Kinds {
		if i > 0 {
			s += ", "
		}
		s += string(k)
	}
	return s
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset solver, metric, reuse cap and logger.
func (o *Options) SetDefaults() {
	if o.Solver == "" {
		o.Solver = DefaultSolver
	}
	if o.Metric == "" {
		o.Metric = DefaultMetric
	}
	if o.MaxOccurrences == 0 {
		o.MaxOccurrences = DefaultMaxOccurrences
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults checks every option after applying defaults.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	if o.Target == "" {
		return errs.New(errs.ErrCodeInvalidInput, "target image is required")
	}
	if o.TileDir == "" {
		return errs.New(errs.ErrCodeInvalidInput, "tile directory is required")
	}
	if o.GridWidth != 0 || o.GridHeight != 0 {
		if err := errs.ValidateGridSize(o.GridWidth, o.GridHeight); err != nil {
			return err
		}
	}
	if err := errs.ValidateMaxOccurrences(o.MaxOccurrences); err != nil {
		return err
	}
	if err := ValidateSolver(o.Solver); err != nil {
		return err
	}
	if err := ValidateMetric(o.Metric); err != nil {
		return err
	}
	if err := ValidateTileMode(o.TileMode); err != nil {
		return err
	}
	if err := ValidateTransfer(o.Transfer); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// GridSize returns the requested grid, or the zero Size when the grid
// should be derived from the tile count.
func (o *Options) GridSize() grid.Size {
	return grid.Size{W: o.GridWidth, H: o.GridHeight}
}

// MatrixKeyOpts returns cache key options for the cost matrix.
func (o *Options) MatrixKeyOpts(size grid.Size) cache.MatrixKeyOpts {
	return cache.MatrixKeyOpts{
		GridWidth:  size.W,
		GridHeight: size.H,
		Metric:     o.Metric,
		TileMode:   o.TileMode,
		Equalize:   o.Equalize,
		Transfer:   o.Transfer,
	}
}

// PlanKeyOpts returns cache key options for solving.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Solver:         o.Solver,
		MaxOccurrences: o.MaxOccurrences,
	}
}

// String summarises the options for logs and stored records.
func (o *Options) String() string {
	g := "auto"
	if o.GridWidth > 0 {
		g = o.GridSize().String()
	}
	return fmt.Sprintf("grid=%s solver=%s metric=%s max=%d", g, o.Solver, o.Metric, o.MaxOccurrences)
}
