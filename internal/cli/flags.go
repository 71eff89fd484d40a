package cli

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/core/metric"
	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/pipeline"
)

// planFlags holds the flags shared by commands that load inputs and solve.
type planFlags struct {
	// load
	cropTiles   bool
	resizeTiles bool
	equalize    bool
	transfer    string
	workers     int
	noCache     bool

	// solve
	grid           string
	maxOccurrences int
	solver         string
	metric         string
	refresh        bool
	tui            bool
}

// register adds the load and solve flags to cmd.
func (f *planFlags) register(cmd *cobra.Command) {
	f.registerLoad(cmd)

	fs := cmd.Flags()
	fs.StringVar(&f.grid, "grid", "", "grid size as W,H (default from the tile count)")
	fs.IntVar(&f.maxOccurrences, "max-occurrences", pipeline.DefaultMaxOccurrences, "how often each tile may be used")
	fs.StringVar(&f.solver, "solver", pipeline.DefaultSolver, "assignment solver: hungarian, greedy or auction")
	fs.StringVar(&f.metric, "metric", pipeline.DefaultMetric, "cell/tile distance: "+strings.Join(metric.Names(), ", "))
	fs.BoolVar(&f.refresh, "refresh", false, "recompute every stage, ignoring cached results")
	fs.BoolVar(&f.tui, "tui", false, "show a live solver progress view")
}

// registerLoad adds only the flags that affect how inputs are loaded.
func (f *planFlags) registerLoad(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.cropTiles, "crop-tiles", false, "scale tiles to cover a cell and crop the centre")
	fs.BoolVar(&f.resizeTiles, "resize-tiles", false, "stretch tiles to the cell size")
	fs.BoolVar(&f.equalize, "equalize", false, "equalise the histograms of target and tiles")
	fs.StringVar(&f.transfer, "transfer", "", "palette transfer: target-to-tiles or tiles-to-target")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers for loading and scoring (default GOMAXPROCS)")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the stage cache")
	cmd.MarkFlagsMutuallyExclusive("crop-tiles", "resize-tiles")
}

// options converts the flags into pipeline options for target and tileDir.
func (f *planFlags) options(target, tileDir string) (pipeline.Options, error) {
	opts := pipeline.Options{
		Target:         target,
		TileDir:        tileDir,
		Equalize:       f.equalize,
		Transfer:       f.transfer,
		Workers:        f.workers,
		Solver:         f.solver,
		Metric:         f.metric,
		MaxOccurrences: f.maxOccurrences,
		Refresh:        f.refresh,
	}
	switch {
	case f.cropTiles && f.resizeTiles:
		return opts, errs.New(errs.ErrCodeInvalidInput, "--crop-tiles and --resize-tiles are mutually exclusive")
	case f.cropTiles:
		opts.TileMode = string(imgio.TileCrop)
	case f.resizeTiles:
		opts.TileMode = string(imgio.TileResize)
	}
	if err := pipeline.ValidateTransfer(f.transfer); err != nil {
		return opts, err
	}

	if f.grid != "" {
		w, h, err := parseGrid(f.grid)
		if err != nil {
			return opts, err
		}
		opts.GridWidth, opts.GridHeight = w, h
	}
	return opts, nil
}

// parseGrid parses "W,H", "WxH" or a single "N" for an N×N grid.
func parseGrid(s string) (int, int, error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == ',' || r == 'x' })
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return 0, 0, errs.New(errs.ErrCodeInvalidGrid, "grid %q: want W,H", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		return 0, 0, errs.New(errs.ErrCodeInvalidGrid, "grid %q: want W,H", s)
	}
	if err := errs.ValidateGridSize(w, h); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// formatFromPath derives the output format from a file extension.
func formatFromPath(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", errs.New(errs.ErrCodeInvalidFormat, "output %q has no extension", path)
	}
	if err := errs.ValidateFormat(ext); err != nil {
		return "", err
	}
	return ext, nil
}

func errUnknownCache(name string) error {
	return errs.New(errs.ErrCodeInvalidInput, "unknown cache backend %q (want %s, %s or %s)",
		name, cacheFile, cacheRedis, cacheNone)
}
