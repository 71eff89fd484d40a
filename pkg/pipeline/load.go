package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/colormatch"
	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/mosaic"
	"github.com/matzehuels/tessellate/pkg/observability"
)

// Inputs is the loaded, validated state a build works on.
type Inputs struct {
	Mosaic    *mosaic.Mosaic
	TileNames []string

	// MatrixKey identifies the cost matrix these inputs produce under the
	// options they were loaded with.
	MatrixKey string
}

// Load decodes the target and tiles, resolves the grid and applies tile
// fitting and colour matching. The grid comes from opts when set and from
// the tile count otherwise.
func (r *Runner) Load(ctx context.Context, opts Options) (*Inputs, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	return r.load(ctx, opts, opts.GridSize())
}

func (r *Runner) load(ctx context.Context, opts Options, size grid.Size) (in *Inputs, err error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Target, opts.TileDir)
	start := time.Now()
	defer func() {
		n := 0
		if in != nil {
			n = len(in.TileNames)
		}
		hooks.OnLoadComplete(ctx, opts.Target, n, time.Since(start), err)
	}()

	target, err := imgio.Open(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}

	if size.W == 0 || size.H == 0 {
		n, err := imgio.CountImages(opts.TileDir)
		if err != nil {
			return nil, fmt.Errorf("count tiles: %w", err)
		}
		size = mosaic.DefaultGridSize(n)
		opts.Logger.Debug("derived grid from tile count", "tiles", n, "grid", size)
	}

	g, err := grid.FromImage(target, size)
	if err != nil {
		return nil, err
	}

	tiles, err := imgio.ReadDir(ctx, opts.TileDir, imgio.ReadDirOptions{
		Mode:     imgio.TileMode(opts.TileMode),
		CellSize: g.CellSize.Point(),
		Workers:  opts.Workers,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("read tiles: %w", err)
	}

	images := tiles.Images
	if opts.Equalize || opts.Transfer != "" {
		adjusted, matched := colormatch.Apply(g.Image, images, opts.Equalize, colormatch.Mode(opts.Transfer))
		images = matched
		if g, err = grid.FromImage(adjusted, size); err != nil {
			return nil, err
		}
	}

	m, err := mosaic.FromGrid(g, images, opts.MaxOccurrences)
	if err != nil {
		return nil, err
	}

	targetHash, err := cache.HashFiles(nil, []string{opts.Target})
	if err != nil {
		return nil, fmt.Errorf("hash target: %w", err)
	}
	paths := make([]string, len(tiles.Names))
	for i, name := range tiles.Names {
		paths[i] = filepath.Join(opts.TileDir, name)
	}
	tilesHash, err := cache.HashFiles(tiles.Names, paths)
	if err != nil {
		return nil, fmt.Errorf("hash tiles: %w", err)
	}

	return &Inputs{
		Mosaic:    m,
		TileNames: tiles.Names,
		MatrixKey: r.Keyer.MatrixKey(targetHash, tilesHash, opts.MatrixKeyOpts(size)),
	}, nil
}
