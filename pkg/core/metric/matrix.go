package metric

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tessellate/pkg/core/matrix"
)

// DistanceMatrix scores every (cell, tile) pair with fn. Rows are filled
// concurrently by up to workers goroutines (GOMAXPROCS when workers < 1);
// each goroutine writes only its own row.
func DistanceMatrix(ctx context.Context, cells, tiles []*image.NRGBA, fn Func, workers int) (*matrix.CostMatrix, error) {
	m, err := matrix.Zeros(len(cells), len(tiles))
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	for i, t := range tiles {
		if t.Rect.Size() != cells[0].Rect.Size() {
			return nil, fmt.Errorf("metric: tile %d is %v, cells are %v", i, t.Rect.Size(), cells[0].Rect.Size())
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for r, cell := range cells {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := m.Row(r)
			for c, tile := range tiles {
				row[c] = fn(cell, tile)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
