package mosaic_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/metric"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
	"github.com/matzehuels/tessellate/pkg/mosaic"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// shuffledCells returns the target's own cells in a fixed scrambled order
// and the permutation used.
func shuffledCells(t *testing.T, target *image.NRGBA, size grid.Size) ([]*image.NRGBA, []int) {
	t.Helper()
	g, err := grid.FromImage(target, size)
	require.NoError(t, err)
	n := g.Len()
	perm := make([]int, n)
	tiles := make([]*image.NRGBA, n)
	for i := range n {
		perm[i] = (i*7 + 3) % n
		tiles[perm[i]] = g.Cells[i]
	}
	return tiles, perm
}

func TestEndToEndPermutation(t *testing.T) {
	target := gradient(256, 256)
	tiles, perm := shuffledCells(t, target, grid.Size{W: 4, H: 4})

	m, err := mosaic.New(target, tiles, grid.Size{W: 4, H: 4}, 1)
	require.NoError(t, err)
	costs, err := m.DistanceMatrix(context.Background(), metric.NormL1, 4)
	require.NoError(t, err)

	for _, k := range solver.Kinds {
		t.Run(string(k), func(t *testing.T) {
			s, err := solver.New(k)
			require.NoError(t, err)
			p, err := m.Plan(context.Background(), costs, s, nil)
			require.NoError(t, err)

			seen := make(map[int]bool)
			for i, c := range p.Cells {
				assert.False(t, seen[c.TileIndex], "tile %d reused", c.TileIndex)
				seen[c.TileIndex] = true
				if k == solver.KindHungarian {
					assert.Equal(t, perm[i], c.TileIndex, "cell %d", i)
				}
			}
			assert.Len(t, seen, 16)
		})
	}

	img, err := m.Build(context.Background(), costs, solver.Hungarian{})
	require.NoError(t, err)
	assert.Equal(t, target.Pix, img.Pix)
}

func TestNewValidation(t *testing.T) {
	target := gradient(40, 40)
	size := grid.Size{W: 2, H: 2}
	four := []*image.NRGBA{
		solid(20, 20, color.NRGBA{}), solid(20, 20, color.NRGBA{}),
		solid(20, 20, color.NRGBA{}), solid(20, 20, color.NRGBA{}),
	}

	_, err := mosaic.New(target, four, size, 0)
	require.ErrorIs(t, err, solver.ErrInvalidConfig)

	_, err = mosaic.New(target, []*image.NRGBA{solid(20, 20, color.NRGBA{}), solid(19, 20, color.NRGBA{})}, size, 2)
	var tse *mosaic.TileSizeError
	require.ErrorAs(t, err, &tse)
	assert.Equal(t, 1, tse.Index)
	assert.Equal(t, image.Pt(20, 20), tse.Expected)

	_, err = mosaic.New(target, four[:3], size, 1)
	var ite *mosaic.InsufficientTilesError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, 3, ite.Provided)
	assert.Equal(t, 4, ite.Required)
	assert.Equal(t, 1, ite.MaxTileOccurrences)

	m, err := mosaic.New(target, four[:2], size, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.MaxTileOccurrences)

	_, err = mosaic.New(target, four, grid.Size{W: 0, H: 2}, 1)
	require.ErrorIs(t, err, grid.ErrInvalidGridSize)
}

func TestPlanRejectsMismatchedMatrix(t *testing.T) {
	target := gradient(20, 20)
	tiles := []*image.NRGBA{solid(10, 20, color.NRGBA{}), solid(10, 20, color.NRGBA{})}
	m, err := mosaic.New(target, tiles, grid.Size{W: 2, H: 1}, 1)
	require.NoError(t, err)

	// One row for a two-cell grid.
	costs, err := metric.DistanceMatrix(context.Background(), tiles[:1], tiles, metric.NormL1, 1)
	require.NoError(t, err)
	_, err = m.Plan(context.Background(), costs, solver.Greedy{}, nil)
	var sme *plan.SizeMismatchError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, [2]int{2, 2}, sme.Expected)
	assert.Equal(t, [2]int{1, 2}, sme.Found)
}

func TestReuse(t *testing.T) {
	target := solid(40, 20, color.NRGBA{R: 200, A: 255})
	tiles := []*image.NRGBA{
		solid(10, 10, color.NRGBA{R: 200, A: 255}),
		solid(10, 10, color.NRGBA{B: 200, A: 255}),
		solid(10, 10, color.NRGBA{G: 200, A: 255}),
	}
	m, err := mosaic.New(target, tiles, grid.Size{W: 4, H: 2}, 3)
	require.NoError(t, err)
	costs, err := m.DistanceMatrix(context.Background(), metric.NormL1, 0)
	require.NoError(t, err)

	p, err := m.Plan(context.Background(), costs, solver.Hungarian{}, nil)
	require.NoError(t, err)
	u := p.Usage()
	assert.Equal(t, 3, u[0])
	assert.Equal(t, 5, u[1]+u[2])
	for tile, n := range u {
		assert.LessOrEqual(t, n, 3, "tile %d", tile)
	}
}

func TestOverlayGrid(t *testing.T) {
	target := solid(8, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	g, err := grid.FromImage(target, grid.Size{W: 2, H: 2})
	require.NoError(t, err)

	img := mosaic.OverlayGrid(g)
	assert.Equal(t, image.Rect(0, 0, 9, 5), img.Bounds())

	r, gg, b, _ := img.At(4, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, gg, b}, "vertical gap is white")
	r, gg, b, _ = img.At(0, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, gg, b}, "horizontal gap is white")
	r, _, _, _ = img.At(5, 3).RGBA()
	assert.Equal(t, uint32(10*0x101), r)
}

func TestDefaultGridSize(t *testing.T) {
	tests := []struct {
		tiles int
		want  int
	}{
		{0, 1}, {1, 1}, {20, 4}, {100, 9}, {500, 20},
	}
	for _, tt := range tests {
		got := mosaic.DefaultGridSize(tt.tiles)
		assert.Equal(t, grid.Size{W: tt.want, H: tt.want}, got, "tiles=%d", tt.tiles)
	}
}
