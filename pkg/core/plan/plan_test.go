package plan_test

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	"github.com/matzehuels/tessellate/pkg/core/matrix"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/core/solver"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func palette(n, w, h int) []*image.NRGBA {
	tiles := make([]*image.NRGBA, n)
	for i := range tiles {
		tiles[i] = solid(w, h, color.NRGBA{R: uint8(i * 40), G: uint8(255 - i*40), B: uint8(i), A: 255})
	}
	return tiles
}

func newGrid(t *testing.T, w, h int, size grid.Size) *grid.Grid {
	t.Helper()
	g, err := grid.FromImage(solid(w, h, color.NRGBA{A: 255}), size)
	require.NoError(t, err)
	return g
}

func TestCheckShape(t *testing.T) {
	m, err := matrix.New(4, 3, make([]int64, 12))
	require.NoError(t, err)

	require.NoError(t, plan.CheckShape(4, 3, m))
	require.NoError(t, plan.CheckShape(4, 2, m))

	var sme *plan.SizeMismatchError
	require.ErrorAs(t, plan.CheckShape(5, 3, m), &sme)
	assert.Equal(t, [2]int{5, 3}, sme.Expected)
	assert.Equal(t, [2]int{4, 3}, sme.Found)
	require.ErrorAs(t, plan.CheckShape(4, 4, m), &sme)
}

func TestBuild(t *testing.T) {
	g := newGrid(t, 30, 20, grid.Size{W: 3, H: 2})

	p, err := plan.Build(g, 4, solver.Assignment{0, 1, 2, 3, 5, 4})
	require.NoError(t, err)

	assert.Equal(t, 10, p.CellWidth)
	assert.Equal(t, 10, p.CellHeight)
	assert.Equal(t, 3, p.GridWidth)
	assert.Equal(t, 2, p.GridHeight)
	assert.Equal(t, []plan.Cell{
		{TileIndex: 0, X: 0, Y: 0},
		{TileIndex: 1, X: 10, Y: 0},
		{TileIndex: 2, X: 20, Y: 0},
		{TileIndex: 3, X: 0, Y: 10},
		{TileIndex: 1, X: 10, Y: 10},
		{TileIndex: 0, X: 20, Y: 10},
	}, p.Cells)
	require.NoError(t, p.Validate())
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 1, 3: 1}, p.Usage())
	assert.Equal(t, 3, p.MaxTileIndex())
}

func TestBuildErrors(t *testing.T) {
	g := newGrid(t, 20, 20, grid.Size{W: 2, H: 2})

	_, err := plan.Build(g, 4, solver.Assignment{0, 1, 2})
	var ale *plan.AssignmentLengthError
	require.ErrorAs(t, err, &ale)
	assert.Equal(t, 4, ale.Expected)
	assert.Equal(t, 3, ale.Found)

	_, err = plan.Build(g, 4, solver.Assignment{0, 1, -2, 3})
	require.ErrorIs(t, err, plan.ErrInvalidTileIndex)
}

func TestRenderRoundTrip(t *testing.T) {
	g := newGrid(t, 256, 256, grid.Size{W: 4, H: 4})
	tiles := palette(5, 64, 64)
	a := solver.Assignment{0, 1, 2, 3, 4, 0, 1, 2, 3, 4, 0, 1, 2, 3, 4, 0}

	p, err := plan.Build(g, len(tiles), a)
	require.NoError(t, err)
	got, err := p.Render(g.Bounds(), tiles)
	require.NoError(t, err)

	want := image.NewNRGBA(g.Bounds())
	for i, col := range a {
		x := (i % 4) * 64
		y := (i / 4) * 64
		tile := tiles[col%len(tiles)]
		for ty := range 64 {
			for tx := range 64 {
				want.SetNRGBA(x+tx, y+ty, tile.NRGBAAt(tx, ty))
			}
		}
	}
	assert.Equal(t, want.Pix, got.Pix)
	assert.Equal(t, g.Bounds(), p.Bounds())
}

func TestRenderRejectsBadTiles(t *testing.T) {
	g := newGrid(t, 20, 10, grid.Size{W: 2, H: 1})
	p, err := plan.Build(g, 2, solver.Assignment{0, 1})
	require.NoError(t, err)

	_, err = p.Render(g.Bounds(), palette(1, 10, 10))
	require.ErrorIs(t, err, plan.ErrInvalidTileIndex)

	_, err = p.Render(g.Bounds(), palette(2, 8, 10))
	require.ErrorIs(t, err, plan.ErrImageCopy)

	_, err = p.Render(image.Rect(0, 0, 15, 10), palette(2, 10, 10))
	require.ErrorIs(t, err, plan.ErrImageCopy)

	missing := palette(2, 10, 10)
	missing[1] = nil
	_, err = p.Render(g.Bounds(), missing)
	require.ErrorIs(t, err, plan.ErrImageCopy)
}

func TestJSONRoundTrip(t *testing.T) {
	g := newGrid(t, 20, 20, grid.Size{W: 2, H: 2})
	p, err := plan.Build(g, 3, solver.Assignment{2, 1, 0, 2})
	require.NoError(t, err)

	data, err := plan.Marshal(p)
	require.NoError(t, err)
	for _, key := range []string{`"tile_index"`, `"cell_width"`, `"cell_height"`, `"grid_width"`, `"grid_height"`} {
		assert.Contains(t, string(data), key)
	}

	back, err := plan.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, p, back)

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, plan.WriteFile(p, path))
	fromFile, err := plan.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, fromFile)
}

func TestUnmarshalValidates(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"zero grid", `{"cells":[],"cell_width":1,"cell_height":1,"grid_width":0,"grid_height":0}`},
		{"cell count", `{"cells":[{"tile_index":0,"x":0,"y":0}],"cell_width":1,"cell_height":1,"grid_width":2,"grid_height":1}`},
		{"outside", `{"cells":[{"tile_index":0,"x":5,"y":0}],"cell_width":1,"cell_height":1,"grid_width":1,"grid_height":1}`},
		{"negative tile", `{"cells":[{"tile_index":-1,"x":0,"y":0}],"cell_width":1,"cell_height":1,"grid_width":1,"grid_height":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan.Unmarshal([]byte(tt.data))
			require.Error(t, err)
			if !strings.HasPrefix(tt.name, "not") {
				assert.ErrorIs(t, err, plan.ErrInvalidPlan)
			}
		})
	}
}
