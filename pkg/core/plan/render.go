package plan

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Render copies every placed tile into a new image with the given bounds.
// A tile index outside tiles fails with ErrInvalidTileIndex; a tile that is
// not cell-sized or falls outside bounds fails with ErrImageCopy.
func (p Plan) Render(bounds image.Rectangle, tiles []*image.NRGBA) (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	canvas := out.Bounds()
	cellSize := image.Pt(p.CellWidth, p.CellHeight)

	for i, c := range p.Cells {
		if c.TileIndex < 0 || c.TileIndex >= len(tiles) {
			return nil, fmt.Errorf("%w: cell %d references tile %d of %d", ErrInvalidTileIndex, i, c.TileIndex, len(tiles))
		}
		tile := tiles[c.TileIndex]
		if tile == nil {
			return nil, fmt.Errorf("%w: tile %d is nil", ErrImageCopy, c.TileIndex)
		}
		if tile.Bounds().Size() != cellSize {
			return nil, fmt.Errorf("%w: tile %d is %v, cells are %v", ErrImageCopy, c.TileIndex, tile.Bounds().Size(), cellSize)
		}
		dst := image.Rectangle{Min: image.Pt(c.X, c.Y), Max: image.Pt(c.X, c.Y).Add(cellSize)}
		if !dst.In(canvas) {
			return nil, fmt.Errorf("%w: cell %d at %v outside %v", ErrImageCopy, i, dst, canvas)
		}
		draw.Copy(out, dst.Min, tile, tile.Bounds(), draw.Src, nil)
	}
	return out, nil
}
