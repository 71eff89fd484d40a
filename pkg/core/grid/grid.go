// Package grid partitions a target image into equally sized cells.
//
// Cells are extracted row-major, top-to-bottom and left-to-right, so cell
// i sits at column i%Width and row i/Width. The plan builder relies on this
// ordering to turn a cell index back into pixel coordinates.
//
// When the image dimensions are not multiples of the grid dimensions the
// image is cropped around its centre first. The cropped remainder is split
// between both sides; for an odd remainder the extra pixel is removed from
// the trailing (right or bottom) side.
package grid

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrGridSizeMismatch is returned when the (cropped) image is not an
	// exact multiple of the cell size.
	ErrGridSizeMismatch = errors.New("grid: image size is not divisible by grid size")
	// ErrInvalidGridSize is returned for zero grid dimensions or grids
	// finer than the image's pixels.
	ErrInvalidGridSize = errors.New("grid: invalid grid size")
)

// Size is a width/height pair in cells or pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns W*H.
func (s Size) Area() int { return s.W * s.H }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Point returns the size as an image.Point.
func (s Size) Point() image.Point { return image.Pt(s.W, s.H) }

// Grid is a target image split into cells. It is immutable after
// construction.
type Grid struct {
	// Image is the possibly cropped target with bounds starting at (0,0).
	Image *image.NRGBA
	// Cells holds Size.Area() cell images in row-major order.
	Cells []*image.NRGBA
	// CellSize is the pixel size of every cell.
	CellSize Size
	// Size is the number of cells horizontally and vertically.
	Size Size
}

// FromImage crops img to a multiple of gridSize around its centre and
// slices it into cells.
func FromImage(img image.Image, gridSize Size) (*Grid, error) {
	b := img.Bounds()
	if gridSize.W <= 0 || gridSize.H <= 0 || gridSize.W > b.Dx() || gridSize.H > b.Dy() {
		return nil, fmt.Errorf("%w: %s for a %dx%d image", ErrInvalidGridSize, gridSize, b.Dx(), b.Dy())
	}

	cell := Size{W: b.Dx() / gridSize.W, H: b.Dy() / gridSize.H}
	target := cropCentered(img, cell.W*gridSize.W, cell.H*gridSize.H)

	tb := target.Bounds()
	if tb.Dx()%gridSize.W != 0 || tb.Dy()%gridSize.H != 0 {
		return nil, ErrGridSizeMismatch
	}

	cells := make([]*image.NRGBA, 0, gridSize.Area())
	for row := range gridSize.H {
		for col := range gridSize.W {
			r := image.Rect(col*cell.W, row*cell.H, (col+1)*cell.W, (row+1)*cell.H)
			cells = append(cells, imaging.Crop(target, r))
		}
	}

	return &Grid{
		Image:    target,
		Cells:    cells,
		CellSize: cell,
		Size:     gridSize,
	}, nil
}

// cropCentered returns a width×height region from the middle of img.
// Offsets round down so an odd remainder loses its extra pixel on the
// trailing side.
func cropCentered(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	left := b.Min.X + (b.Dx()-width)/2
	top := b.Min.Y + (b.Dy()-height)/2
	return imaging.Crop(img, image.Rect(left, top, left+width, top+height))
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.Cells) }

// CellOrigin returns the top-left pixel of cell i within Image.
func (g *Grid) CellOrigin(i int) image.Point {
	return image.Pt((i%g.Size.W)*g.CellSize.W, (i/g.Size.W)*g.CellSize.H)
}

// Bounds returns the bounds of the cropped target.
func (g *Grid) Bounds() image.Rectangle { return g.Image.Bounds() }
