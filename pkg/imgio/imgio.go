// Package imgio loads and saves images and reads tile directories.
//
// Decoding goes through imaging, with EXIF orientation applied. PNG, JPEG,
// GIF, BMP, TIFF and WebP inputs are recognised; output formats are
// whatever imaging can encode (PNG, JPEG, GIF, BMP, TIFF).
package imgio

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Open decodes the image at path into an NRGBA buffer with origin (0,0).
func Open(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return imaging.Clone(img), nil
}

// Decode reads an image from r.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}

// Save encodes img to path, choosing the format from the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w in the named format ("png", "jpeg", ...).
func Encode(w io.Writer, img image.Image, format string) error {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return imaging.Encode(w, img, f, imaging.JPEGQuality(92))
}

// ContentType returns the MIME type for an output format name.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tif", "tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}

// TileMode controls how tiles are fitted to the cell size on load.
type TileMode string

const (
	// TileAsIs keeps tiles at their original size.
	TileAsIs TileMode = ""
	// TileCrop scales tiles to cover the cell and crops the centre.
	TileCrop TileMode = "crop"
	// TileResize stretches tiles to the cell size.
	TileResize TileMode = "resize"
)

// Tiles is a directory's worth of decoded tile images.
type Tiles struct {
	Images []*image.NRGBA
	Names  []string
}

// ReadDirOptions configures ReadDir.
type ReadDirOptions struct {
	Mode     TileMode
	CellSize image.Point
	Workers  int
	Logger   *log.Logger
}

// ReadDir decodes every regular file in dir, in name order. Files that
// cannot be decoded are logged and skipped. Tiles are fitted to
// opts.CellSize according to opts.Mode.
func ReadDir(ctx context.Context, dir string, opts ReadDirOptions) (*Tiles, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Mode != TileAsIs && (opts.CellSize.X <= 0 || opts.CellSize.Y <= 0) {
		return nil, fmt.Errorf("read tiles: cell size %v required for mode %q", opts.CellSize, opts.Mode)
	}

	paths, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	imgs := make([]*image.NRGBA, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := Open(p)
			if err != nil {
				logger.Warn("skipping unreadable tile", "path", p, "error", err)
				return nil
			}
			imgs[i] = fit(img, opts.Mode, opts.CellSize)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := &Tiles{}
	for i, img := range imgs {
		if img == nil {
			continue
		}
		t.Images = append(t.Images, img)
		t.Names = append(t.Names, filepath.Base(paths[i]))
	}
	logger.Debug("read tiles", "dir", dir, "count", len(t.Images), "skipped", len(paths)-len(t.Images))
	return t, nil
}

func fit(img *image.NRGBA, mode TileMode, size image.Point) *image.NRGBA {
	switch mode {
	case TileCrop:
		if img.Bounds().Size() == size {
			return img
		}
		return imaging.Fill(img, size.X, size.Y, imaging.Center, imaging.Lanczos)
	case TileResize:
		if img.Bounds().Size() == size {
			return img
		}
		return imaging.Resize(img, size.X, size.Y, imaging.NearestNeighbor)
	default:
		return img
	}
}

// CountImages returns how many files in dir have a decodable image
// header. Used to pick a default grid before tiles are loaded.
func CountImages(dir string) (int, error) {
	names, err := Names(dir)
	return len(names), err
}

// Names returns the base names of the files in dir with a decodable image
// header, in the order ReadDir assigns tile indices.
func Names(dir string) ([]string, error) {
	paths, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range paths {
		if decodable(p) {
			names = append(names, filepath.Base(p))
		}
	}
	return names, nil
}

func decodable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tile dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
