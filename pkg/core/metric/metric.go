// Package metric scores how closely a tile matches a grid cell and fills
// cost matrices from those scores.
//
// A [Func] compares two equally sized images and returns a non-negative
// distance; lower is better. The RGB channels are compared and alpha is
// ignored.
package metric

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownMetric is returned by ByName for unrecognised names.
var ErrUnknownMetric = errors.New("metric: unknown metric")

// Func returns the distance between two images of identical size.
type Func func(a, b *image.NRGBA) int64

var registry = map[string]Func{
	"norm-l1":      NormL1,
	"norm-l2":      NormL2,
	"luminance-l1": LuminanceL1,
	"luminance-l2": LuminanceL2,
	"avg-color":    AvgColor,
	"lab":          LabDistance,
}

// Default is the metric name used when none is configured.
const Default = "norm-l1"

// ByName returns the registered metric called name.
func ByName(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return fn, nil
}

// Names returns the registered metric names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// pixels calls fn with the RGB samples of every pixel pair, row by row.
func pixels(a, b *image.NRGBA, fn func(pa, pb []uint8)) {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	for y := range h {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for i := 0; i < len(ra); i += 4 {
			fn(ra[i:i+3], rb[i:i+3])
		}
	}
}

func absDiff(x, y uint8) int64 {
	if x > y {
		return int64(x - y)
	}
	return int64(y - x)
}

// NormL1 is the sum of absolute channel differences.
func NormL1(a, b *image.NRGBA) int64 {
	var sum int64
	pixels(a, b, func(pa, pb []uint8) {
		sum += absDiff(pa[0], pb[0]) + absDiff(pa[1], pb[1]) + absDiff(pa[2], pb[2])
	})
	return sum
}

// NormL2 is the Euclidean distance between the channel vectors, truncated.
func NormL2(a, b *image.NRGBA) int64 {
	var sum int64
	pixels(a, b, func(pa, pb []uint8) {
		for c := range 3 {
			d := absDiff(pa[c], pb[c])
			sum += d * d
		}
	})
	return isqrt(sum)
}

func luminance(p []uint8) int64 {
	return int64(0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2]))
}

// LuminanceL1 sums absolute differences of per-pixel luma.
func LuminanceL1(a, b *image.NRGBA) int64 {
	var sum int64
	pixels(a, b, func(pa, pb []uint8) {
		d := luminance(pa) - luminance(pb)
		if d < 0 {
			d = -d
		}
		sum += d
	})
	return sum
}

// LuminanceL2 is the Euclidean distance between per-pixel luma, truncated.
func LuminanceL2(a, b *image.NRGBA) int64 {
	var sum int64
	pixels(a, b, func(pa, pb []uint8) {
		d := luminance(pa) - luminance(pb)
		sum += d * d
	})
	return isqrt(sum)
}

// AvgColor compares channel sums, normalised by 3*width*height. It only
// sees the mean colour of each block.
func AvgColor(a, b *image.NRGBA) int64 {
	var sa, sb [3]int64
	pixels(a, b, func(pa, pb []uint8) {
		for c := range 3 {
			sa[c] += int64(pa[c])
			sb[c] += int64(pb[c])
		}
	})
	var diff int64
	for c := range 3 {
		d := sa[c] - sb[c]
		if d < 0 {
			d = -d
		}
		diff += d
	}
	n := int64(3 * a.Rect.Dx() * a.Rect.Dy())
	if n == 0 {
		return 0
	}
	return diff / n
}

// LabDistance is the summed CIE76 ΔE between pixels in CIE-Lab, scaled by
// 100 and truncated.
func LabDistance(a, b *image.NRGBA) int64 {
	var sum float64
	pixels(a, b, func(pa, pb []uint8) {
		ca := colorful.Color{R: float64(pa[0]) / 255, G: float64(pa[1]) / 255, B: float64(pa[2]) / 255}
		cb := colorful.Color{R: float64(pb[0]) / 255, G: float64(pb[1]) / 255, B: float64(pb[2]) / 255}
		sum += ca.DistanceCIE76(cb)
	})
	return int64(sum * 100)
}

func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
