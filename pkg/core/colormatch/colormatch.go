// Package colormatch aligns the colour distributions of target and tile
// images before they are compared.
//
// [MatchPalette] performs Reinhard-style transfer: every channel of the
// source images is shifted and scaled in CIE-Lab so that its mean and
// standard deviation match the reference images. [Equalize] stretches the
// RGB histograms of a set of images with one shared CDF per channel.
// Alpha is left untouched by both.
package colormatch

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Stats holds per-channel mean and standard deviation in CIE-Lab.
type Stats struct {
	Mean [3]float64
	Std  [3]float64
}

func toLab(p []uint8) [3]float64 {
	c := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
	l, a, b := c.Lab()
	return [3]float64{l, a, b}
}

// each calls fn with the pixel slice (RGBA) of every pixel in imgs.
func each(imgs []*image.NRGBA, fn func(p []uint8)) {
	for _, img := range imgs {
		w, h := img.Rect.Dx(), img.Rect.Dy()
		for y := range h {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for i := 0; i < len(row); i += 4 {
				fn(row[i : i+4])
			}
		}
	}
}

// LabStats computes the pooled Lab statistics over all pixels of imgs.
func LabStats(imgs ...*image.NRGBA) Stats {
	var s Stats
	var n float64
	each(imgs, func(p []uint8) {
		lab := toLab(p)
		for c := range 3 {
			s.Mean[c] += lab[c]
		}
		n++
	})
	if n == 0 {
		return s
	}
	for c := range 3 {
		s.Mean[c] /= n
	}
	each(imgs, func(p []uint8) {
		lab := toLab(p)
		for c := range 3 {
			d := lab[c] - s.Mean[c]
			s.Std[c] += d * d
		}
	})
	for c := range 3 {
		s.Std[c] = math.Sqrt(s.Std[c] / n)
	}
	return s
}

// MatchPalette returns copies of src whose pooled Lab statistics match
// those of ref. A channel with zero spread in src is set to ref's mean.
func MatchPalette(src []*image.NRGBA, ref ...*image.NRGBA) []*image.NRGBA {
	from := LabStats(src...)
	to := LabStats(ref...)

	out := make([]*image.NRGBA, len(src))
	for i, img := range src {
		dst := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
		j := 0
		each([]*image.NRGBA{img}, func(p []uint8) {
			lab := toLab(p)
			for c := range 3 {
				if from.Std[c] > 0 {
					lab[c] = (lab[c]-from.Mean[c])/from.Std[c]*to.Std[c] + to.Mean[c]
				} else {
					lab[c] = to.Mean[c]
				}
			}
			r, g, b := colorful.Lab(lab[0], lab[1], lab[2]).Clamped().RGB255()
			dst.Pix[j], dst.Pix[j+1], dst.Pix[j+2], dst.Pix[j+3] = r, g, b, p[3]
			j += 4
		})
		out[i] = dst
	}
	return out
}

// Equalize returns copies of imgs with histogram equalisation applied per
// RGB channel, using a CDF pooled over the whole set.
func Equalize(imgs []*image.NRGBA) []*image.NRGBA {
	var hist [3][256]int
	var total int
	each(imgs, func(p []uint8) {
		for c := range 3 {
			hist[c][p[c]]++
		}
		total++
	})

	var lut [3][256]uint8
	for c := range 3 {
		var cdf [256]int
		run := 0
		for v := range 256 {
			run += hist[c][v]
			cdf[v] = run
		}
		cdfMin := 0
		for _, v := range cdf {
			if v > 0 {
				cdfMin = v
				break
			}
		}
		for v := range 256 {
			if total == cdfMin {
				lut[c][v] = uint8(v)
				continue
			}
			scaled := float64(max(cdf[v]-cdfMin, 0)) / float64(total-cdfMin) * 255
			lut[c][v] = uint8(math.Round(scaled))
		}
	}

	out := make([]*image.NRGBA, len(imgs))
	for i, img := range imgs {
		dst := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
		j := 0
		each([]*image.NRGBA{img}, func(p []uint8) {
			dst.Pix[j] = lut[0][p[0]]
			dst.Pix[j+1] = lut[1][p[1]]
			dst.Pix[j+2] = lut[2][p[2]]
			dst.Pix[j+3] = p[3]
			j += 4
		})
		out[i] = dst
	}
	return out
}

// Mode selects which side of a mosaic adopts the other's palette.
type Mode string

const (
	ModeNone          Mode = ""
	ModeTargetToTiles Mode = "target-to-tiles"
	ModeTilesToTarget Mode = "tiles-to-target"
)

// Apply runs optional equalisation and then palette transfer according to
// mode, returning the adjusted target and tiles. Inputs are not modified.
func Apply(target *image.NRGBA, tiles []*image.NRGBA, equalize bool, mode Mode) (*image.NRGBA, []*image.NRGBA) {
	if equalize {
		eq := Equalize(append([]*image.NRGBA{target}, tiles...))
		target, tiles = eq[0], eq[1:]
	}
	switch mode {
	case ModeTargetToTiles:
		tiles = MatchPalette(tiles, target)
	case ModeTilesToTarget:
		target = MatchPalette([]*image.NRGBA{target}, tiles...)[0]
	}
	return target, tiles
}
