package main

import (
	"image"
	"image/color"
	"math"

	"github.com/jasonmoo/go-butteraugli"
	"golang.org/x/image/draw"
)

// QualityReport compares the published JPEG with the raster it was encoded from.
type QualityReport struct {
	Sample      int     `json:"sample"`
	MSE         float64 `json:"mse"`
	PSNR        float64 `json:"psnr_db"`
	SSIM        float64 `json:"ssim"`
	Butteraugli float64 `json:"butteraugli,omitempty"`
}

// adaptiveSample picks a pixel stride from the image area.
// Zero means the image is too large to measure.
func adaptiveSample(b image.Rectangle) int {
	pixels := b.Dx() * b.Dy()
	switch {
	case pixels > 128000000:
		return 0
	case pixels <= 1000000:
		return 1
	case pixels <= 4000000:
		return 2
	case pixels <= 16000000:
		return 4
	case pixels <= 64000000:
		return 8
	default:
		return 16
	}
}

// MeasureQuality fills a QualityReport. Butteraugli is slow and only runs on request.
func MeasureQuality(orig, encoded image.Image, withButteraugli bool) (QualityReport, bool) {
	sample := adaptiveSample(orig.Bounds())
	if sample == 0 || orig.Bounds().Size() != encoded.Bounds().Size() {
		return QualityReport{}, false
	}
	r := QualityReport{Sample: sample}
	mse := meanSquaredError(orig, encoded, sample)
	r.MSE = mse / (255 * 255)
	r.PSNR = 100
	if mse > 0 {
		r.PSNR = math.Round((20*math.Log10(255)-10*math.Log10(mse))*10) / 10
	}
	r.SSIM = calculateSSIM(orig, encoded, sample)
	if withButteraugli {
		r.Butteraugli = calculateButteraugli(orig, encoded)
	}
	return r, true
}

// meanSquaredError returns the per-channel MSE on the 0-255 scale.
func meanSquaredError(img1, img2 image.Image, sample int) float64 {
	b1, b2 := img1.Bounds(), img2.Bounds()
	var sum, count float64
	for y := 0; y < b1.Dy(); y += sample {
		for x := 0; x < b1.Dx(); x += sample {
			r1, g1, bl1, _ := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, _ := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			dr, dg, db := float64(r1>>8)-float64(r2>>8), float64(g1>>8)-float64(g2>>8), float64(bl1>>8)-float64(bl2>>8)
			sum += (dr*dr + dg*dg + db*db) / 3.0
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

func calculateSSIM(img1, img2 image.Image, sample int) float64 {
	b1, b2 := img1.Bounds(), img2.Bounds()
	w, h := b1.Dx(), b1.Dy()
	const c1, c2 = 6.5025, 58.5225
	lum1 := func(x, y int) float64 { return getLuminance(img1.At(b1.Min.X+x, b1.Min.Y+y)) }
	lum2 := func(x, y int) float64 { return getLuminance(img2.At(b2.Min.X+x, b2.Min.Y+y)) }

	var total, count float64
	step := 8 * sample
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			var m1, m2, s1, s2, s12, n float64
			for by := y; by < y+8 && by < h; by++ {
				for bx := x; bx < x+8 && bx < w; bx++ {
					m1 += lum1(bx, by)
					m2 += lum2(bx, by)
					n++
				}
			}
			m1 /= n
			m2 /= n
			for by := y; by < y+8 && by < h; by++ {
				for bx := x; bx < x+8 && bx < w; bx++ {
					v1, v2 := lum1(bx, by), lum2(bx, by)
					s1 += (v1 - m1) * (v1 - m1)
					s2 += (v2 - m2) * (v2 - m2)
					s12 += (v1 - m1) * (v2 - m2)
				}
			}
			if n > 1 {
				s1 /= n - 1
				s2 /= n - 1
				s12 /= n - 1
			} else {
				s1, s2, s12 = 0, 0, 0
			}
			total += ((2*m1*m2 + c1) * (2*s12 + c2)) / ((m1*m1 + m2*m2 + c1) * (s1 + s2 + c2))
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return total / count
}

// getLuminance is the ITU-R BT.601 luma of c on a 0-255 scale.
func getLuminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

// calculateButteraugli runs on at most 0.5MP; larger images are downsampled first.
func calculateButteraugli(img1, img2 image.Image) float64 {
	const maxPixels = 500000
	b := img1.Bounds()
	origPixels := b.Dx() * b.Dy()
	if origPixels <= maxPixels {
		dist, _ := butteraugli.CompareImages(img1, img2)
		return dist
	}

	scale := math.Sqrt(float64(maxPixels) / float64(origPixels))
	newRect := image.Rect(0, 0, max(int(float64(b.Dx())*scale), 1), max(int(float64(b.Dy())*scale), 1))
	small1 := image.NewRGBA(newRect)
	small2 := image.NewRGBA(newRect)
	draw.BiLinear.Scale(small1, newRect, img1, b, draw.Over, nil)
	draw.BiLinear.Scale(small2, newRect, img2, img2.Bounds(), draw.Over, nil)

	dist, _ := butteraugli.CompareImages(small1, small2)
	return dist
}
