package main

import (
	"image"

	"golang.org/x/image/draw"
)

// FitDimensions returns the size of a w×h image scaled to fit in maxW×maxH.
// The binding side lands exactly on its maximum, the other is truncated.
// Images already inside the box keep their size.
func FitDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	widthRatio := float64(maxW) / float64(w)
	heightRatio := float64(maxH) / float64(h)
	if widthRatio < heightRatio {
		return maxW, max(int(float64(h)*widthRatio), 1)
	}
	return max(int(float64(w)*heightRatio), 1), maxH
}

// ResizeToFit downsamples the photo to fit within maxW×maxH. It never upscales.
func ResizeToFit(p Photo, maxW, maxH int) Photo {
	b := p.Image.Bounds()
	newW, newH := FitDimensions(b.Dx(), b.Dy(), maxW, maxH)
	if newW == b.Dx() && newH == b.Dy() {
		return p
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), p.Image, b, draw.Src, nil)
	return Photo{Image: dst, Exif: p.Exif}
}
