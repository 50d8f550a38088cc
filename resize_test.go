package main

import (
	"image"
	"math"
	"testing"
)

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"within bounds", 800, 600, 1920, 1080, 800, 600},
		{"exact bounds", 1920, 1080, 1920, 1080, 1920, 1080},
		{"landscape width bound", 4000, 2000, 1920, 1080, 1920, 960},
		{"landscape height bound", 4000, 3000, 1920, 1080, 1440, 1080},
		{"portrait", 3000, 4000, 1920, 1080, 810, 1080},
		{"tall strip", 10, 5000, 100, 100, 1, 100},
		{"equal ratios", 2000, 1000, 1000, 500, 1000, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.w, tt.h, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitDimensions(%d, %d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.maxW, tt.maxH, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitDimensionsProperties(t *testing.T) {
	sizes := []int{1, 7, 64, 333, 1080, 1920, 2500, 4000}
	for _, w := range sizes {
		for _, h := range sizes {
			for _, maxW := range []int{50, 640, 1920} {
				for _, maxH := range []int{50, 480, 1080} {
					gotW, gotH := FitDimensions(w, h, maxW, maxH)
					if w <= maxW && h <= maxH {
						if gotW != w || gotH != h {
							t.Fatalf("%dx%d in %dx%d: got %dx%d, want identity", w, h, maxW, maxH, gotW, gotH)
						}
						continue
					}
					if gotW > maxW || gotH > maxH {
						t.Fatalf("%dx%d in %dx%d: got %dx%d outside bounds", w, h, maxW, maxH, gotW, gotH)
					}
					if gotW != maxW && gotH != maxH {
						t.Fatalf("%dx%d in %dx%d: got %dx%d, no side on its bound", w, h, maxW, maxH, gotW, gotH)
					}
					// aspect ratio within one pixel of truncation
					if gotW == maxW {
						want := float64(h) * float64(maxW) / float64(w)
						if math.Abs(float64(gotH)-want) > 1 && gotH != 1 {
							t.Fatalf("%dx%d in %dx%d: height %d, want ~%.2f", w, h, maxW, maxH, gotH, want)
						}
					} else {
						want := float64(w) * float64(maxH) / float64(h)
						if math.Abs(float64(gotW)-want) > 1 && gotW != 1 {
							t.Fatalf("%dx%d in %dx%d: width %d, want ~%.2f", w, h, maxW, maxH, gotW, want)
						}
					}
				}
			}
		}
	}
}

func TestResizeToFitKeepsSmallImage(t *testing.T) {
	img := gradientImage(100, 50)
	p := Photo{Image: img}
	out := ResizeToFit(p, 100, 100)
	if out.Image != image.Image(img) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestResizeToFitDownsamples(t *testing.T) {
	p := Photo{Image: gradientImage(400, 300), Exif: NewExifMetadata(map[ExifField]ExifValue{FieldISO: Integer(100)})}
	out := ResizeToFit(p, 200, 200)
	if out.Width() != 200 || out.Height() != 150 {
		t.Errorf("got %dx%d, want 200x150", out.Width(), out.Height())
	}
	if out.Exif != p.Exif {
		t.Error("resizing should keep the EXIF snapshot")
	}
	if p.Width() != 400 {
		t.Error("input photo was modified")
	}
}
