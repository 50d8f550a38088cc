package main

import (
	"image"
	"image/color"
	"testing"
)

func TestAdaptiveSample(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1000, 1000, 1},
		{2000, 2000, 2},
		{4000, 3000, 4},
		{8000, 8000, 8},
		{10000, 10000, 16},
		{12000, 12000, 0},
	}
	for _, tt := range tests {
		if got := adaptiveSample(image.Rect(0, 0, tt.w, tt.h)); got != tt.want {
			t.Errorf("adaptiveSample(%dx%d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestMeasureQualityIdentical(t *testing.T) {
	img := gradientImage(64, 64)
	r, ok := MeasureQuality(img, img, false)
	if !ok {
		t.Fatal("MeasureQuality refused a small image")
	}
	if r.MSE != 0 || r.PSNR != 100 {
		t.Errorf("identical images: MSE %v PSNR %v", r.MSE, r.PSNR)
	}
	if r.SSIM < 0.9999 {
		t.Errorf("identical images: SSIM %v, want 1", r.SSIM)
	}
}

func TestMeasureQualityDegraded(t *testing.T) {
	img := gradientImage(64, 64)
	jpg, err := DecodePhoto(encodeJPEG(t, img, 20))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := MeasureQuality(img, jpg.Image, false)
	if !ok {
		t.Fatal("MeasureQuality refused a small image")
	}
	if r.MSE <= 0 || r.PSNR >= 100 || r.SSIM >= 1 {
		t.Errorf("degraded image scored as perfect: %+v", r)
	}
}

func TestMeasureQualitySizeMismatch(t *testing.T) {
	if _, ok := MeasureQuality(gradientImage(8, 8), gradientImage(9, 8), false); ok {
		t.Error("different sizes should not be measured")
	}
}

func TestGetLuminance(t *testing.T) {
	if got := getLuminance(color.White); got < 254.9 || got > 255.1 {
		t.Errorf("white luminance = %v", got)
	}
	if got := getLuminance(color.Black); got != 0 {
		t.Errorf("black luminance = %v", got)
	}
}
