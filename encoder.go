package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/gen2brain/jpegli"
)

// Encoder writes img as a JPEG at the given quality. Implementations must be
// deterministic: the same image and quality always produce the same bytes.
type Encoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
	Name() string
}

type StdEncoder struct{}

func (StdEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

func (StdEncoder) Name() string { return "std" }

type JpegliEncoder struct {
	ChromaSubsampling image.YCbCrSubsampleRatio
}

func (e JpegliEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	return jpegli.Encode(w, img, &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: e.ChromaSubsampling,
	})
}

func (JpegliEncoder) Name() string { return "jpegli" }

func parseChroma(s string) (image.YCbCrSubsampleRatio, error) {
	switch s {
	case "444":
		return image.YCbCrSubsampleRatio444, nil
	case "422":
		return image.YCbCrSubsampleRatio422, nil
	case "420":
		return image.YCbCrSubsampleRatio420, nil
	}
	return 0, fmt.Errorf("invalid chroma subsampling '%s' (use 444, 422, or 420)", s)
}

// NewEncoder builds the encoder named by name ("std" or "jpegli").
func NewEncoder(name, chroma string) (Encoder, error) {
	switch name {
	case "", "std":
		return StdEncoder{}, nil
	case "jpegli":
		ratio, err := parseChroma(chroma)
		if err != nil {
			return nil, err
		}
		return JpegliEncoder{ChromaSubsampling: ratio}, nil
	}
	return nil, fmt.Errorf("unknown encoder '%s' (use std or jpegli)", name)
}
