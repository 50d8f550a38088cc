package main

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
)

// Photo is one decoded image plus the EXIF snapshot taken from its source
// bytes. Pipeline stages return new Photos and leave their input untouched.
type Photo struct {
	Image image.Image
	Exif  *ExifMetadata
}

func (p Photo) Width() int  { return p.Image.Bounds().Dx() }
func (p Photo) Height() int { return p.Image.Bounds().Dy() }

// DecodePhoto decodes JPEG bytes and reads their EXIF block.
func DecodePhoto(data []byte) (Photo, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return Photo{}, fmt.Errorf("decoding jpeg: %w", err)
	}
	return Photo{Image: img, Exif: ReadExif(data)}, nil
}

func LoadPhoto(path string) (Photo, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, 0, err
	}
	p, err := DecodePhoto(data)
	if err != nil {
		return Photo{}, 0, err
	}
	return p, int64(len(data)), nil
}
