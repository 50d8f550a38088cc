package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"
)

// gradientImage creates a w×h RGBA image with a smooth diagonal gradient.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) * 255 / max(w+h-2, 1)),
				A: 255,
			})
		}
	}
	return img
}

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ifdEntry is a raw TIFF directory entry used to build EXIF fixtures.
type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

const (
	tagModel        = 0x0110
	tagOrientation  = 0x0112
	tagExposureTime = 0x829A
	tagFNumber      = 0x829D
	tagISO          = 0x8827
	tagFocalLength  = 0x920A
	tagLensModel    = 0xA434
	tagExifIFD      = 0x8769
)

func shortEntry(tag, v uint16) ifdEntry {
	d := make([]byte, 2)
	binary.LittleEndian.PutUint16(d, v)
	return ifdEntry{tag: tag, typ: 3, count: 1, data: d}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	d := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: 2, count: uint32(len(d)), data: d}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	d := make([]byte, 8)
	binary.LittleEndian.PutUint32(d, num)
	binary.LittleEndian.PutUint32(d[4:], den)
	return ifdEntry{tag: tag, typ: 5, count: 1, data: d}
}

// buildTIFF lays out a little-endian TIFF with IFD0 followed by an optional
// Exif sub-IFD and a shared data area for values longer than four bytes.
func buildTIFF(ifd0, sub []ifdEntry) []byte {
	le := binary.LittleEndian
	entries0 := append([]ifdEntry(nil), ifd0...)
	if len(sub) > 0 {
		entries0 = append(entries0, ifdEntry{tag: tagExifIFD, typ: 4, count: 1, data: make([]byte, 4)})
	}
	ifd0Size := 2 + 12*len(entries0) + 4
	subOff := 8 + ifd0Size
	subSize := 0
	if len(sub) > 0 {
		subSize = 2 + 12*len(sub) + 4
		le.PutUint32(entries0[len(entries0)-1].data, uint32(subOff))
	}
	dataOff := subOff + subSize

	var data []byte
	writeIFD := func(entries []ifdEntry) []byte {
		buf := make([]byte, 2)
		le.PutUint16(buf, uint16(len(entries)))
		for _, e := range entries {
			ent := make([]byte, 12)
			le.PutUint16(ent[0:], e.tag)
			le.PutUint16(ent[2:], e.typ)
			le.PutUint32(ent[4:], e.count)
			if len(e.data) <= 4 {
				copy(ent[8:], e.data)
			} else {
				le.PutUint32(ent[8:], uint32(dataOff+len(data)))
				data = append(data, e.data...)
				if len(data)%2 == 1 {
					data = append(data, 0)
				}
			}
			buf = append(buf, ent...)
		}
		return append(buf, 0, 0, 0, 0)
	}

	out := []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}
	out = append(out, writeIFD(entries0)...)
	if len(sub) > 0 {
		out = append(out, writeIFD(sub)...)
	}
	return append(out, data...)
}

// withExif inserts an APP1 Exif segment right after the SOI marker.
func withExif(jpg, tiffData []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffData...)
	length := len(payload) + 2
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1, byte(length >> 8), byte(length & 0xFF)})
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func orientedJPEG(t *testing.T, img image.Image, orientation uint16) []byte {
	t.Helper()
	return withExif(encodeJPEG(t, img, 90), buildTIFF([]ifdEntry{shortEntry(tagOrientation, orientation)}, nil))
}
