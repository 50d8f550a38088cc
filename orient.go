package main

import (
	"github.com/disintegration/imaging"
)

// NormalizeOrientation rotates the pixels so the EXIF orientation tag no
// longer needs to be honoured, and drops the tag from the snapshot.
// Angles are counter-clockwise; the canvas grows to fit.
func NormalizeOrientation(p Photo) Photo {
	switch p.Exif.Orientation() {
	case 3:
		return Photo{Image: imaging.Rotate180(p.Image), Exif: p.Exif.without(FieldOrientation)}
	case 6:
		return Photo{Image: imaging.Rotate270(p.Image), Exif: p.Exif.without(FieldOrientation)}
	case 8:
		return Photo{Image: imaging.Rotate90(p.Image), Exif: p.Exif.without(FieldOrientation)}
	}
	return p
}
