package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const (
	defaultFontPath = "fonts/watermark.ttf"
	defaultFontSize = 24.0
)

// resolveAssetPath makes a relative asset path relative to the directory the
// executable lives in.
func resolveAssetPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil {
		exe = real
	}
	return filepath.Join(filepath.Dir(exe), path)
}

func loadFontFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	return opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// LoadWatermarkFace loads the TrueType face used for watermarks. When the
// file cannot be read or parsed it falls back to the built-in 7x13 face.
func LoadWatermarkFace(path string, size float64, log zerolog.Logger) font.Face {
	resolved := resolveAssetPath(path)
	face, err := loadFontFace(resolved, size)
	if err != nil {
		log.Warn().Err(err).Str("font", resolved).Msg("watermark font unavailable, using basic face")
		return basicfont.Face7x13
	}
	log.Debug().Str("font", resolved).Float64("size", size).Msg("watermark font loaded")
	return face
}
