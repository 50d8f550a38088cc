package main

import (
	"image"
	"image/color"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// WatermarkContent holds the two text sources of a watermark.
type WatermarkContent struct {
	UserText     string
	MetadataText string
}

// Text joins the metadata summary and the user text, metadata first.
func (s WatermarkContent) Text() string {
	switch {
	case s.MetadataText != "" && s.UserText != "":
		return s.MetadataText + "\n" + s.UserText
	case s.MetadataText != "":
		return s.MetadataText
	default:
		return s.UserText
	}
}

// WatermarkStyle carries the layout constants of the overlay.
type WatermarkStyle struct {
	Margin      int // distance of the block from the right and bottom edges
	WrapMargin  int // subtracted from the image width to get the wrap width
	LineSpacing int
	Threshold   float64 // mean luminance above which dark text is used
	Dark        color.NRGBA
	Light       color.NRGBA
}

func DefaultWatermarkStyle() WatermarkStyle {
	return WatermarkStyle{
		Margin:      10,
		WrapMargin:  20,
		LineSpacing: 4,
		Threshold:   128,
		Dark:        color.NRGBA{R: 0, G: 0, B: 0, A: 128},
		Light:       color.NRGBA{R: 255, G: 255, B: 255, A: 160},
	}
}

type TextLine struct {
	Text   string
	Width  int
	Height int
}

// TextBlock is a wrapped and measured piece of watermark text.
type TextBlock struct {
	Lines  []TextLine
	Width  int
	Height int
}

type Watermarker struct {
	Face  font.Face
	Style WatermarkStyle
	log   zerolog.Logger
}

func NewWatermarker(face font.Face, style WatermarkStyle, log zerolog.Logger) *Watermarker {
	return &Watermarker{Face: face, Style: style, log: log}
}

// wrapText splits text on newlines, then packs words greedily so no line
// is wider than maxWidth. A word that is too wide on its own gets its own line.
func wrapText(face font.Face, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			try := cur + " " + w
			if font.MeasureString(face, try).Ceil() <= maxWidth {
				cur = try
				continue
			}
			lines = append(lines, cur)
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}

// Layout wraps and measures text for an image of the given width.
func (w *Watermarker) Layout(text string, imageWidth int) TextBlock {
	m := w.Face.Metrics()
	lineHeight := m.Ascent.Ceil() + m.Descent.Ceil()

	var tb TextBlock
	for i, s := range wrapText(w.Face, text, imageWidth-w.Style.WrapMargin) {
		l := TextLine{Text: s, Width: font.MeasureString(w.Face, s).Ceil(), Height: lineHeight}
		tb.Lines = append(tb.Lines, l)
		tb.Width = max(tb.Width, l.Width)
		if i > 0 {
			tb.Height += w.Style.LineSpacing
		}
		tb.Height += l.Height
	}
	return tb
}

// blockRect places the block so its bottom-right corner sits Margin pixels
// from the bottom-right corner of bounds.
func (w *Watermarker) blockRect(bounds image.Rectangle, tb TextBlock) image.Rectangle {
	x1 := bounds.Max.X - w.Style.Margin
	y1 := bounds.Max.Y - w.Style.Margin
	return image.Rect(x1-tb.Width, y1-tb.Height, x1, y1)
}

// meanLuminance averages the BT.601 luma of img over r, clipped to the image.
func meanLuminance(img image.Image, r image.Rectangle) float64 {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return 0
	}
	var total float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			total += getLuminance(img.At(x, y))
		}
	}
	return total / float64(r.Dx()*r.Dy())
}

// textColor picks dark text over bright backgrounds and light text otherwise.
func (w *Watermarker) textColor(img image.Image, r image.Rectangle) (color.NRGBA, bool) {
	lum := meanLuminance(img, r)
	dark := lum > w.Style.Threshold
	w.log.Debug().Float64("luminance", lum).Bool("dark_text", dark).Msg("watermark color")
	if dark {
		return w.Style.Dark, true
	}
	return w.Style.Light, false
}

// Apply draws the watermark in the bottom-right corner and returns an opaque
// copy. With no text at all the photo is returned as is.
func (w *Watermarker) Apply(p Photo, content WatermarkContent) Photo {
	text := content.Text()
	if text == "" {
		return p
	}
	b := p.Image.Bounds()
	tb := w.Layout(text, b.Dx())
	block := w.blockRect(b, tb)
	col, _ := w.textColor(p.Image, block)

	layer := image.NewRGBA(b)
	d := &font.Drawer{Dst: layer, Src: image.NewUniform(col), Face: w.Face}
	ascent := w.Face.Metrics().Ascent.Ceil()
	y := block.Min.Y
	for _, l := range tb.Lines {
		d.Dot = fixed.P(b.Max.X-w.Style.Margin-l.Width, y+ascent)
		d.DrawString(l.Text)
		y += l.Height + w.Style.LineSpacing
	}

	out := image.NewRGBA(b)
	draw.Draw(out, b, image.Black, image.Point{}, draw.Src)
	draw.Draw(out, b, p.Image, b.Min, draw.Over)
	draw.Draw(out, b, layer, b.Min, draw.Over)

	w.log.Debug().Int("lines", len(tb.Lines)).Int("block_w", tb.Width).Int("block_h", tb.Height).Msg("watermark applied")
	return Photo{Image: out, Exif: p.Exif}
}
