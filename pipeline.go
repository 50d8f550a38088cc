package main

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Options are the per-batch settings handed to every image.
type Options struct {
	MaxBytes          int64
	MaxWidth          int
	MaxHeight         int
	MinQuality        int
	MaxQuality        int
	MetadataWatermark bool
	WatermarkText     string
	ReturnLastProbe   bool
	Report            bool
	ReportButteraugli bool
}

// Result describes the processing of one input file.
type Result struct {
	Status        string         `json:"status"`
	Input         string         `json:"input"`
	Output        string         `json:"output,omitempty"`
	SizeBefore    int64          `json:"size_before_bytes"`
	SizeAfter     int64          `json:"size_after_bytes"`
	BudgetBytes   int64          `json:"budget_bytes"`
	WithinBudget  bool           `json:"within_budget"`
	Quality       int            `json:"quality"`
	Probes        int            `json:"probes"`
	Encoder       string         `json:"encoder"`
	Orientation   int            `json:"orientation"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Watermarked   bool           `json:"watermarked"`
	Report        *QualityReport `json:"report,omitempty"`
	ExecutionTime string         `json:"execution_time"`
	Err           error          `json:"-"`
	Error         string         `json:"error,omitempty"`
}

// Processor runs one image at a time through the pipeline.
type Processor struct {
	opts        Options
	encoder     Encoder
	searcher    *QualitySearcher
	watermarker *Watermarker
	log         zerolog.Logger
}

func NewProcessor(opts Options, enc Encoder, wm *Watermarker, scratch *Scratch, log zerolog.Logger) *Processor {
	return &Processor{
		opts:        opts,
		encoder:     enc,
		searcher:    NewQualitySearcher(enc, scratch.Path(), opts.ReturnLastProbe, log),
		watermarker: wm,
		log:         log,
	}
}

// Transform applies orientation, resizing and the watermark. It reports
// whether any watermark text was drawn.
func (p *Processor) Transform(ph Photo) (Photo, bool) {
	ph = NormalizeOrientation(ph)
	ph = ResizeToFit(ph, p.opts.MaxWidth, p.opts.MaxHeight)
	content := WatermarkContent{UserText: p.opts.WatermarkText}
	if p.opts.MetadataWatermark {
		content.MetadataText = FormatMetadata(ph.Exif)
	}
	if p.watermarker == nil || content.Text() == "" {
		return ph, false
	}
	return p.watermarker.Apply(ph, content), true
}

// Process reads src and writes the result under dstDir with the same name.
// On error nothing is left in dstDir.
func (p *Processor) Process(src, dstDir string) Result {
	start := time.Now()
	dst := filepath.Join(dstDir, filepath.Base(src))
	res := Result{Status: "SUCCESS", Input: src, Output: dst, BudgetBytes: p.opts.MaxBytes, Encoder: p.encoder.Name()}
	fail := func(err error) Result {
		res.Status = "FAILED"
		res.Output = ""
		res.Err = err
		res.Error = err.Error()
		res.ExecutionTime = time.Since(start).Round(time.Millisecond).String()
		return res
	}

	ph, sizeBefore, err := LoadPhoto(src)
	if err != nil {
		return fail(fmt.Errorf("loading %s: %w", src, err))
	}
	res.SizeBefore = sizeBefore
	res.Orientation = ph.Exif.Orientation()

	out, watermarked := p.Transform(ph)
	res.Width, res.Height = out.Width(), out.Height()
	res.Watermarked = watermarked

	budget := QualityBudget{MaxBytes: p.opts.MaxBytes, MinQuality: p.opts.MinQuality, MaxQuality: p.opts.MaxQuality}
	sr, err := p.searcher.Search(out.Image, budget)
	if err != nil {
		return fail(fmt.Errorf("searching quality: %w", err))
	}
	res.Quality = sr.Quality
	res.Probes = sr.Probes

	var encoded bytes.Buffer
	if err := p.encoder.Encode(&encoded, out.Image, sr.Quality); err != nil {
		return fail(fmt.Errorf("encoding at quality %d: %w", sr.Quality, err))
	}
	size, err := publishFile(dst, func(w io.Writer) error {
		_, err := w.Write(encoded.Bytes())
		return err
	})
	if err != nil {
		return fail(err)
	}
	res.SizeAfter = size
	res.WithinBudget = size <= p.opts.MaxBytes

	if p.opts.Report {
		if final, err := jpeg.Decode(bytes.NewReader(encoded.Bytes())); err == nil {
			if rep, ok := MeasureQuality(out.Image, final, p.opts.ReportButteraugli); ok {
				res.Report = &rep
			}
		}
	}

	res.ExecutionTime = time.Since(start).Round(time.Millisecond).String()
	p.log.Info().
		Str("file", filepath.Base(src)).
		Int("quality", res.Quality).
		Int("probes", res.Probes).
		Str("size_before", humanize.IBytes(uint64(res.SizeBefore))).
		Str("size_after", humanize.IBytes(uint64(res.SizeAfter))).
		Int("width", res.Width).
		Int("height", res.Height).
		Msg("resized and saved")
	if !res.WithinBudget {
		p.log.Warn().Str("file", filepath.Base(src)).Int("quality", res.Quality).Msg("output exceeds size budget")
	}
	return res
}
