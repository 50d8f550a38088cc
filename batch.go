package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ScanInputs lists the .jpg/.jpeg files directly inside dir, in name order.
func ScanInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !isJPEGName(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

type BatchSummary struct {
	Processed int
	Failed    int
}

// Batch processes every JPEG of InputDir into OutputDir, one after another.
type Batch struct {
	InputDir   string
	OutputDir  string
	ScratchDir string
	Options    Options
	Encoder    Encoder
	Watermark  *Watermarker
	Results    io.Writer // JSON lines, nil to disable
	Log        zerolog.Logger
}

// Run acquires the scratch area for the whole batch and releases it on
// every return path. A failing image is reported and skipped.
func (b *Batch) Run() (summary BatchSummary, err error) {
	if err := os.MkdirAll(b.InputDir, 0755); err != nil {
		return summary, fmt.Errorf("creating input directory: %w", err)
	}
	if err := os.MkdirAll(b.OutputDir, 0755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}
	files, err := ScanInputs(b.InputDir)
	if err != nil {
		return summary, err
	}

	scratch, err := AcquireScratch(b.ScratchDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if rerr := scratch.Release(); rerr != nil {
			b.Log.Warn().Err(rerr).Str("dir", scratch.Dir()).Msg("scratch cleanup failed")
			if err == nil {
				err = rerr
			}
		}
	}()

	b.Log.Debug().Int("files", len(files)).Str("input", b.InputDir).Str("output", b.OutputDir).Msg("batch start")
	proc := NewProcessor(b.Options, b.Encoder, b.Watermark, scratch, b.Log)
	enc := json.NewEncoder(io.Discard)
	if b.Results != nil {
		enc = json.NewEncoder(b.Results)
	}
	for _, f := range files {
		res := proc.Process(f, b.OutputDir)
		summary.Processed++
		if res.Err != nil {
			summary.Failed++
			b.Log.Error().Err(res.Err).Str("file", filepath.Base(f)).Msg("processing failed")
		}
		if err := enc.Encode(res); err != nil {
			return summary, fmt.Errorf("writing result: %w", err)
		}
	}
	return summary, nil
}
