package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const Signature = "jpeg-resize.go"

var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printError(w io.Writer, msg string, err error) {
	out := map[string]string{"error": msg}
	if err != nil {
		out["details"] = err.Error()
	}
	b, _ := json.Marshal(out)
	fmt.Fprintln(w, string(b))
}

func newLogger(w io.Writer, cfg *Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case cfg.Debug:
		level = zerolog.DebugLevel
	case cfg.Quiet:
		level = zerolog.WarnLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := LoadConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		printError(stderr, "Invalid arguments", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: %s [flags] <max_size_kb> <max_width> <max_height> [metadata_watermark] [watermark_text]\n", Signature)
		}
		return 1
	}
	if cfg.ShowVersion {
		fmt.Fprintf(stdout, "%s version %s\n", Signature, Version)
		return 0
	}

	log := newLogger(stderr, cfg)
	enc, err := NewEncoder(cfg.Encoder, cfg.Chroma)
	if err != nil {
		printError(stderr, "Invalid arguments", err)
		return 1
	}

	var wm *Watermarker
	if cfg.WantsWatermark() {
		face := LoadWatermarkFace(cfg.FontPath, cfg.FontSize, log)
		wm = NewWatermarker(face, DefaultWatermarkStyle(), log)
	}

	var results io.Writer
	if !cfg.Quiet {
		results = stdout
	}
	batch := &Batch{
		InputDir:   cfg.InputDir,
		OutputDir:  cfg.OutputDir,
		ScratchDir: cfg.ScratchDir,
		Options:    cfg.Options(),
		Encoder:    enc,
		Watermark:  wm,
		Results:    results,
		Log:        log,
	}

	start := time.Now()
	summary, err := batch.Run()
	if err != nil {
		log.Error().Err(err).Msg("batch aborted")
		return 1
	}
	log.Info().
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("batch finished")
	if summary.Failed > 0 {
		return 1
	}
	return 0
}
