package main

import (
	"fmt"
	"image"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// QualityBudget is the byte ceiling and the closed quality range searched.
type QualityBudget struct {
	MaxBytes   int64
	MinQuality int
	MaxQuality int
}

func DefaultQualityBudget(maxBytes int64) QualityBudget {
	return QualityBudget{MaxBytes: maxBytes, MinQuality: 70, MaxQuality: 100}
}

type SearchResult struct {
	Quality    int
	Probes     int
	LastSize   int64
	Satisfied  bool // some probed quality fit the budget
	LastProbed int
}

// QualitySearcher binary-searches the highest JPEG quality whose encoded
// size fits the budget. Every probe is written to ScratchPath.
type QualitySearcher struct {
	Encoder     Encoder
	ScratchPath string
	// ReturnLastProbe returns the last quality tried instead of the best
	// one that fit. The last probe may be over budget.
	ReturnLastProbe bool
	log             zerolog.Logger
}

func NewQualitySearcher(enc Encoder, scratchPath string, lastProbe bool, log zerolog.Logger) *QualitySearcher {
	return &QualitySearcher{Encoder: enc, ScratchPath: scratchPath, ReturnLastProbe: lastProbe, log: log}
}

// probe encodes img at quality q into the scratch file and returns its size.
func (s *QualitySearcher) probe(img image.Image, q int) (int64, error) {
	f, err := os.Create(s.ScratchPath)
	if err != nil {
		return 0, fmt.Errorf("creating scratch file: %w", err)
	}
	if err := s.Encoder.Encode(f, img, q); err != nil {
		f.Close()
		return 0, fmt.Errorf("encoding probe at quality %d: %w", q, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing scratch file: %w", err)
	}
	info, err := os.Stat(s.ScratchPath)
	if err != nil {
		return 0, fmt.Errorf("stating scratch file: %w", err)
	}
	return info.Size(), nil
}

// Search assumes encoded size does not decrease as quality grows.
func (s *QualitySearcher) Search(img image.Image, budget QualityBudget) (SearchResult, error) {
	res := SearchResult{Quality: budget.MinQuality}
	best := budget.MinQuality
	lowQ, highQ := budget.MinQuality, budget.MaxQuality
	for lowQ <= highQ {
		currentQ := (lowQ + highQ) / 2
		size, err := s.probe(img, currentQ)
		if err != nil {
			return res, err
		}
		res.Probes++
		res.LastProbed = currentQ
		res.LastSize = size

		fits := size <= budget.MaxBytes
		s.log.Debug().Int("quality", currentQ).Str("size", humanize.IBytes(uint64(size))).Bool("fits", fits).Msg("probe")
		if fits {
			best = currentQ
			res.Satisfied = true
			lowQ = currentQ + 1
		} else {
			highQ = currentQ - 1
		}
	}

	res.Quality = best
	if s.ReturnLastProbe && res.Probes > 0 {
		res.Quality = res.LastProbed
	}
	return res, nil
}
