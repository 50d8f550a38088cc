package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const scratchFileName = "tmp.jpg"

// Scratch is the directory and single file used for size probes during a
// batch. Acquire it once and defer Release.
type Scratch struct {
	dir      string
	created  bool
	released bool
}

func AcquireScratch(dir string) (*Scratch, error) {
	created := false
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		created = true
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &Scratch{dir: dir, created: created}, nil
}

func (s *Scratch) Dir() string  { return s.dir }
func (s *Scratch) Path() string { return filepath.Join(s.dir, scratchFileName) }

// Release removes the scratch file, then the directory when this Scratch
// created it or it is left empty. Calling it again is a no-op.
func (s *Scratch) Release() error {
	if s == nil || s.released {
		return nil
	}
	s.released = true
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing scratch file: %w", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading scratch directory: %w", err)
	}
	if s.created || len(entries) == 0 {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("removing scratch directory: %w", err)
		}
	}
	return nil
}
