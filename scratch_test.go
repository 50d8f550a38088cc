package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScratchCreatedAndReleased(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	s, err := AcquireScratch(dir)
	if err != nil {
		t.Fatalf("AcquireScratch failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("scratch directory not created: %v", err)
	}
	if s.Path() != filepath.Join(dir, "tmp.jpg") {
		t.Errorf("Path() = %s", s.Path())
	}
	writeFile(t, s.Path(), []byte("probe"))

	if err := s.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch directory still exists: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
}

func TestScratchKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "keep.txt")
	writeFile(t, other, []byte("x"))

	s, err := AcquireScratch(dir)
	if err != nil {
		t.Fatalf("AcquireScratch failed: %v", err)
	}
	writeFile(t, s.Path(), []byte("probe"))
	if err := s.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("scratch file should be removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestScratchReleaseWithoutProbe(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	s, err := AcquireScratch(dir)
	if err != nil {
		t.Fatalf("AcquireScratch failed: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Error("scratch directory should be removed")
	}
}
