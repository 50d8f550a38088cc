package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestPublishFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")
	n, err := publishFile(dst, func(w io.Writer) error {
		_, err := w.Write([]byte("jpeg bytes"))
		return err
	})
	if err != nil {
		t.Fatalf("publishFile failed: %v", err)
	}
	if n != 10 {
		t.Errorf("size = %d, want 10", n)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("content = %q, %v", data, err)
	}
	assertOnlyFiles(t, dir, "out.jpg")
}

func TestPublishFileLeavesNothingOnError(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")
	_, err := publishFile(dst, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("encoder failed")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	assertOnlyFiles(t, dir)
}

func TestIsJPEGName(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.JpG": true,
		"d.png": false, "jpg": false, "e.jpg.txt": false,
	} {
		if got := isJPEGName(name); got != want {
			t.Errorf("isJPEGName(%q) = %v, want %v", name, got, want)
		}
	}
}

// assertOnlyFiles fails unless dir holds exactly the named entries.
func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if len(got) != len(names) {
		t.Fatalf("%s contains %v, want %v", dir, got, names)
	}
	for i := range names {
		if got[i] != names[i] {
			t.Fatalf("%s contains %v, want %v", dir, got, names)
		}
	}
}
