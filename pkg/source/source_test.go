package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

var (
	_ ContentSource = (*FilesystemSource)(nil)
	_ ContentSource = MemorySource(nil)
)

func TestFilesystemSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.rs")
	if err := os.WriteFile(path, []byte("fn f() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFilesystem().Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(got) != "fn f() {}\n" {
		t.Errorf("Read() = %q", got)
	}

	_, err = NewFilesystem().Read(filepath.Join(t.TempDir(), "missing.rs"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() of missing file error = %v, want ErrNotExist", err)
	}
}

func TestMemorySource(t *testing.T) {
	src := MemorySource{"a.rs": "fn a() {}"}

	got, err := src.Read("a.rs")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(got) != "fn a() {}" {
		t.Errorf("Read() = %q", got)
	}

	_, err = src.Read("b.rs")
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Path != "b.rs" {
		t.Errorf("Read() error = %v, want *fs.PathError for b.rs", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error should wrap fs.ErrNotExist")
	}
}
