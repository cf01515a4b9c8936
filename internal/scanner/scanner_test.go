package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/unsafecount/internal/testutil"
	"github.com/panbanda/unsafecount/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDirFindsRustFilesInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/main.rs":      "fn main() {}\n",
		"src/lib.rs":       "pub fn f() {}\n",
		"src/ffi/mod.rs":   "mod sys;\n",
		"build.rs":         "fn main() {}\n",
		"README.md":        "# readme\n",
		"src/helper.py":    "# python\n",
		"benches/bench.RS": "fn bench() {}\n",
	})

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"benches/bench.RS",
		"build.rs",
		"src/ffi/mod.rs",
		"src/lib.rs",
		"src/main.rs",
	}, rel(t, root, files))
}

func TestScanDirSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"target/debug/build/out.rs": "fn x() {}\n",
		"vendor/dep/lib.rs":         "fn x() {}\n",
		".git/hooks/x.rs":           "fn x() {}\n",
		"src/main.rs":               "fn main() {}\n",
	})

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs"}, rel(t, root, files))
}

func TestScanDirConfigPatterns(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"src/main.rs":           "fn main() {}\n",
		"src/bindings_gen.rs":   "fn x() {}\n",
		"fixtures/broken.rs":    "fn (\n",
		"fixtures/nested/ok.rs": "fn x() {}\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*_gen.rs", "fixtures/"}

	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs"}, rel(t, root, files))
}

func TestScanDirHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		".gitignore":        "generated/\nscratch.rs\n",
		"src/main.rs":       "fn main() {}\n",
		"src/scratch.rs":    "fn x() {}\n",
		"generated/out.rs":  "fn x() {}\n",
		"crates/a/src/a.rs": "fn a() {}\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"crates/a/src/a.rs", "src/main.rs"}, rel(t, root, files))

	// Scanning a subdirectory still applies the repository's ignore rules.
	sub := filepath.Join(root, "src")
	files, err = NewScanner(nil).ScanDir(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.rs"}, rel(t, sub, files))
}

func TestScanDirGitignoreDisabled(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		".gitignore":     "scratch.rs\n",
		"src/scratch.rs": "fn x() {}\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/scratch.rs"}, rel(t, root, files))
}

func TestScanDirMissing(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var pathErr *PathError
	assert.True(t, errors.As(err, &pathErr))
}

func TestExpandKeepsArgumentOrder(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"one.rs":       "fn a() {}\n",
		"dir/b.rs":     "fn b() {}\n",
		"dir/a.rs":     "fn a() {}\n",
		"notes.txt":    "text\n",
		"dir/skip.txt": "text\n",
	})

	one := filepath.Join(root, "one.rs")
	notes := filepath.Join(root, "notes.txt")
	missing := filepath.Join(root, "missing.rs")
	dir := filepath.Join(root, "dir")

	files, err := NewScanner(nil).Expand([]string{one, dir, notes, missing})
	require.NoError(t, err)

	// Explicit files pass through even when they are not .rs or do not exist.
	assert.Equal(t, []string{
		one,
		filepath.Join(dir, "a.rs"),
		filepath.Join(dir, "b.rs"),
		notes,
		missing,
	}, files)
}

func TestExpandEmpty(t *testing.T) {
	files, err := NewScanner(nil).Expand(nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path, root string
		want       bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"/a/bc", "/a/b", false},
		{"/x", "/a/b", false},
	}
	for _, tt := range tests {
		if got := isWithinRoot(tt.path, tt.root); got != tt.want {
			t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
		}
	}
}
