package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/unsafecount/internal/testutil"
	"github.com/panbanda/unsafecount/pkg/analyzer/unsafety"
	"github.com/panbanda/unsafecount/pkg/config"
	"github.com/panbanda/unsafecount/pkg/diag"
	"github.com/panbanda/unsafecount/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// 2 of 5 statements unsafe
	mixedSource = `
fn main() {
    let v = unsafe { *PTR };
    unsafe { touch(PTR); }
    done(v);
}
`
	// 0 of 3
	safeSource = `
fn helper() {
    let a = 1;
    let b = 2;
    a + b;
}
`
	brokenSource = "fn main() {\n    let x = ;\n}\n"
)

func TestNew(t *testing.T) {
	s := New()
	require.NotNil(t, s)
	assert.NotNil(t, s.config)
	assert.NotNil(t, s.logger)
	assert.False(t, s.cache.Enabled())

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	s = New(WithConfig(cfg))
	assert.True(t, s.cache.Enabled())
}

func TestCountTwoFiles(t *testing.T) {
	s := New(WithSource(source.MemorySource{"a.rs": mixedSource, "b.rs": safeSource}))

	var seen []string
	res, err := s.Count(context.Background(), []string{"a.rs", "b.rs"}, CountOptions{
		OnFile: func(fr unsafety.FileResult) {
			seen = append(seen, fr.Path+": "+fr.Counts.String())
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.rs: 2/5", "b.rs: 0/3"}, seen)
	assert.Equal(t, unsafety.Counts{Unsafe: 2, Total: 8}, res.Summary.Counts)
	assert.Equal(t, 2, res.Summary.Files)
	assert.Equal(t, 1, res.Summary.FilesWithUnsafe)
	assert.Empty(t, res.Failures)
}

func TestCountParseFailureContinues(t *testing.T) {
	s := New(WithSource(source.MemorySource{
		"a.rs":   mixedSource,
		"bad.rs": brokenSource,
		"b.rs":   safeSource,
	}))

	var failed []*diag.ParseFailure
	var progress []string
	res, err := s.Count(context.Background(), []string{"a.rs", "bad.rs", "b.rs"}, CountOptions{
		OnFailure:  func(f *diag.ParseFailure) { failed = append(failed, f) },
		OnProgress: func(path string) { progress = append(progress, path) },
	})
	require.NoError(t, err)

	require.Len(t, failed, 1)
	assert.Equal(t, "bad.rs", failed[0].Path)
	assert.Equal(t, []string{"a.rs", "bad.rs", "b.rs"}, progress)

	require.Len(t, res.Files, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.rs", res.Failures[0].Path)
	assert.Equal(t, 2, res.Failures[0].Line)
	assert.Equal(t, unsafety.Counts{Unsafe: 2, Total: 8}, res.Summary.Counts)
	assert.Equal(t, 1, res.Summary.FailedFiles)
}

func TestCountReadErrorAborts(t *testing.T) {
	s := New(WithSource(source.MemorySource{"a.rs": mixedSource, "c.rs": safeSource}))

	var seen []string
	res, err := s.Count(context.Background(), []string{"a.rs", "missing.rs", "c.rs"}, CountOptions{
		OnFile: func(fr unsafety.FileResult) { seen = append(seen, fr.Path) },
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Files before the failure were already reported.
	assert.Equal(t, []string{"a.rs"}, seen)
}

func TestCountCancelled(t *testing.T) {
	s := New(WithSource(source.MemorySource{"a.rs": mixedSource}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Count(ctx, []string{"a.rs"}, CountOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountEmpty(t *testing.T) {
	res, err := New().Count(context.Background(), nil, CountOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Equal(t, unsafety.Summary{}, res.Summary)
}

func TestCountFromDisk(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"a.rs": mixedSource,
		"b.rs": safeSource,
	})

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(dir, ".cache")
	s := New(WithConfig(cfg))

	files := []string{filepath.Join(dir, "a.rs"), filepath.Join(dir, "b.rs")}
	first, err := s.Count(context.Background(), files, CountOptions{})
	require.NoError(t, err)
	assert.False(t, first.Files[0].Cached)

	second, err := s.Count(context.Background(), files, CountOptions{})
	require.NoError(t, err)
	assert.True(t, second.Files[0].Cached)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestSummarize(t *testing.T) {
	files := []unsafety.FileResult{
		{Path: "a.rs", Counts: unsafety.Counts{Unsafe: 1, Total: 4}},
		{Path: "b.rs", Counts: unsafety.Counts{Unsafe: 0, Total: 4}},
		{Path: "c.rs", Counts: unsafety.Counts{Unsafe: 2, Total: 2}},
		{Path: "empty.rs"},
	}

	sum := Summarize(files, 3)

	assert.Equal(t, 4, sum.Files)
	assert.Equal(t, 3, sum.FailedFiles)
	assert.Equal(t, 2, sum.FilesWithUnsafe)
	assert.Equal(t, unsafety.Counts{Unsafe: 3, Total: 10}, sum.Counts)
	assert.InDelta(t, 0.3, sum.Density, 1e-9)
	assert.InDelta(t, (0.25+0+1)/3, sum.MeanFileDensity, 1e-9)
	assert.InDelta(t, 0.25, sum.MedianFileDensity, 1e-9)
	assert.InDelta(t, 1.0, sum.MaxFileDensity, 1e-9)
}
