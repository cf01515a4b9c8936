package unsafety

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/panbanda/unsafecount/internal/cache"
	"github.com/panbanda/unsafecount/pkg/ast"
	"github.com/panbanda/unsafecount/pkg/ast/treesitter"
	"github.com/panbanda/unsafecount/pkg/diag"
	"github.com/panbanda/unsafecount/pkg/source"
	"github.com/sirupsen/logrus"
)

// Analyzer counts unsafe statements in Rust files.
type Analyzer struct {
	provider *treesitter.Provider
	source   source.ContentSource
	cache    *cache.Cache
	logger   *logrus.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithCache stores and reuses per-file results keyed by path and content.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithSource reads files from src instead of the filesystem.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.source = src
	}
}

// New creates a new unsafety analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: treesitter.New(),
		source:   source.NewFilesystem(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logrus.New()
		a.logger.SetOutput(io.Discard)
	}
	return a
}

// AnalyzeFile reads and analyzes one file. A read error is returned
// wrapped; a syntax error is returned as *diag.ParseFailure.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileResult, error) {
	src, err := a.source.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return a.AnalyzeSource(ctx, path, src)
}

// AnalyzeSource analyzes already loaded source text.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, src []byte) (*FileResult, error) {
	log := a.logger.WithField("file", path)

	hash := ""
	if a.cache.Enabled() {
		hash = cache.HashBytes(src)
		var cached FileResult
		if a.cache.Get(path, hash, &cached) {
			log.Debug("cache hit")
			cached.Cached = true
			return &cached, nil
		}
	}

	file, err := a.provider.Parse(ctx, src, path)
	if err != nil {
		var perr *ast.ParseError
		if errors.As(err, &perr) {
			log.WithField("error", perr.Message).Debug("parse failed")
			return nil, &diag.ParseFailure{Err: perr, Path: path, Source: src}
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	walked := Walk(file)
	result := &FileResult{
		Path:    path,
		Counts:  walked.Counts,
		Regions: walked.Regions,
	}
	log.WithFields(logrus.Fields{
		"unsafe":  result.Counts.Unsafe,
		"total":   result.Counts.Total,
		"regions": len(result.Regions),
	}).Debug("counted")

	if a.cache.Enabled() {
		if err := a.cache.Set(path, hash, result); err != nil {
			log.WithError(err).Debug("cache write failed")
		}
	}

	return result, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.provider.Close()
}
