package analysis

import (
	"context"
	"errors"
	"io"

	"github.com/panbanda/unsafecount/internal/cache"
	"github.com/panbanda/unsafecount/pkg/analyzer/unsafety"
	"github.com/panbanda/unsafecount/pkg/config"
	"github.com/panbanda/unsafecount/pkg/diag"
	"github.com/panbanda/unsafecount/pkg/source"
	"github.com/panbanda/unsafecount/pkg/stats"
	"github.com/sirupsen/logrus"
)

// Service runs the unsafe statement count over a list of files.
type Service struct {
	config *config.Config
	cache  *cache.Cache
	logger *logrus.Logger
	source source.ContentSource
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithSource reads files from src instead of the filesystem (for testing).
func WithSource(src source.ContentSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetOutput(io.Discard)
	}
	if s.cache == nil && s.config.Cache.Enabled {
		c, err := cache.New(s.config.Cache.Dir, s.config.Cache.TTL, true)
		if err != nil {
			s.logger.WithError(err).Debug("cache disabled")
		}
		s.cache = c
	}
	return s
}

// CountOptions receives per-file events while a run is in progress.
type CountOptions struct {
	OnFile     func(unsafety.FileResult)
	OnFailure  func(*diag.ParseFailure)
	OnProgress func(path string)
}

// Count analyzes files strictly in order. A file that does not parse is
// recorded as a failure and skipped. Any other error, a read error or
// cancellation, stops the run and is returned.
func (s *Service) Count(ctx context.Context, files []string, opts CountOptions) (*unsafety.Analysis, error) {
	analyzerOpts := []unsafety.Option{
		unsafety.WithCache(s.cache),
		unsafety.WithLogger(s.logger),
	}
	if s.source != nil {
		analyzerOpts = append(analyzerOpts, unsafety.WithSource(s.source))
	}
	a := unsafety.New(analyzerOpts...)
	defer a.Close()

	result := &unsafety.Analysis{
		Files: make([]unsafety.FileResult, 0, len(files)),
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fr, err := a.AnalyzeFile(ctx, path)
		if opts.OnProgress != nil {
			opts.OnProgress(path)
		}

		var failure *diag.ParseFailure
		switch {
		case errors.As(err, &failure):
			s.logger.WithField("file", path).Debug("skipping unparseable file")
			result.Failures = append(result.Failures, unsafety.Failure{
				Path:    path,
				Message: failure.Err.Message,
				Line:    failure.Err.Span.Start.Line,
				Column:  failure.Err.Span.Start.Column,
			})
			if opts.OnFailure != nil {
				opts.OnFailure(failure)
			}
		case err != nil:
			return nil, err
		default:
			result.Files = append(result.Files, *fr)
			if opts.OnFile != nil {
				opts.OnFile(*fr)
			}
		}
	}

	result.Summary = Summarize(result.Files, len(result.Failures))
	return result, nil
}

// Summarize aggregates per-file results. Totals are plain sums; the
// density statistics are taken over files that contain statements.
func Summarize(files []unsafety.FileResult, failed int) unsafety.Summary {
	sum := unsafety.Summary{
		Files:       len(files),
		FailedFiles: failed,
	}

	densities := make([]float64, 0, len(files))
	for _, f := range files {
		sum.Counts = sum.Counts.Add(f.Counts)
		if f.Counts.Unsafe > 0 {
			sum.FilesWithUnsafe++
		}
		if f.Counts.Total > 0 {
			densities = append(densities, f.Counts.Density())
		}
	}

	sum.Density = sum.Counts.Density()
	dist := stats.Describe(densities)
	sum.MeanFileDensity = dist.Mean
	sum.MedianFileDensity = dist.Median
	sum.MaxFileDensity = dist.Max
	return sum
}
