package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/panbanda/unsafecount/internal/output"
	"github.com/panbanda/unsafecount/internal/progress"
	"github.com/panbanda/unsafecount/internal/scanner"
	"github.com/panbanda/unsafecount/internal/service/analysis"
	"github.com/panbanda/unsafecount/pkg/analyzer/unsafety"
	"github.com/panbanda/unsafecount/pkg/diag"
	"github.com/spf13/cobra"
)

func runCount(cmd *cobra.Command, args []string, opts *rootOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if len(args) == 0 {
		fmt.Fprintln(stdout, "no input provided")
		return nil
	}

	cfg := opts.config
	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName = opts.format
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	files, err := scanner.NewScanner(cfg).Expand(args)
	if err != nil {
		return err
	}
	opts.logger.WithField("files", len(files)).Debug("expanded inputs")

	colorEnabled := cfg.Output.Color && !opts.noColor
	style := diag.StyleFor(colorEnabled && isTerminal(stderr))

	var formatter *output.Formatter
	if opts.output != "" {
		formatter, err = output.NewFormatter(format, opts.output, false)
		if err != nil {
			return err
		}
	} else {
		formatter = output.NewWriterFormatter(format, stdout, colorEnabled && isTerminal(stdout))
	}
	defer formatter.Close()

	if opts.cache && !cfg.Cache.Enabled {
		withCache := *cfg
		withCache.Cache.Enabled = true
		cfg = &withCache
	}

	var tracker *progress.Tracker
	if opts.progress {
		tracker = progress.NewTracker(stderr, "Counting", len(files))
	}

	svc := analysis.New(
		analysis.WithConfig(cfg),
		analysis.WithLogger(opts.logger),
	)

	var writeErr error
	result, err := svc.Count(cmd.Context(), files, analysis.CountOptions{
		OnFile: func(fr unsafety.FileResult) {
			if formatter.Streaming() && writeErr == nil {
				writeErr = formatter.WriteFile(fr)
			}
		},
		OnFailure: func(f *diag.ParseFailure) {
			_ = diag.Fprint(stderr, f, style)
		},
		OnProgress: func(path string) {
			if tracker != nil {
				tracker.Tick(path)
			}
		},
	})
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.Finish()
		}
	}
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	return formatter.WriteAnalysis(result)
}

// isTerminal reports whether w is a terminal that should receive color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
