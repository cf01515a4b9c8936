package main

import (
	"fmt"
	"os"

	"github.com/panbanda/unsafecount/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOptions holds flag values and the state built from them before the
// command runs.
type rootOptions struct {
	cfgFile  string
	format   string
	output   string
	noColor  bool
	cache    bool
	progress bool
	verbose  bool

	logger *logrus.Logger
	config *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "unsafecount [flags] [path...]",
		Short: "Count statements inside unsafe regions of Rust code",
		Long: `unsafecount reports, for each Rust source file and in total, how many
statements there are and how many of them sit inside an unsafe block or an
unsafe fn.

Directories are expanded to the .rs files below them. Files that fail to
parse are reported on stderr and left out of the totals.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: text, table, markdown, json, toon")
	flags.StringVarP(&opts.output, "output", "o", "", "Write output to file")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored diagnostics")
	flags.BoolVar(&opts.cache, "cache", false, "Cache per-file results between runs")
	flags.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// setup builds the logger and loads the configuration. An explicit config
// file must load; a discovered one that fails only logs a warning.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.logger = logrus.New()
	o.logger.SetOutput(cmd.ErrOrStderr())
	if o.verbose {
		o.logger.SetLevel(logrus.DebugLevel)
	} else {
		o.logger.SetLevel(logrus.InfoLevel)
	}

	path := o.cfgFile
	if path == "" {
		path = os.Getenv("UNSAFECOUNT_CONFIG")
	}

	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.config = cfg
		o.logger.WithField("path", path).Debug("loaded config")
		return nil
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		o.logger.WithError(err).Warn("Failed to load config, using defaults")
	}
	o.config = cfg
	return nil
}
