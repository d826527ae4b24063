// Package main implements the eventlog binary, which decodes captured
// eventlog files and prints or exports their contents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arkilian/eventlog/internal/app"
	"github.com/arkilian/eventlog/internal/config"
	"github.com/arkilian/eventlog/internal/render"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flags holds command line overrides. Empty values leave the file and
// environment configuration untouched.
type flags struct {
	configFile string
	grammar    string
	strict     bool
	format     string
	indent     bool
	summary    bool
	top        int
	verbose    bool
	storage    string
	bucket     string
	region     string
	endpoint   string
	pathStyle  bool
	dbPath     string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", app.Describe(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:           "eventlog [file]",
		Short:         "Decode eventlog captures",
		Long:          "eventlog decodes binary eventlog captures from local files or S3 and prints the type dictionary and event stream.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runDump(cmd, f, args[0], render.Options{})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	pf.StringVar(&f.grammar, "grammar", "", "Header grammar: flat or nested")
	pf.BoolVar(&f.strict, "strict", false, "Reject bytes after the body terminator")
	pf.StringVar(&f.format, "format", "", "Output format: text or json")
	pf.BoolVar(&f.indent, "indent", false, "Pretty-print JSON output")
	pf.BoolVar(&f.summary, "summary", false, "Print a summary after the listing")
	pf.IntVar(&f.top, "top", 0, "Number of busiest event types in the summary")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log progress to stderr")
	pf.StringVar(&f.storage, "storage", "", "Storage type for bare paths: local or s3")
	pf.StringVar(&f.bucket, "s3-bucket", "", "S3 bucket for bare keys")
	pf.StringVar(&f.region, "s3-region", "", "AWS region")
	pf.StringVar(&f.endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	pf.BoolVar(&f.pathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the type dictionary and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, f, args[0], render.Options{})
		},
	}

	typesCmd := &cobra.Command{
		Use:   "types <file>",
		Short: "Print only the type dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, f, args[0], render.Options{SkipEvents: true})
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Store a decoded capture in a SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			id, created, err := a.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s as %s\n", args[0], id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exported as %s\n", args[0], id)
			}
			return nil
		},
	}
	exportCmd.Flags().StringVar(&f.dbPath, "db", "", "Catalog database path")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventlog version %s (commit: %s)\n", version, commit)
		},
	}

	rootCmd.AddCommand(dumpCmd, typesCmd, exportCmd, versionCmd)
	return rootCmd
}

func runDump(cmd *cobra.Command, f *flags, location string, opts render.Options) error {
	a, err := newApp(cmd, f)
	if err != nil {
		return err
	}
	return a.Dump(cmd.Context(), location, opts)
}

func newApp(cmd *cobra.Command, f *flags) (*app.App, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(f *flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if f.configFile != "" {
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Command line flags have the highest priority
	if f.grammar != "" {
		cfg.Decode.Grammar = f.grammar
	}
	if f.strict {
		cfg.Decode.Strict = true
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.indent {
		cfg.Output.Indent = true
	}
	if f.summary {
		cfg.Output.Summary = true
	}
	if f.top > 0 {
		cfg.Output.TopTypes = f.top
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.storage != "" {
		cfg.Storage.Type = f.storage
	}
	if f.bucket != "" {
		cfg.Storage.S3.Bucket = f.bucket
	}
	if f.region != "" {
		cfg.Storage.S3.Region = f.region
	}
	if f.endpoint != "" {
		cfg.Storage.S3.Endpoint = f.endpoint
	}
	if f.pathStyle {
		cfg.Storage.S3.UsePathStyle = true
	}
	if f.dbPath != "" {
		cfg.Export.DBPath = f.dbPath
	}

	return cfg, nil
}
