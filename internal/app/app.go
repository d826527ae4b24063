// Package app wires configuration, input loading, decoding, rendering and
// export together for the eventlog CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/arkilian/eventlog/internal/catalog"
	"github.com/arkilian/eventlog/internal/config"
	"github.com/arkilian/eventlog/internal/decoder"
	elerrors "github.com/arkilian/eventlog/internal/errors"
	"github.com/arkilian/eventlog/internal/observability"
	"github.com/arkilian/eventlog/internal/render"
	"github.com/arkilian/eventlog/internal/source"
)

// App runs CLI operations against one configuration.
type App struct {
	cfg     *config.Config
	loader  *source.Loader
	grammar decoder.Grammar
	stdout  io.Writer
	logger  *log.Logger
}

// Capture is a loaded and decoded eventlog.
type Capture struct {
	Location string
	Raw      []byte
	Log      *decoder.Log
}

// New creates an App. Rendered output goes to stdout; progress logging goes
// to stderr when cfg.Verbose is set.
func New(cfg *config.Config, stdout, stderr io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, elerrors.NewConfigError(fmt.Sprintf("invalid configuration: %v", err))
	}

	grammar, err := decoder.ParseGrammar(cfg.Decode.Grammar)
	if err != nil {
		return nil, elerrors.NewConfigError(err.Error())
	}

	logOut := io.Discard
	if cfg.Verbose {
		logOut = stderr
	}

	return &App{
		cfg:     cfg,
		loader:  source.NewLoader(sourceConfig(cfg)),
		grammar: grammar,
		stdout:  stdout,
		logger:  log.New(logOut, "eventlog: ", log.LstdFlags),
	}, nil
}

func sourceConfig(cfg *config.Config) source.Config {
	s3Cfg := source.DefaultS3Config()
	s3Cfg.Bucket = cfg.Storage.S3.Bucket
	s3Cfg.UsePathStyle = cfg.Storage.S3.UsePathStyle
	s3Cfg.MaxRetries = cfg.Storage.S3.MaxRetries
	if cfg.Storage.S3.Region != "" {
		s3Cfg.Region = cfg.Storage.S3.Region
	}
	if cfg.Storage.S3.Endpoint != "" {
		s3Cfg.Endpoint = cfg.Storage.S3.Endpoint
	}
	return source.Config{Type: cfg.Storage.Type, S3: s3Cfg}
}

// Load reads and decodes the capture at location.
func (a *App) Load(ctx context.Context, location string) (*Capture, error) {
	raw, err := a.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("Loaded %s (%d bytes)", location, len(raw))

	opts := []decoder.Option{decoder.WithGrammar(a.grammar)}
	if a.cfg.Decode.Strict {
		opts = append(opts, decoder.WithStrict())
	}

	decoded, err := decoder.Decode(raw, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("Decoded %d types and %d events", len(decoded.Types), len(decoded.Events))
	if decoded.Trailing > 0 {
		a.logger.Printf("Warning: %d bytes after body terminator ignored", decoded.Trailing)
	}

	return &Capture{Location: location, Raw: raw, Log: decoded}, nil
}

// Dump renders the capture at location to stdout.
func (a *App) Dump(ctx context.Context, location string, opts render.Options) error {
	capture, err := a.Load(ctx, location)
	if err != nil {
		return err
	}

	opts.Indent = opts.Indent || a.cfg.Output.Indent
	r, err := render.New(render.Format(a.cfg.Output.Format), opts)
	if err != nil {
		return elerrors.NewConfigError(err.Error())
	}
	if err := r.Render(a.stdout, capture.Log); err != nil {
		return fmt.Errorf("render %s: %w", location, err)
	}

	if a.cfg.Output.Summary {
		stats := observability.Collect(capture.Log)
		if err := render.WriteSummary(a.stdout, location, len(capture.Raw), stats, a.cfg.Output.TopTypes); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}
	return nil
}

// Export decodes the capture at location and stores it in the catalog.
func (a *App) Export(ctx context.Context, location string) (captureID string, created bool, err error) {
	capture, err := a.Load(ctx, location)
	if err != nil {
		return "", false, err
	}

	cat, err := catalog.NewCatalog(a.cfg.Export.DBPath)
	if err != nil {
		return "", false, err
	}
	defer cat.Close()

	captureID, created, err = cat.RegisterCapture(ctx, location, capture.Raw, capture.Log)
	if err != nil {
		return "", false, err
	}
	if created {
		a.logger.Printf("Exported %s as capture %s to %s", location, captureID, a.cfg.Export.DBPath)
	} else {
		a.logger.Printf("%s already exported as capture %s", location, captureID)
	}
	return captureID, created, nil
}

// kindDescriptions names decode failures for humans.
var kindDescriptions = map[string]string{
	elerrors.CodeTagMismatch:      "tag mismatch",
	elerrors.CodeTruncatedInput:   "truncated input",
	elerrors.CodeUnknownEventType: "unknown event type",
	elerrors.CodeTrailingBytes:    "trailing bytes",
}

// Describe renders err as a single line for the CLI. Decode failures carry
// their kind, offset and a preview of the remaining input.
func Describe(err error) string {
	var ee *elerrors.EventlogError
	if !errors.As(err, &ee) || ee.Category != elerrors.ErrCategoryDecode {
		return err.Error()
	}

	kind, ok := kindDescriptions[ee.Code]
	if !ok {
		kind = ee.Code
	}
	msg := fmt.Sprintf("%s at offset %d: %s", kind, ee.Offset, ee.Message)
	if remaining, ok := ee.Details["remaining"].(string); ok {
		if remaining == "" {
			remaining = "<end of input>"
		}
		msg = fmt.Sprintf("%s (remaining: %s)", msg, remaining)
	}
	return msg
}
