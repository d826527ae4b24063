// Package config provides configuration for the eventlog CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration.
type Config struct {
	// Decode controls how captures are decoded
	Decode DecodeConfig `json:"decode" yaml:"decode"`

	// Output controls rendering
	Output OutputConfig `json:"output" yaml:"output"`

	// Storage selects where captures are read from
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Export configures the SQLite export
	Export ExportConfig `json:"export" yaml:"export"`

	// Verbose enables progress logging on stderr
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DecodeConfig holds decoder configuration.
type DecodeConfig struct {
	// Grammar is the header layout: flat or nested
	Grammar string `json:"grammar" yaml:"grammar"`

	// Strict rejects bytes after the body terminator
	Strict bool `json:"strict" yaml:"strict"`
}

// OutputConfig holds rendering configuration.
type OutputConfig struct {
	// Format is text or json
	Format string `json:"format" yaml:"format"`

	// Indent pretty-prints JSON output
	Indent bool `json:"indent" yaml:"indent"`

	// Summary prints a one-line overview after the listing
	Summary bool `json:"summary" yaml:"summary"`

	// TopTypes is the number of busiest types listed with the summary
	TopTypes int `json:"top_types" yaml:"top_types"`
}

// StorageConfig holds input storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// S3 configuration (for s3 type and s3:// locations)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name for bare keys
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`

	// MaxRetries bounds retries of transient read failures
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExportConfig holds SQLite export configuration.
type ExportConfig struct {
	// DBPath is the catalog database file
	DBPath string `json:"db_path" yaml:"db_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Decode: DecodeConfig{
			Grammar: "flat",
		},
		Output: OutputConfig{
			Format:   "text",
			TopTypes: 5,
		},
		Storage: StorageConfig{
			Type: "local",
			S3: S3Config{
				Region:     "us-east-1",
				MaxRetries: 3,
			},
		},
		Export: ExportConfig{
			DBPath: "eventlog.db",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Decode.Grammar {
	case "flat", "nested":
	default:
		return fmt.Errorf("invalid decode.grammar: %s (must be flat or nested)", c.Decode.Grammar)
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format: %s (must be text or json)", c.Output.Format)
	}

	if c.Output.TopTypes < 0 {
		return fmt.Errorf("output.top_types must not be negative, got %d", c.Output.TopTypes)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Storage.S3.MaxRetries < 0 {
		return fmt.Errorf("s3.max_retries must not be negative, got %d", c.Storage.S3.MaxRetries)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the EVENTLOG_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("EVENTLOG_GRAMMAR"); v != "" {
		cfg.Decode.Grammar = v
	}
	if v := os.Getenv("EVENTLOG_STRICT"); v != "" {
		cfg.Decode.Strict = parseBool(v)
	}

	if v := os.Getenv("EVENTLOG_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("EVENTLOG_TOP_TYPES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Output.TopTypes = n
		}
	}
	if v := os.Getenv("EVENTLOG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}

	if v := os.Getenv("EVENTLOG_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("EVENTLOG_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("EVENTLOG_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("EVENTLOG_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("EVENTLOG_S3_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = parseBool(v)
	}

	if v := os.Getenv("EVENTLOG_EXPORT_DB"); v != "" {
		cfg.Export.DBPath = v
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}
