// Package source loads raw eventlog captures into memory from the local
// filesystem or S3, inflating snappy-compressed captures on the way.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/golang/snappy"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

// Source reads whole objects into memory.
type Source interface {
	// ReadAll returns the full contents of the object at key.
	ReadAll(ctx context.Context, key string) ([]byte, error)
}

// Location is a parsed capture location.
type Location struct {
	// Scheme is "file" or "s3"
	Scheme string
	// Bucket is set for s3 locations
	Bucket string
	// Key is the filesystem path or object key
	Key string
}

// String formats the location the way ParseLocation accepts it.
func (l Location) String() string {
	if l.Scheme == SchemeS3 {
		return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
	}
	return l.Key
}

// Location schemes.
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

// ParseLocation parses "s3://bucket/key" or a filesystem path.
func ParseLocation(loc string) (Location, error) {
	if rest, ok := strings.CutPrefix(loc, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, elerrors.NewConfigError(fmt.Sprintf("invalid s3 location %q (want s3://bucket/key)", loc))
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil
	}
	if rest, ok := strings.CutPrefix(loc, "file://"); ok {
		loc = rest
	}
	if loc == "" {
		return Location{}, elerrors.NewConfigError("empty input location")
	}
	return Location{Scheme: SchemeFile, Key: loc}, nil
}

// Config controls where bare locations are read from.
type Config struct {
	// Type is "local" or "s3"; bare locations are keys in the configured bucket for s3
	Type string
	// S3 holds S3 settings
	S3 S3Config
}

// Loader resolves locations to sources and returns decompressed bytes.
type Loader struct {
	cfg   Config
	local Source

	mu    sync.Mutex
	s3    map[string]Source
	newS3 func(ctx context.Context, bucket string, cfg S3Config) (Source, error)
}

// NewLoader creates a loader for cfg. S3 clients are created on first use.
func NewLoader(cfg Config) *Loader {
	return &Loader{
		cfg:   cfg,
		local: NewLocalSource(),
		s3:    make(map[string]Source),
		newS3: func(ctx context.Context, bucket string, cfg S3Config) (Source, error) {
			return NewS3Source(ctx, bucket, cfg)
		},
	}
}

// Resolve parses loc and applies the configured default storage type.
func (l *Loader) Resolve(loc string) (Location, error) {
	parsed, err := ParseLocation(loc)
	if err != nil {
		return Location{}, err
	}
	if parsed.Scheme == SchemeFile && l.cfg.Type == "s3" && !strings.HasPrefix(loc, "file://") {
		if l.cfg.S3.Bucket == "" {
			return Location{}, elerrors.NewConfigError("s3 bucket is required when storage type is s3")
		}
		parsed = Location{Scheme: SchemeS3, Bucket: l.cfg.S3.Bucket, Key: strings.TrimPrefix(loc, "/")}
	}
	return parsed, nil
}

// Load reads the capture at loc and inflates it if its name marks it as
// snappy-compressed.
func (l *Loader) Load(ctx context.Context, loc string) ([]byte, error) {
	parsed, err := l.Resolve(loc)
	if err != nil {
		return nil, err
	}

	src := l.local
	if parsed.Scheme == SchemeS3 {
		if src, err = l.s3Source(ctx, parsed.Bucket); err != nil {
			return nil, err
		}
	}

	raw, err := src.ReadAll(ctx, parsed.Key)
	if err != nil {
		return nil, err
	}
	return Inflate(parsed.Key, raw)
}

func (l *Loader) s3Source(ctx context.Context, bucket string) (Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if src, ok := l.s3[bucket]; ok {
		return src, nil
	}
	src, err := l.newS3(ctx, bucket, l.cfg.S3)
	if err != nil {
		return nil, err
	}
	l.s3[bucket] = src
	return src, nil
}

// Compression identifies how a capture is stored.
type Compression int

const (
	CompressionNone Compression = iota
	// CompressionSnappyFramed is the snappy framing format (.sz)
	CompressionSnappyFramed
	// CompressionSnappyBlock is a single raw snappy block (.snappy)
	CompressionSnappyBlock
)

// DetectCompression infers the compression from the object name.
func DetectCompression(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".sz":
		return CompressionSnappyFramed
	case ".snappy":
		return CompressionSnappyBlock
	default:
		return CompressionNone
	}
}

// Inflate decompresses raw according to the compression implied by name.
func Inflate(name string, raw []byte) ([]byte, error) {
	switch DetectCompression(name) {
	case CompressionSnappyFramed:
		out, err := io.ReadAll(snappy.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, elerrors.NewSourceError(elerrors.CodeDecompressFailed,
				fmt.Sprintf("inflate snappy stream %s", name), err)
		}
		return out, nil
	case CompressionSnappyBlock:
		out, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, elerrors.NewSourceError(elerrors.CodeDecompressFailed,
				fmt.Sprintf("inflate snappy block %s", name), err)
		}
		return out, nil
	default:
		return raw, nil
	}
}
