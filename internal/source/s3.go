package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

// S3Config holds configuration for S3 sources.
type S3Config struct {
	// Bucket is the default bucket for bare keys.
	Bucket string
	// Region is the AWS region for the S3 bucket.
	Region string
	// Endpoint is an optional custom endpoint (for MinIO, LocalStack, etc.).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
	// MaxRetries bounds retries of transient read failures.
	MaxRetries int
}

// DefaultS3Config returns the default S3 configuration.
func DefaultS3Config() S3Config {
	return S3Config{
		Region:     "us-east-1",
		MaxRetries: 3,
	}
}

// getObjectAPI is the subset of the S3 client used for reads.
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source implements Source for AWS S3.
type S3Source struct {
	client      getObjectAPI
	bucket      string
	maxRetries  int
	baseBackoff time.Duration
}

// NewS3Source creates a new S3 source for bucket.
func NewS3Source(ctx context.Context, bucket string, cfg S3Config) (*S3Source, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, elerrors.Wrap(elerrors.ErrCategoryConfig, elerrors.CodeInvalidConfig, "load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return newS3SourceWithClient(s3.NewFromConfig(awsCfg, s3Opts...), bucket, cfg.MaxRetries), nil
}

func newS3SourceWithClient(client getObjectAPI, bucket string, maxRetries int) *S3Source {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &S3Source{
		client:      client,
		bucket:      bucket,
		maxRetries:  maxRetries,
		baseBackoff: 100 * time.Millisecond,
	}
}

// ReadAll downloads the object at key into memory.
func (s *S3Source) ReadAll(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.retryWithBackoff(ctx, func() error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})

	if err != nil {
		if isNotFound(err) {
			return nil, elerrors.NewSourceError(elerrors.CodeObjectNotFound,
				fmt.Sprintf("object s3://%s/%s does not exist", s.bucket, key), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e := elerrors.NewSourceError(elerrors.CodeReadFailed,
			fmt.Sprintf("read s3://%s/%s", s.bucket, key), err)
		e.Retryable = isTransient(err)
		return nil, e
	}
	return data, nil
}

// isNotFound reports whether err means the object does not exist, including
// S3-compatible stores that only report the error code.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

// transientCodes are S3 error codes for throttling and server-side failures.
var transientCodes = map[string]bool{
	"SlowDown":                 true,
	"Throttling":               true,
	"ThrottlingException":      true,
	"RequestLimitExceeded":     true,
	"TooManyRequestsException": true,
	"RequestTimeout":           true,
	"RequestTimeoutException":  true,
	"InternalError":            true,
	"ServiceUnavailable":       true,
}

// isTransient reports whether a failed read may succeed when retried.
// Throttling, timeouts and 5xx responses are transient, as are failures that
// never got a response. Any other service error is permanent.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		if code := statusErr.HTTPStatusCode(); code >= 500 || code == 429 {
			return true
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return transientCodes[apiErr.ErrorCode()] || apiErr.ErrorFault() == smithy.FaultServer
	}
	if statusErr != nil {
		return false
	}
	return true
}

// retryWithBackoff executes the operation with exponential backoff retry.
func (s *S3Source) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if !isTransient(lastErr) {
			return lastErr
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * s.baseBackoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
