package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

// fakeS3 serves objects from memory and fails the first failures calls
// with failErr, or a connection reset when failErr is nil.
type fakeS3 struct {
	objects  map[string][]byte
	failures int
	failErr  error
	calls    int
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, errors.New("connection reset by peer")
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func newTestS3Source(client getObjectAPI, maxRetries int) *S3Source {
	s := newS3SourceWithClient(client, "bucket", maxRetries)
	s.baseBackoff = time.Millisecond
	return s
}

func TestS3Source_ReadAll(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"k": []byte("data")}}

	data, err := newTestS3Source(fake, 3).ReadAll(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, 1, fake.calls)
}

func TestS3Source_RetriesTransientFailures(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"k": []byte("data")}, failures: 2}

	data, err := newTestS3Source(fake, 3).ReadAll(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, 3, fake.calls)
}

func TestS3Source_GivesUpAfterMaxRetries(t *testing.T) {
	fake := &fakeS3{failures: 100}

	_, err := newTestS3Source(fake, 2).ReadAll(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, elerrors.CodeReadFailed, elerrors.GetCode(err))
	assert.True(t, elerrors.IsRetryable(err))
	assert.Equal(t, 3, fake.calls)
}

func TestS3Source_NotFoundIsNotRetried(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}

	_, err := newTestS3Source(fake, 3).ReadAll(context.Background(), "missing")
	assert.ErrorIs(t, err, elerrors.ErrObjectNotFound)
	assert.Equal(t, 1, fake.calls)
}

func TestIsNotFound_APIErrorCode(t *testing.T) {
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "SlowDown"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestS3Source_PermanentFailureIsNotRetried(t *testing.T) {
	fake := &fakeS3{
		failures: 100,
		failErr:  &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied", Fault: smithy.FaultClient},
	}

	_, err := newTestS3Source(fake, 3).ReadAll(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, elerrors.CodeReadFailed, elerrors.GetCode(err))
	assert.False(t, elerrors.IsRetryable(err))
	assert.Equal(t, 1, fake.calls)
}

func TestS3Source_ThrottlingIsRetried(t *testing.T) {
	fake := &fakeS3{
		objects:  map[string][]byte{"k": []byte("data")},
		failures: 2,
		failErr:  &smithy.GenericAPIError{Code: "SlowDown"},
	}

	data, err := newTestS3Source(fake, 3).ReadAll(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, 3, fake.calls)
}

// statusError is a response error that carries only an HTTP status.
type statusError struct{ code int }

func (e statusError) Error() string       { return fmt.Sprintf("http status %d", e.code) }
func (e statusError) HTTPStatusCode() int { return e.code }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection reset", errors.New("connection reset by peer"), true},
		{"throttled", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"internal error", &smithy.GenericAPIError{Code: "InternalError"}, true},
		{"server fault", &smithy.GenericAPIError{Code: "Whatever", Fault: smithy.FaultServer}, true},
		{"service unavailable status", statusError{503}, true},
		{"too many requests status", statusError{429}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"invalid object state", &smithy.GenericAPIError{Code: "InvalidObjectState"}, false},
		{"bad credentials", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, false},
		{"forbidden status", statusError{403}, false},
		{"canceled", context.Canceled, false},
		{"wrapped deadline", fmt.Errorf("get object: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestNewS3Source_ConfigFailureIsNotRetryable(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(cfgFile, []byte("[default]\nregion = us-east-1\n"), 0644))
	t.Setenv("AWS_CONFIG_FILE", cfgFile)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "no-such-profile")

	_, err := NewS3Source(context.Background(), "bucket", DefaultS3Config())
	require.Error(t, err)
	assert.Equal(t, elerrors.ErrCategoryConfig, elerrors.GetCategory(err))
	assert.Equal(t, elerrors.CodeInvalidConfig, elerrors.GetCode(err))
	assert.False(t, elerrors.IsRetryable(err))
}
