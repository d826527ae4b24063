package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
	}{
		{"capture.evlog", Location{Scheme: SchemeFile, Key: "capture.evlog"}},
		{"/var/tmp/a.sz", Location{Scheme: SchemeFile, Key: "/var/tmp/a.sz"}},
		{"file:///var/tmp/a", Location{Scheme: SchemeFile, Key: "/var/tmp/a"}},
		{"s3://traces/2024/run.evlog", Location{Scheme: SchemeS3, Bucket: "traces", Key: "2024/run.evlog"}},
	}

	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "s3://", "s3://bucket", "s3://bucket/"} {
		_, err := ParseLocation(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "s3://b/k/x", Location{Scheme: SchemeS3, Bucket: "b", Key: "k/x"}.String())
	assert.Equal(t, "a/b", Location{Scheme: SchemeFile, Key: "a/b"}.String())
}

func TestDetectCompression(t *testing.T) {
	assert.Equal(t, CompressionSnappyFramed, DetectCompression("run.evlog.sz"))
	assert.Equal(t, CompressionSnappyBlock, DetectCompression("run.SNAPPY"))
	assert.Equal(t, CompressionNone, DetectCompression("run.evlog"))
}

func TestInflate(t *testing.T) {
	payload := bytes.Repeat([]byte("hdrbhdredatb\xff\xff"), 50)

	block := snappy.Encode(nil, payload)
	out, err := Inflate("x.snappy", block)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	var framed bytes.Buffer
	w := snappy.NewBufferedWriter(&framed)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err = Inflate("x.sz", framed.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	out, err = Inflate("x.evlog", payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestInflate_Corrupt(t *testing.T) {
	_, err := Inflate("x.snappy", []byte{0xff, 0xff, 0xff, 0xff, 0xff})
	assert.Equal(t, elerrors.CodeDecompressFailed, elerrors.GetCode(err))

	_, err = Inflate("x.sz", []byte("not a snappy stream"))
	assert.Equal(t, elerrors.CodeDecompressFailed, elerrors.GetCode(err))
}

func TestLocalSource_ReadAll(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "capture.evlog")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0644))

	src := NewLocalSource()
	data, err := src.ReadAll(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = src.ReadAll(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, elerrors.ErrObjectNotFound)
	assert.False(t, elerrors.IsRetryable(err))
}

func TestLocalSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalSource().ReadAll(ctx, "whatever")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_LocalSnappy(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "capture.snappy")
	require.NoError(t, os.WriteFile(p, snappy.Encode(nil, []byte("payload")), 0644))

	data, err := NewLoader(Config{Type: "local"}).Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestLoader_RoutesToS3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"runs/a.evlog": []byte("remote")}}
	var buckets []string

	l := NewLoader(Config{Type: "s3", S3: S3Config{Bucket: "default-bucket"}})
	l.newS3 = func(ctx context.Context, bucket string, cfg S3Config) (Source, error) {
		buckets = append(buckets, bucket)
		return newS3SourceWithClient(fake, bucket, 0), nil
	}

	data, err := l.Load(context.Background(), "runs/a.evlog")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)

	_, err = l.Load(context.Background(), "s3://other/runs/a.evlog")
	require.NoError(t, err)

	_, err = l.Load(context.Background(), "s3://other/runs/a.evlog")
	require.NoError(t, err)

	assert.Equal(t, []string{"default-bucket", "other"}, buckets, "clients are cached per bucket")
}

func TestLoader_S3TypeRequiresBucket(t *testing.T) {
	_, err := NewLoader(Config{Type: "s3"}).Resolve("runs/a.evlog")
	assert.Equal(t, elerrors.CodeInvalidConfig, elerrors.GetCode(err))
}

func TestLoader_FileSchemeOverridesS3Default(t *testing.T) {
	loc, err := NewLoader(Config{Type: "s3", S3: S3Config{Bucket: "b"}}).Resolve("file:///tmp/x")
	require.NoError(t, err)
	assert.Equal(t, SchemeFile, loc.Scheme)
	assert.Equal(t, "/tmp/x", loc.Key)
}
