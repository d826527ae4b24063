package catalog

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/eventlog/internal/decoder"
	"github.com/arkilian/eventlog/pkg/types"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewCatalog(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleLog() *decoder.Log {
	return &decoder.Log{
		Types: []types.EventType{
			{ID: 7, Size: types.ConstantSize(4), Description: []byte("sample"), ExtraInfo: []byte{}},
			{ID: 9, Size: types.VariableSize(), Description: []byte("message"), ExtraInfo: []byte("utf8")},
			{ID: 7, Size: types.ConstantSize(2), Description: []byte("sample v2"), ExtraInfo: []byte{}},
		},
		Events: []types.Event{
			{Type: 7, Time: 10, Data: []byte{1, 2}},
			{Type: 9, Time: 20, Data: []byte("abc")},
			{Type: 7, Time: math.MaxUint64, Data: []byte{3, 4}},
			{Type: 9, Time: 30, Data: []byte{}},
		},
		HeaderSize: 100,
		BodySize:   60,
	}
}

func TestCatalog_RegisterAndGetCapture(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	raw := []byte("raw capture bytes")

	id, created, err := c.RegisterCapture(ctx, "s3://bucket/run.evlog", raw, sampleLog())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, id, 36)

	rec, err := c.GetCapture(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.CaptureID)
	assert.Equal(t, Fingerprint(raw), rec.Fingerprint)
	assert.Equal(t, "s3://bucket/run.evlog", rec.Source)
	assert.Equal(t, int64(len(raw)), rec.SizeBytes)
	assert.Equal(t, int64(100), rec.HeaderBytes)
	assert.Equal(t, int64(60), rec.BodyBytes)
	assert.Equal(t, int64(3), rec.TypeCount)
	assert.Equal(t, int64(4), rec.EventCount)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCatalog_RegisterIsIdempotentByFingerprint(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	raw := []byte("same bytes")

	first, created, err := c.RegisterCapture(ctx, "a.evlog", raw, sampleLog())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := c.RegisterCapture(ctx, "copy-of-a.evlog", raw, sampleLog())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	_, created, err = c.RegisterCapture(ctx, "b.evlog", []byte("other bytes"), sampleLog())
	require.NoError(t, err)
	assert.True(t, created)

	records, err := c.ListCaptures(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.evlog", records[0].Source)
	assert.Equal(t, "b.evlog", records[1].Source)
}

func TestCatalog_EventTypesPreserveFileOrder(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, _, err := c.RegisterCapture(ctx, "x", []byte("x"), sampleLog())
	require.NoError(t, err)

	got, err := c.EventTypes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sampleLog().Types, got)
}

func TestCatalog_EventsByType(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	id, _, err := c.RegisterCapture(ctx, "x", []byte("x"), sampleLog())
	require.NoError(t, err)

	events, err := c.EventsByType(ctx, id, 7)
	require.NoError(t, err)
	assert.Equal(t, []types.Event{
		{Type: 7, Time: 10, Data: []byte{1, 2}},
		{Type: 7, Time: math.MaxUint64, Data: []byte{3, 4}},
	}, events)

	events, err = c.EventsByType(ctx, id, 9)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, []byte{}, events[1].Data)

	events, err = c.EventsByType(ctx, id, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCatalog_GetCaptureNotFound(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.GetCapture(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCaptureNotFound)
}

func TestCatalog_ReopenKeepsCaptures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.db")
	ctx := context.Background()

	c, err := NewCatalog(path)
	require.NoError(t, err)
	id, _, err := c.RegisterCapture(ctx, "x", []byte("x"), sampleLog())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewCatalog(path)
	require.NoError(t, err)
	defer c.Close()

	rec, err := c.GetCapture(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.EventCount)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("hdrbhdredatb\xff\xff"))
	assert.Len(t, a, 32)
	assert.Equal(t, a, Fingerprint([]byte("hdrbhdredatb\xff\xff")))
	assert.NotEqual(t, a, Fingerprint([]byte("hdrbhdredatb\xff\xfe")))
}
