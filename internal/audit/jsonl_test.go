package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterisk-app/asterisk/internal/policy"
)

func newTestJSONL(t *testing.T) *JSONLLog {
	t.Helper()
	return NewJSONL(filepath.Join(t.TempDir(), "audit.jsonl"))
}

func appendEntries(t *testing.T, l Log, n int) []Entry {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		entry := BuildEntry(
			fmt.Sprintf("https://example.com/form-%d", i),
			"example.com", "fp",
			[]Item{{FieldID: "f1", Disposition: policy.DispositionSafe, Applied: true}},
			base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, l.Append(ctx, entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONLLog_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)
	entries := appendEntries(t, l, 2)

	got, err := l.Get(ctx, entries[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entries[0].URL, got.URL)
	assert.Equal(t, 1, got.Summary.AppliedCount)

	missing, err := l.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestJSONLLog_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)
	entries := appendEntries(t, l, 3)

	result, err := l.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, entries[2].ID, result.Items[0].ID)
	assert.Equal(t, entries[0].ID, result.Items[2].ID)
	assert.Nil(t, result.NextCursor)
}

func TestJSONLLog_Pagination(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)
	entries := appendEntries(t, l, 5)

	first, err := l.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, 2, *first.NextCursor)
	assert.Equal(t, entries[4].ID, first.Items[0].ID)

	second, err := l.List(ctx, *first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.NotNil(t, second.NextCursor)

	last, err := l.List(ctx, *second.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Nil(t, last.NextCursor)
	assert.Equal(t, entries[0].ID, last.Items[0].ID)

	past, err := l.List(ctx, 99, 2)
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Nil(t, past.NextCursor)
}

func TestJSONLLog_SkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)
	entries := appendEntries(t, l, 1)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json at all\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	appendEntries(t, l, 1)

	result, err := l.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, entries[0].URL, result.Items[1].URL)
}

func TestJSONLLog_EmptyLog(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)

	result, err := l.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Items)

	got, err := l.Get(ctx, "anything")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJSONLLog_Clear(t *testing.T) {
	ctx := context.Background()
	l := newTestJSONL(t)
	appendEntries(t, l, 2)

	require.NoError(t, l.Clear(ctx))
	// Clearing an already-empty log is fine.
	require.NoError(t, l.Clear(ctx))

	result, err := l.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, clampLimit(0))
	assert.Equal(t, defaultListLimit, clampLimit(-5))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, maxListLimit, clampLimit(500))
}
