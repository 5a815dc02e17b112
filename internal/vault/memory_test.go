package vault

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(key, value string, category Category) Item {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return NewItem(key, value, key, category, Provenance{
		Source:     SourceUserEntered,
		Timestamp:  now,
		Confidence: 1.0,
	}, now)
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, testItem("email", "jane@example.com", CategoryContact)))

	got, err := s.Get(ctx, "email")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", got.Value)
	assert.Equal(t, CategoryContact, got.Category)

	missing, err := s.Get(ctx, "phone")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_EmptyKeyRejected(t *testing.T) {
	s := NewMemory()
	err := s.Set(context.Background(), Item{Value: "x"})
	assert.Error(t, err)
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryWithItems([]Item{
		testItem("zip", "97210", CategoryAddress),
		testItem("email", "jane@example.com", CategoryContact),
		testItem("firstName", "Jane", CategoryIdentity),
	})

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "email", items[0].Key)
	assert.Equal(t, "firstName", items[1].Key)
	assert.Equal(t, "zip", items[2].Key)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryWithItems([]Item{testItem("email", "jane@example.com", CategoryContact)})

	require.NoError(t, s.Delete(ctx, "email"))

	got, err := s.Get(ctx, "email")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.Delete(ctx, "email")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryWithItems([]Item{
		testItem("email", "jane@example.com", CategoryContact),
		testItem("firstName", "Jane", CategoryIdentity),
	})

	require.NoError(t, s.Clear(ctx))

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItem_MarkUsed(t *testing.T) {
	item := testItem("email", "jane@example.com", CategoryContact)
	require.Nil(t, item.Metadata.LastUsed)

	used := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	item.MarkUsed(used)

	require.NotNil(t, item.Metadata.LastUsed)
	assert.Equal(t, used, *item.Metadata.LastUsed)
	assert.Equal(t, 1, item.Metadata.UsageCount)

	item.MarkUsed(used.Add(time.Hour))
	assert.Equal(t, 2, item.Metadata.UsageCount)
}
