package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertMergePreservesAbsentFields(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "doc-1", map[string]any{
		"color": "#FFD700",
		"notes": "first",
		"date":  "2024-06-01",
	}, true))
	require.NoError(t, s.Upsert(ctx, "moods", "doc-1", map[string]any{
		"color": "#32CD32",
	}, true))

	docs, err := s.Query(ctx, "moods", Filter{Field: "date", Op: OpEqual, Value: "2024-06-01"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "#32CD32", docs[0].Fields["color"])
	assert.Equal(t, "first", docs[0].Fields["notes"])
}

func TestUpsertWithoutMergeReplaces(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "doc-1", map[string]any{
		"color": "#FFD700",
		"notes": "first",
		"owner": "u1",
	}, true))
	require.NoError(t, s.Upsert(ctx, "moods", "doc-1", map[string]any{
		"owner": "u1",
	}, false))

	docs, err := s.Query(ctx, "moods", Filter{Field: "owner", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0].Fields, "notes")
}

func TestServerTimestampResolved(t *testing.T) {
	s := NewMemory()
	s.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "doc-1", map[string]any{
		"userId":    "u1",
		"timestamp": ServerTimestamp,
	}, true))

	docs, err := s.Query(ctx, "moods", Filter{Field: "userId", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2024-06-01T12:30:00Z", docs[0].Fields["timestamp"])
}

func TestQueryFiltersByEquality(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "a", map[string]any{"userId": "u1"}, true))
	require.NoError(t, s.Upsert(ctx, "moods", "b", map[string]any{"userId": "u2"}, true))
	require.NoError(t, s.Upsert(ctx, "moods", "c", map[string]any{"userId": "u1"}, true))

	docs, err := s.Query(ctx, "moods", Filter{Field: "userId", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Insertion order is preserved
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
}

func TestQueryRejectsUnknownOp(t *testing.T) {
	s := NewMemory()
	_, err := s.Query(context.Background(), "moods", Filter{Field: "userId", Op: ">=", Value: "u1"})
	assert.Error(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "a", map[string]any{"userId": "u1"}, true))
	require.NoError(t, s.Delete(ctx, "moods", "a"))
	require.NoError(t, s.Delete(ctx, "moods", "a"))
	require.NoError(t, s.Delete(ctx, "moods", "never-existed"))

	docs, err := s.Query(ctx, "moods", Filter{Field: "userId", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryResultIsACopy(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "moods", "a", map[string]any{"userId": "u1", "notes": "x"}, true))
	docs, err := s.Query(ctx, "moods", Filter{Field: "userId", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	docs[0].Fields["notes"] = "mutated"

	docs, err = s.Query(ctx, "moods", Filter{Field: "userId", Op: OpEqual, Value: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "x", docs[0].Fields["notes"])
}
