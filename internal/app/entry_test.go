package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huebook/api/internal/docstore"
	"huebook/api/internal/identity"
)

func TestDayKeyZeroPads(t *testing.T) {
	key := dayKey(time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2024-03-05", key)
}

func TestMoodDocID(t *testing.T) {
	user := identity.User{UID: "abcdef123456", Email: "jane.doe@example.com"}
	assert.Equal(t, "jane_doe_2024-06-01_123456", moodDocID(user, "2024-06-01"))

	// Anonymous users have no email local-part.
	anon := identity.User{UID: "xyz789", IsAnonymous: true}
	assert.Equal(t, "anon_2024-06-01_xyz789", moodDocID(anon, "2024-06-01"))

	// Short uids are used whole.
	short := identity.User{UID: "ab", Email: "a@b.com"}
	assert.Equal(t, "a_2024-06-01_ab", moodDocID(short, "2024-06-01"))
}

func TestEntryFromDocumentBackfillsColorName(t *testing.T) {
	entry := entryFromDocument(docstore.Document{
		ID: "doc-1",
		Fields: map[string]any{
			"color":  "#FFD700",
			"notes":  "sunny",
			"userId": "u1",
		},
	})
	assert.Equal(t, "Gold - Joyful & Radiant", entry.ColorName)
	assert.Equal(t, "sunny", entry.Notes)

	// A stored label is never overwritten.
	entry = entryFromDocument(docstore.Document{
		ID:     "doc-2",
		Fields: map[string]any{"color": "#FFD700", "colorName": "Custom"},
	})
	assert.Equal(t, "Custom", entry.ColorName)
}

func TestEffectiveDateFallsBackToTimestamp(t *testing.T) {
	withDate := MoodEntry{Date: "2024-06-01T09:00:00Z", Timestamp: "2024-06-02T00:00:00Z"}
	assert.Equal(t, 1, effectiveDate(withDate).Day())

	noDate := MoodEntry{Timestamp: "2024-06-02T00:00:00Z"}
	assert.Equal(t, 2, effectiveDate(noDate).Day())

	plainDay := MoodEntry{Date: "2024-06-03"}
	assert.Equal(t, 3, effectiveDate(plainDay).Day())

	assert.True(t, effectiveDate(MoodEntry{}).IsZero())
}

func TestGroupByMonth(t *testing.T) {
	entries := []MoodEntry{
		{ID: "c", Date: "2024-06-15T00:00:00Z"},
		{ID: "b", Date: "2024-06-01T00:00:00Z"},
		{ID: "a", Date: "2024-05-20T00:00:00Z"},
		{ID: "skip"}, // no parseable date
	}

	groups := GroupByMonth(entries)
	require.Len(t, groups, 2)

	assert.Equal(t, "2024-06", groups[0].Month)
	assert.Equal(t, "June 2024", groups[0].Label)
	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "c", groups[0].Entries[0].ID)

	assert.Equal(t, "2024-05", groups[1].Month)
	require.Len(t, groups[1].Entries, 1)
}
