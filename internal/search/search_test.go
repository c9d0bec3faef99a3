package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(nil, zap.NewNop())
}

func TestScanMatchesNotesAndColorName(t *testing.T) {
	s := newTestService()
	s.Index(Record{ID: "a", UserID: "u1", ColorName: "Gold - Joyful & Radiant", Notes: "beach day", Date: "2024-06-01"})
	s.Index(Record{ID: "b", UserID: "u1", ColorName: "Slate Gray - Sad & Heavy", Notes: "long monday", Date: "2024-06-02"})

	results := s.Search("u1", "beach")
	assert.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	results = s.Search("u1", "joyful")
	assert.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestScanFiltersByUser(t *testing.T) {
	s := newTestService()
	s.Index(Record{ID: "a", UserID: "u1", Notes: "shared words", Date: "2024-06-01"})
	s.Index(Record{ID: "b", UserID: "u2", Notes: "shared words", Date: "2024-06-02"})

	results := s.Search("u1", "shared")
	assert.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserID)
}

func TestScanEmptyQueryReturnsAllNewestFirst(t *testing.T) {
	s := newTestService()
	s.Index(Record{ID: "a", UserID: "u1", Date: "2024-01-01"})
	s.Index(Record{ID: "b", UserID: "u1", Date: "2024-03-01"})
	s.Index(Record{ID: "c", UserID: "u1", Date: "2024-02-01"})

	results := s.Search("u1", "")
	assert.Len(t, results, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{results[0].ID, results[1].ID, results[2].ID})
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestService()
	s.Index(Record{ID: "a", UserID: "u1", Notes: "keep", Date: "2024-06-01"})
	s.Index(Record{ID: "b", UserID: "u1", Notes: "drop", Date: "2024-06-02"})

	s.Remove("b")
	assert.Len(t, s.Search("u1", ""), 1)

	s.Clear()
	assert.Empty(t, s.Search("u1", ""))
}

func TestIndexAllReplacesLocalCopy(t *testing.T) {
	s := newTestService()
	s.Index(Record{ID: "stale", UserID: "u1", Date: "2023-01-01"})

	s.IndexAll([]Record{
		{ID: "a", UserID: "u1", Date: "2024-06-01"},
		{ID: "b", UserID: "u1", Date: "2024-06-02"},
	})

	results := s.Search("u1", "")
	assert.Len(t, results, 2)
	for _, rec := range results {
		assert.NotEqual(t, "stale", rec.ID)
	}
}
