// Package search provides notes search over mood entries: Meilisearch when
// it is configured and healthy, an in-memory scan of the synced entries
// otherwise. Index writes are fire-and-forget; search never fails the
// caller.
package search

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Record is the indexed shape of a mood entry.
type Record struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Color     string `json:"color"`
	ColorName string `json:"colorName"`
	Notes     string `json:"notes"`
	Date      string `json:"date"`
}

// Service is the facade that tries Meilisearch first and falls back to the
// local copy of the index.
type Service struct {
	meili  *Meili
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]Record
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, logger *zap.Logger) *Service {
	return &Service{
		meili:  meili,
		logger: logger,
		local:  make(map[string]Record),
	}
}

// Index adds or updates one entry (fire-and-forget to Meilisearch).
func (s *Service) Index(rec Record) {
	s.mu.Lock()
	s.local[rec.ID] = rec
	s.mu.Unlock()

	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexEntries([]Record{rec}); err != nil {
			s.logger.Warn("search index entry failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}()
}

// IndexAll replaces the local copy with the fetched history and pushes it
// to Meilisearch.
func (s *Service) IndexAll(recs []Record) {
	s.mu.Lock()
	s.local = make(map[string]Record, len(recs))
	for _, rec := range recs {
		s.local[rec.ID] = rec
	}
	s.mu.Unlock()

	if s.meili == nil || !s.meili.Healthy() || len(recs) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexEntries(recs); err != nil {
			s.logger.Warn("search reindex failed", zap.Int("count", len(recs)), zap.Error(err))
		}
	}()
}

// Remove drops one entry from the index (fire-and-forget to Meilisearch).
func (s *Service) Remove(id string) {
	s.mu.Lock()
	delete(s.local, id)
	s.mu.Unlock()

	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteEntry(id); err != nil {
			s.logger.Warn("search delete entry failed", zap.String("id", id), zap.Error(err))
		}
	}()
}

// Clear drops the local copy, used when the session signs out.
func (s *Service) Clear() {
	s.mu.Lock()
	s.local = make(map[string]Record)
	s.mu.Unlock()
}

// Search returns the user's entries matching the query, newest first.
func (s *Service) Search(userID, query string) []Record {
	if s.meili != nil && s.meili.Healthy() {
		results, err := s.meili.SearchEntries(userID, query)
		if err == nil {
			return results
		}
		s.logger.Warn("meilisearch query failed, falling back to local scan", zap.Error(err))
	}
	return s.scan(userID, query)
}

func (s *Service) scan(userID, query string) []Record {
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	var results []Record
	for _, rec := range s.local {
		if rec.UserID != userID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.Notes), needle) &&
			!strings.Contains(strings.ToLower(rec.ColorName), needle) {
			continue
		}
		results = append(results, rec)
	}
	s.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date > results[j].Date
	})
	if results == nil {
		results = []Record{}
	}
	return results
}
