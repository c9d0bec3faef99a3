package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and store-less dev runs.
// Query results come back in insertion order, which keeps the history
// sort's tie-breaking stable.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	order       map[string][]string

	// Now supplies the server clock; overridable in tests.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		order:       make(map[string][]string),
		Now:         time.Now,
	}
}

func (s *Memory) Upsert(_ context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}

	resolved := resolveTimestamps(fields, s.Now())
	existing, ok := docs[id]
	if !ok {
		docs[id] = resolved
		s.order[collection] = append(s.order[collection], id)
		return nil
	}
	if !merge {
		docs[id] = resolved
		return nil
	}
	for k, v := range resolved {
		existing[k] = v
	}
	return nil
}

func (s *Memory) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if _, ok := docs[id]; !ok {
		return nil
	}
	delete(docs, id)
	ids := s.order[collection]
	for i, existing := range ids {
		if existing == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Memory) Query(_ context.Context, collection string, filter Filter) ([]Document, error) {
	if filter.Op != OpEqual {
		return nil, fmt.Errorf("unsupported filter op: %q", filter.Op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want, err := canonical(filter.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal filter value: %w", err)
	}

	var docs []Document
	for _, id := range s.order[collection] {
		fields, ok := s.collections[collection][id]
		if !ok {
			continue
		}
		got, err := canonical(fields[filter.Field])
		if err != nil || got != want {
			continue
		}
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}
	return docs, nil
}

func (s *Memory) Ping(context.Context) error {
	return nil
}

// canonical normalizes a value through JSON so string/number comparisons
// match the jsonb backend.
func canonical(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
