// Package docstore provides the remote document collection the app syncs
// against: schemaless documents addressed by (collection, id), written with
// merge-upsert semantics and read back through equality-filter queries.
package docstore

import (
	"context"
	"time"
)

// OpEqual is the only filter operator the store contract supports.
const OpEqual = "=="

// Filter selects documents whose field equals the given value.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Document is one stored record with its key.
type Document struct {
	ID     string
	Fields map[string]any
}

// serverTime marks a field to be filled with the store's write time.
type serverTime struct{}

// ServerTimestamp is a sentinel field value: the backend replaces it with
// its own clock at write time, formatted as an RFC 3339 string.
var ServerTimestamp = serverTime{}

// Store is the document-store contract. Upsert with merge updates only the
// provided fields and leaves the rest of the document untouched; without
// merge it replaces the document. Query returns all matching documents, no
// pagination.
type Store interface {
	Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
	Ping(ctx context.Context) error
}

// resolveTimestamps copies fields, replacing ServerTimestamp sentinels with
// the given write time as an RFC 3339 string.
func resolveTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := v.(serverTime); ok {
			out[k] = now.UTC().Format(time.RFC3339)
			continue
		}
		out[k] = v
	}
	return out
}
