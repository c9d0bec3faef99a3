package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres stores documents in a single jsonb table keyed by
// (collection, id). Merge upserts use the jsonb concatenation operator so
// absent fields survive a partial write.
type Postgres struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the documents table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}
	return nil
}

func (s *Postgres) Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	payload, err := json.Marshal(resolveTimestamps(fields, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	set := `fields = EXCLUDED.fields`
	if merge {
		set = `fields = documents.fields || EXCLUDED.fields`
	}
	query := fmt.Sprintf(`
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET %s, updated_at = now()
	`, set)

	if _, err := s.db.ExecContext(ctx, query, collection, id, payload); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Postgres) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	if filter.Op != OpEqual {
		return nil, fmt.Errorf("unsupported filter op: %q", filter.Op)
	}
	value, err := json.Marshal(filter.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal filter value: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields FROM documents
		WHERE collection=$1 AND fields->$2 = $3::jsonb
		ORDER BY id
	`, collection, filter.Field, value)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var payload []byte
		if err := rows.Scan(&doc.ID, &payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(payload, &doc.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
