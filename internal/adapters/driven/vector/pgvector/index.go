// Package pgvector provides a PostgreSQL-backed vector index using the
// pgvector extension. It is the multi-user alternative to the flat
// file-backed index: several workstations can share one knowledge base.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores chunk embeddings in a PostgreSQL table with a pgvector
// column. Only cosine similarity is supported; the ivfflat index is built
// with vector_cosine_ops.
type Index struct {
	pool       *pgxpool.Pool
	dimensions int
}

// New connects to PostgreSQL and ensures the schema exists.
func New(ctx context.Context, url string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	idx := &Index{pool: pool, dimensions: dimensions}
	if err := idx.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// migrate applies the schema. An existing embeddings table with a
// different vector dimension is an incompatible index.
func (idx *Index) migrate(ctx context.Context) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS kb_vectors (
  chunk_id     TEXT PRIMARY KEY,
  document_id  TEXT NOT NULL,
  language     TEXT NOT NULL DEFAULT '',
  embedding    vector(%d) NOT NULL,
  seq          BIGSERIAL,
  created_at   TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE INDEX IF NOT EXISTS kb_vectors_document_idx
  ON kb_vectors (document_id);

CREATE INDEX IF NOT EXISTS kb_vectors_language_idx
  ON kb_vectors (language);

CREATE INDEX IF NOT EXISTS kb_vectors_embedding_idx
  ON kb_vectors USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
	if _, err := idx.pool.Exec(ctx, fmt.Sprintf(q, idx.dimensions)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIncompatibleIndexVersion, err)
	}
	return nil
}

// Upsert inserts entries, replacing existing chunk IDs.
func (idx *Index) Upsert(ctx context.Context, entries []domain.VectorEntry) error {
	for i := range entries {
		if len(entries[i].Vector) != idx.dimensions {
			return fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, entries[i].ChunkID, len(entries[i].Vector), idx.dimensions)
		}
	}

	const q = `
		INSERT INTO kb_vectors (chunk_id, document_id, language, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			language    = EXCLUDED.language,
			embedding   = EXCLUDED.embedding;`

	for i := range entries {
		e := &entries[i]
		_, err := idx.pool.Exec(ctx, q,
			e.ChunkID, e.DocumentID, string(e.Language), pgv.NewVector(e.Vector))
		if err != nil {
			return fmt.Errorf("upsert vector: %w", err)
		}
	}
	return nil
}

// DeleteDocument removes all entries belonging to a document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := idx.pool.Exec(ctx, `DELETE FROM kb_vectors WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Search returns the k most similar entries by cosine similarity.
// Ties break by insertion order via the seq column.
func (idx *Index) Search(ctx context.Context, query []float32, k int, filter domain.SearchFilter) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	args := []any{pgv.NewVector(query)}
	where := "TRUE"
	n := 2
	if filter.Language != "" {
		where += fmt.Sprintf(" AND language = $%d", n)
		args = append(args, string(filter.Language))
		n++
	}
	if filter.DocumentID != "" {
		where += fmt.Sprintf(" AND document_id = $%d", n)
		args = append(args, filter.DocumentID)
		n++
	}
	args = append(args, k)

	q := fmt.Sprintf(`
		SELECT chunk_id, document_id, 1 - (embedding <=> $1) AS similarity
		FROM kb_vectors
		WHERE %s
		ORDER BY embedding <=> $1, seq
		LIMIT $%d`, where, n)

	rows, err := idx.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Persist is a no-op: PostgreSQL is already durable.
func (idx *Index) Persist(_ context.Context) error {
	return nil
}

// Load is a no-op: the table is the live index.
func (idx *Index) Load(_ context.Context) error {
	return nil
}

// Count returns the number of entries.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := idx.pool.QueryRow(ctx, `SELECT count(*) FROM kb_vectors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Close releases the connection pool.
func (idx *Index) Close() error {
	idx.pool.Close()
	return nil
}
