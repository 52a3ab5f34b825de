package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// VectorIndex implements driven.SemanticIndex inside the SQLite database.
// Search is an exhaustive cosine scan, which is adequate for the few
// hundred thousand monthly documents the dataset produces.
type VectorIndex struct {
	store    *Store
	embedder driven.EmbeddingService
}

var _ driven.SemanticIndex = (*VectorIndex)(nil)

// AddDocuments embeds the batch and stores it in one transaction.
// Existing record ids are replaced.
func (v *VectorIndex) AddDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if v.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Summary
	}
	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: got %d embeddings for %d documents", domain.ErrEmbeddingUnavailable, len(vectors), len(docs))
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_documents (record_id, summary, metadata, embedding, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			summary = excluded.summary,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range docs {
		metadataJSON, err := json.Marshal(docs[i].Metadata.Map())
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, docs[i].RecordID, docs[i].Summary,
			string(metadataJSON), encodeVector(vectors[i]), now); err != nil {
			return fmt.Errorf("storing %s: %w", docs[i].RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	return nil
}

// Search embeds query and returns up to k documents matching filter,
// ordered by descending cosine similarity.
func (v *VectorIndex) Search(
	ctx context.Context,
	query string,
	k int,
	filter domain.MetadataFilter,
) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if v.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	where, args := filterClause(filter)
	//nolint:gosec // G202: clause built from validated keys, values are bound
	rows, err := v.store.db.QueryContext(ctx,
		"SELECT record_id, summary, metadata, embedding FROM index_documents"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var results []domain.ScoredDocument
	for rows.Next() {
		doc, vec, err := scanIndexDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.ScoredDocument{
			Document: *doc,
			Score:    domain.CosineSimilarity(queryVec, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.RecordID < results[j].Document.RecordID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// RecordIDs returns every stored record id without reading embeddings.
func (v *VectorIndex) RecordIDs(ctx context.Context) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx, "SELECT record_id FROM index_documents")
	if err != nil {
		return nil, fmt.Errorf("querying record ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of stored documents.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}

// filterClause renders an exact-match WHERE clause over the metadata JSON.
func filterClause(filter domain.MetadataFilter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := filter.Keys()
	clause := " WHERE "
	args := make([]any, 0, len(keys)*2)
	for i, k := range keys {
		if i > 0 {
			clause += " AND "
		}
		clause += "json_extract(metadata, ?) = ?"
		args = append(args, "$."+k, filter[k])
	}
	return clause, args
}

func scanIndexDocument(rows *sql.Rows) (*domain.Document, []float32, error) {
	var doc domain.Document
	var metadataJSON string
	var embedding []byte

	if err := rows.Scan(&doc.RecordID, &doc.Summary, &metadataJSON, &embedding); err != nil {
		return nil, nil, fmt.Errorf("scanning document: %w", err)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling metadata of %s: %w", doc.RecordID, err)
	}
	doc.Metadata = domain.MetadataFromMap(meta)

	return &doc, decodeVector(embedding), nil
}
