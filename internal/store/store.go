package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed C3 vector index: chunk/document CRUD, exact-
// scan cosine search, the relationship table, and the FTS5 postings table
// internal/bm25 reads corpus statistics from.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the index database at path, applying
// WAL pragmas and a single-writer connection pool suited to one process
// owning the index at a time.
func Open(path string) (*Store, error) {
	if err := validateSQLiteIntegrity(path); err != nil {
		return nil, fmt.Errorf("validate existing index: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-65536)&_pragma=temp_store(MEMORY)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// validateSQLiteIntegrity runs PRAGMA integrity_check against an existing
// file before the pooled connection is opened, so a corrupt index fails
// loudly instead of wedging the single writer connection.
func validateSQLiteIntegrity(path string) error {
	probe, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil // fresh path, nothing to validate yet
	}
	defer probe.Close()

	var result string
	if err := probe.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return nil // database does not exist yet
	}
	if result != "ok" {
		return fmt.Errorf("index database failed integrity check: %s", result)
	}
	return nil
}

const schemaVersion = 1

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			store_type TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk_type TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			content TEXT NOT NULL,
			size_chars INTEGER NOT NULL,
			start_position INTEGER NOT NULL,
			end_position INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			metadata_json TEXT NOT NULL DEFAULT '{}',
			is_chunk INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_parent ON chunks(store_type, document_id)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			chunk_id TEXT PRIMARY KEY REFERENCES chunks(chunk_id) ON DELETE CASCADE,
			vector BLOB NOT NULL,
			dims INTEGER NOT NULL,
			checksum TEXT NOT NULL
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_content USING fts5(chunk_id UNINDEXED, content)`,
		`CREATE TABLE IF NOT EXISTS fts_rowid_map (
			rowid INTEGER PRIMARY KEY,
			chunk_id TEXT NOT NULL UNIQUE
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_vocab USING fts5vocab(fts_content, 'row')`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id TEXT PRIMARY KEY,
			source_chunk_id TEXT NOT NULL,
			target_chunk_id TEXT NOT NULL,
			relationship_type TEXT NOT NULL,
			strength REAL NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			UNIQUE(source_chunk_id, target_chunk_id, relationship_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rel_source ON relationships(source_chunk_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rel_target ON relationships(target_chunk_id)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// StoreDocumentChunks atomically replaces every chunk, embedding, and
// incident relationship belonging to (storeType, documentID), then inserts
// the new set. Fails atomically if any step fails.
func (s *Store) StoreDocumentChunks(ctx context.Context, storeType, documentID string, chunks []*ChunkRecord, vectors map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocumentChunksTx(ctx, tx, storeType, documentID); err != nil {
		return err
	}

	for _, c := range chunks {
		metaJSON, err := c.metadataJSON()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks
			(chunk_id, store_type, document_id, chunk_type, sequence, content, size_chars, start_position, end_position, title, metadata_json, is_chunk)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			c.ChunkID, storeType, documentID, c.ChunkType, c.Sequence, c.Content, c.SizeChars, c.StartPosition, c.EndPosition, c.Title, metaJSON); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO fts_content (chunk_id, content) VALUES (?, ?)`, c.ChunkID, c.Content)
		if err != nil {
			return fmt.Errorf("insert fts row for %s: %w", c.ChunkID, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read fts rowid for %s: %w", c.ChunkID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO fts_rowid_map (rowid, chunk_id) VALUES (?, ?)`, rowID, c.ChunkID); err != nil {
			return fmt.Errorf("map fts rowid for %s: %w", c.ChunkID, err)
		}

		if vec, ok := vectors[c.ChunkID]; ok {
			checksum := contentHashVector(vec)
			if _, err := tx.ExecContext(ctx, `INSERT INTO embeddings (chunk_id, vector, dims, checksum) VALUES (?, ?, ?, ?)`,
				c.ChunkID, encodeVector(vec), len(vec), checksum); err != nil {
				return fmt.Errorf("insert embedding for %s: %w", c.ChunkID, err)
			}
		}
	}

	return tx.Commit()
}

// StoreDocument atomically replaces a document's single whole-document
// row and embedding, keyed by "{storeType}.{documentID}", with is_chunk
// set to 0. It is the counterpart to StoreDocumentChunks for documents
// ShouldChunk judged small or unstructured enough to store as one row.
func (s *Store) StoreDocument(ctx context.Context, storeType, documentID string, doc *ChunkRecord, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocumentChunksTx(ctx, tx, storeType, documentID); err != nil {
		return err
	}

	metaJSON, err := doc.metadataJSON()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO chunks
		(chunk_id, store_type, document_id, chunk_type, sequence, content, size_chars, start_position, end_position, title, metadata_json, is_chunk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		doc.ChunkID, storeType, documentID, doc.ChunkType, doc.Sequence, doc.Content, doc.SizeChars, doc.StartPosition, doc.EndPosition, doc.Title, metaJSON); err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ChunkID, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO fts_content (chunk_id, content) VALUES (?, ?)`, doc.ChunkID, doc.Content)
	if err != nil {
		return fmt.Errorf("insert fts row for %s: %w", doc.ChunkID, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read fts rowid for %s: %w", doc.ChunkID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO fts_rowid_map (rowid, chunk_id) VALUES (?, ?)`, rowID, doc.ChunkID); err != nil {
		return fmt.Errorf("map fts rowid for %s: %w", doc.ChunkID, err)
	}

	if vector != nil {
		checksum := contentHashVector(vector)
		if _, err := tx.ExecContext(ctx, `INSERT INTO embeddings (chunk_id, vector, dims, checksum) VALUES (?, ?, ?, ?)`,
			doc.ChunkID, encodeVector(vector), len(vector), checksum); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", doc.ChunkID, err)
		}
	}

	return tx.Commit()
}

func deleteDocumentChunksTx(ctx context.Context, tx *sql.Tx, storeType, documentID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT chunk_id FROM chunks WHERE store_type = ? AND document_id = ?`, storeType, documentID)
	if err != nil {
		return fmt.Errorf("list existing chunks: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_content WHERE rowid = (SELECT rowid FROM fts_rowid_map WHERE chunk_id = ?)`, id); err != nil {
			return fmt.Errorf("delete fts row for %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_rowid_map WHERE chunk_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE source_chunk_id = ? OR target_chunk_id = ?`, id, id); err != nil {
			return fmt.Errorf("delete incident relationships for %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE store_type = ? AND document_id = ?`, storeType, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// DeleteDocumentChunks removes every chunk, embedding, and incident
// relationship belonging to a document.
func (s *Store) DeleteDocumentChunks(ctx context.Context, storeType, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteDocumentChunksTx(ctx, tx, storeType, documentID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetDocumentChunks returns a document's chunks ordered by sequence.
func (s *Store) GetDocumentChunks(ctx context.Context, storeType, documentID string) ([]*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, store_type, document_id, chunk_type, sequence, content, size_chars, start_position, end_position, title, metadata_json, is_chunk
		FROM chunks WHERE store_type = ? AND document_id = ? ORDER BY sequence ASC`, storeType, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChunkRecord
	for rows.Next() {
		c := &ChunkRecord{}
		var metaJSON string
		var isChunk int
		if err := rows.Scan(&c.ChunkID, &c.StoreType, &c.DocumentID, &c.ChunkType, &c.Sequence, &c.Content, &c.SizeChars, &c.StartPosition, &c.EndPosition, &c.Title, &metaJSON, &isChunk); err != nil {
			return nil, err
		}
		c.Metadata = decodeMetadata(metaJSON)
		c.IsChunk = isChunk != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetChunk fetches a single chunk by id, embedding vector included when
// present.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &ChunkRecord{}
	var metaJSON string
	var isChunk int
	err := s.db.QueryRowContext(ctx, `SELECT chunk_id, store_type, document_id, chunk_type, sequence, content, size_chars, start_position, end_position, title, metadata_json, is_chunk
		FROM chunks WHERE chunk_id = ?`, chunkID).Scan(&c.ChunkID, &c.StoreType, &c.DocumentID, &c.ChunkType, &c.Sequence, &c.Content, &c.SizeChars, &c.StartPosition, &c.EndPosition, &c.Title, &metaJSON, &isChunk)
	if err == sql.ErrNoRows {
		return nil, ErrChunkNotFound{ChunkID: chunkID}
	}
	if err != nil {
		return nil, err
	}
	c.Metadata = decodeMetadata(metaJSON)
	c.IsChunk = isChunk != 0

	var vecBytes []byte
	if err := s.db.QueryRowContext(ctx, `SELECT vector FROM embeddings WHERE chunk_id = ?`, chunkID).Scan(&vecBytes); err == nil {
		c.Vector = decodeVector(vecBytes)
	}
	return c, nil
}

// CorpusDoc is the minimal per-chunk shape internal/bm25 needs to rebuild
// its corpus statistics and apply C3's filtering rules.
type CorpusDoc struct {
	ChunkID    string
	StoreType  string
	DocumentID string
	IsChunk    bool
}

// CorpusDocuments returns every chunk currently in the index, for
// internal/bm25 to rebuild its corpus statistics from wholesale.
func (s *Store) CorpusDocuments(ctx context.Context) ([]CorpusDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, store_type, document_id, is_chunk FROM chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CorpusDoc
	for rows.Next() {
		var d CorpusDoc
		var isChunk int
		if err := rows.Scan(&d.ChunkID, &d.StoreType, &d.DocumentID, &isChunk); err != nil {
			return nil, err
		}
		d.IsChunk = isChunk != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// TermPostings reads per-term, per-chunk occurrence counts from the FTS5
// vocabulary table: term -> chunk_id -> count. internal/bm25 derives
// document frequency (len of the inner map) and document length (sum of an
// inner map's values) from this without re-tokenizing.
func (s *Store) TermPostings(ctx context.Context) (map[string]map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT v.term, m.chunk_id, v.cnt
		FROM fts_vocab v JOIN fts_rowid_map m ON m.rowid = v.doc`)
	if err != nil {
		return nil, fmt.Errorf("query fts vocab: %w", err)
	}
	defer rows.Close()

	postings := map[string]map[string]int{}
	for rows.Next() {
		var term, chunkID string
		var cnt int
		if err := rows.Scan(&term, &chunkID, &cnt); err != nil {
			return nil, err
		}
		inner, ok := postings[term]
		if !ok {
			inner = map[string]int{}
			postings[term] = inner
		}
		inner[chunkID] += cnt
	}
	return postings, rows.Err()
}

// SearchSimilar performs an exact-scan cosine search over stored vectors.
// Ties are broken by ascending chunk_id.
func (s *Store) SearchSimilar(ctx context.Context, query []float32, k int, storeFilter string, includeChunks bool) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT c.chunk_id, c.store_type, c.document_id, c.chunk_type, c.title, c.content, c.is_chunk, e.vector
		FROM chunks c JOIN embeddings e ON e.chunk_id = c.chunk_id WHERE 1=1`
	args := []any{}
	if storeFilter != "" {
		q += ` AND c.store_type = ?`
		args = append(args, storeFilter)
	}
	if !includeChunks {
		q += ` AND c.is_chunk = 0`
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		res *SearchResult
	}
	var candidates []candidate
	for rows.Next() {
		var chunkID, storeType, documentID, chunkType, title, content string
		var isChunk int
		var vecBytes []byte
		if err := rows.Scan(&chunkID, &storeType, &documentID, &chunkType, &title, &content, &isChunk, &vecBytes); err != nil {
			return nil, err
		}
		vec := decodeVector(vecBytes)
		sim := cosineSimilarity(query, vec)
		candidates = append(candidates, candidate{res: &SearchResult{
			ChunkID:    chunkID,
			StoreType:  storeType,
			DocumentID: documentID,
			ChunkType:  chunkType,
			Title:      title,
			Preview:    preview(content, 200),
			Similarity: sim,
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].res, candidates[j].res
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.ChunkID < b.ChunkID
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]*SearchResult, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].res
	}
	return out, nil
}

func preview(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars]
}

// cosineSimilarity returns 1 - cosine_distance for two equal-length vectors.
// A zero-length vector on either side yields 0 similarity.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func contentHashVector(v []float32) string {
	return fmt.Sprintf("%x", encodeVector(v))[:16]
}

// StoreChunkRelationships idempotently upserts edges on (source, target,
// type). An edge that already exists has its stored strength decayed by
// RelationshipDecay before the max is taken with the newly computed
// strength, rather than being overwritten outright.
func (s *Store) StoreChunkRelationships(ctx context.Context, edges []*Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range edges {
		var existing float64
		err := tx.QueryRowContext(ctx, `SELECT strength FROM relationships WHERE source_chunk_id = ? AND target_chunk_id = ? AND relationship_type = ?`,
			e.SourceID, e.TargetID, string(e.Type)).Scan(&existing)

		strength := e.Strength
		if err == nil {
			decayed := existing * RelationshipDecay
			if decayed > strength {
				strength = decayed
			}
		} else if err != sql.ErrNoRows {
			return err
		}

		metaJSON := "{}"
		if len(e.Metadata) > 0 {
			b, merr := jsonMarshal(e.Metadata)
			if merr != nil {
				return merr
			}
			metaJSON = b
		}

		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO relationships (id, source_chunk_id, target_chunk_id, relationship_type, strength, metadata_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_chunk_id, target_chunk_id, relationship_type) DO UPDATE SET strength = excluded.strength, metadata_json = excluded.metadata_json`,
			id, e.SourceID, e.TargetID, string(e.Type), strength, metaJSON); err != nil {
			return fmt.Errorf("upsert relationship %s->%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	return tx.Commit()
}

// GetChunkRelationships returns edges touching chunkID (either side, when
// non-empty) filtered by type and minimum strength, ordered by strength
// descending.
func (s *Store) GetChunkRelationships(ctx context.Context, chunkID string, types []string, minStrength float64, limit int) ([]*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.Builder{}
	q.WriteString(`SELECT id, source_chunk_id, target_chunk_id, relationship_type, strength, metadata_json FROM relationships WHERE strength >= ?`)
	args := []any{minStrength}

	if chunkID != "" {
		q.WriteString(` AND (source_chunk_id = ? OR target_chunk_id = ?)`)
		args = append(args, chunkID, chunkID)
	}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		q.WriteString(fmt.Sprintf(` AND relationship_type IN (%s)`, strings.Join(placeholders, ",")))
	}
	q.WriteString(` ORDER BY strength DESC`)
	if limit > 0 {
		q.WriteString(fmt.Sprintf(` LIMIT %d`, limit))
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Relationship
	for rows.Next() {
		r := &Relationship{}
		var relType, metaJSON string
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &relType, &r.Strength, &metaJSON); err != nil {
			return nil, err
		}
		r.Type = RelationshipType(relType)
		r.Metadata = decodeMetadata(metaJSON)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRelatedChunks expands one hop from chunkID, returning up to k edges
// ordered by strength descending.
func (s *Store) GetRelatedChunks(ctx context.Context, chunkID string, k int, minStrength float64, types []string) ([]*Relationship, error) {
	return s.GetChunkRelationships(ctx, chunkID, types, minStrength, k)
}

// AllChunkRecords returns every chunk row, vector included when present,
// optionally restricted to one store_type. internal/relate reads the
// whole corpus this way to compute topical and cross-document
// relationships against chunks outside the document currently being
// analyzed.
func (s *Store) AllChunkRecords(ctx context.Context, storeFilter string) ([]*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT c.chunk_id, c.store_type, c.document_id, c.chunk_type, c.sequence, c.content, c.size_chars, c.start_position, c.end_position, c.title, c.metadata_json, c.is_chunk, e.vector
		FROM chunks c LEFT JOIN embeddings e ON e.chunk_id = c.chunk_id WHERE 1=1`
	args := []any{}
	if storeFilter != "" {
		q += ` AND c.store_type = ?`
		args = append(args, storeFilter)
	}
	q += ` ORDER BY c.document_id, c.sequence`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChunkRecord
	for rows.Next() {
		c := &ChunkRecord{}
		var metaJSON string
		var isChunk int
		var vecBytes []byte
		if err := rows.Scan(&c.ChunkID, &c.StoreType, &c.DocumentID, &c.ChunkType, &c.Sequence, &c.Content, &c.SizeChars, &c.StartPosition, &c.EndPosition, &c.Title, &metaJSON, &isChunk, &vecBytes); err != nil {
			return nil, err
		}
		c.Metadata = decodeMetadata(metaJSON)
		c.IsChunk = isChunk != 0
		if vecBytes != nil {
			c.Vector = decodeVector(vecBytes)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DataVersion returns SQLite's data_version counter, which advances
// whenever another connection -- including one in another process --
// commits a change to the database file; commits made through this
// Store's own connection leave it unchanged. internal/rag polls this to detect
// writes made by separate ingest/watch processes without needing a
// cross-process notification channel.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}

// Stats reports index-wide counts and per-store/per-type breakdowns.
func (s *Store) Stats(ctx context.Context) (*IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &IndexStats{EngineName: "knowledgeengine-sqlite"}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.ChunkCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT store_type || '.' || document_id) FROM chunks`).Scan(&stats.DocumentCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&stats.RelationCount); err != nil {
		return nil, err
	}

	byStore, err := s.breakdown(ctx, "store_type")
	if err != nil {
		return nil, err
	}
	stats.ByStoreType = byStore

	byType, err := s.breakdown(ctx, "chunk_type")
	if err != nil {
		return nil, err
	}
	stats.ByChunkType = byType

	return stats, nil
}

func (s *Store) breakdown(ctx context.Context, column string) ([]StoreBreakdown, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM chunks GROUP BY %s ORDER BY %s`, column, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoreBreakdown
	for rows.Next() {
		var b StoreBreakdown
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close checkpoints the WAL and releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		slog.Warn("wal checkpoint on close failed", slog.String("error", err.Error()))
	}
	return s.db.Close()
}

func jsonMarshal(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
