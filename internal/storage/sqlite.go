package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/vector"
)

// SQLiteStore persists records in SQLite and keeps their vectors in an
// in-memory index rebuilt at open.
type SQLiteStore struct {
	db    *sql.DB
	index vector.Index

	mu    sync.RWMutex
	attrs map[string]models.Metadata // filter attributes by record id
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and loads
// stored vectors. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, dimensions int) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	idx, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db, index: idx, attrs: make(map[string]models.Metadata)}
	if err := s.loadVectors(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		doc_id TEXT,
		text TEXT NOT NULL,
		country TEXT NOT NULL,
		doc_type TEXT,
		article_number TEXT,
		metadata TEXT NOT NULL,
		source TEXT,
		embedding BLOB,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_country ON records(country);
	CREATE INDEX IF NOT EXISTS idx_records_article ON records(article_number);
	CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) loadVectors(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, country, doc_type, embedding FROM records ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []string
	var vecs [][]float32
	for rows.Next() {
		var id, country string
		var docType sql.NullString
		var blob []byte
		if err := rows.Scan(&id, &country, &docType, &blob); err != nil {
			return err
		}
		vec := vector.DecodeVector(blob)
		if len(vec) != s.index.Dimensions() {
			continue
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
		s.attrs[id] = models.Metadata{Country: country, DocType: docType.String}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return s.index.Add(ctx, ids, vecs)
}

// Name implements DocumentStore.
func (s *SQLiteStore) Name() string { return "sqlite" }

// DenseSearch implements DocumentStore.
func (s *SQLiteStore) DenseSearch(ctx context.Context, vec []float32, filter models.Filter, limit int) ([]models.SearchHit, error) {
	s.mu.RLock()
	results, err := s.index.Search(ctx, vec, limit, func(id string) bool {
		m, ok := s.attrs[id]
		return ok && Matches(filter, m)
	})
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	byID, err := s.getMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(results))
	for _, res := range results {
		rec, ok := byID[res.ID]
		if !ok {
			continue
		}
		hits = append(hits, rec.Hit(res.Score, len(hits)+1))
	}
	return hits, nil
}

func (s *SQLiteStore) getMany(ctx context.Context, ids []string) (map[string]models.Record, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, text, metadata, source FROM records WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Record, len(recs))
	for _, r := range recs {
		out[r.ID] = r
	}
	return out, nil
}

// Scan implements DocumentStore.
func (s *SQLiteStore) Scan(ctx context.Context, filter models.Filter, limit int) ([]models.Record, error) {
	where, args := filterClause(filter)
	return s.query(ctx, where, args, limit)
}

// MatchArticle implements DocumentStore.
func (s *SQLiteStore) MatchArticle(ctx context.Context, articleNumber string, filter models.Filter, limit int) ([]models.Record, error) {
	where, args := filterClause(filter)
	where = append(where, "article_number = ?")
	args = append(args, articleNumber)
	return s.query(ctx, where, args, limit)
}

func (s *SQLiteStore) query(ctx context.Context, where []string, args []any, limit int) ([]models.Record, error) {
	q := `SELECT id, doc_id, text, metadata, source FROM records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rowid"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func filterClause(filter models.Filter) ([]string, []any) {
	var where []string
	var args []any
	if filter.Country != "" {
		where = append(where, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.ExcludeCountry != "" {
		where = append(where, "country != ?")
		args = append(args, filter.ExcludeCountry)
	}
	if filter.DocType != "" {
		where = append(where, "doc_type = ?")
		args = append(args, filter.DocType)
	}
	return where, args
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	defer rows.Close()
	var out []models.Record
	for rows.Next() {
		var r models.Record
		var docID, source sql.NullString
		var metadataJSON string
		if err := rows.Scan(&r.ID, &docID, &r.Text, &metadataJSON, &source); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadataJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", r.ID, err)
		}
		r.DocID = docID.String
		r.Source = source.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Upsert implements DocumentStore. Records are written in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records
		 (id, doc_id, text, country, doc_type, article_number, metadata, source, embedding, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	ids := make([]string, len(records))
	vecs := make([][]float32, len(records))
	for i, r := range records {
		if len(r.Embedding) != s.index.Dimensions() {
			return fmt.Errorf("record %s: embedding dimension %d, expected %d", r.ID, len(r.Embedding), s.index.Dimensions())
		}
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.DocID, r.Text, r.Metadata.Country, r.Metadata.DocType,
			r.Metadata.Structure.ArticleNumber, string(metadataJSON), r.Source,
			vector.EncodeVector(r.Embedding), now,
		); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", r.ID, err)
		}
		ids[i] = r.ID
		vecs[i] = r.Embedding
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.attrs[r.ID] = models.Metadata{Country: r.Metadata.Country, DocType: r.Metadata.DocType}
	}
	return s.index.Add(ctx, ids, vecs)
}

// DeleteBySource implements DocumentStore.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM records WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.attrs, id)
	}
	if err := s.index.Remove(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Count implements DocumentStore.
func (s *SQLiteStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	where, args := filterClause(filter)
	q := `SELECT COUNT(*) FROM records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	var count int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	_ = s.index.Close()
	return s.db.Close()
}
