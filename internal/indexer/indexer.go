// Package indexer loads pre-chunked constitution records from JSONL corpus
// files, embeds them and writes them to a document store.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/embedding"
	"github.com/hyperjump/kenpo/internal/fileid"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/storage"
)

const defaultBatchSize = 32

// DefaultExtensions are the corpus file extensions indexed when none are given.
var DefaultExtensions = []string{".jsonl"}

// Stats summarizes one indexing run.
type Stats struct {
	Files   int `json:"files"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Deleted int `json:"deleted"`
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Indexed += o.Indexed
	s.Skipped += o.Skipped
	s.Deleted += o.Deleted
}

// Indexer embeds records and writes them to a store.
type Indexer struct {
	store      storage.DocumentStore
	embedder   embedding.Embedder
	extensions []string
	batchSize  int
	logger     *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the indexer logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithBatchSize sets how many texts are embedded per call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithExtensions restricts which files are indexed.
func WithExtensions(exts []string) IndexerOption {
	return func(idx *Indexer) {
		if len(exts) > 0 {
			idx.extensions = exts
		}
	}
}

// NewIndexer creates an indexer.
func NewIndexer(store storage.DocumentStore, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:      store,
		embedder:   embedder,
		extensions: DefaultExtensions,
		batchSize:  defaultBatchSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexRecords validates, embeds and upserts records from an API body.
// Invalid inputs are counted as skipped.
func (idx *Indexer) IndexRecords(ctx context.Context, source string, inputs []models.RecordInput) (Stats, error) {
	var stats Stats
	records := make([]models.Record, 0, len(inputs))
	for i, in := range inputs {
		rec, err := RecordFromInput(in, source, i+1)
		if err != nil {
			stats.Skipped++
			idx.logger.Warn("skipping invalid record", zap.String("source", source), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := idx.write(ctx, records); err != nil {
		return stats, err
	}
	stats.Indexed = len(records)
	return stats, nil
}

// IndexFile replaces every record previously read from path with the
// file's current contents.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (Stats, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Stats{}, fmt.Errorf("absolute path: %w", err)
	}
	if !idx.Allowed(absPath) {
		return Stats{}, fmt.Errorf("extension %q not in allowed list", filepath.Ext(absPath))
	}
	f, err := os.Open(absPath)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Stats{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Stats{}, fmt.Errorf("not a regular file: %s", absPath)
	}

	source := fileid.SourceID(absPath)
	records, bad, err := ReadRecords(f, source)
	if err != nil {
		return Stats{}, err
	}
	for _, le := range bad {
		idx.logger.Warn("skipping invalid corpus line",
			zap.String("path", absPath),
			zap.Int("line", le.Line),
			zap.Error(le.Err),
		)
	}

	stats := Stats{Files: 1, Skipped: len(bad)}
	deleted, err := idx.store.DeleteBySource(ctx, source)
	if err != nil {
		return stats, fmt.Errorf("failed to delete previous records: %w", err)
	}
	stats.Deleted = deleted

	if err := idx.write(ctx, records); err != nil {
		return stats, err
	}
	stats.Indexed = len(records)
	idx.logger.Debug("indexed corpus file",
		zap.String("path", absPath),
		zap.Int("records", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("replaced", stats.Deleted),
	)
	return stats, nil
}

// IndexDirectory walks dir recursively and indexes every corpus file.
// It stops at the first file that fails.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string) (Stats, error) {
	var total Stats
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return total, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !idx.Allowed(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := idx.IndexFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		total.add(stats)
		return nil
	})
	return total, err
}

// DeleteSource removes every record read from path.
func (idx *Indexer) DeleteSource(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := idx.store.DeleteBySource(ctx, fileid.SourceID(absPath))
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	idx.logger.Debug("deleted corpus file records", zap.String("path", absPath), zap.Int("records", n))
	return n, nil
}

// SyncFile is IndexFile without the stats, for the watcher.
func (idx *Indexer) SyncFile(ctx context.Context, path string) error {
	_, err := idx.IndexFile(ctx, path)
	return err
}

// RemoveFile is DeleteSource without the count, for the watcher.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	_, err := idx.DeleteSource(ctx, path)
	return err
}

// Allowed reports whether path has one of the indexed extensions.
func (idx *Indexer) Allowed(path string) bool {
	return extensionAllowed(filepath.Ext(path), idx.extensions)
}

func (idx *Indexer) write(ctx context.Context, records []models.Record) error {
	for start := 0; start < len(records); start += idx.batchSize {
		end := min(start+idx.batchSize, len(records))
		batch := records[start:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].EmbeddingText()
		}
		vecs, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = vecs[i]
		}
		if err := idx.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("failed to store records: %w", err)
		}
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
