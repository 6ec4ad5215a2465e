// Package search maintains a full-text and geo index of places.
//
// The index is derived data. It is updated after the store commits and can be
// rebuilt from the store at any time.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// SearchIndex wraps a Bleve index with place operations.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle during Rebuild.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup drops the index so it is rebuilt with the new mapping.
const mappingVersion = "1"

// NewSearchIndex creates or opens a search index.
// A corrupted index, or one written with another mapping version, is removed
// and recreated empty.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	s := &SearchIndex{
		path:   filepath.Join(opts.DataPath, "places.bleve"),
		logger: logger,
	}
	versionPath := filepath.Join(opts.DataPath, "places.version")

	if index, ok := s.openCurrent(versionPath); ok {
		s.index = index
		logger.Info("opened existing search index", "path", s.path)
		return s, nil
	}

	if err := os.RemoveAll(s.path); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		logger.Warn("failed to write search version file", "error", err)
	}
	s.index = index
	logger.Info("created new search index", "path", s.path, "mapping_version", mappingVersion)

	return s, nil
}

// openCurrent opens the index at s.path if it exists and was built with the
// current mapping version.
func (s *SearchIndex) openCurrent(versionPath string) (bleve.Index, bool) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, false
	}

	version, err := os.ReadFile(versionPath)
	if err != nil || string(version) != mappingVersion {
		s.logger.Info("search index mapping changed, rebuilding",
			"old_version", string(version),
			"new_version", mappingVersion,
		)
		return nil, false
	}

	index, err := bleve.Open(s.path)
	if err != nil {
		s.logger.Warn("failed to open existing index, recreating", "path", s.path, "error", err)
		return nil, false
	}
	return index, true
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes or replaces a single document.
func (s *SearchIndex) IndexDocument(doc *PlaceDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes documents in batches of 500.
func (s *SearchIndex) IndexDocuments(docs []*PlaceDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for chunk := range slices.Chunk(docs, batchSize) {
		batch := s.index.NewBatch()
		for _, doc := range chunk {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	return nil
}

// DeleteDocument removes a document from the index.
func (s *SearchIndex) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the existing index and creates an empty one.
// It holds the write lock, so searches block until it returns.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
