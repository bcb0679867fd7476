// Package persistence provides store adapters that execute query descriptors.
// MemoryStore keeps documents in process and evaluates descriptors with the
// query package's DataProcessor, which makes it the reference adapter for
// tests and small, read-mostly catalogs.
package persistence

import (
	"context"
	"maps"
	"sync"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory query.Store for one resource.
type MemoryStore struct {
	resource  string
	docs      []schema.Document
	processor *query.DataProcessor
	mu        sync.RWMutex
	logger    *zap.Logger
}

var _ query.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store for resource.
func NewMemoryStore(resource string, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		resource:  resource,
		processor: query.NewDataProcessor(logger),
		logger:    logger,
	}
}

// Processor exposes the processor so callers can register custom predicates.
func (s *MemoryStore) Processor() *query.DataProcessor {
	return s.processor
}

// Insert adds copies of docs to the store.
func (s *MemoryStore) Insert(docs ...schema.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs = append(s.docs, maps.Clone(doc))
	}
	s.logger.Debug("Inserted documents", zap.String("resource", s.resource), zap.Int("count", len(docs)))
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Count returns the number of documents matching d.
func (s *MemoryStore) Count(ctx context.Context, d *query.QueryDescriptor) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.processor.Filter(ctx, d, s.docs)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Fetch returns copies of the documents on d's page, in d's sort order.
func (s *MemoryStore) Fetch(ctx context.Context, d *query.QueryDescriptor) ([]schema.Document, error) {
	s.mu.RLock()
	matched, err := s.processor.Filter(ctx, d, s.docs)
	// Filter may return the backing slice itself; sort a private copy.
	rows := append([]schema.Document(nil), matched...)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if d != nil {
		s.processor.Sort(rows, d.Sort)
		rows = s.processor.Page(rows, d.Page)
	}
	page := make([]schema.Document, len(rows))
	for i, doc := range rows {
		page[i] = maps.Clone(doc)
	}
	return page, nil
}
