package query

import (
	"context"

	"github.com/asaidimu/go-listquery/core/schema"
)

// Store is the adapter that executes a QueryDescriptor against a backing
// store. Implementations own connection pooling, timeouts and retries; the
// query layer calls each method at most once per execution and passes their
// errors through unchanged.
type Store interface {
	// Count returns the number of records matching the descriptor's filters
	// and search, ignoring sort and page.
	Count(ctx context.Context, d *QueryDescriptor) (int64, error)

	// Fetch returns the records on the descriptor's page in sort order.
	Fetch(ctx context.Context, d *QueryDescriptor) ([]schema.Document, error)
}

// StoreFunc adapts a pair of functions to the Store interface.
type StoreFunc struct {
	CountFunc func(ctx context.Context, d *QueryDescriptor) (int64, error)
	FetchFunc func(ctx context.Context, d *QueryDescriptor) ([]schema.Document, error)
}

func (s StoreFunc) Count(ctx context.Context, d *QueryDescriptor) (int64, error) {
	return s.CountFunc(ctx, d)
}

func (s StoreFunc) Fetch(ctx context.Context, d *QueryDescriptor) ([]schema.Document, error) {
	return s.FetchFunc(ctx, d)
}
