package cli

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/asaidimu/go-listquery/rediscache"
	"github.com/asaidimu/go-listquery/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed catalog.yaml
var demoCatalog string

func loadCatalog(path string) (*schema.Catalog, error) {
	if path == "" {
		return schema.LoadCatalog(strings.NewReader(demoCatalog), schema.FormatYAML)
	}
	return schema.LoadCatalogFile(path)
}

// backend holds the open stores of every catalog resource.
type backend struct {
	catalog *schema.Catalog
	stores  map[string]query.Store
	closers []func() error
}

func (b *backend) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openBackend opens the SQLite database, creates a table per resource, seeds
// empty tables and wraps each store with the Redis cache when configured.
func openBackend(ctx context.Context, cfg *Config, logger *zap.Logger) (*backend, error) {
	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.DB == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	b := &backend{catalog: catalog, stores: map[string]query.Store{}, closers: []func() error{db.Close}}

	var seeds map[string][]schema.Document
	if cfg.Seed > 0 && cfg.Catalog == "" {
		if seeds, err = SeedDocuments(cfg.Seed); err != nil {
			b.Close()
			return nil, err
		}
	}

	var cache rediscache.Backend
	if cfg.RedisAddr != "" {
		client := rediscache.NewRedisClient(cfg.RedisAddr)
		b.closers = append(b.closers, client.Close)
		cache = rediscache.NewRedisBackend(client)
		logger.Info("Result cache enabled", zap.String("redis", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	for i := range catalog.Resources {
		def := &catalog.Resources[i]
		store, err := sqlite.NewSQLiteStore(db, def, logger, nil)
		if err != nil {
			b.Close()
			return nil, err
		}
		if err := store.CreateTable(ctx); err != nil {
			b.Close()
			return nil, err
		}
		if docs := seeds[def.Name]; len(docs) > 0 {
			if err := seedIfEmpty(ctx, store, docs, logger); err != nil {
				b.Close()
				return nil, err
			}
		}

		var s query.Store = store
		if cache != nil {
			s = rediscache.New(store, cache,
				rediscache.WithTTL(cfg.CacheTTL),
				rediscache.WithLogger(logger),
				rediscache.WithResource(def),
			)
		}
		b.stores[def.Name] = s
	}
	return b, nil
}

func seedIfEmpty(ctx context.Context, store *sqlite.SQLiteStore, docs []schema.Document, logger *zap.Logger) error {
	total, err := store.Count(ctx, &query.QueryDescriptor{})
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}
	n, err := store.InsertDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	logger.Info("Seeded demo records", zap.Int("count", n))
	return nil
}
