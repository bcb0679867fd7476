// Package rediscache decorates a query.Store with a read-through cache. Count
// and Fetch results are stored under a fingerprint of the descriptor, so two
// requests that resolve to the same descriptor share an entry regardless of
// how their raw parameters were spelled.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

const (
	cacheVersion     = "v1"
	DefaultKeyPrefix = "listquery:" + cacheVersion + ":"
	DefaultTTL       = 30 * time.Second
)

// Backend is the key/value store the cache writes to.
type Backend interface {
	// Get returns the value for key; found is false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisBackend is a Backend on a go-redis client.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend wraps client.
func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// NewRedisClient opens a client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the prefix of every key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithLogger sets the logger used for backend failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResource restores the declared date fields of cached rows to time.Time.
func WithResource(def *schema.ResourceDefinition) Option {
	return func(s *Store) { s.columns = def.Columns() }
}

// Store is a caching query.Store.
//
// Backend failures never fail a query: the cache is bypassed and the inner
// store answers. Errors from the inner store are returned unchanged and never
// cached.
type Store struct {
	inner   query.Store
	backend Backend
	ttl     time.Duration
	prefix  string
	columns map[string]schema.FieldType
	logger  *zap.Logger
}

var _ query.Store = (*Store)(nil)

// New wraps inner with a cache on backend.
func New(inner query.Store, backend Backend, opts ...Option) *Store {
	s := &Store{
		inner:   inner,
		backend: backend,
		ttl:     DefaultTTL,
		prefix:  DefaultKeyPrefix,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cachedPage struct {
	Rows []schema.Document `json:"rows"`
}

// Count returns the cached total or asks the inner store.
func (s *Store) Count(ctx context.Context, d *query.QueryDescriptor) (int64, error) {
	key, err := s.key("count", countDescriptor(d))
	if err != nil {
		s.logger.Warn("Cannot fingerprint descriptor, bypassing cache", zap.Error(err))
		return s.inner.Count(ctx, d)
	}

	if data, ok := s.get(ctx, key); ok {
		if total, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			return total, nil
		}
		s.logger.Warn("Discarding malformed cache entry", zap.String("key", key))
	}

	total, err := s.inner.Count(ctx, d)
	if err != nil {
		return 0, err
	}
	s.set(ctx, key, []byte(strconv.FormatInt(total, 10)))
	return total, nil
}

// Fetch returns the cached page or asks the inner store.
func (s *Store) Fetch(ctx context.Context, d *query.QueryDescriptor) ([]schema.Document, error) {
	key, err := s.key("fetch", d)
	if err != nil {
		s.logger.Warn("Cannot fingerprint descriptor, bypassing cache", zap.Error(err))
		return s.inner.Fetch(ctx, d)
	}

	if data, ok := s.get(ctx, key); ok {
		var page cachedPage
		if err := json.Unmarshal(data, &page); err == nil {
			return s.restore(page.Rows), nil
		}
		s.logger.Warn("Discarding malformed cache entry", zap.String("key", key))
	}

	rows, err := s.inner.Fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cachedPage{Rows: rows}); err == nil {
		s.set(ctx, key, data)
	} else {
		s.logger.Warn("Cannot encode rows for cache", zap.Error(err))
	}
	return rows, nil
}

// key is prefix + resource + op + the xxh3 fingerprint of the descriptor.
func (s *Store) key(op string, d *query.QueryDescriptor) (string, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode descriptor: %w", err)
	}
	resource := ""
	if d != nil {
		resource = d.Resource
	}
	return fmt.Sprintf("%s%s:%s:%016x", s.prefix, resource, op, xxh3.Hash(payload)), nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool) {
	data, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if found {
		s.logger.Debug("Cache hit", zap.String("key", key))
	}
	return data, found
}

func (s *Store) set(ctx context.Context, key string, data []byte) {
	if err := s.backend.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// restore converts JSON-decoded date strings back to time.Time.
func (s *Store) restore(rows []schema.Document) []schema.Document {
	if rows == nil {
		return []schema.Document{}
	}
	if len(s.columns) == 0 {
		return rows
	}
	for _, row := range rows {
		for field, value := range row {
			if s.columns[field] != schema.FieldTypeDate {
				continue
			}
			if t, ok := query.ToTime(value); ok {
				row[field] = t
			}
		}
	}
	return rows
}

// countDescriptor drops sort and page, which do not affect the total, so all
// pages of one listing share a count entry.
func countDescriptor(d *query.QueryDescriptor) *query.QueryDescriptor {
	if d == nil {
		return nil
	}
	c := d.Clone()
	c.Sort = nil
	c.Page = query.PageRequest{}
	return c
}
