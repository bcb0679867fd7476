package query

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/asaidimu/go-listquery/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Decoder converts a raw store record into a result item.
type Decoder[T any] func(doc schema.Document) (T, error)

// Option configures a QueryBuilder.
type Option func(*builderOptions)

type builderOptions struct {
	logger   *zap.Logger
	resource string
	idField  string
	idFormat schema.IdentifierFormat
	policy   CoercionPolicy
	bus      *EventBus
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *builderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResourceName names the resource the query targets.
func WithResourceName(name string) Option {
	return func(o *builderOptions) { o.resource = name }
}

// WithIDField sets the unique tie-break field, "id" by default.
func WithIDField(field string) Option {
	return func(o *builderOptions) {
		if field != "" {
			o.idField = field
		}
	}
}

// WithIdentifierFormat sets the format identifiers are validated against.
func WithIdentifierFormat(format schema.IdentifierFormat) Option {
	return func(o *builderOptions) { o.idFormat = format }
}

// WithCoercionPolicy chooses between dropping a clause that fails coercion
// (the default) and rejecting the whole query.
func WithCoercionPolicy(policy CoercionPolicy) Option {
	return func(o *builderOptions) { o.policy = policy }
}

// WithEventBus emits a QueryEvent at the start and end of Execute.
func WithEventBus(bus *EventBus) Option {
	return func(o *builderOptions) { o.bus = bus }
}

// QueryBuilder assembles a QueryDescriptor for one request and executes it
// once against a Store. It is meant to be created per request and is not safe
// for concurrent mutation.
//
// Chained calls resolve raw parameters immediately. Execute freezes a deep copy
// of the descriptor; the builder cannot be executed again or modified after
// that.
type QueryBuilder[T any] struct {
	store  Store
	params Params
	opts   builderOptions

	descriptor QueryDescriptor
	sortSet    bool
	pageSet    bool
	decode     Decoder[T]

	// err is the first resolution failure under CoercionPolicyReject.
	err        error
	executions atomic.Int32
}

// NewQueryBuilder creates a builder over store for the given raw parameters.
func NewQueryBuilder[T any](store Store, params Params, opts ...Option) *QueryBuilder[T] {
	o := builderOptions{
		logger:   zap.NewNop(),
		idField:  DefaultIDField,
		idFormat: schema.IdentifierFormatObjectID,
		policy:   CoercionPolicyDrop,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if params == nil {
		params = Params{}
	}
	return &QueryBuilder[T]{
		store:      store,
		params:     params,
		opts:       o,
		descriptor: QueryDescriptor{Resource: o.resource, Filters: []FilterClause{}},
	}
}

// Params returns the raw parameters the builder resolves against.
func (b *QueryBuilder[T]) Params() Params {
	return b.params
}

func (b *QueryBuilder[T]) executed() bool {
	return b.executions.Load() > 0
}

func (b *QueryBuilder[T]) ignoreAfterExecute(call string) bool {
	if !b.executed() {
		return false
	}
	b.opts.logger.Warn("Ignoring builder call after execution",
		zap.String("call", call),
		zap.String("resource", b.opts.resource),
	)
	return true
}

// WithSearch sets the free-text search. A second call replaces the first; a
// blank term clears it.
func (b *QueryBuilder[T]) WithSearch(fields []string, term string) *QueryBuilder[T] {
	if b.ignoreAfterExecute("WithSearch") {
		return b
	}
	b.descriptor.Search = BuildSearch(term, fields)
	return b
}

// WithFilters resolves the builder's parameters against fields and appends the
// resulting clauses. Calling it again with another field set adds to the
// clauses already collected.
func (b *QueryBuilder[T]) WithFilters(fields schema.FieldSet) *QueryBuilder[T] {
	if b.ignoreAfterExecute("WithFilters") {
		return b
	}
	resolver := FilterResolver{
		Coercer: Coercer{IdentifierFormat: b.opts.idFormat},
		Policy:  b.opts.policy,
	}
	res, err := resolver.Resolve(b.params, fields)
	if err != nil {
		b.opts.logger.Debug("Rejecting query on coercion failure",
			zap.String("resource", b.opts.resource),
			zap.Error(err),
		)
		if b.err == nil {
			b.err = err
		}
		return b
	}
	for _, dropped := range res.Dropped {
		b.opts.logger.Debug("Dropped filter clause", zap.String("resource", b.opts.resource), zap.Error(dropped))
	}
	b.descriptor.Filters = append(b.descriptor.Filters, res.Clauses...)
	return b
}

// WithSort resolves raw against allowed and replaces any earlier sort.
func (b *QueryBuilder[T]) WithSort(raw string, allowed []string, defaultSort SortSpec) *QueryBuilder[T] {
	return b.WithSortResolver(SortResolver{}, raw, allowed, defaultSort)
}

// WithSortResolver is WithSort using r, for resources that define sort presets.
// The builder's identifier field always wins over r.IDField.
func (b *QueryBuilder[T]) WithSortResolver(r SortResolver, raw string, allowed []string, defaultSort SortSpec) *QueryBuilder[T] {
	if b.ignoreAfterExecute("WithSort") {
		return b
	}
	r.IDField = b.opts.idField
	b.descriptor.Sort = r.Resolve(raw, allowed, defaultSort)
	b.sortSet = true
	return b
}

// Paginate sets the page request, clamped to [1, maxSize].
func (b *QueryBuilder[T]) Paginate(rawPage, rawSize string, defaultSize, maxSize int) *QueryBuilder[T] {
	if b.ignoreAfterExecute("Paginate") {
		return b
	}
	page, adjusted := ResolvePage(rawPage, rawSize, defaultSize, maxSize)
	for i := range adjusted {
		b.opts.logger.Debug("Clamped pagination input",
			zap.String("resource", b.opts.resource),
			zap.Error(&adjusted[i]),
		)
	}
	b.descriptor.Page = page
	b.pageSet = true
	return b
}

// WithDecoder sets how store records become result items. Without it,
// schema.Document results are returned as is and other types are decoded with
// utils.DecodeDocument.
func (b *QueryBuilder[T]) WithDecoder(fn Decoder[T]) *QueryBuilder[T] {
	if b.ignoreAfterExecute("WithDecoder") {
		return b
	}
	b.decode = fn
	return b
}

// Descriptor returns a copy of the descriptor as it would be executed now.
func (b *QueryBuilder[T]) Descriptor() *QueryDescriptor {
	return b.freeze()
}

// Err returns the resolution error Execute would fail with, if any.
func (b *QueryBuilder[T]) Err() error {
	return b.err
}

func (b *QueryBuilder[T]) freeze() *QueryDescriptor {
	d := b.descriptor.Clone()
	if !b.sortSet {
		d.Sort = withTieBreak(nil, b.opts.idField)
	}
	if !b.pageSet {
		d.Page, _ = ResolvePage("", "", DefaultPageSize, MaxPageSize)
	}
	return d
}

// Execute freezes the descriptor, runs one count and one fetch against the
// store concurrently, and returns the decoded page. Store failures come back
// as *StoreError wrapping the adapter error. Every call after the first
// returns a *BuilderReuseError.
func (b *QueryBuilder[T]) Execute(ctx context.Context) (*PageResult[T], error) {
	if attempt := b.executions.Add(1); attempt > 1 {
		err := &BuilderReuseError{Resource: b.opts.resource, Attempt: int(attempt)}
		b.opts.logger.Error("Query builder executed more than once",
			zap.String("resource", b.opts.resource),
			zap.Int32("attempt", attempt),
		)
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}

	d := b.freeze()
	startTime := time.Now()
	b.emitEvent(createEvent(QueryExecuteStart, d.Resource, d, nil, nil, time.Time{}))

	var total int64
	var docs []schema.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := b.store.Count(gctx, d)
		if err != nil {
			return &StoreError{Op: "count", Resource: d.Resource, Err: err}
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, err := b.store.Fetch(gctx, d)
		if err != nil {
			return &StoreError{Op: "fetch", Resource: d.Resource, Err: err}
		}
		docs = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, b.fail(d, err, startTime)
	}

	items, err := b.decodeAll(docs)
	if err != nil {
		return nil, b.fail(d, err, startTime)
	}

	meta := ComputeMeta(total, d.Page)
	result := &PageResult[T]{
		Items:      items,
		TotalCount: total,
		Page:       d.Page.Page,
		PageSize:   d.Page.PageSize,
		TotalPages: meta.TotalPages,
	}
	b.opts.logger.Debug("Executed list query",
		zap.String("resource", d.Resource),
		zap.Int64("total", total),
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	b.emitEvent(createEvent(QueryExecuteSuccess, d.Resource, d, &total, nil, startTime))
	return result, nil
}

func (b *QueryBuilder[T]) fail(d *QueryDescriptor, err error, startTime time.Time) error {
	b.opts.logger.Error("List query failed", zap.String("resource", d.Resource), zap.Error(err))
	errStr := err.Error()
	b.emitEvent(createEvent(QueryExecuteFailed, d.Resource, d, nil, &errStr, startTime))
	return err
}

func (b *QueryBuilder[T]) decodeAll(docs []schema.Document) ([]T, error) {
	items := make([]T, 0, len(docs))
	for i, doc := range docs {
		item, err := b.decodeOne(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record %d of '%s': %w", i, b.opts.resource, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *QueryBuilder[T]) decodeOne(doc schema.Document) (T, error) {
	if b.decode != nil {
		return b.decode(doc)
	}
	if item, ok := any(doc).(T); ok {
		return item, nil
	}
	if item, ok := any(map[string]any(doc)).(T); ok {
		return item, nil
	}
	return utils.DecodeDocument[T](doc)
}

func (b *QueryBuilder[T]) emitEvent(event QueryEvent) {
	if b.opts.bus != nil {
		b.opts.bus.Emit(string(event.Type), event)
	}
}
