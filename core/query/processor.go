package query

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/asaidimu/go-listquery/core/schema"
	"go.uber.org/zap"
)

// PredicateFunction is a pure Go function that decides whether doc satisfies a
// clause on field with the given clause value.
type PredicateFunction func(doc schema.Document, field string, value any) (bool, error)

// DataProcessor evaluates QueryDescriptors against in-memory documents. It is
// the reference semantics for filters, search and sort that store adapters
// are expected to reproduce.
type DataProcessor struct {
	predicates map[FilterOperator]PredicateFunction
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataProcessor{
		predicates: make(map[FilterOperator]PredicateFunction),
		logger:     logger,
	}
}

// RegisterFilterFunction registers a Go predicate for operator. A registered
// predicate replaces the built-in evaluation of that operator.
func (p *DataProcessor) RegisterFilterFunction(operator FilterOperator, fn PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predicates[operator] = fn
	p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
}

// RegisterFilterFunctions registers multiple predicates from a map.
func (p *DataProcessor) RegisterFilterFunctions(functionMap map[FilterOperator]PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for operator, fn := range functionMap {
		p.predicates[operator] = fn
		p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
	}
}

// Match reports whether doc satisfies every filter clause and the search
// clause of d.
func (p *DataProcessor) Match(ctx context.Context, d *QueryDescriptor, doc schema.Document) (bool, error) {
	if d == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.match(d, doc)
}

func (p *DataProcessor) match(d *QueryDescriptor, doc schema.Document) (bool, error) {
	for i := range d.Filters {
		passes, err := p.evaluateClause(doc, &d.Filters[i])
		if err != nil || !passes {
			return false, err
		}
	}
	return matchSearch(doc, d.Search), nil
}

// Filter returns the documents of rows that match d, preserving order.
func (p *DataProcessor) Filter(ctx context.Context, d *QueryDescriptor, rows []schema.Document) ([]schema.Document, error) {
	if d == nil {
		return rows, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	matched := make([]schema.Document, 0, len(rows))
	for i, row := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		passes, err := p.match(d, row)
		if err != nil {
			return nil, fmt.Errorf("error evaluating filters for row %d: %w", i, err)
		}
		if passes {
			matched = append(matched, row)
		}
	}
	p.logger.Debug("Rows remaining after filters", zap.Int("count", len(matched)))
	return matched, nil
}

// Sort orders rows in place by spec. The sort is stable. Missing values sort
// first in ascending order and last in descending order.
func (p *DataProcessor) Sort(rows []schema.Document, spec SortSpec) {
	if len(spec) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(a, b schema.Document) int {
		for _, s := range spec {
			c := compareField(a[s.Field], b[s.Field])
			if s.Direction == SortDirectionDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// Page returns the slice of rows selected by page.
func (p *DataProcessor) Page(rows []schema.Document, page PageRequest) []schema.Document {
	offset := page.Offset()
	if offset >= len(rows) || offset < 0 {
		return []schema.Document{}
	}
	end := min(offset+page.Limit(), len(rows))
	return rows[offset:end]
}

func compareField(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := CompareValues(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// evaluateClause performs the in-memory evaluation of one clause.
func (p *DataProcessor) evaluateClause(doc schema.Document, clause *FilterClause) (bool, error) {
	if fn, ok := p.predicates[clause.Operator]; ok {
		return fn(doc, clause.Field, clause.Value)
	}

	fieldValue, present := doc[clause.Field]
	switch clause.Operator {
	case FilterOperatorNone:
		return false, nil
	case FilterOperatorExists:
		want, ok := clause.Value.(bool)
		if !ok {
			return false, fmt.Errorf("exists clause on '%s' needs a bool, got %T", clause.Field, clause.Value)
		}
		return (present && fieldValue != nil) == want, nil
	}

	if !present || fieldValue == nil {
		return false, nil
	}

	switch clause.Operator {
	case FilterOperatorEq:
		return valuesEqual(fieldValue, clause.Value), nil
	case FilterOperatorIn:
		values, ok := clause.Value.([]any)
		if !ok {
			return false, fmt.Errorf("in clause on '%s' needs a list, got %T", clause.Field, clause.Value)
		}
		for _, v := range values {
			if valuesEqual(fieldValue, v) {
				return true, nil
			}
		}
		return false, nil
	case FilterOperatorRange:
		rng, ok := clause.Value.(Range)
		if !ok {
			return false, fmt.Errorf("range clause on '%s' needs a Range, got %T", clause.Field, clause.Value)
		}
		if rng.Min != nil {
			c, ok := CompareValues(fieldValue, rng.Min)
			if !ok || c < 0 {
				return false, nil
			}
		}
		if rng.Max != nil {
			c, ok := CompareValues(fieldValue, rng.Max)
			if !ok || c > 0 {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported filter operator for Go evaluation: %s", clause.Operator)
	}
}

func valuesEqual(a, b any) bool {
	if c, ok := CompareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// matchSearch is a case-insensitive substring match over the clause fields.
func matchSearch(doc schema.Document, search *SearchClause) bool {
	if search == nil {
		return true
	}
	term := strings.ToLower(search.Term)
	for _, field := range search.Fields {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), term) {
			return true
		}
	}
	return false
}
