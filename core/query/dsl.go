// Package query turns untyped list-request parameters into a typed, immutable
// QueryDescriptor and executes it against a Store. The resolvers in this
// package (coercion, filters, search, sort and pagination) are pure; only
// QueryBuilder.Execute blocks, waiting on the store adapter.
package query

import "slices"

// FilterOperator is the operator of a resolved filter clause.
type FilterOperator string

// Supported filter operators.
const (
	FilterOperatorEq     FilterOperator = "eq"
	FilterOperatorRange  FilterOperator = "range"
	FilterOperatorIn     FilterOperator = "in"
	FilterOperatorExists FilterOperator = "exists"
	// FilterOperatorNone matches no record. It stands in for a malformed value
	// on an exact-match required identifier field.
	FilterOperatorNone FilterOperator = "none"
)

// Range is the value of a range clause. A nil bound is open.
type Range struct {
	Min any `json:"min,omitempty"`
	Max any `json:"max,omitempty"`
}

// FilterClause is one resolved, typed filter condition.
//
// Value holds a coerced scalar for eq, a Range for range, a []any for in and a
// bool for exists. It is nil for none.
type FilterClause struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value,omitempty"`
}

// SearchClause asks for records where Term appears, case-insensitively, in at
// least one of Fields. How the match is performed is up to the store.
type SearchClause struct {
	Fields []string `json:"fields"`
	Term   string   `json:"term"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortField orders results by one field.
type SortField struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// SortSpec is an ordered sort. Resolved specs always end with the resource's
// identifier field in ascending order.
type SortSpec []SortField

// PageRequest is a clamped page selection. Page is 1-based.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Offset returns the number of records preceding the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of records on the page.
func (p PageRequest) Limit() int {
	return p.PageSize
}

// QueryDescriptor is the fully resolved query handed to a store. Stores
// receive the frozen copy made at execution and must not modify it.
type QueryDescriptor struct {
	Resource string         `json:"resource"`
	Filters  []FilterClause `json:"filters"`
	Search   *SearchClause  `json:"search,omitempty"`
	Sort     SortSpec       `json:"sort"`
	Page     PageRequest    `json:"page"`
}

// Clone returns a deep copy of the descriptor.
func (d *QueryDescriptor) Clone() *QueryDescriptor {
	if d == nil {
		return nil
	}
	c := &QueryDescriptor{
		Resource: d.Resource,
		Filters:  make([]FilterClause, len(d.Filters)),
		Sort:     slices.Clone(d.Sort),
		Page:     d.Page,
	}
	for i, f := range d.Filters {
		c.Filters[i] = FilterClause{Field: f.Field, Operator: f.Operator, Value: cloneValue(f.Value)}
	}
	if d.Search != nil {
		c.Search = &SearchClause{Fields: slices.Clone(d.Search.Fields), Term: d.Search.Term}
	}
	return c
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		return slices.Clone(val)
	case Range:
		return Range{Min: val.Min, Max: val.Max}
	default:
		return val
	}
}

// PageResult is one page of typed results plus pagination metadata.
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// Params holds raw request parameters. url.Values converts to it directly.
type Params map[string][]string

// Get returns the first value for key, or "" if there is none.
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key is present with at least one value.
func (p Params) Has(key string) bool {
	return len(p[key]) > 0
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, vs := range p {
		c[k] = slices.Clone(vs)
	}
	return c
}

// ParamsFromMap builds Params from single-valued parameters.
func ParamsFromMap(m map[string]string) Params {
	p := make(Params, len(m))
	for k, v := range m {
		p[k] = []string{v}
	}
	return p
}
