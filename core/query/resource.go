package query

import (
	"github.com/asaidimu/go-listquery/core/schema"
)

// Request parameter names read by NewResourceQuery.
const (
	ParamSearch   = "q"
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamLimit    = "limit"
)

// Access selects which declarations of a resource apply to a request.
type Access int

const (
	AccessPublic Access = iota
	AccessAdmin
)

// NewResourceQuery builds a fully configured QueryBuilder for def: search from
// "q", filters from the declared fields, sort from "sort" and pagination from
// "page" and "pageSize" (or "limit"). Admin access adds the admin field set as
// a second WithFilters call and extends the sort allow-list.
func NewResourceQuery[T any](def *schema.ResourceDefinition, store Store, params Params, access Access, opts ...Option) *QueryBuilder[T] {
	base := []Option{
		WithResourceName(def.Name),
		WithIDField(def.Identifier()),
		WithIdentifierFormat(def.IdentifierFormat()),
	}
	b := NewQueryBuilder[T](store, params, append(base, opts...)...)

	b.WithSearch(def.SearchFields, params.Get(ParamSearch))

	b.WithFilters(def.Fields)
	if access == AccessAdmin && len(def.AdminFields) > 0 {
		b.WithFilters(adminOnly(def))
	}

	sorter := SortResolver{Presets: def.SortPresets}
	b.WithSortResolver(sorter, params.Get(ParamSort), def.SortFieldsFor(access == AccessAdmin), ParseSort(def.DefaultSort))

	rawSize := params.Get(ParamPageSize)
	if rawSize == "" {
		rawSize = params.Get(ParamLimit)
	}
	b.Paginate(params.Get(ParamPage), rawSize, def.Pagination.DefaultSize, def.Pagination.MaxSize)
	return b
}

// adminOnly returns the admin fields not already declared as public fields,
// so the second WithFilters call never duplicates a public clause.
func adminOnly(def *schema.ResourceDefinition) schema.FieldSet {
	var fields schema.FieldSet
	for _, f := range def.AdminFields {
		if _, public := def.Fields.Lookup(f.Name); !public {
			fields = append(fields, f)
		}
	}
	return fields
}
