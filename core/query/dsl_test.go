package query

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDescriptor_Clone(t *testing.T) {
	original := &QueryDescriptor{
		Resource: "products",
		Filters: []FilterClause{
			{Field: "brand", Operator: FilterOperatorIn, Value: []any{"acme", "globex"}},
			{Field: "price", Operator: FilterOperatorRange, Value: Range{Min: 1.0}},
		},
		Search: &SearchClause{Fields: []string{"name"}, Term: "shirt"},
		Sort:   SortSpec{{"id", SortDirectionAsc}},
		Page:   PageRequest{Page: 2, PageSize: 10},
	}
	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Filters[0].Value.([]any)[0] = "initech"
	clone.Search.Fields[0] = "secret"
	clone.Sort[0].Direction = SortDirectionDesc

	assert.Equal(t, "acme", original.Filters[0].Value.([]any)[0])
	assert.Equal(t, "name", original.Search.Fields[0])
	assert.Equal(t, SortDirectionAsc, original.Sort[0].Direction)

	var nilDescriptor *QueryDescriptor
	assert.Nil(t, nilDescriptor.Clone())
}

func TestPageRequest_OffsetLimit(t *testing.T) {
	p := PageRequest{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 10, p.Limit())
}

func TestParams(t *testing.T) {
	values, err := url.ParseQuery("price%5Bmin%5D=10&brand=acme&brand=globex")
	require.NoError(t, err)
	p := Params(values)

	assert.Equal(t, "10", p.Get("price[min]"))
	assert.Equal(t, "acme", p.Get("brand"))
	assert.True(t, p.Has("brand"))
	assert.False(t, p.Has("missing"))
	assert.Equal(t, "", p.Get("missing"))

	clone := p.Clone()
	clone["brand"][0] = "changed"
	assert.Equal(t, "acme", p.Get("brand"))

	assert.Equal(t, Params{"a": {"1"}}, ParamsFromMap(map[string]string{"a": "1"}))
}

func TestQueryDescriptor_JSON(t *testing.T) {
	d := QueryDescriptor{
		Resource: "products",
		Filters:  []FilterClause{{Field: "price", Operator: FilterOperatorRange, Value: Range{Max: 5.0}}},
		Sort:     SortSpec{{"id", SortDirectionAsc}},
		Page:     PageRequest{Page: 1, PageSize: 20},
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"resource": "products",
		"filters": [{"field": "price", "operator": "range", "value": {"max": 5}}],
		"sort": [{"field": "id", "direction": "asc"}],
		"page": {"page": 1, "pageSize": 20}
	}`, string(data))
}
