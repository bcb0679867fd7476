package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/asaidimu/go-listquery/core/persistence"
	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocuments(n int) []schema.Document {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]schema.Document, 0, n)
	for i := 1; i <= n; i++ {
		doc := schema.Document{
			"id":          fmt.Sprintf("%024x", i),
			"name":        fmt.Sprintf("Product %02d", i),
			"description": "plain cotton",
			"price":       float64(i%5) * 10,
			"category":    fmt.Sprintf("%024x", 100+i%3),
			"createdAt":   base.Add(time.Duration(i) * time.Hour),
		}
		if i%4 != 0 {
			doc["inStock"] = i%2 == 1
		}
		docs = append(docs, doc)
	}
	return docs
}

func newTestStore(t *testing.T, docs []schema.Document) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, productsDefinition(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(context.Background()))

	n, err := store.InsertDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, len(docs), n)
	return store
}

func ids(docs []schema.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc["id"].(string)
	}
	return out
}

func TestSQLiteStore_CreateTable(t *testing.T) {
	store := newTestStore(t, nil)

	exists, err := store.TableExists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	stmts, err := store.CreateTableSQL()
	require.NoError(t, err)
	assert.Contains(t, stmts[0], `"id" TEXT PRIMARY KEY`)
	assert.Contains(t, stmts[0], `"price" REAL`)
	assert.Contains(t, stmts[0], `"inStock" INTEGER`)
	assert.Len(t, store.CreateIndexSQL(), 2)

	require.NoError(t, store.DropTable(context.Background()))
	exists, err = store.TableExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteStore_ReadRowsRestoresTypes(t *testing.T) {
	store := newTestStore(t, seedDocuments(2))

	rows, err := store.Fetch(context.Background(), &query.QueryDescriptor{
		Sort: query.SortSpec{{Field: "id", Direction: query.SortDirectionAsc}},
		Page: query.PageRequest{Page: 1, PageSize: 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, true, first["inStock"])
	assert.Equal(t, 10.0, first["price"])
	assert.Equal(t, "Product 01", first["name"])
	createdAt, ok := first["createdAt"].(time.Time)
	require.True(t, ok)
	assert.True(t, createdAt.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)))
}

// The SQL adapter and the in-memory adapter must agree on every descriptor.
func TestSQLiteStore_MatchesMemoryStore(t *testing.T) {
	docs := seedDocuments(25)
	sqlStore := newTestStore(t, docs)
	memStore := persistence.NewMemoryStore("products", nil)
	memStore.Insert(docs...)

	byPrice := query.SortSpec{{Field: "price", Direction: query.SortDirectionDesc}, {Field: "id", Direction: query.SortDirectionAsc}}
	descriptors := map[string]*query.QueryDescriptor{
		"all": {
			Sort: query.SortSpec{{Field: "id", Direction: query.SortDirectionAsc}},
			Page: query.PageRequest{Page: 1, PageSize: 100},
		},
		"range and sort": {
			Filters: []query.FilterClause{{Field: "price", Operator: query.FilterOperatorRange, Value: query.Range{Min: 10.0, Max: 30.0}}},
			Sort:    byPrice,
			Page:    query.PageRequest{Page: 2, PageSize: 4},
		},
		"in": {
			Filters: []query.FilterClause{{Field: "category", Operator: query.FilterOperatorIn, Value: []any{fmt.Sprintf("%024x", 100), fmt.Sprintf("%024x", 102)}}},
			Sort:    byPrice,
			Page:    query.PageRequest{Page: 1, PageSize: 50},
		},
		"boolean and exists": {
			Filters: []query.FilterClause{
				{Field: "inStock", Operator: query.FilterOperatorEq, Value: false},
				{Field: "inStock", Operator: query.FilterOperatorExists, Value: true},
			},
			Sort: byPrice,
			Page: query.PageRequest{Page: 1, PageSize: 50},
		},
		"missing": {
			Filters: []query.FilterClause{{Field: "inStock", Operator: query.FilterOperatorExists, Value: false}},
			Sort:    byPrice,
			Page:    query.PageRequest{Page: 1, PageSize: 50},
		},
		"date range": {
			Filters: []query.FilterClause{{Field: "createdAt", Operator: query.FilterOperatorRange, Value: query.Range{Max: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}}},
			Sort:    query.SortSpec{{Field: "createdAt", Direction: query.SortDirectionDesc}, {Field: "id", Direction: query.SortDirectionAsc}},
			Page:    query.PageRequest{Page: 1, PageSize: 50},
		},
		"search": {
			Search: &query.SearchClause{Fields: []string{"name", "description"}, Term: "product 1"},
			Sort:   byPrice,
			Page:   query.PageRequest{Page: 1, PageSize: 50},
		},
		"none": {
			Filters: []query.FilterClause{{Field: "category", Operator: query.FilterOperatorNone}},
			Sort:    byPrice,
			Page:    query.PageRequest{Page: 1, PageSize: 50},
		},
	}

	for name, d := range descriptors {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wantTotal, err := memStore.Count(ctx, d)
			require.NoError(t, err)
			gotTotal, err := sqlStore.Count(ctx, d)
			require.NoError(t, err)
			assert.Equal(t, wantTotal, gotTotal)

			want, err := memStore.Fetch(ctx, d)
			require.NoError(t, err)
			got, err := sqlStore.Fetch(ctx, d)
			require.NoError(t, err)
			assert.Equal(t, ids(want), ids(got))
		})
	}
}

func TestSQLiteStore_WithQueryBuilder(t *testing.T) {
	def := productsDefinition()
	store := newTestStore(t, seedDocuments(25))

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		params := query.Params{"sort": {"price:desc"}, "page": {fmt.Sprint(page)}, "pageSize": {"10"}, "price[min]": {"0"}}
		res, err := query.NewResourceQuery[schema.Document](def, store, params, query.AccessPublic).Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(25), res.TotalCount)
		assert.Equal(t, 3, res.TotalPages)
		for _, id := range ids(res.Items) {
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestSQLiteStore_Errors(t *testing.T) {
	store := newTestStore(t, seedDocuments(1))

	_, err := store.InsertDocuments(context.Background(), []schema.Document{{"id": fmt.Sprintf("%024x", 1)}})
	assert.ErrorContains(t, err, "failed to execute INSERT statement")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Count(ctx, &query.QueryDescriptor{})
	assert.Error(t, err)

	_, err = NewSQLiteStore(nil, productsDefinition(), nil, nil)
	assert.Error(t, err)
}
