package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlCatalog = `
resources:
  - name: products
    searchFields: [name, description]
    sortFields: [price, createdAt]
    defaultSort: createdAt:desc
    sortPresets:
      cheapest: price:asc
    pagination:
      defaultSize: 12
      maxSize: 48
    fields:
      - name: price
        type: number
        operators: [eq, range]
      - name: category
        type: identifier
        operators: [eq, in]
  - name: users
    idFormat: uuid
    fields:
      - name: role
        type: string
`

const jsonCatalog = `{
  "resources": [
    {
      "name": "orders",
      "fields": [{"name": "status", "type": "string", "operators": ["eq", "in"]}],
      "adminFields": [{"name": "userId", "type": "identifier"}],
      "adminSortFields": ["userId"]
    }
  ]
}`

func TestLoadCatalog_YAML(t *testing.T) {
	catalog, err := LoadCatalog(strings.NewReader(yamlCatalog), FormatYAML)
	require.NoError(t, err)
	require.Len(t, catalog.Resources, 2)

	products, ok := catalog.Resource("products")
	require.True(t, ok)
	assert.Equal(t, []string{"price", "category"}, products.Fields.Names())
	assert.Equal(t, []Operator{OperatorEq, OperatorRange}, products.Fields[0].Operators)
	assert.Equal(t, "price:asc", products.SortPresets["cheapest"])
	assert.Equal(t, PaginationPolicy{DefaultSize: 12, MaxSize: 48}, products.Pagination)

	users, ok := catalog.Resource("users")
	require.True(t, ok)
	assert.Equal(t, IdentifierFormatUUID, users.IdentifierFormat())

	_, ok = catalog.Resource("reviews")
	assert.False(t, ok)
}

func TestLoadCatalog_JSON(t *testing.T) {
	catalog, err := LoadCatalog(strings.NewReader(jsonCatalog), FormatJSON)
	require.NoError(t, err)
	orders, ok := catalog.Resource("orders")
	require.True(t, ok)
	assert.Equal(t, []string{"status", "userId"}, orders.FieldsFor(true).Names())
}

func TestLoadCatalog_Errors(t *testing.T) {
	t.Run("invalid declaration", func(t *testing.T) {
		_, err := LoadCatalog(strings.NewReader(`resources: [{name: x, fields: [{name: a, type: geo}]}]`), FormatYAML)
		var catErr *CatalogError
		require.True(t, errors.As(err, &catErr))
		assert.Equal(t, "x", catErr.Resource)
		assert.Contains(t, err.Error(), "unknown type 'geo'")
	})

	t.Run("duplicate resource", func(t *testing.T) {
		_, err := LoadCatalog(strings.NewReader(`resources: [{name: x}, {name: x}]`), FormatYAML)
		assert.ErrorContains(t, err, "declared more than once")
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := LoadCatalog(strings.NewReader(`{"resources": [{"name": "x", "colour": "blue"}]}`), FormatJSON)
		assert.Error(t, err)
		_, err = LoadCatalog(strings.NewReader(`resources: [{name: x, colour: blue}]`), FormatYAML)
		assert.Error(t, err)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := LoadCatalog(strings.NewReader(``), Format("toml"))
		assert.ErrorContains(t, err, "unsupported catalog format")
	})

	t.Run("empty yaml", func(t *testing.T) {
		catalog, err := LoadCatalog(strings.NewReader(``), FormatYAML)
		require.NoError(t, err)
		assert.Empty(t, catalog.Resources)
	})
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlCatalog), 0o600))
	catalog, err := LoadCatalogFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, catalog.Resources, 2)

	jsonPath := filepath.Join(dir, "catalog.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonCatalog), 0o600))
	catalog, err = LoadCatalogFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, catalog.Resources, 1)

	_, err = LoadCatalogFile(filepath.Join(dir, "catalog.txt"))
	assert.ErrorContains(t, err, "cannot infer catalog format")

	_, err = LoadCatalogFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open catalog")
}
