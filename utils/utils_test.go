package utils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	InStock   bool       `json:"inStock"`
	CreatedAt time.Time  `json:"createdAt"`
	Size      dimensions `json:"size"`
	Tags      []string   `json:"tags,omitempty"`
}

func TestEncodeRecord(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	p := product{ID: "p1", Name: "Shirt", Price: 12.5, InStock: true, CreatedAt: created, Size: dimensions{Width: 1, Height: 2}}

	for _, record := range []any{p, &p} {
		doc, err := EncodeRecord(record)
		require.NoError(t, err)
		assert.Equal(t, "p1", doc["id"])
		assert.Equal(t, 12.5, doc["price"])
		assert.Equal(t, true, doc["inStock"])
		assert.Equal(t, "2024-02-03T04:05:06Z", doc["createdAt"])
		assert.Equal(t, json.RawMessage(`{"height":2,"width":1}`), doc["size"])
		assert.NotContains(t, doc, "tags")
	}
}

func TestEncodeRecord_Errors(t *testing.T) {
	_, err := EncodeRecord[any](nil)
	assert.Error(t, err)

	var nilProduct *product
	_, err = EncodeRecord(nilProduct)
	assert.ErrorContains(t, err, "nil pointer")

	_, err = EncodeRecord(42)
	assert.ErrorContains(t, err, "must be a struct")
}

func TestDecodeDocument(t *testing.T) {
	doc := map[string]any{
		"id":        "p1",
		"name":      "Shirt",
		"price":     12.5,
		"inStock":   true,
		"createdAt": time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		"size":      map[string]any{"width": 1.0, "height": 2.0},
		"unknown":   "ignored",
	}

	p, err := DecodeDocument[product](doc)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", p.Name)
	assert.Equal(t, dimensions{Width: 1, Height: 2}, p.Size)
	assert.True(t, p.CreatedAt.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)))

	ptr, err := DecodeDocument[*product](doc)
	require.NoError(t, err)
	assert.Equal(t, "p1", ptr.ID)
}

func TestDecodeDocument_Errors(t *testing.T) {
	_, err := DecodeDocument[product](nil)
	assert.Error(t, err)

	_, err = DecodeDocument[int](map[string]any{})
	assert.ErrorContains(t, err, "must be a struct")

	_, err = DecodeDocument[any](map[string]any{})
	assert.ErrorContains(t, err, "interface")

	_, err = DecodeDocument[product](map[string]any{"price": "free"})
	assert.ErrorContains(t, err, "failed to unmarshal into product")
}
