package query

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name        string
		rawPage     string
		rawSize     string
		defaultSize int
		maxSize     int
		expected    PageRequest
		adjusted    int
	}{
		{"defaults", "", "", 20, 100, PageRequest{1, 20}, 0},
		{"valid", "3", "25", 20, 100, PageRequest{3, 25}, 0},
		{"page below one", "0", "10", 20, 100, PageRequest{1, 10}, 1},
		{"negative page", "-4", "10", 20, 100, PageRequest{1, 10}, 1},
		{"size below one", "2", "0", 20, 100, PageRequest{2, 1}, 1},
		{"size above max", "1", "1000", 20, 100, PageRequest{1, 100}, 1},
		{"non-numeric falls back", "abc", "ten", 15, 100, PageRequest{1, 15}, 2},
		{"decimal falls back", "1.5", "2.5", 15, 100, PageRequest{1, 15}, 2},
		{"overflowing size clamps to max", "1", "99999999999999999999999", 20, 50, PageRequest{1, 50}, 1},
		{"overflowing negative size clamps to one", "1", "-99999999999999999999999", 20, 50, PageRequest{1, 1}, 1},
		{"bad policy sanitised", "", "", 0, 0, PageRequest{1, DefaultPageSize}, 0},
		{"default above max", "", "", 500, 50, PageRequest{1, 50}, 0},
		{"whitespace tolerated", " 2 ", " 5 ", 20, 100, PageRequest{2, 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, adjusted := ResolvePage(tt.rawPage, tt.rawSize, tt.defaultSize, tt.maxSize)
			assert.Equal(t, tt.expected, got)
			assert.Len(t, adjusted, tt.adjusted)
			for i := range adjusted {
				assert.ErrorIs(t, &adjusted[i], ErrPaginationBounds)
			}
		})
	}
}

func TestResolvePage_OffsetStaysInInt32(t *testing.T) {
	got, adjusted := ResolvePage(strconv.Itoa(math.MaxInt32), "100", 20, 100)
	assert.NotEmpty(t, adjusted)
	assert.LessOrEqual(t, got.Offset(), math.MaxInt32)
	assert.GreaterOrEqual(t, got.Page, 1)
}

func TestResolvePage_BoundsProperty(t *testing.T) {
	inputs := []string{"", "0", "1", "-1", "7", "100", "101", "1000000", "abc", "1e3", "NaN", "99999999999999999999", "-99999999999999999999", " 3"}
	for _, maxSize := range []int{-5, 0, 1, 10, 100} {
		for _, defaultSize := range []int{-1, 0, 5, 20, 1000} {
			for _, p := range inputs {
				for _, s := range inputs {
					got, _ := ResolvePage(p, s, defaultSize, maxSize)
					effectiveMax := maxSize
					if effectiveMax < 1 {
						effectiveMax = MaxPageSize
					}
					assert.GreaterOrEqual(t, got.Page, 1)
					assert.GreaterOrEqual(t, got.PageSize, 1)
					assert.LessOrEqual(t, got.PageSize, effectiveMax)
				}
			}
		}
	}
}

func TestComputeMeta(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		page     PageRequest
		expected PageMeta
	}{
		{"empty", 0, PageRequest{1, 10}, PageMeta{TotalPages: 0}},
		{"exact", 20, PageRequest{1, 10}, PageMeta{TotalPages: 2, HasNext: true}},
		{"remainder", 25, PageRequest{3, 10}, PageMeta{TotalPages: 3, HasPrevious: true}},
		{"single", 1, PageRequest{1, 10}, PageMeta{TotalPages: 1}},
		{"beyond last page", 5, PageRequest{4, 10}, PageMeta{TotalPages: 1, HasPrevious: true}},
		{"negative total", -3, PageRequest{1, 10}, PageMeta{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeMeta(tt.total, tt.page))
		})
	}
}
