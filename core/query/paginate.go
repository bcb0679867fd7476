package query

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Page size policy defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageMeta is the pagination metadata derived from a total count.
type PageMeta struct {
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// ResolvePage clamps raw page and size inputs to policy. Missing or
// non-numeric input falls back to page 1 and defaultSize; values below 1 clamp
// to 1 and sizes above maxSize clamp to maxSize. The returned errors describe
// every adjustment and never prevent a result.
func ResolvePage(rawPage, rawSize string, defaultSize, maxSize int) (PageRequest, []PaginationBoundsError) {
	defaultSize, maxSize = sanitizePolicy(defaultSize, maxSize)
	var adjusted []PaginationBoundsError

	size, ok := parseBound(rawSize, defaultSize, maxSize)
	if !ok {
		adjusted = append(adjusted, PaginationBoundsError{Param: "pageSize", Raw: rawSize, Applied: size})
	}

	// The offset must stay inside int32 for every store adapter.
	maxPage := math.MaxInt32/size + 1
	page, ok := parseBound(rawPage, 1, maxPage)
	if !ok {
		adjusted = append(adjusted, PaginationBoundsError{Param: "page", Raw: rawPage, Applied: page})
	}
	return PageRequest{Page: page, PageSize: size}, adjusted
}

// ComputeMeta derives page counts from a total. TotalPages is 0 when total is 0.
func ComputeMeta(total int64, page PageRequest) PageMeta {
	if total < 0 {
		total = 0
	}
	var pages int64
	if page.PageSize > 0 {
		pages = (total + int64(page.PageSize) - 1) / int64(page.PageSize)
	}
	return PageMeta{
		TotalPages:  int(pages),
		HasNext:     int64(page.Page) < pages,
		HasPrevious: page.Page > 1,
	}
}

func sanitizePolicy(defaultSize, maxSize int) (int, int) {
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if defaultSize < 1 {
		defaultSize = min(DefaultPageSize, maxSize)
	}
	return min(defaultSize, maxSize), maxSize
}

// parseBound parses raw and clamps it to [1, upper]. ok is false when raw was
// present but had to be replaced.
func parseBound(raw string, fallback, upper int) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return fallback, false
		}
		if strings.HasPrefix(s, "-") {
			return 1, false
		}
		return upper, false
	}
	switch {
	case n < 1:
		return 1, false
	case n > int64(upper):
		return upper, false
	}
	return int(n), true
}
