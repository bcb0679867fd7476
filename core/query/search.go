package query

import (
	"slices"
	"strings"
)

// MaxSearchTermLength caps the number of runes kept from a search term.
const MaxSearchTermLength = 256

// BuildSearch returns a clause searching term across fields, or nil when the
// term is blank or there is nothing to search.
func BuildSearch(term string, fields []string) *SearchClause {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	searchable := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" && !slices.Contains(searchable, f) {
			searchable = append(searchable, f)
		}
	}
	if len(searchable) == 0 {
		return nil
	}
	return &SearchClause{
		Fields: searchable,
		Term:   truncateRunes(term, MaxSearchTermLength),
	}
}
