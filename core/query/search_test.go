package query

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearch(t *testing.T) {
	t.Run("whitespace term yields no clause", func(t *testing.T) {
		assert.Nil(t, BuildSearch("  ", []string{"name", "description"}))
		assert.Nil(t, BuildSearch("\t\n", []string{"name"}))
		assert.Nil(t, BuildSearch("", []string{"name"}))
	})

	t.Run("no fields yields no clause", func(t *testing.T) {
		assert.Nil(t, BuildSearch("shirt", nil))
		assert.Nil(t, BuildSearch("shirt", []string{""}))
	})

	t.Run("term trimmed and fields kept in order", func(t *testing.T) {
		got := BuildSearch("  blue shirt ", []string{"name", "description", "name"})
		require.NotNil(t, got)
		assert.Equal(t, "blue shirt", got.Term)
		assert.Equal(t, []string{"name", "description"}, got.Fields)
	})

	t.Run("fields are copied", func(t *testing.T) {
		fields := []string{"name"}
		got := BuildSearch("x", fields)
		fields[0] = "secret"
		assert.Equal(t, []string{"name"}, got.Fields)
	})

	t.Run("long term capped", func(t *testing.T) {
		got := BuildSearch(strings.Repeat("ü", MaxSearchTermLength*2), []string{"name"})
		require.NotNil(t, got)
		assert.Equal(t, MaxSearchTermLength, utf8.RuneCountInString(got.Term))
	})
}
