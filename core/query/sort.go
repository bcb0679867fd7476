package query

import (
	"slices"
	"strings"
)

// DefaultIDField is the tie-break field used when none is configured.
const DefaultIDField = "id"

// SortResolver parses sort directives into a SortSpec that always ends on the
// identifier field in ascending order.
type SortResolver struct {
	// IDField is the unique tie-break field, DefaultIDField when empty.
	IDField string
	// Presets maps a name such as "newest" to a raw sort directive. A raw
	// sort equal to a preset name is replaced by the preset before parsing.
	Presets map[string]string
}

// ResolveSort resolves raw against allowed using the default identifier field.
func ResolveSort(raw string, allowed []string, defaultSort SortSpec) SortSpec {
	return SortResolver{}.Resolve(raw, allowed, defaultSort)
}

// Resolve parses raw ("field[:dir],..."), keeping only allowed fields. An
// empty result falls back to defaultSort, itself filtered by allowed. The
// identifier field is always sortable and always closes the spec.
func (r SortResolver) Resolve(raw string, allowed []string, defaultSort SortSpec) SortSpec {
	id := r.idField()
	isAllowed := func(field string) bool {
		return field == id || slices.Contains(allowed, field)
	}

	if preset, ok := r.Presets[strings.TrimSpace(raw)]; ok {
		raw = preset
	}

	spec := make(SortSpec, 0, 4)
	seen := make(map[string]struct{})
	add := func(f SortField) {
		if !isAllowed(f.Field) {
			return
		}
		if _, dup := seen[f.Field]; dup {
			return
		}
		seen[f.Field] = struct{}{}
		spec = append(spec, f)
	}

	for _, f := range ParseSort(raw) {
		add(f)
	}
	if len(spec) == 0 {
		for _, f := range defaultSort {
			if f.Direction != SortDirectionAsc && f.Direction != SortDirectionDesc {
				continue
			}
			add(f)
		}
	}
	return withTieBreak(spec, id)
}

func (r SortResolver) idField() string {
	if r.IDField == "" {
		return DefaultIDField
	}
	return r.IDField
}

// withTieBreak truncates spec after its first identifier entry, since later
// fields can never break a tie, and makes sure the last entry is the
// identifier ascending.
func withTieBreak(spec SortSpec, id string) SortSpec {
	if i := slices.IndexFunc(spec, func(f SortField) bool { return f.Field == id }); i >= 0 {
		spec = spec[:i+1]
	}
	tieBreak := SortField{Field: id, Direction: SortDirectionAsc}
	if n := len(spec); n > 0 && spec[n-1] == tieBreak {
		return spec
	}
	return append(spec, tieBreak)
}

// ParseSort splits a raw sort directive into fields with valid directions.
// Pairs with an empty field or an unrecognised direction are skipped. No
// allow-list is applied.
func ParseSort(raw string) SortSpec {
	var spec SortSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		direction, ok := parseDirection(dir)
		if !ok {
			continue
		}
		spec = append(spec, SortField{Field: field, Direction: direction})
	}
	return spec
}

func parseDirection(raw string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc", "ascending":
		return SortDirectionAsc, true
	case "desc", "descending":
		return SortDirectionDesc, true
	}
	return "", false
}
