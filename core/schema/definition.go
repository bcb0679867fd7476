// Package schema declares the queryable surface of a resource: which fields a
// list endpoint may filter, search and sort on, with which types and operators.
// Declarations are static configuration supplied by resource owners and are
// treated as trusted input, unlike the raw request parameters they are matched
// against.
package schema

// FieldType represents the value types a queryable field can declare.
type FieldType string

const (
	FieldTypeString     FieldType = "string"     // Text data
	FieldTypeNumber     FieldType = "number"     // Decimal numeric data
	FieldTypeBoolean    FieldType = "boolean"    // True/false values
	FieldTypeIdentifier FieldType = "identifier" // Store identifiers (fixed format tokens)
	FieldTypeDate       FieldType = "date"       // ISO-8601 instants
)

// IsValid reports whether t is one of the supported field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeIdentifier, FieldTypeDate:
		return true
	}
	return false
}

// Operator is a filter capability a field declares.
type Operator string

const (
	OperatorEq     Operator = "eq"     // Exact match
	OperatorRange  Operator = "range"  // Lower and/or upper bound
	OperatorIn     Operator = "in"     // Membership in a list
	OperatorExists Operator = "exists" // Presence (non-null) check
)

// IsValid reports whether o is one of the supported operators.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorEq, OperatorRange, OperatorIn, OperatorExists:
		return true
	}
	return false
}

// IdentifierFormat describes the shape of identifiers in the backing store.
type IdentifierFormat string

const (
	// IdentifierFormatObjectID is a 24 character hexadecimal token.
	IdentifierFormatObjectID IdentifierFormat = "objectid"
	// IdentifierFormatUUID is an RFC 4122 UUID.
	IdentifierFormatUUID IdentifierFormat = "uuid"
)

// Document represents a single raw record returned by a store adapter.
type Document map[string]any

// FieldSpec declares one filterable field.
type FieldSpec struct {
	Name      string     `json:"name" yaml:"name"`
	Type      FieldType  `json:"type" yaml:"type"`
	Operators []Operator `json:"operators,omitempty" yaml:"operators,omitempty"`
	// Required marks an exact-match-required field. A malformed identifier on
	// such a field resolves to a clause that matches nothing instead of being
	// dropped.
	Required    bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Allows reports whether the field declares op. A field without any declared
// operators allows equality only.
func (f FieldSpec) Allows(op Operator) bool {
	if len(f.Operators) == 0 {
		return op == OperatorEq
	}
	for _, declared := range f.Operators {
		if declared == op {
			return true
		}
	}
	return false
}

// FieldSet is an ordered allow-list of field declarations.
type FieldSet []FieldSpec

// Lookup returns the declaration for name.
func (fs FieldSet) Lookup(name string) (FieldSpec, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns the declared field names in declaration order.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name)
	}
	return names
}

// Merge returns a new set holding fs followed by the declarations of other
// whose names are not already present. Earlier declarations win.
func (fs FieldSet) Merge(other FieldSet) FieldSet {
	merged := make(FieldSet, 0, len(fs)+len(other))
	merged = append(merged, fs...)
	for _, f := range other {
		if _, exists := merged.Lookup(f.Name); !exists {
			merged = append(merged, f)
		}
	}
	return merged
}

// PaginationPolicy holds the page size bounds of a resource.
type PaginationPolicy struct {
	DefaultSize int `json:"defaultSize,omitempty" yaml:"defaultSize,omitempty"`
	MaxSize     int `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
}

// ResourceDefinition is the full query declaration of one list resource
// (products, orders, users, ...).
type ResourceDefinition struct {
	Name        string           `json:"name" yaml:"name"`
	Description *string          `json:"description,omitempty" yaml:"description,omitempty"`
	IDField     string           `json:"idField,omitempty" yaml:"idField,omitempty"`
	IDFormat    IdentifierFormat `json:"idFormat,omitempty" yaml:"idFormat,omitempty"`

	Fields      FieldSet `json:"fields" yaml:"fields"`
	AdminFields FieldSet `json:"adminFields,omitempty" yaml:"adminFields,omitempty"`

	SearchFields    []string `json:"searchFields,omitempty" yaml:"searchFields,omitempty"`
	SortFields      []string `json:"sortFields,omitempty" yaml:"sortFields,omitempty"`
	AdminSortFields []string `json:"adminSortFields,omitempty" yaml:"adminSortFields,omitempty"`

	// DefaultSort uses the request syntax, e.g. "createdAt:desc".
	DefaultSort string            `json:"defaultSort,omitempty" yaml:"defaultSort,omitempty"`
	SortPresets map[string]string `json:"sortPresets,omitempty" yaml:"sortPresets,omitempty"`

	Pagination PaginationPolicy `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// Identifier returns the unique identifier field, "id" unless overridden.
func (r *ResourceDefinition) Identifier() string {
	if r.IDField == "" {
		return "id"
	}
	return r.IDField
}

// IdentifierFormat returns the identifier format, objectid unless overridden.
func (r *ResourceDefinition) IdentifierFormat() IdentifierFormat {
	if r.IDFormat == "" {
		return IdentifierFormatObjectID
	}
	return r.IDFormat
}

// FieldsFor returns the filter allow-list for the given access level.
func (r *ResourceDefinition) FieldsFor(admin bool) FieldSet {
	if !admin {
		return r.Fields
	}
	return r.Fields.Merge(r.AdminFields)
}

// SortFieldsFor returns the sort allow-list for the given access level. The
// identifier field is always sortable.
func (r *ResourceDefinition) SortFieldsFor(admin bool) []string {
	allowed := make([]string, 0, len(r.SortFields)+len(r.AdminSortFields)+1)
	seen := make(map[string]struct{})
	add := func(names ...string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			allowed = append(allowed, name)
		}
	}
	add(r.SortFields...)
	if admin {
		add(r.AdminSortFields...)
	}
	add(r.Identifier())
	return allowed
}

// Columns returns every field name the resource exposes to a store: the
// identifier, all declared filter fields, search fields and sort fields.
func (r *ResourceDefinition) Columns() map[string]FieldType {
	columns := map[string]FieldType{r.Identifier(): FieldTypeIdentifier}
	for _, f := range r.Fields.Merge(r.AdminFields) {
		if _, ok := columns[f.Name]; !ok {
			columns[f.Name] = f.Type
		}
	}
	extra := append(append(append([]string{}, r.SearchFields...), r.SortFields...), r.AdminSortFields...)
	for _, name := range extra {
		if _, ok := columns[name]; !ok {
			columns[name] = FieldTypeString
		}
	}
	return columns
}
