package schema

import (
	"fmt"
	"strconv"
)

// Issue represents a problem found in a resource declaration.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Validator checks resource declarations before they are used to build
// queries. Declarations are trusted input, so a failing declaration is a
// configuration defect and is reported up front rather than at request time.
type Validator struct {
	def    *ResourceDefinition
	issues []Issue
}

// NewValidator creates a validator for def.
func NewValidator(def *ResourceDefinition) *Validator {
	return &Validator{def: def, issues: make([]Issue, 0)}
}

// Validate returns whether the declaration is usable and every issue found.
func (v *Validator) Validate() (bool, []Issue) {
	v.issues = make([]Issue, 0)

	if v.def.Name == "" {
		v.addIssue("MISSING_NAME", "Resource name is required", "name")
	}
	switch v.def.IdentifierFormat() {
	case IdentifierFormatObjectID, IdentifierFormatUUID:
	default:
		v.addIssue("INVALID_ID_FORMAT", fmt.Sprintf("Unknown identifier format '%s'", v.def.IDFormat), "idFormat")
	}

	v.validateFields(v.def.Fields, "fields")
	v.validateFields(v.def.AdminFields, "adminFields")
	v.validateSearchFields()
	v.validateSortFields(v.def.SortFields, "sortFields")
	v.validateSortFields(v.def.AdminSortFields, "adminSortFields")
	v.validatePagination()

	return len(v.issues) == 0, v.issues
}

// Validate is a shorthand for NewValidator(def).Validate returning only the issues.
func Validate(def *ResourceDefinition) []Issue {
	_, issues := NewValidator(def).Validate()
	return issues
}

func (v *Validator) validateFields(fields FieldSet, path string) {
	seen := make(map[string]struct{}, len(fields))
	for i, field := range fields {
		fieldPath := v.buildPath(path, strconv.Itoa(i))
		if field.Name == "" {
			v.addIssue("MISSING_FIELD_NAME", "Field name is required", fieldPath)
			continue
		}
		if _, dup := seen[field.Name]; dup {
			v.addIssue("DUPLICATE_FIELD", fmt.Sprintf("Field '%s' is declared more than once", field.Name), fieldPath)
		}
		seen[field.Name] = struct{}{}

		if !field.Type.IsValid() {
			v.addIssue("INVALID_FIELD_TYPE", fmt.Sprintf("Field '%s' has unknown type '%s'", field.Name, field.Type), fieldPath)
			continue
		}
		for _, op := range field.Operators {
			if !op.IsValid() {
				v.addIssue("INVALID_OPERATOR", fmt.Sprintf("Field '%s' declares unknown operator '%s'", field.Name, op), fieldPath)
				continue
			}
			if op == OperatorRange && (field.Type == FieldTypeBoolean || field.Type == FieldTypeIdentifier) {
				v.addIssue("UNSUPPORTED_OPERATOR", fmt.Sprintf("Field '%s' of type %s cannot declare a range", field.Name, field.Type), fieldPath)
			}
		}
		if field.Required && field.Type != FieldTypeIdentifier {
			v.addIssue("UNSUPPORTED_REQUIRED", fmt.Sprintf("Field '%s': only identifier fields can be exact-match required", field.Name), fieldPath)
		}
	}
}

func (v *Validator) validateSearchFields() {
	for i, name := range v.def.SearchFields {
		path := v.buildPath("searchFields", strconv.Itoa(i))
		field, ok := v.def.Fields.Merge(v.def.AdminFields).Lookup(name)
		if !ok {
			// Search-only fields are allowed; they are treated as text.
			continue
		}
		if field.Type != FieldTypeString {
			v.addIssue("INVALID_SEARCH_FIELD", fmt.Sprintf("Search field '%s' must be a string, got %s", name, field.Type), path)
		}
	}
}

func (v *Validator) validateSortFields(names []string, path string) {
	for i, name := range names {
		if name == "" {
			v.addIssue("MISSING_SORT_FIELD", "Sort field name cannot be empty", v.buildPath(path, strconv.Itoa(i)))
		}
	}
}

func (v *Validator) validatePagination() {
	p := v.def.Pagination
	if p.DefaultSize < 0 {
		v.addIssue("INVALID_PAGE_SIZE", "Default page size cannot be negative", "pagination.defaultSize")
	}
	if p.MaxSize < 0 {
		v.addIssue("INVALID_PAGE_SIZE", "Maximum page size cannot be negative", "pagination.maxSize")
	}
	if p.MaxSize > 0 && p.DefaultSize > p.MaxSize {
		v.addIssue("INVALID_PAGE_SIZE", fmt.Sprintf("Default page size %d exceeds maximum %d", p.DefaultSize, p.MaxSize), "pagination.defaultSize")
	}
}

// buildPath constructs a dot-separated path string for error reporting.
func (v *Validator) buildPath(basePath, fieldName string) string {
	if basePath == "" {
		return fieldName
	}
	return basePath + "." + fieldName
}

// addIssue adds a new validation issue to the validator's list of issues.
func (v *Validator) addIssue(code, message, path string) {
	issue := Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	}
	v.issues = append(v.issues, issue)
}
