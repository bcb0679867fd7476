package query

import (
	"errors"
	"strings"

	"github.com/asaidimu/go-listquery/core/schema"
)

// CoercionPolicy decides what a resolver does when a value fails coercion.
type CoercionPolicy string

const (
	// CoercionPolicyDrop drops the failing clause and keeps resolving.
	CoercionPolicyDrop CoercionPolicy = "drop"
	// CoercionPolicyReject fails the whole resolution with the CoercionError.
	CoercionPolicyReject CoercionPolicy = "reject"
)

// Parameter key suffixes for non-equality operators.
const (
	suffixMin    = "[min]"
	suffixMax    = "[max]"
	suffixIn     = "[in]"
	suffixExists = "[exists]"
)

// FilterResolution is the output of a FilterResolver.
type FilterResolution struct {
	// Clauses holds the resolved filters in field declaration order.
	Clauses []FilterClause
	// Dropped holds the coercion failures skipped under the drop policy.
	Dropped []error
}

// FilterResolver maps raw request parameters onto declared fields.
//
// Only declared fields are ever looked up, so a request key that does not
// match a declaration never reaches the store. Recognised keys per field f:
//
//	f=v            eq, or in when v is a comma list (or repeated) and f allows in
//	f[in]=a,b      in
//	f[min]=x       range lower bound
//	f[max]=y       range upper bound
//	f[exists]=bool exists
type FilterResolver struct {
	Coercer Coercer
	Policy  CoercionPolicy
}

// ResolveFilters resolves params with the default resolver and drop policy.
func ResolveFilters(params Params, fields schema.FieldSet) []FilterClause {
	res, _ := FilterResolver{}.Resolve(params, fields)
	return res.Clauses
}

// Resolve returns the clauses for every declared field present in params.
// Under CoercionPolicyReject the first coercion failure is returned as an
// error and no clauses are produced.
func (r FilterResolver) Resolve(params Params, fields schema.FieldSet) (FilterResolution, error) {
	var res FilterResolution
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		clauses, dropped := r.resolveField(params, field)
		if len(dropped) > 0 && r.Policy == CoercionPolicyReject {
			return FilterResolution{}, dropped[0]
		}
		res.Clauses = append(res.Clauses, clauses...)
		res.Dropped = append(res.Dropped, dropped...)
	}
	return res, nil
}

func (r FilterResolver) resolveField(params Params, field schema.FieldSpec) ([]FilterClause, []error) {
	var clauses []FilterClause
	var dropped []error

	emit := func(c *FilterClause, err error) {
		if err != nil {
			var ce *CoercionError
			if errors.As(err, &ce) {
				ce.Field = field.Name
			}
			if r.guardsIdentifier(field) {
				clauses = append(clauses, FilterClause{Field: field.Name, Operator: FilterOperatorNone})
				return
			}
			dropped = append(dropped, err)
			return
		}
		if c != nil {
			clauses = append(clauses, *c)
		}
	}

	if raws := params[field.Name]; len(raws) > 0 && strings.TrimSpace(raws[0]) != "" {
		values := splitList(raws)
		listed := len(values) > 1 || len(raws) > 1
		switch {
		case field.Allows(schema.OperatorIn) && (listed || !field.Allows(schema.OperatorEq)):
			emit(r.listClause(field, values))
		case field.Allows(schema.OperatorEq):
			emit(r.eqClause(field, raws[0]))
		}
	}

	if field.Allows(schema.OperatorIn) {
		if values := splitList(params[field.Name+suffixIn]); len(values) > 0 {
			emit(r.listClause(field, values))
		}
	}

	if field.Allows(schema.OperatorRange) {
		c, errs := r.rangeClause(params, field)
		dropped = append(dropped, errs...)
		if c != nil {
			clauses = append(clauses, *c)
		}
	}

	if field.Allows(schema.OperatorExists) {
		if raw := params.Get(field.Name + suffixExists); raw != "" {
			v, err := coerceBoolean(raw)
			if err != nil {
				err.(*CoercionError).Field = field.Name
				dropped = append(dropped, err)
			} else {
				clauses = append(clauses, FilterClause{Field: field.Name, Operator: FilterOperatorExists, Value: v})
			}
		}
	}
	return clauses, dropped
}

// guardsIdentifier reports whether a malformed value on field must match
// nothing instead of being dropped.
func (r FilterResolver) guardsIdentifier(field schema.FieldSpec) bool {
	return field.Required && field.Type == schema.FieldTypeIdentifier
}

func (r FilterResolver) eqClause(field schema.FieldSpec, raw string) (*FilterClause, error) {
	v, err := r.Coercer.Coerce(raw, field.Type)
	if err != nil {
		return nil, err
	}
	return &FilterClause{Field: field.Name, Operator: FilterOperatorEq, Value: v}, nil
}

// listClause coerces every component. A single bad component invalidates the
// whole list so that the clause never silently narrows to the good values.
func (r FilterResolver) listClause(field schema.FieldSpec, raws []string) (*FilterClause, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	values := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := r.Coercer.Coerce(raw, field.Type)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &FilterClause{Field: field.Name, Operator: FilterOperatorIn, Value: values}, nil
}

// rangeClause resolves the min and max bounds independently. A bound that
// fails coercion is dropped on its own; the other still applies.
func (r FilterResolver) rangeClause(params Params, field schema.FieldSpec) (*FilterClause, []error) {
	var rng Range
	var errs []error
	bound := func(key string) any {
		raw := params.Get(key)
		if raw == "" {
			return nil
		}
		v, err := r.Coercer.Coerce(raw, field.Type)
		if err != nil {
			err.(*CoercionError).Field = key
			errs = append(errs, err)
			return nil
		}
		return v
	}
	rng.Min = bound(field.Name + suffixMin)
	rng.Max = bound(field.Name + suffixMax)
	if rng.Min == nil && rng.Max == nil {
		return nil, errs
	}
	return &FilterClause{Field: field.Name, Operator: FilterOperatorRange, Value: rng}, errs
}

// splitList flattens repeated and comma separated values, discarding blanks.
func splitList(raws []string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
