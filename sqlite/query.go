package sqlite

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
)

// dateLayout stores instants as fixed-width UTC text so that lexical order in
// SQLite matches chronological order.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SqliteQuery is a resource-aware SQL generator for SQLite. It translates a
// query.QueryDescriptor into parameterized COUNT and SELECT statements against
// the table named after the resource.
type SqliteQuery struct {
	def     *schema.ResourceDefinition
	columns map[string]schema.FieldType
	table   string
}

// NewSqliteQuery creates a new generator for def. The table name is
// prefix + def.Name.
func NewSqliteQuery(def *schema.ResourceDefinition, prefix string) (*SqliteQuery, error) {
	if def == nil {
		return nil, fmt.Errorf("ResourceDefinition cannot be nil")
	}
	if def.Name == "" {
		return nil, fmt.Errorf("resource must define a name")
	}
	return &SqliteQuery{def: def, columns: def.Columns(), table: prefix + def.Name}, nil
}

// TableName returns the unquoted table name.
func (s *SqliteQuery) TableName() string {
	return s.table
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// getFieldSQL returns the quoted column for a declared field.
func (s *SqliteQuery) getFieldSQL(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("field name cannot be empty")
	}
	if _, ok := s.columns[field]; !ok {
		return "", fmt.Errorf("field '%s' not found in resource '%s'", field, s.def.Name)
	}
	return quoteIdentifier(field), nil
}

// prepareValueForQuery converts a coerced Go value to the representation the
// column stores.
func (s *SqliteQuery) prepareValueForQuery(field string, value any) (any, error) {
	fieldType, ok := s.columns[field]
	if !ok {
		return nil, fmt.Errorf("field '%s' not found in resource '%s' for value preparation", field, s.def.Name)
	}
	if value == nil {
		return nil, nil
	}

	switch fieldType {
	case schema.FieldTypeBoolean:
		switch v := value.(type) {
		case bool:
			if v {
				return 1, nil
			}
			return 0, nil
		case string:
			switch strings.ToLower(v) {
			case "true", "1":
				return 1, nil
			case "false", "0":
				return 0, nil
			}
		}
		return nil, fmt.Errorf("expected boolean for field '%s', got %T", field, value)

	case schema.FieldTypeNumber:
		if f, ok := query.ToFloat64(value); ok {
			return f, nil
		}
		return nil, fmt.Errorf("expected number for field '%s', got %T", field, value)

	case schema.FieldTypeDate:
		if t, ok := query.ToTime(value); ok {
			return t.UTC().Format(dateLayout), nil
		}
		return nil, fmt.Errorf("expected date for field '%s', got %T", field, value)

	default:
		switch v := value.(type) {
		case string:
			return v, nil
		case json.RawMessage:
			return string(v), nil
		}
		return fmt.Sprintf("%v", value), nil
	}
}

// GenerateCountSQL creates a COUNT(*) statement for the descriptor's filters
// and search. Sort and page are ignored.
func (s *SqliteQuery) GenerateCountSQL(d *query.QueryDescriptor) (string, []any, error) {
	if d == nil {
		return "", nil, fmt.Errorf("QueryDescriptor cannot be nil")
	}
	where, params, err := s.buildWhereClause(d)
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(s.table)))
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	return sb.String() + ";", params, nil
}

// GenerateSelectSQL creates a SELECT statement returning the descriptor's page
// in sort order.
func (s *SqliteQuery) GenerateSelectSQL(d *query.QueryDescriptor) (string, []any, error) {
	if d == nil {
		return "", nil, fmt.Errorf("QueryDescriptor cannot be nil")
	}
	where, params, err := s.buildWhereClause(d)
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause: %w", err)
	}

	var orderByClauses []string
	for _, sortCfg := range d.Sort {
		accessor, err := s.getFieldSQL(sortCfg.Field)
		if err != nil {
			return "", nil, fmt.Errorf("sort error: %w", err)
		}
		direction := "ASC"
		if sortCfg.Direction == query.SortDirectionDesc {
			direction = "DESC"
		}
		orderByClauses = append(orderByClauses, fmt.Sprintf("%s %s", accessor, direction))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(s.table)))
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	if len(orderByClauses) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(orderByClauses, ", "))
	}
	if d.Page.PageSize > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", d.Page.Limit()))
		if offset := d.Page.Offset(); offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", offset))
		}
	}
	return sb.String() + ";", params, nil
}

// buildWhereClause ANDs every filter clause and the search clause.
func (s *SqliteQuery) buildWhereClause(d *query.QueryDescriptor) (string, []any, error) {
	var clauses []string
	var params []any

	for i := range d.Filters {
		clause, err := s.buildCondition(&d.Filters[i], &params)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
	}

	if d.Search != nil {
		clause, err := s.buildSearch(d.Search, &params)
		if err != nil {
			return "", nil, err
		}
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return strings.Join(clauses, " AND "), params, nil
}

// buildCondition translates a single filter clause into a SQL condition.
func (s *SqliteQuery) buildCondition(cond *query.FilterClause, params *[]any) (string, error) {
	if cond.Operator == query.FilterOperatorNone {
		return "1=0", nil
	}

	accessor, err := s.getFieldSQL(cond.Field)
	if err != nil {
		return "", err
	}

	switch cond.Operator {
	case query.FilterOperatorEq:
		value, err := s.prepareValueForQuery(cond.Field, cond.Value)
		if err != nil {
			return "", fmt.Errorf("failed to prepare value for condition field '%s': %w", cond.Field, err)
		}
		*params = append(*params, value)
		return fmt.Sprintf("%s = ?", accessor), nil

	case query.FilterOperatorRange:
		r, ok := cond.Value.(query.Range)
		if !ok {
			return "", fmt.Errorf("range clause on field '%s' holds %T", cond.Field, cond.Value)
		}
		var parts []string
		if r.Min != nil {
			value, err := s.prepareValueForQuery(cond.Field, r.Min)
			if err != nil {
				return "", err
			}
			*params = append(*params, value)
			parts = append(parts, fmt.Sprintf("%s >= ?", accessor))
		}
		if r.Max != nil {
			value, err := s.prepareValueForQuery(cond.Field, r.Max)
			if err != nil {
				return "", err
			}
			*params = append(*params, value)
			parts = append(parts, fmt.Sprintf("%s <= ?", accessor))
		}
		if len(parts) == 0 {
			return "1=1", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil

	case query.FilterOperatorIn:
		vals, ok := cond.Value.([]any)
		if !ok || len(vals) == 0 {
			return "1=0", nil
		}
		placeholders := strings.Repeat("?,", len(vals)-1) + "?"
		for _, v := range vals {
			value, err := s.prepareValueForQuery(cond.Field, v)
			if err != nil {
				return "", err
			}
			*params = append(*params, value)
		}
		return fmt.Sprintf("%s IN (%s)", accessor, placeholders), nil

	case query.FilterOperatorExists:
		if present, _ := cond.Value.(bool); !present {
			return fmt.Sprintf("%s IS NULL", accessor), nil
		}
		return fmt.Sprintf("%s IS NOT NULL", accessor), nil

	default:
		return "", fmt.Errorf("unsupported filter operator for direct SQL: %s", cond.Operator)
	}
}

// buildSearch matches the term as a case-insensitive substring of any of the
// search fields. LIKE wildcards in the term are escaped.
func (s *SqliteQuery) buildSearch(search *query.SearchClause, params *[]any) (string, error) {
	if search.Term == "" || len(search.Fields) == 0 {
		return "", nil
	}
	pattern := "%" + escapeLike(strings.ToLower(search.Term)) + "%"

	var parts []string
	for _, field := range search.Fields {
		accessor, err := s.getFieldSQL(field)
		if err != nil {
			return "", fmt.Errorf("search error: %w", err)
		}
		*params = append(*params, pattern)
		parts = append(parts, fmt.Sprintf(`LOWER(CAST(%s AS TEXT)) LIKE ? ESCAPE '\'`, accessor))
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// GenerateInsertSQL creates an INSERT statement for one record. Columns are
// emitted in name order; keys the resource does not declare are rejected.
func (s *SqliteQuery) GenerateInsertSQL(record map[string]any) (string, []any, error) {
	if len(record) == 0 {
		return "", nil, fmt.Errorf("no fields provided for insert")
	}
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]string, 0, len(names))
	params := make([]any, 0, len(names))
	for _, name := range names {
		accessor, err := s.getFieldSQL(name)
		if err != nil {
			return "", nil, fmt.Errorf("insert error: %w", err)
		}
		value, err := s.prepareValueForQuery(name, record[name])
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, accessor)
		params = append(params, value)
	}

	placeholders := strings.Repeat("?, ", len(columns)-1) + "?"
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);", quoteIdentifier(s.table), strings.Join(columns, ", "), placeholders), params, nil
}

// parseStoredDate reads a value written with dateLayout.
func parseStoredDate(v string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return time.Time{}, false
		}
	}
	return t.UTC(), true
}
