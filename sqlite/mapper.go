package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asaidimu/go-listquery/core/schema"
)

// StoreOptions configures how a SQLiteStore maps its resource to a table.
type StoreOptions struct {
	// TablePrefix is prepended to the resource name to form the table name.
	TablePrefix string
	// IfNotExists makes CreateTable tolerate an existing table.
	IfNotExists bool
	// CreateIndexes adds one index per sortable column.
	CreateIndexes bool
}

// DefaultStoreOptions returns the options used when none are supplied.
func DefaultStoreOptions() *StoreOptions {
	return &StoreOptions{
		IfNotExists:   true,
		CreateIndexes: true,
	}
}

// CreateTable executes the DDL that creates the resource's table and its
// indexes inside a single transaction.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	statements, err := s.CreateTableSQL()
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", s.generator.TableName(), err)
	}
	if s.options.CreateIndexes {
		statements = append(statements, s.CreateIndexSQL()...)
	}

	return s.inTx(ctx, func(r dbRunner) error {
		for _, stmt := range statements {
			if _, err := r.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
			}
		}
		return nil
	})
}

// CreateTableSQL generates the CREATE TABLE statement for the resource. The
// identifier column is the primary key and comes first; the rest follow in
// name order.
func (s *SQLiteStore) CreateTableSQL() ([]string, error) {
	idField := s.def.Identifier()
	columns := s.def.Columns()

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if s.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(quoteIdentifier(s.generator.TableName()) + " (\n")

	defs := []string{"    " + buildColumnDefinition(idField, columns[idField]) + " PRIMARY KEY"}
	for _, name := range sortedColumns(columns) {
		if name == idField {
			continue
		}
		defs = append(defs, "    "+buildColumnDefinition(name, columns[name]))
	}
	sb.WriteString(strings.Join(defs, ",\n"))
	sb.WriteString("\n);")
	return []string{sb.String()}, nil
}

// CreateIndexSQL generates one index per sortable column other than the
// identifier, which the primary key already covers.
func (s *SQLiteStore) CreateIndexSQL() []string {
	table := s.generator.TableName()
	var statements []string
	for _, field := range s.def.SortFieldsFor(true) {
		if field == s.def.Identifier() {
			continue
		}
		indexName := fmt.Sprintf("idx_%s_%s", table, field)
		statements = append(statements, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
			quoteIdentifier(indexName), quoteIdentifier(table), quoteIdentifier(field)))
	}
	return statements
}

// DropTable drops the resource's table.
func (s *SQLiteStore) DropTable(ctx context.Context) error {
	table := quoteIdentifier(s.generator.TableName())
	if _, err := s.runner().ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// TableExists checks whether the resource's table exists.
func (s *SQLiteStore) TableExists(ctx context.Context) (bool, error) {
	const stmt = "SELECT name FROM sqlite_master WHERE type='table' AND name = ?;"
	var name string
	err := s.runner().QueryRowContext(ctx, stmt, s.generator.TableName()).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// buildColumnDefinition constructs the DDL for a single column.
func buildColumnDefinition(name string, fieldType schema.FieldType) string {
	return quoteIdentifier(name) + " " + GetColumnType(fieldType)
}

// GetColumnType maps a schema.FieldType to its SQLite column type.
func GetColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeIdentifier, schema.FieldTypeDate:
		return "TEXT"
	case schema.FieldTypeNumber:
		return "REAL"
	case schema.FieldTypeBoolean:
		return "INTEGER"
	default:
		return "BLOB"
	}
}

func sortedColumns(columns map[string]schema.FieldType) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
