// Package sqlite provides a query.Store backed by a SQLite table. Descriptors
// are translated to parameterized SQL; coerced values are mapped to SQLite
// storage types on the way in and back to their field types on the way out.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"go.uber.org/zap"
)

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx, allowing the
// same code to run inside or outside a transaction.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore executes query descriptors for one resource against SQLite.
type SQLiteStore struct {
	db        *sql.DB
	tx        *sql.Tx
	def       *schema.ResourceDefinition
	generator *SqliteQuery
	logger    *zap.Logger
	options   *StoreOptions
}

var _ query.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store for def on db.
func NewSQLiteStore(db *sql.DB, def *schema.ResourceDefinition, logger *zap.Logger, options *StoreOptions) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultStoreOptions()
	}
	generator, err := NewSqliteQuery(def, options.TablePrefix)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{
		db:        db,
		def:       def,
		generator: generator,
		logger:    logger.With(zap.String("resource", def.Name)),
		options:   options,
	}, nil
}

// WithTx returns a copy of the store whose statements run inside tx.
func (s *SQLiteStore) WithTx(tx *sql.Tx) *SQLiteStore {
	c := *s
	c.tx = tx
	return &c
}

// runner returns the active transaction or the connection pool.
func (s *SQLiteStore) runner() dbRunner {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// inTx runs fn in a transaction, reusing the active one if the store has it.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(dbRunner) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows matching the descriptor.
func (s *SQLiteStore) Count(ctx context.Context, d *query.QueryDescriptor) (int64, error) {
	sqlQuery, queryParams, err := s.generator.GenerateCountSQL(d)
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	s.logger.Debug("Executing SQL COUNT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	var total int64
	if err := s.runner().QueryRowContext(ctx, sqlQuery, queryParams...).Scan(&total); err != nil {
		s.logger.Error("Failed to execute COUNT query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute COUNT query: %w", err)
	}
	return total, nil
}

// Fetch returns the rows on the descriptor's page.
func (s *SQLiteStore) Fetch(ctx context.Context, d *query.QueryDescriptor) ([]schema.Document, error) {
	sqlQuery, queryParams, err := s.generator.GenerateSelectSQL(d)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	s.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	rows, err := s.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readRows(s.logger, s.generator.columns, rows)
}

// InsertDocuments inserts docs in one transaction and returns the number of
// rows written.
func (s *SQLiteStore) InsertDocuments(ctx context.Context, docs []schema.Document) (int, error) {
	inserted := 0
	err := s.inTx(ctx, func(r dbRunner) error {
		for _, doc := range docs {
			sqlQuery, queryParams, err := s.generator.GenerateInsertSQL(doc)
			if err != nil {
				return fmt.Errorf("failed to generate SQL insert: %w", err)
			}
			s.logger.Debug("Executing SQL INSERT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))
			if _, err := r.ExecContext(ctx, sqlQuery, queryParams...); err != nil {
				return fmt.Errorf("failed to execute INSERT statement: %w", err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// readRows reads all rows into documents, converting stored values back to
// the declared field types.
func readRows(logger *zap.Logger, columns map[string]schema.FieldType, rows *sql.Rows) ([]schema.Document, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []schema.Document{}
	for rows.Next() {
		row := make(schema.Document, len(names))
		values := make([]any, len(names))
		scanArgs := make([]any, len(names))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range names {
			val := values[i]
			if b, isBytes := val.([]byte); isBytes {
				val = string(b)
			}
			if val == nil {
				row[col] = nil
				continue
			}

			fieldType, ok := columns[col]
			if !ok {
				logger.Warn("Column not declared by resource, using raw value", zap.String("column", col))
				row[col] = val
				continue
			}

			switch fieldType {
			case schema.FieldTypeBoolean:
				if intVal, isInt := val.(int64); isInt {
					row[col] = intVal != 0
				} else {
					row[col] = val
				}
			case schema.FieldTypeNumber:
				if intVal, isInt := val.(int64); isInt {
					row[col] = float64(intVal)
				} else {
					row[col] = val
				}
			case schema.FieldTypeDate:
				if strVal, isString := val.(string); isString {
					if t, parsed := parseStoredDate(strVal); parsed {
						row[col] = t
						continue
					}
				}
				row[col] = val
			default:
				row[col] = val
			}
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}
