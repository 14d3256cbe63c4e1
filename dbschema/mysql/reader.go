// Package mysql reads table metadata from MySQL and MariaDB databases.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stokaro/albumstore/dbschema/types"
)

var _ types.SchemaReader = (*Reader)(nil)

// Reader reads schema from MySQL-compatible databases
type Reader struct {
	db     *sql.DB
	schema string
}

// NewMySQLReader creates a reader for the given database name. An empty name reads
// the database selected by the connection.
func NewMySQLReader(db *sql.DB, schema string) *Reader {
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads every base table of the database with its columns.
func (r *Reader) ReadSchema(ctx context.Context) (*types.DBSchema, error) {
	schema := r.schema
	if schema == "" {
		if err := r.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schema); err != nil {
			return nil, fmt.Errorf("failed to read current database: %w", err)
		}
	}

	tables, err := r.readTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	for i := range tables {
		columns, err := r.readColumns(ctx, schema, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for table %s: %w", tables[i].Name, err)
		}
		tables[i].Columns = columns
	}
	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables(ctx context.Context, schema string) ([]types.DBTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT table_name, table_type, COALESCE(table_comment, '')
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		var table types.DBTable
		if err := rows.Scan(&table.Name, &table.Type, &table.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (r *Reader) readColumns(ctx context.Context, schema, table string) ([]types.DBColumn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			column_name,
			data_type,
			column_type,
			is_nullable,
			column_default,
			character_maximum_length,
			ordinal_position,
			column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		var key string
		err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.ColumnType,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.CharacterMaxLength,
			&col.OrdinalPosition,
			&key,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.IsPrimaryKey = key == "PRI"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
