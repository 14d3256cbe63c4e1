// Package sqlite reads table metadata from SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stokaro/albumstore/dbschema/types"
)

var _ types.SchemaReader = (*Reader)(nil)

// Reader reads schema from SQLite databases
type Reader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite schema reader
func NewSQLiteReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ReadSchema reads every user table with its columns.
//
// Table names are collected before any column is read: the connection pool may hold a
// single connection, so no two result sets can be open at once.
func (r *Reader) ReadSchema(ctx context.Context) (*types.DBSchema, error) {
	tables, err := r.readTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	for i := range tables {
		columns, err := r.readColumns(ctx, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for table %s: %w", tables[i].Name, err)
		}
		tables[i].Columns = columns
	}
	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables(ctx context.Context) ([]types.DBTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		var table types.DBTable
		if err := rows.Scan(&table.Name, &table.Type); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		table.Type = strings.ToUpper(table.Type)
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (r *Reader) readColumns(ctx context.Context, table string) ([]types.DBColumn, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var (
			col     types.DBColumn
			cid     int
			notNull bool
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.ColumnDefault, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.OrdinalPosition = cid + 1
		col.ColumnType = col.DataType
		col.IsPrimaryKey = pk > 0
		col.IsNullable = "YES"
		if notNull || col.IsPrimaryKey {
			col.IsNullable = "NO"
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
