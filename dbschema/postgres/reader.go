package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stokaro/albumstore/dbschema/types"
)

var _ types.SchemaReader = (*Reader)(nil)

// Reader reads schema from PostgreSQL databases
type Reader struct {
	db     *sql.DB
	schema string
}

// NewPostgreSQLReader creates a new PostgreSQL schema reader
func NewPostgreSQLReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads every table of the schema with its columns.
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

	if err := r.markPrimaryKeys(ctx, tables); err != nil {
		return nil, fmt.Errorf("failed to read primary keys: %w", err)
	}

	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables(ctx context.Context) ([]types.DBTable, error) {
	tablesQuery := `
		SELECT table_name, table_type,
		       COALESCE(obj_description(c.oid), '') as table_comment
		FROM information_schema.tables t
		LEFT JOIN pg_class c ON c.relname = t.table_name
		LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE t.table_schema = $1 AND (n.nspname = $1 OR n.nspname IS NULL)
		ORDER BY table_name`

	rows, err := r.db.QueryContext(ctx, tablesQuery, r.schema)
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

func (r *Reader) readColumns(ctx context.Context, tableName string) ([]types.DBColumn, error) {
	columnsQuery := `
		SELECT
			column_name,
			data_type,
			udt_name,
			is_nullable,
			column_default,
			character_maximum_length,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := r.db.QueryContext(ctx, columnsQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.UDTName,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.CharacterMaxLength,
			&col.OrdinalPosition,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (r *Reader) markPrimaryKeys(ctx context.Context, tables []types.DBTable) error {
	pkQuery := `
		SELECT kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'`

	rows, err := r.db.QueryContext(ctx, pkQuery, r.schema)
	if err != nil {
		return fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return fmt.Errorf("failed to scan primary key: %w", err)
		}
		markPrimary(tables, table, column)
	}
	return rows.Err()
}

func markPrimary(tables []types.DBTable, table, column string) {
	for i := range tables {
		if tables[i].Name != table {
			continue
		}
		for j := range tables[i].Columns {
			if tables[i].Columns[j].Name == column {
				tables[i].Columns[j].IsPrimaryKey = true
			}
		}
	}
}
