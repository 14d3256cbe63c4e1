// Package types describes schema metadata read back from a live database.
package types

import (
	"context"
)

// DBSchema represents the tables read from a database
type DBSchema struct {
	Tables []DBTable `json:"tables"`
}

// Table returns the table with the given name.
func (s *DBSchema) Table(name string) (DBTable, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return DBTable{}, false
}

// DBTable represents a database table
type DBTable struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"` // TABLE, VIEW, etc.
	Comment string     `json:"comment"`
	Columns []DBColumn `json:"columns"`
}

// Column returns the column with the given name.
func (t DBTable) Column(name string) (DBColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return DBColumn{}, false
}

// DBColumn represents a database column
type DBColumn struct {
	Name               string  `json:"name"`
	DataType           string  `json:"data_type"`
	UDTName            string  `json:"udt_name"`             // PostgreSQL underlying type name
	ColumnType         string  `json:"column_type"`          // MySQL full column type, e.g. varchar(255)
	IsNullable         string  `json:"is_nullable"`          // YES/NO
	ColumnDefault      *string `json:"column_default"`       // Can be NULL
	CharacterMaxLength *int    `json:"character_max_length"` // For VARCHAR, etc.
	OrdinalPosition    int     `json:"ordinal_position"`
	IsPrimaryKey       bool    `json:"is_primary_key"` // Derived field
}

// Nullable reports whether the column accepts NULL.
func (c DBColumn) Nullable() bool {
	return c.IsNullable == "YES"
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // postgres, mysql, mariadb, sqlite
	Version string `json:"version"`
	Schema  string `json:"schema"` // public, database name, main
	URL     string `json:"url"`    // connection URL with the password redacted
}

// SchemaReader reads the user tables of a database.
type SchemaReader interface {
	ReadSchema(ctx context.Context) (*DBSchema, error)
}
