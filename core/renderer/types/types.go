// Package types defines the dialect-neutral table description and the contract every
// SQL dialect renderer implements.
package types

import (
	"github.com/stokaro/albumstore/core/mapping"
)

// ColumnSpec is one column of a table to render.
type ColumnSpec struct {
	Name     string
	Kind     mapping.Kind
	Type     string // explicit SQL type; overrides Kind when set
	Length   int    // character length for string columns; 0 means the dialect default
	Nullable bool
	Primary  bool
}

// TableSpec is a table to render. The identifier column comes first.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

// PrimaryKey returns the identifier column.
func (t TableSpec) PrimaryKey() (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Primary {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ColumnNames returns the column names in order.
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Dialect renders the dialect-specific fragments of a statement.
type Dialect interface {
	// Name returns the platform name (see core/platform).
	Name() string
	// Quote quotes an identifier.
	Quote(ident string) string
	// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// ColumnType returns the SQL type of a column.
	ColumnType(c ColumnSpec) string
	// CreateTable renders a CREATE TABLE statement.
	CreateTable(t TableSpec, ifNotExists bool) string
	// DropTable renders a DROP TABLE statement.
	DropTable(name string, ifExists bool) string
}
