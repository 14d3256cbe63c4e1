// Package mysqllike holds the rendering shared by MySQL and MariaDB.
package mysqllike

import (
	"fmt"
	"strings"

	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/albumstore/core/renderer/types"
)

// Renderer renders SQL for the MySQL family.
type Renderer struct {
	dialect string
}

// New creates a renderer reporting the given dialect name.
func New(dialect string) *Renderer {
	return &Renderer{dialect: dialect}
}

func (r *Renderer) Name() string {
	return r.dialect
}

// Quote wraps an identifier in backticks, doubling embedded backticks.
func (r *Renderer) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (r *Renderer) Placeholder(int) string {
	return "?"
}

func (r *Renderer) ColumnType(c types.ColumnSpec) string {
	if c.Type != "" {
		return c.Type
	}
	switch c.Kind {
	case mapping.KindInt64:
		return "BIGINT"
	case mapping.KindBool:
		return "BOOLEAN"
	case mapping.KindFloat64:
		return "DOUBLE"
	case mapping.KindDate:
		return "DATE"
	default:
		n := c.Length
		if n <= 0 {
			n = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	}
}

func (r *Renderer) CreateTable(t types.TableSpec, ifNotExists bool) string {
	cols := make([]bufwriter.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = bufwriter.Column{Name: c.Name, Type: r.ColumnType(c), Nullable: c.Nullable, Primary: c.Primary}
	}
	return bufwriter.CreateTable(r, t.Name, cols, ifNotExists, " ENGINE=InnoDB")
}

func (r *Renderer) DropTable(name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + r.Quote(name)
	}
	return "DROP TABLE " + r.Quote(name)
}
