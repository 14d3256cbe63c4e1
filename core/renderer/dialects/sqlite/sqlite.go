package sqlite

import (
	"strings"

	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/platform"
	"github.com/stokaro/albumstore/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/albumstore/core/renderer/types"
)

var (
	_ types.Dialect = (*Renderer)(nil)
)

// Renderer provides SQLite-specific SQL rendering
type Renderer struct{}

// New creates a new SQLite renderer
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return platform.SQLite
}

func (r *Renderer) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (r *Renderer) Placeholder(int) string {
	return "?"
}

// ColumnType maps kinds onto SQLite type affinities. DATE keeps its declared name so
// the driver reads the column back as a date.
func (r *Renderer) ColumnType(c types.ColumnSpec) string {
	if c.Type != "" {
		return c.Type
	}
	switch c.Kind {
	case mapping.KindInt64, mapping.KindBool:
		return "INTEGER"
	case mapping.KindFloat64:
		return "REAL"
	case mapping.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func (r *Renderer) CreateTable(t types.TableSpec, ifNotExists bool) string {
	cols := make([]bufwriter.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = bufwriter.Column{Name: c.Name, Type: r.ColumnType(c), Nullable: c.Nullable, Primary: c.Primary}
	}
	return bufwriter.CreateTable(r, t.Name, cols, ifNotExists, "")
}

func (r *Renderer) DropTable(name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + r.Quote(name)
	}
	return "DROP TABLE " + r.Quote(name)
}
