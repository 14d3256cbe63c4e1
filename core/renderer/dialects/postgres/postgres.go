package postgres

import (
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/platform"
	"github.com/stokaro/albumstore/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/albumstore/core/renderer/types"
)

var (
	_ types.Dialect = (*Renderer)(nil)
)

// Renderer provides PostgreSQL-specific SQL rendering
type Renderer struct{}

// New creates a new PostgreSQL renderer
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return platform.Postgres
}

// Quote quotes an identifier with pq's quoting rules.
func (r *Renderer) Quote(ident string) string {
	return pq.QuoteIdentifier(ident)
}

func (r *Renderer) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
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
		return "DOUBLE PRECISION"
	case mapping.KindDate:
		return "DATE"
	default:
		return fmt.Sprintf("VARCHAR(%d)", length(c))
	}
}

func (r *Renderer) CreateTable(t types.TableSpec, ifNotExists bool) string {
	return bufwriter.CreateTable(r, t.Name, columns(r, t), ifNotExists, "")
}

func (r *Renderer) DropTable(name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + r.Quote(name)
	}
	return "DROP TABLE " + r.Quote(name)
}

func length(c types.ColumnSpec) int {
	if c.Length > 0 {
		return c.Length
	}
	return 255
}

func columns(d types.Dialect, t types.TableSpec) []bufwriter.Column {
	cols := make([]bufwriter.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = bufwriter.Column{Name: c.Name, Type: d.ColumnType(c), Nullable: c.Nullable, Primary: c.Primary}
	}
	return cols
}
