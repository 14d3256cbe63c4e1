package mysql

import (
	"github.com/stokaro/albumstore/core/platform"
	"github.com/stokaro/albumstore/core/renderer/dialects/mysqllike"
	"github.com/stokaro/albumstore/core/renderer/types"
)

var (
	_ types.Dialect = (*Renderer)(nil)
)

// Renderer provides MySQL-specific SQL rendering
type Renderer struct {
	r *mysqllike.Renderer
}

// New creates a new MySQL renderer
func New() *Renderer {
	return &Renderer{
		r: mysqllike.New(platform.MySQL),
	}
}

func (r *Renderer) Name() string {
	return r.r.Name()
}

func (r *Renderer) Quote(ident string) string {
	return r.r.Quote(ident)
}

func (r *Renderer) Placeholder(n int) string {
	return r.r.Placeholder(n)
}

func (r *Renderer) ColumnType(c types.ColumnSpec) string {
	return r.r.ColumnType(c)
}

// CreateTable renders MySQL-specific CREATE TABLE statements
func (r *Renderer) CreateTable(t types.TableSpec, ifNotExists bool) string {
	return r.r.CreateTable(t, ifNotExists)
}

// DropTable renders MySQL-specific DROP TABLE statements
func (r *Renderer) DropTable(name string, ifExists bool) string {
	return r.r.DropTable(name, ifExists)
}
