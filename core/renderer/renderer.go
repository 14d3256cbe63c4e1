// Package renderer turns mapped tables into dialect-specific SQL: schema statements for
// the schema tools and the DML statements issued by the persistence layer at flush.
package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stokaro/albumstore/core/goschema"
	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/platform"
	"github.com/stokaro/albumstore/core/renderer/dialects/mariadb"
	"github.com/stokaro/albumstore/core/renderer/dialects/mysql"
	"github.com/stokaro/albumstore/core/renderer/dialects/postgres"
	"github.com/stokaro/albumstore/core/renderer/dialects/sqlite"
	"github.com/stokaro/albumstore/core/renderer/types"
)

// Renderer renders statements for one dialect.
type Renderer struct {
	d types.Dialect
}

// New returns the renderer for a dialect name. Aliases accepted by
// platform.NormalizeDialect are resolved.
func New(dialect string) (*Renderer, error) {
	switch platform.NormalizeDialect(dialect) {
	case platform.Postgres:
		return &Renderer{d: postgres.New()}, nil
	case platform.MySQL:
		return &Renderer{d: mysql.New()}, nil
	case platform.MariaDB:
		return &Renderer{d: mariadb.New()}, nil
	case platform.SQLite:
		return &Renderer{d: sqlite.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", dialect)
	}
}

// Dialect returns the platform name of the renderer.
func (r *Renderer) Dialect() string {
	return r.d.Name()
}

// Quote quotes an identifier.
func (r *Renderer) Quote(ident string) string {
	return r.d.Quote(ident)
}

// CreateTable renders CREATE TABLE [IF NOT EXISTS].
func (r *Renderer) CreateTable(t types.TableSpec, ifNotExists bool) string {
	return r.d.CreateTable(t, ifNotExists)
}

// DropTable renders DROP TABLE [IF EXISTS].
func (r *Renderer) DropTable(table string, ifExists bool) string {
	return r.d.DropTable(table, ifExists)
}

// Insert renders an INSERT of every column of t, in column order.
func (r *Renderer) Insert(t types.TableSpec) string {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = r.d.Quote(c.Name)
		marks[i] = r.d.Placeholder(i + 1)
	}
	return "INSERT INTO " + r.d.Quote(t.Name) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}

// Update renders an UPDATE of the given columns keyed by the identifier column.
// Arguments are bound in the order columns..., id.
func (r *Renderer) Update(table, idColumn string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = r.d.Quote(c) + " = " + r.d.Placeholder(i+1)
	}
	return "UPDATE " + r.d.Quote(table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + r.d.Quote(idColumn) + " = " + r.d.Placeholder(len(columns)+1)
}

// Delete renders a DELETE keyed by the identifier column.
func (r *Renderer) Delete(table, idColumn string) string {
	return "DELETE FROM " + r.d.Quote(table) + " WHERE " + r.d.Quote(idColumn) + " = " + r.d.Placeholder(1)
}

// SelectAll renders a full-table SELECT of every column of t.
func (r *Renderer) SelectAll(t types.TableSpec) string {
	return "SELECT " + r.columnList(t) + " FROM " + r.d.Quote(t.Name)
}

// SelectByID renders a SELECT of every column of t keyed by the identifier column.
func (r *Renderer) SelectByID(t types.TableSpec) string {
	pk, _ := t.PrimaryKey()
	return r.SelectAll(t) + " WHERE " + r.d.Quote(pk.Name) + " = " + r.d.Placeholder(1)
}

// MaxID renders the query the increment generator seeds itself from.
func (r *Renderer) MaxID(table, idColumn string) string {
	return "SELECT MAX(" + r.d.Quote(idColumn) + ") FROM " + r.d.Quote(table)
}

func (r *Renderer) columnList(t types.TableSpec) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = r.d.Quote(c.Name)
	}
	return strings.Join(cols, ", ")
}

// FromDescriptor describes the table of a mapped entity, identifier column first.
func FromDescriptor(d mapping.Descriptor) types.TableSpec {
	id := d.IDColumn()
	t := types.TableSpec{
		Name: d.TableName(),
		Columns: []types.ColumnSpec{
			{Name: id.Name, Kind: id.Kind, Primary: true},
		},
	}
	for _, c := range d.Columns() {
		t.Columns = append(t.Columns, types.ColumnSpec{
			Name:     c.Name,
			Kind:     c.Kind,
			Length:   c.Length,
			Nullable: c.Nullable,
		})
	}
	return t
}

// FromGoSchema describes an annotated table for a dialect. Annotated SQL types (and
// their platform overrides) win; unannotated fields get a type from their Go type.
func FromGoSchema(db *goschema.Database, table goschema.Table, dialect string) (types.TableSpec, error) {
	dialect = platform.NormalizeDialect(dialect)
	t := types.TableSpec{Name: table.Name}

	var primary []types.ColumnSpec
	var rest []types.ColumnSpec
	for _, f := range db.FieldsOf(table.StructName) {
		c := types.ColumnSpec{
			Name:     f.Name,
			Type:     f.TypeFor(dialect),
			Kind:     KindForGoType(f.GoType),
			Nullable: f.Nullable,
			Primary:  f.Primary,
		}
		if f.Length != "" {
			n, err := strconv.Atoi(f.Length)
			if err != nil {
				return types.TableSpec{}, fmt.Errorf("table %s, column %s: invalid length %q", table.Name, f.Name, f.Length)
			}
			c.Length = n
		}
		if c.Type == "" && c.Kind == mapping.KindInvalid {
			return types.TableSpec{}, fmt.Errorf("table %s, column %s: cannot infer SQL type for Go type %q", table.Name, f.Name, f.GoType)
		}
		if c.Primary {
			primary = append(primary, c)
			continue
		}
		rest = append(rest, c)
	}
	t.Columns = append(primary, rest...)
	return t, nil
}

// KindForGoType infers a storage kind from a Go type expression as written in source.
func KindForGoType(goType string) mapping.Kind {
	goType = strings.TrimPrefix(goType, "*")
	if i := strings.LastIndex(goType, "."); i >= 0 {
		goType = goType[i+1:]
	}
	switch goType {
	case "string":
		return mapping.KindString
	case "int", "int32", "int64", "NullInt64":
		return mapping.KindInt64
	case "bool", "NullBool":
		return mapping.KindBool
	case "float32", "float64", "NullFloat64":
		return mapping.KindFloat64
	case "Date":
		return mapping.KindDate
	case "NullString":
		return mapping.KindString
	default:
		return mapping.KindInvalid
	}
}

// GetOrderedCreateStatements renders a CREATE TABLE statement for every annotated
// table, in the order the tables were discovered.
func GetOrderedCreateStatements(db *goschema.Database, dialect string) ([]string, error) {
	r, err := New(dialect)
	if err != nil {
		return nil, err
	}
	statements := make([]string, 0, len(db.Tables))
	for _, table := range db.Tables {
		spec, err := FromGoSchema(db, table, dialect)
		if err != nil {
			return nil, err
		}
		statements = append(statements, r.CreateTable(spec, false)+";")
	}
	return statements, nil
}
