// Package mapping declares how Go entity types map onto relational tables.
//
// A mapping is an explicit descriptor built once at startup:
//
//	var AlbumMapping = must.Must(mapping.New("Album", func() *Album { return &Album{} }).
//		Table("albums").
//		ID("ID", "album_id", mapping.Increment, albumID, setAlbumID).
//		Column(mapping.Attr("Title", func(a *Album) *string { return &a.Title })).
//		Column(mapping.Attr("ReleaseDate", func(a *Album) *Date { return &a.ReleaseDate }).
//			Name("release_date").NotNull()).
//		Build())
//
// Attributes without an explicit column name use the snake_case form of the field name.
// The factory function is the only way the persistence layer instantiates entities.
package mapping

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/stokaro/albumstore/core/goschema"
)

// Kind is the storage kind of an attribute, independent of any SQL dialect.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt64
	KindString
	KindBool
	KindFloat64
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindFloat64:
		return "float64"
	case KindDate:
		return "date"
	default:
		return "invalid"
	}
}

// Kinded is implemented by value types that declare their own storage kind.
type Kinded interface {
	StorageKind() Kind
}

// Strategy is an identifier generation strategy.
type Strategy string

const (
	// Increment computes the next unused integer identifier in the provider,
	// starting from the largest identifier present in the table.
	Increment Strategy = "increment"
	// Assigned leaves the identifier to the application.
	Assigned Strategy = "assigned"
)

// ColumnInfo describes one mapped column.
type ColumnInfo struct {
	Field    string // Go field name
	Name     string // column name
	Kind     Kind
	Nullable bool
	Length   int // character length; 0 means the dialect default
	Primary  bool
}

// Descriptor is the type-erased view of an entity mapping.
type Descriptor interface {
	EntityName() string
	TableName() string
	Strategy() Strategy
	IDColumn() ColumnInfo
	// Columns returns the attribute columns (identifier excluded) in declaration order.
	Columns() []ColumnInfo
	GoType() reflect.Type
}

// Attribute binds one struct field of E to a column.
type Attribute[E any] struct {
	info   ColumnInfo
	value  func(*E) any
	target func(*E) any
	copy   func(dst, src *E)
	err    error
}

// Attr binds the field reached through addr. The storage kind is inferred from T.
func Attr[E any, T any](field string, addr func(*E) *T) *Attribute[E] {
	a := &Attribute[E]{
		info: ColumnInfo{
			Field:    field,
			Name:     goschema.ColumnNameFor(field),
			Nullable: true,
		},
		value:  func(e *E) any { return *addr(e) },
		target: func(e *E) any { return nullTarget[T]{dst: addr(e)} },
		copy:   func(dst, src *E) { *addr(dst) = *addr(src) },
	}

	typ := reflect.TypeFor[T]()
	a.info.Kind = kindOf(typ)
	switch {
	case a.info.Kind == KindInvalid:
		a.err = fmt.Errorf("attribute %s: unsupported type %s", field, typ)
	case !typ.Comparable():
		a.err = fmt.Errorf("attribute %s: type %s is not comparable", field, typ)
	}
	return a
}

// Name overrides the conventional column name.
func (a *Attribute[E]) Name(column string) *Attribute[E] {
	a.info.Name = column
	return a
}

// NotNull marks the column as required.
func (a *Attribute[E]) NotNull() *Attribute[E] {
	a.info.Nullable = false
	return a
}

// Length sets the character length of a string column.
func (a *Attribute[E]) Length(n int) *Attribute[E] {
	a.info.Length = n
	return a
}

// Info returns the column description.
func (a *Attribute[E]) Info() ColumnInfo {
	return a.info
}

var kindedType = reflect.TypeFor[Kinded]()

func kindOf(t reflect.Type) Kind {
	if t.Implements(kindedType) {
		return reflect.Zero(t).Interface().(Kinded).StorageKind()
	}
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int32, reflect.Int64:
		return KindInt64
	case reflect.Bool:
		return KindBool
	case reflect.Float32, reflect.Float64:
		return KindFloat64
	default:
		return KindInvalid
	}
}

// nullTarget scans into *T, storing the zero value for SQL NULL.
type nullTarget[T any] struct {
	dst *T
}

func (n nullTarget[T]) Scan(src any) error {
	var v sql.Null[T]
	if err := v.Scan(src); err != nil {
		return err
	}
	*n.dst = v.V
	return nil
}

type identifier[E any] struct {
	info     ColumnInfo
	strategy Strategy
	get      func(*E) (int64, bool)
	set      func(*E, int64)
}

// Entity is the mapping of the entity type E.
type Entity[E any] struct {
	name    string
	table   string
	factory func() *E
	id      identifier[E]
	attrs   []*Attribute[E]
}

var _ Descriptor = (*Entity[struct{}])(nil)

func (m *Entity[E]) EntityName() string   { return m.name }
func (m *Entity[E]) TableName() string    { return m.table }
func (m *Entity[E]) Strategy() Strategy   { return m.id.strategy }
func (m *Entity[E]) IDColumn() ColumnInfo { return m.id.info }
func (m *Entity[E]) GoType() reflect.Type { return reflect.TypeFor[E]() }

func (m *Entity[E]) Columns() []ColumnInfo {
	cols := make([]ColumnInfo, len(m.attrs))
	for i, a := range m.attrs {
		cols[i] = a.info
	}
	return cols
}

// New instantiates an empty entity through the registered factory.
func (m *Entity[E]) New() *E {
	return m.factory()
}

// ID returns the identifier of e and whether it is set.
func (m *Entity[E]) ID(e *E) (int64, bool) {
	return m.id.get(e)
}

// SetID assigns the identifier of e.
func (m *Entity[E]) SetID(e *E, id int64) {
	m.id.set(e, id)
}

// Values returns the attribute values of e in column order.
func (m *Entity[E]) Values(e *E) []any {
	values := make([]any, len(m.attrs))
	for i, a := range m.attrs {
		values[i] = a.value(e)
	}
	return values
}

// ScanTargets returns scan destinations for the identifier followed by every
// attribute column. The returned func applies the scanned identifier to e.
func (m *Entity[E]) ScanTargets(e *E) ([]any, func()) {
	var id sql.NullInt64
	targets := make([]any, 0, len(m.attrs)+1)
	targets = append(targets, &id)
	for _, a := range m.attrs {
		targets = append(targets, a.target(e))
	}
	return targets, func() {
		if id.Valid {
			m.id.set(e, id.Int64)
		}
	}
}

// CopyState copies every attribute value from src into dst. Identifiers are left alone.
func (m *Entity[E]) CopyState(dst, src *E) {
	for _, a := range m.attrs {
		a.copy(dst, src)
	}
}

// Builder assembles an Entity mapping. Errors are collected and reported by Build.
type Builder[E any] struct {
	m     *Entity[E]
	idSet bool
	errs  []error
}

// New starts a mapping for E under the given entity name. The table name defaults to
// the snake_case entity name.
func New[E any](entityName string, factory func() *E) *Builder[E] {
	return &Builder[E]{
		m: &Entity[E]{
			name:    entityName,
			table:   goschema.ColumnNameFor(entityName),
			factory: factory,
		},
	}
}

// Table binds the table name.
func (b *Builder[E]) Table(name string) *Builder[E] {
	b.m.table = name
	return b
}

// ID designates the identifier attribute.
func (b *Builder[E]) ID(field, column string, strategy Strategy, get func(*E) (int64, bool), set func(*E, int64)) *Builder[E] {
	if column == "" {
		column = goschema.ColumnNameFor(field)
	}
	b.m.id = identifier[E]{
		info: ColumnInfo{
			Field:   field,
			Name:    column,
			Kind:    KindInt64,
			Primary: true,
		},
		strategy: strategy,
		get:      get,
		set:      set,
	}
	b.idSet = true
	return b
}

// Column binds an attribute.
func (b *Builder[E]) Column(a *Attribute[E]) *Builder[E] {
	if a.err != nil {
		b.errs = append(b.errs, a.err)
		return b
	}
	b.m.attrs = append(b.m.attrs, a)
	return b
}

// Build validates the mapping.
func (b *Builder[E]) Build() (*Entity[E], error) {
	errs := append([]error(nil), b.errs...)
	m := b.m

	if m.name == "" {
		errs = append(errs, errors.New("entity name is required"))
	}
	if m.table == "" {
		errs = append(errs, errors.New("table name is required"))
	}
	if m.factory == nil {
		errs = append(errs, errors.New("factory function is required"))
	}
	if !b.idSet {
		errs = append(errs, errors.New("identifier is required"))
	} else {
		if m.id.get == nil || m.id.set == nil {
			errs = append(errs, errors.New("identifier accessors are required"))
		}
		switch m.id.strategy {
		case Increment, Assigned:
		default:
			errs = append(errs, fmt.Errorf("unknown identifier strategy %q", m.id.strategy))
		}
	}

	seen := map[string]string{}
	if b.idSet {
		seen[m.id.info.Name] = m.id.info.Field
	}
	for _, a := range m.attrs {
		if other, dup := seen[a.info.Name]; dup {
			errs = append(errs, fmt.Errorf("column %s is mapped by both %s and %s", a.info.Name, other, a.info.Field))
			continue
		}
		seen[a.info.Name] = a.info.Field
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid mapping for entity %s: %w", m.name, errors.Join(errs...))
	}
	return m, nil
}
