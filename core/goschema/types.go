// Package goschema reads table mappings declared as comment annotations on Go structs.
//
// An entity is a struct carrying a table directive. Its exported fields are columns:
// fields annotated with a field directive take their column name and SQL type from the
// annotation, the rest are mapped by convention (snake_case column name, SQL type
// inferred from the Go type by the renderer).
//
//	//migrator:schema:table name="albums"
//	type Album struct {
//	    //migrator:schema:field name="album_id" type="BIGINT" primary="true" generator="increment"
//	    ID *int64
//
//	    Title string // column "title" by convention
//
//	    //migrator:schema:field name="release_date" type="DATE" not_null="true"
//	    ReleaseDate Date
//
//	    //migrator:schema:transient
//	    Cached bool // not persisted
//	}
package goschema

// Database is the set of entity tables discovered in one or more Go source files.
type Database struct {
	Tables []Table
	Fields []Field
}

// Table is a //migrator:schema:table directive bound to the struct it documents.
type Table struct {
	StructName string // Name of the Go struct
	Name       string // Table name
	Comment    string // Table comment
}

// Field is one persistent attribute of a mapped struct.
//
// Annotated fields come from //migrator:schema:field directives:
//
//	//migrator:schema:field name="release_date" type="DATE" not_null="true"
//	ReleaseDate Date
//
// Platform specific overrides are written as platform.<dialect>.<key>:
//
//	//migrator:schema:field name="album_id" type="BIGINT" primary="true" platform.sqlite.type="INTEGER"
type Field struct {
	StructName string                       // Name of the Go struct this field belongs to
	FieldName  string                       // Name of the Go struct field
	GoType     string                       // Go type expression as written (e.g. "*int64", "Date")
	Name       string                       // Column name
	Type       string                       // SQL type; empty means inferred from GoType
	Length     string                       // Length for inferred character types
	Nullable   bool                         // Whether the column allows NULL values
	Primary    bool                         // Whether this is the identifier column
	Generator  string                       // Identifier generation strategy (e.g. "increment")
	Comment    string                       // Column comment
	Convention bool                         // True when the field carried no field directive
	Overrides  map[string]map[string]string // Platform-specific overrides (e.g. platform.sqlite.type)
}

// TypeFor returns the SQL type for the given platform, honoring platform overrides.
func (f Field) TypeFor(dialect string) string {
	if o, ok := f.Overrides[dialect]; ok {
		if t := o["type"]; t != "" {
			return t
		}
	}
	return f.Type
}

// Table returns the table directive declared on structName.
func (d *Database) Table(structName string) (Table, bool) {
	for _, t := range d.Tables {
		if t.StructName == structName {
			return t, true
		}
	}
	return Table{}, false
}

// TableByName returns the table directive with the given table name.
func (d *Database) TableByName(name string) (Table, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// FieldsOf returns the fields of structName in declaration order.
func (d *Database) FieldsOf(structName string) []Field {
	var fields []Field
	for _, f := range d.Fields {
		if f.StructName == structName {
			fields = append(fields, f)
		}
	}
	return fields
}
