package bufwriter

import (
	"strings"
)

// TableDialect is the subset of a dialect CreateTable needs.
type TableDialect interface {
	Quote(ident string) string
}

// Column is a fully resolved column definition.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Primary  bool
}

// CreateTable renders the CREATE TABLE layout shared by every dialect:
//
//	CREATE TABLE "albums" (
//	  "album_id" BIGINT NOT NULL,
//	  "title" VARCHAR(255),
//	  PRIMARY KEY ("album_id")
//	)suffix
func CreateTable(d TableDialect, table string, columns []Column, ifNotExists bool, suffix string) string {
	var w Writer

	w.WriteString("CREATE TABLE ")
	if ifNotExists {
		w.WriteString("IF NOT EXISTS ")
	}
	w.WriteLinef("%s (", d.Quote(table))

	var defs []string
	var pk []string
	for _, c := range columns {
		def := "  " + d.Quote(c.Name) + " " + c.Type
		if !c.Nullable || c.Primary {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		if c.Primary {
			pk = append(pk, d.Quote(c.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, "  PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	w.WriteLinef("%s", strings.Join(defs, ",\n"))
	w.WriteString(")" + suffix)

	return w.String()
}
