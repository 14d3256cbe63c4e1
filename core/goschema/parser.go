package goschema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/stokaro/albumstore/core/goschema/internal/parseutils"
)

const (
	tableDirective     = "//migrator:schema:table"
	fieldDirective     = "//migrator:schema:field"
	transientDirective = "//migrator:schema:transient"
)

func parseTableComment(comment *ast.Comment, structName string, tables *[]Table) {
	kv := parseutils.ParseKeyValueComment(comment.Text)
	name := kv["name"]
	if name == "" {
		name = ColumnNameFor(structName)
	}
	*tables = append(*tables, Table{
		StructName: structName,
		Name:       name,
		Comment:    kv["comment"],
	})
}

func parseFieldComment(comment *ast.Comment, field *ast.Field, name *ast.Ident, structName string) Field {
	kv := parseutils.ParseKeyValueComment(comment.Text)
	column := kv["name"]
	if column == "" {
		column = ColumnNameFor(name.Name)
	}
	return Field{
		StructName: structName,
		FieldName:  name.Name,
		GoType:     typeString(field.Type),
		Name:       column,
		Type:       kv["type"],
		Length:     kv["length"],
		Nullable:   kv["not_null"] != "true" && kv["primary"] != "true",
		Primary:    kv["primary"] == "true",
		Generator:  kv["generator"],
		Comment:    kv["comment"],
		Overrides:  parseutils.ParsePlatformSpecific(kv),
	}
}

func conventionField(field *ast.Field, name *ast.Ident, structName string) Field {
	return Field{
		StructName: structName,
		FieldName:  name.Name,
		GoType:     typeString(field.Type),
		Name:       ColumnNameFor(name.Name),
		Nullable:   true,
		Convention: true,
	}
}

func tableDirectiveOf(genDecl *ast.GenDecl, typeSpec *ast.TypeSpec) *ast.Comment {
	// A directive may sit on the declaration or, inside a grouped type block, on the spec.
	for _, group := range []*ast.CommentGroup{typeSpec.Doc, genDecl.Doc} {
		if group == nil {
			continue
		}
		for _, comment := range group.List {
			if strings.HasPrefix(comment.Text, tableDirective) {
				return comment
			}
		}
	}
	return nil
}

func processFields(structName string, structType *ast.StructType, fields *[]Field) {
	for _, field := range structType.Fields.List {
		// embedded fields are not columns
		if len(field.Names) == 0 {
			continue
		}

		var directive *ast.Comment
		transient := false
		if field.Doc != nil {
			for _, comment := range field.Doc.List {
				switch {
				case strings.HasPrefix(comment.Text, fieldDirective):
					directive = comment
				case strings.HasPrefix(comment.Text, transientDirective):
					transient = true
				}
			}
		}
		if transient {
			continue
		}

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			if directive != nil {
				*fields = append(*fields, parseFieldComment(directive, field, name, structName))
				continue
			}
			*fields = append(*fields, conventionField(field, name, structName))
		}
	}
}

// ParseFile parses a single Go source file and returns the entity tables it declares.
func ParseFile(filename string) (Database, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return Database{}, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	var tables []Table
	var fields []Field

	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}
			directive := tableDirectiveOf(genDecl, typeSpec)
			if directive == nil {
				continue
			}
			structName := typeSpec.Name.Name
			parseTableComment(directive, structName, &tables)
			processFields(structName, structType, &fields)
		}
	}

	return Database{
		Tables: tables,
		Fields: fields,
	}, nil
}

func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeString(t.Elt)
	case *ast.IndexExpr:
		return typeString(t.X) + "[" + typeString(t.Index) + "]"
	default:
		return ""
	}
}
