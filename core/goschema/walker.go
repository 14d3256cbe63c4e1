package goschema

import (
	"os"
	"path/filepath"
	"strings"
)

// ParseDir parses all Go files in the given root directory and its subdirectories
// to find all entity definitions.
//
// Test files and vendor directories are skipped. When the same struct is found in more
// than one file (for example a copied fixture) the first definition wins, so the
// result is stable for a given tree.
//
// Example:
//
//	db, err := goschema.ParseDir("./model")
//	if err != nil {
//		return fmt.Errorf("failed to parse entities: %w", err)
//	}
//	for _, table := range db.Tables {
//		fmt.Println(table.Name, len(db.FieldsOf(table.StructName)))
//	}
func ParseDir(rootDir string) (*Database, error) {
	result := &Database{
		Tables: []Table{},
		Fields: []Field{},
	}

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if info.Name() == "vendor" || info.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip non-Go files
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		// Skip test files
		if strings.HasSuffix(path, "_test.go") {
			return nil
		}

		database, err := ParseFile(path)
		if err != nil {
			return err
		}

		result.Tables = append(result.Tables, database.Tables...)
		result.Fields = append(result.Fields, database.Fields...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	deduplicate(result)
	return result, nil
}

// deduplicate drops repeated struct definitions, keeping the first one seen and the
// original declaration order.
func deduplicate(r *Database) {
	seenTables := make(map[string]bool)
	tables := r.Tables[:0]
	for _, table := range r.Tables {
		if seenTables[table.StructName] {
			continue
		}
		seenTables[table.StructName] = true
		tables = append(tables, table)
	}
	r.Tables = tables

	seenFields := make(map[string]bool)
	fields := r.Fields[:0]
	for _, field := range r.Fields {
		key := field.StructName + "." + field.FieldName
		if seenFields[key] {
			continue
		}
		seenFields[key] = true
		fields = append(fields, field)
	}
	r.Fields = fields
}

// ColumnNameFor converts a Go identifier into the conventional column name:
// ReleaseDate -> release_date, AlbumID -> album_id, HTTPServer -> http_server.
func ColumnNameFor(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		lower := r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		if !lower && r >= 'A' && r <= 'Z' {
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z' || runes[i-1] >= '0' && runes[i-1] <= '9'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || (nextLower && runes[i-1] != '_') {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
