// Package testutil provides shared utilities for testing Go schema parsing
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CreateTempGoFile creates a temporary Go file with the given content for testing
func CreateTempGoFile(t *testing.T, content string) string {
	t.Helper()

	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "test.go")

	err := os.WriteFile(tempFile, []byte(content), 0600)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	return tempFile
}

// WriteGoFile writes a Go file named name into dir and returns its path.
func WriteGoFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	return path
}

// BuildEntityStruct builds a Go entity with an increment identifier and one
// conventional string attribute.
func BuildEntityStruct(packageName, tableName, structName, idColumn, attrName string) string {
	return `package ` + packageName + `

//migrator:schema:table name="` + tableName + `"
type ` + structName + ` struct {
	//migrator:schema:field name="` + idColumn + `" type="BIGINT" primary="true" generator="increment"
	ID *int64

	` + attrName + ` string
}`
}
