package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/albumstore/core/goschema"
	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/platform"
	"github.com/stokaro/albumstore/core/renderer"
)

var generateCmd = &cobra.Command{
	Use:   "generate [schema|verify]",
	Short: "Generate schema from annotated Go entities or verify entity mappings",
	Long: `Generate database schema from annotated Go entities, or verify that the registered
entity mappings agree with the annotations in source.

Default behavior (no subcommand): Generate schema for all dialects from the current directory

Available subcommands:
  schema     - Generate database schema from Go entities
  verify     - Check registered entity mappings against their annotations

Examples:
  albumstore generate                                  # Generate schema for all dialects
  albumstore generate schema --dialect sqlite          # Generate schema for one dialect
  albumstore generate verify --root-dir ./model        # Verify mappings`,
	RunE: schemaCommand,
}

const (
	rootDirFlag = "root-dir"
	dialectFlag = "dialect"
)

var schemaFlags = map[string]cobraflags.Flag{
	rootDirFlag: &cobraflags.StringFlag{
		Name:  rootDirFlag,
		Value: "./",
		Usage: "Root directory to scan for Go entities",
	},
	dialectFlag: &cobraflags.StringFlag{
		Name:  dialectFlag,
		Value: "",
		Usage: "Database dialect (postgres, mysql, mariadb, sqlite). If empty, generates for all dialects",
	},
}

var verifyFlags = map[string]cobraflags.Flag{
	rootDirFlag: &cobraflags.StringFlag{
		Name:  rootDirFlag,
		Value: "./",
		Usage: "Root directory to scan for annotated Go entities",
	},
}

func NewGenerateCommand() *cobra.Command {
	generateCmd.AddCommand(newSchemaCommand())
	generateCmd.AddCommand(newVerifyCommand())
	return generateCmd
}

func newSchemaCommand() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate database schema from Go entities",
		Long: `Generate database schema from Go entities in the specified directory.

This command scans the directory recursively for Go files with migrator directives
and generates SQL schema for the specified database dialect(s).`,
		RunE: schemaCommand,
	}

	cobraflags.RegisterMap(schemaCmd, schemaFlags)
	return schemaCmd
}

func newVerifyCommand() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify registered entity mappings against their annotations",
		Long: `Parse the annotated Go entities in the specified directory and check that every
registered entity mapping declares the same table, identifier and columns.`,
		RunE: verifyCommand,
	}

	cobraflags.RegisterMap(verifyCmd, verifyFlags)
	return verifyCmd
}

func parseRootDir(rootDir string) (*goschema.Database, error) {
	absPath, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", absPath)
	}

	fmt.Printf("Scanning directory: %s\n", absPath)
	fmt.Println("=" + strings.Repeat("=", len(absPath)+19))
	fmt.Println()

	result, err := goschema.ParseDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing package: %w", err)
	}
	fmt.Printf("Found %d tables, %d fields\n", len(result.Tables), len(result.Fields))
	fmt.Println()
	return result, nil
}

func schemaCommand(_ *cobra.Command, _ []string) error {
	dialect := schemaFlags[dialectFlag].GetString()

	result, err := parseRootDir(schemaFlags[rootDirFlag].GetString())
	if err != nil {
		return err
	}

	dialects := platform.All
	if dialect != "" {
		dialects = []string{dialect}
	}

	for _, d := range dialects {
		fmt.Printf("=== %s SCHEMA ===\n", strings.ToUpper(d))
		fmt.Println()

		statements, err := renderer.GetOrderedCreateStatements(result, d)
		if err != nil {
			return fmt.Errorf("error generating %s schema: %w", d, err)
		}
		for i, statement := range statements {
			fmt.Printf("-- Table %d/%d\n", i+1, len(result.Tables))
			fmt.Println(statement)
			fmt.Println()
		}
		fmt.Println()
	}
	return nil
}

func verifyCommand(_ *cobra.Command, _ []string) error {
	result, err := parseRootDir(verifyFlags[rootDirFlag].GetString())
	if err != nil {
		return err
	}

	var failed int
	for _, d := range mapping.Registered() {
		if err := mapping.Verify(d, result); err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", d.EntityName(), err)
			continue
		}
		fmt.Printf("ok   %s (table %s)\n", d.EntityName(), d.TableName())
	}
	if failed > 0 {
		return fmt.Errorf("%d entity mapping(s) do not match their annotations", failed)
	}
	return nil
}
