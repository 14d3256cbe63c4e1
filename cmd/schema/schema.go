// Package schema implements the commands that inspect and prepare the schema of a
// persistence unit's database.
package schema

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stokaro/albumstore/cmd/internal/unitflags"
	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/persistence"
)

func NewSchemaCommand() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema [export|validate|create]",
		Short: "Inspect or prepare the database schema of a persistence unit",
	}
	schemaCmd.AddCommand(newExportCommand())
	schemaCmd.AddCommand(newValidateCommand())
	schemaCmd.AddCommand(newCreateCommand())
	return schemaCmd
}

// newUnitCommand builds a subcommand that opens the unit with the given schema mode,
// runs fn and closes the unit.
func newUnitCommand(use, short string, mode config.SchemaMode, fn func(cmd *cobra.Command, f *persistence.Factory) error) *cobra.Command {
	flags := unitflags.New()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.OpenFactory(cmd.Context(), persistence.WithSchemaMode(mode))
			if err != nil {
				return err
			}
			defer f.Close()
			return fn(cmd, f)
		},
	}
	flags.Register(cmd)
	return cmd
}

func newExportCommand() *cobra.Command {
	return newUnitCommand("export", "Print the CREATE TABLE statements of the mapped entities", config.SchemaNone,
		func(cmd *cobra.Command, f *persistence.Factory) error {
			fmt.Fprintf(cmd.OutOrStdout(), "-- %s schema for persistence unit %s\n\n", f.Dialect(), f.Unit().Name)
			for _, stmt := range f.CreateStatements() {
				fmt.Fprintln(cmd.OutOrStdout(), stmt)
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		})
}

func newValidateCommand() *cobra.Command {
	return newUnitCommand("validate", "Check the live database against the mapped entities", config.SchemaNone,
		func(cmd *cobra.Command, f *persistence.Factory) error {
			if err := f.ValidateSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema of persistence unit %s is valid (%d entities)\n", f.Unit().Name, len(f.Mappings()))
			return nil
		})
}

func newCreateCommand() *cobra.Command {
	return newUnitCommand("create", "Create missing tables of the mapped entities", config.SchemaUpdate,
		func(cmd *cobra.Command, f *persistence.Factory) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Tables of persistence unit %s are in place\n", f.Unit().Name)
			return nil
		})
}
