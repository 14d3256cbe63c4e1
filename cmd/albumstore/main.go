// Command albumstore manages an album catalogue stored through a persistence unit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/stokaro/albumstore/cmd/albums"
	"github.com/stokaro/albumstore/cmd/generate"
	"github.com/stokaro/albumstore/cmd/schema"
	_ "github.com/stokaro/albumstore/model"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "albumstore",
		Short:        "Album catalogue on top of a small entity persistence layer",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(generate.NewGenerateCommand())
	rootCmd.AddCommand(schema.NewSchemaCommand())
	rootCmd.AddCommand(albums.NewAlbumsCommand())
	rootCmd.AddCommand(albums.NewDemoCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
