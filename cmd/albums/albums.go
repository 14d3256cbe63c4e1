// Package albums implements the album catalogue commands.
package albums

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stokaro/albumstore/cmd/internal/unitflags"
	"github.com/stokaro/albumstore/model"
	"github.com/stokaro/albumstore/persistence"
)

const (
	titleFlag       = "title"
	releaseDateFlag = "release-date"
	idFlag          = "id"
)

func NewAlbumsCommand() *cobra.Command {
	albumsCmd := &cobra.Command{
		Use:   "albums [list|add|rename|remove]",
		Short: "Manage the album catalogue",
	}
	albumsCmd.AddCommand(newListCommand())
	albumsCmd.AddCommand(newAddCommand())
	albumsCmd.AddCommand(newRenameCommand())
	albumsCmd.AddCommand(newRemoveCommand())
	return albumsCmd
}

// withSession opens the persistence unit and a session, runs fn and closes both.
func withSession(ctx context.Context, flags unitflags.Set, fn func(s *persistence.Session) error) error {
	f, err := flags.OpenFactory(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := f.CreateSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newListCommand() *cobra.Command {
	flags := unitflags.New()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every album",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), flags, func(s *persistence.Session) error {
				albums, err := persistence.Query[model.Album](cmd.Context(), s, "FROM Album")
				if err != nil {
					return err
				}
				return printAlbums(cmd.OutOrStdout(), albums)
			})
		},
	}
	flags.Register(cmd)
	return cmd
}

// printAlbums writes albums as a table ordered by identifier.
func printAlbums(w io.Writer, albums []*persistence.Handle[model.Album]) error {
	slices.SortFunc(albums, func(a, b *persistence.Handle[model.Album]) int {
		return cmp.Compare(*a.Entity().ID, *b.Entity().ID)
	})

	title := cases.Title(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", title.String("id"), title.String("title"), title.String("release date"))
	for _, h := range albums {
		a := h.Entity()
		fmt.Fprintf(tw, "%d\t%s\t%s\n", *a.ID, a.Title, a.ReleaseDate)
	}
	fmt.Fprintf(tw, "\n%d album(s)\n", len(albums))
	return tw.Flush()
}

func newAddCommand() *cobra.Command {
	flags := unitflags.New()
	albumFlags := map[string]cobraflags.Flag{
		titleFlag: &cobraflags.StringFlag{
			Name:  titleFlag,
			Value: "",
			Usage: "Album title",
		},
		releaseDateFlag: &cobraflags.StringFlag{
			Name:  releaseDateFlag,
			Value: "",
			Usage: "Release date as YYYY-MM-DD (required)",
		},
	}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an album",
		RunE: func(cmd *cobra.Command, _ []string) error {
			released, err := model.ParseDate(albumFlags[releaseDateFlag].GetString())
			if err != nil {
				return err
			}
			album := model.NewAlbum(albumFlags[titleFlag].GetString(), released)

			return withSession(cmd.Context(), flags, func(s *persistence.Session) error {
				err := s.RunInTransaction(cmd.Context(), func(ctx context.Context) error {
					return persistence.Persist(ctx, s, persistence.NewTransient(album))
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", album)
				return nil
			})
		},
	}
	flags.Register(cmd)
	cobraflags.RegisterMap(cmd, albumFlags)
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid album id %q: %w", value, err)
	}
	return id, nil
}

func newRenameCommand() *cobra.Command {
	flags := unitflags.New()
	renameFlags := map[string]cobraflags.Flag{
		idFlag: &cobraflags.StringFlag{
			Name:  idFlag,
			Value: "",
			Usage: "Identifier of the album (required)",
		},
		titleFlag: &cobraflags.StringFlag{
			Name:  titleFlag,
			Value: "",
			Usage: "New album title",
		},
	}
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Change the title of an album",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseID(renameFlags[idFlag].GetString())
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), flags, func(s *persistence.Session) error {
				return s.RunInTransaction(cmd.Context(), func(ctx context.Context) error {
					h, err := persistence.Find[model.Album](ctx, s, id)
					if err != nil {
						return err
					}
					h.Entity().Title = renameFlags[titleFlag].GetString()
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s\n", h.Entity())
					return nil
				})
			})
		},
	}
	flags.Register(cmd)
	cobraflags.RegisterMap(cmd, renameFlags)
	return cmd
}

func newRemoveCommand() *cobra.Command {
	flags := unitflags.New()
	removeFlags := map[string]cobraflags.Flag{
		idFlag: &cobraflags.StringFlag{
			Name:  idFlag,
			Value: "",
			Usage: "Identifier of the album (required)",
		},
	}
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an album",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseID(removeFlags[idFlag].GetString())
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), flags, func(s *persistence.Session) error {
				return s.RunInTransaction(cmd.Context(), func(ctx context.Context) error {
					h, err := persistence.Find[model.Album](ctx, s, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removing %s\n", h.Entity())
					return persistence.Remove(ctx, s, h)
				})
			})
		},
	}
	flags.Register(cmd)
	cobraflags.RegisterMap(cmd, removeFlags)
	return cmd
}
