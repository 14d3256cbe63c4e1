package albums

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/stokaro/albumstore/cmd/internal/unitflags"
	"github.com/stokaro/albumstore/model"
	"github.com/stokaro/albumstore/persistence"
)

func NewDemoCommand() *cobra.Command {
	flags := unitflags.New()
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the persist, query and merge-then-remove walkthrough",
		Long: `Run three sessions against the persistence unit:

  1. persist two albums in one transaction
  2. query every album and print it
  3. merge a transient album dated today, rename it, and remove it before commit

The third session leaves no row behind.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.OpenFactory(cmd.Context())
			if err != nil {
				return err
			}
			defer f.Close()
			return RunDemo(cmd.Context(), f, cmd.OutOrStdout())
		},
	}
	flags.Register(cmd)
	return cmd
}

// RunDemo runs the walkthrough on an open factory, writing every queried album to w.
func RunDemo(ctx context.Context, f *persistence.Factory, w io.Writer) error {
	if err := demoSession(f, func(s *persistence.Session) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			for _, a := range []*model.Album{
				model.NewAlbum("KIDS SEE GHOSTS", model.NewDate(2018, time.May, 8)),
				model.NewAlbum("A Love Supreme", model.NewDate(1965, time.February, 1)),
			} {
				if err := persistence.Persist(ctx, s, persistence.NewTransient(a)); err != nil {
					return err
				}
			}
			return nil
		})
	}); err != nil {
		return fmt.Errorf("persisting albums: %w", err)
	}

	if err := demoSession(f, func(s *persistence.Session) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			albums, err := persistence.Query[model.Album](ctx, s, "FROM Album")
			if err != nil {
				return err
			}
			for _, h := range albums {
				fmt.Fprintln(w, h.Entity())
			}
			return nil
		})
	}); err != nil {
		return fmt.Errorf("querying albums: %w", err)
	}

	if err := demoSession(f, func(s *persistence.Session) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			merged, err := persistence.Merge(ctx, s, persistence.NewTransient(&model.Album{ReleaseDate: model.Today()}))
			if err != nil {
				return err
			}
			merged.Entity().Title = "Untitled"
			return persistence.Remove(ctx, s, merged)
		})
	}); err != nil {
		return fmt.Errorf("merging and removing an album: %w", err)
	}
	return nil
}

func demoSession(f *persistence.Factory, fn func(s *persistence.Session) error) error {
	s, err := f.CreateSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
