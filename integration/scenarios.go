// Package integration runs end-to-end persistence scenarios against live databases.
package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stokaro/albumstore/model"
	"github.com/stokaro/albumstore/persistence"
)

// TestScenario is one end-to-end scenario run against a freshly created schema.
type TestScenario struct {
	Name        string
	Description string
	TestFunc    func(ctx context.Context, f *persistence.Factory) error
}

// GetAllScenarios returns every scenario in execution order.
func GetAllScenarios() []TestScenario {
	return []TestScenario{
		{
			Name:        "persist_and_query",
			Description: "Two albums persisted in one transaction are returned by a full-entity query",
			TestFunc:    testPersistAndQuery,
		},
		{
			Name:        "merge_then_remove",
			Description: "A merged transient album that is removed before commit leaves no row",
			TestFunc:    testMergeThenRemove,
		},
		{
			Name:        "dirty_update",
			Description: "Changing a managed album writes only the changed column",
			TestFunc:    testDirtyUpdate,
		},
		{
			Name:        "rollback_discards",
			Description: "A rolled back insert is not visible afterwards",
			TestFunc:    testRollbackDiscards,
		},
		{
			Name:        "not_null_rejected",
			Description: "An album without release date is rejected before reaching the database",
			TestFunc:    testNotNullRejected,
		},
		{
			Name:        "date_round_trip",
			Description: "Release dates survive a round trip without time or zone drift",
			TestFunc:    testDateRoundTrip,
		},
		{
			Name:        "schema_validates",
			Description: "The created schema passes validation",
			TestFunc: func(ctx context.Context, f *persistence.Factory) error {
				return f.ValidateSchema(ctx)
			},
		},
	}
}

var (
	kidsSeeGhosts = model.NewDate(2018, time.May, 8)
	aLoveSupreme  = model.NewDate(1965, time.February, 1)
)

func withSession(f *persistence.Factory, fn func(s *persistence.Session) error) error {
	s, err := f.CreateSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func queryAlbums(ctx context.Context, f *persistence.Factory) (map[string]model.Date, error) {
	result := map[string]model.Date{}
	err := withSession(f, func(s *persistence.Session) error {
		albums, err := persistence.Query[model.Album](ctx, s, "FROM Album")
		if err != nil {
			return err
		}
		for _, h := range albums {
			result[h.Entity().Title] = h.Entity().ReleaseDate
		}
		return nil
	})
	return result, err
}

func persistAll(ctx context.Context, f *persistence.Factory, albums ...*model.Album) error {
	return withSession(f, func(s *persistence.Session) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			for _, a := range albums {
				if err := persistence.Persist(ctx, s, persistence.NewTransient(a)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func testPersistAndQuery(ctx context.Context, f *persistence.Factory) error {
	ghosts := model.NewAlbum("KIDS SEE GHOSTS", kidsSeeGhosts)
	supreme := model.NewAlbum("A Love Supreme", aLoveSupreme)
	if err := persistAll(ctx, f, ghosts, supreme); err != nil {
		return err
	}
	if ghosts.ID == nil || supreme.ID == nil || *ghosts.ID == *supreme.ID {
		return fmt.Errorf("expected distinct identifiers, got %v and %v", ghosts, supreme)
	}

	albums, err := queryAlbums(ctx, f)
	if err != nil {
		return err
	}
	if len(albums) != 2 || albums["KIDS SEE GHOSTS"] != kidsSeeGhosts || albums["A Love Supreme"] != aLoveSupreme {
		return fmt.Errorf("unexpected albums: %v", albums)
	}
	return nil
}

func testMergeThenRemove(ctx context.Context, f *persistence.Factory) error {
	err := withSession(f, func(s *persistence.Session) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			merged, err := persistence.Merge(ctx, s, persistence.NewTransient(&model.Album{ReleaseDate: model.Today()}))
			if err != nil {
				return err
			}
			merged.Entity().Title = "Untitled"
			return persistence.Remove(ctx, s, merged)
		})
	})
	if err != nil {
		return err
	}

	albums, err := queryAlbums(ctx, f)
	if err != nil {
		return err
	}
	if _, found := albums["Untitled"]; found {
		return errors.New("removed album was written")
	}
	return nil
}

func testDirtyUpdate(ctx context.Context, f *persistence.Factory) error {
	return withSession(f, func(s *persistence.Session) error {
		h := persistence.NewTransient(model.NewAlbum("Kids See Ghosts", kidsSeeGhosts))
		if err := s.RunInTransaction(ctx, func(ctx context.Context) error {
			return persistence.Persist(ctx, s, h)
		}); err != nil {
			return err
		}
		h.Entity().Title = "KIDS SEE GHOSTS (deluxe)"
		if err := s.RunInTransaction(ctx, func(context.Context) error { return nil }); err != nil {
			return err
		}
		s.Clear()

		found, err := persistence.Find[model.Album](ctx, s, *h.Entity().ID)
		if err != nil {
			return err
		}
		if found.Entity().Title != "KIDS SEE GHOSTS (deluxe)" {
			return fmt.Errorf("update was not written: %v", found.Entity())
		}
		return nil
	})
}

func testRollbackDiscards(ctx context.Context, f *persistence.Factory) error {
	var id int64
	err := withSession(f, func(s *persistence.Session) error {
		if err := s.Transaction().Begin(ctx); err != nil {
			return err
		}
		h := persistence.NewTransient(model.NewAlbum("Discarded", aLoveSupreme))
		if err := persistence.Persist(ctx, s, h); err != nil {
			return err
		}
		if err := s.Flush(ctx); err != nil {
			return err
		}
		id = *h.Entity().ID
		return s.Transaction().Rollback()
	})
	if err != nil {
		return err
	}

	return withSession(f, func(s *persistence.Session) error {
		_, err := persistence.Find[model.Album](ctx, s, id)
		if !errors.Is(err, persistence.ErrEntityNotFound) {
			return fmt.Errorf("expected %v, got %v", persistence.ErrEntityNotFound, err)
		}
		return nil
	})
}

func testNotNullRejected(ctx context.Context, f *persistence.Factory) error {
	err := persistAll(ctx, f, &model.Album{Title: "Undated"})
	if !errors.Is(err, persistence.ErrNotNullViolation) {
		return fmt.Errorf("expected %v, got %v", persistence.ErrNotNullViolation, err)
	}
	return nil
}

func testDateRoundTrip(ctx context.Context, f *persistence.Factory) error {
	dates := []model.Date{
		model.NewDate(1965, time.February, 1),
		model.NewDate(2000, time.February, 29),
		model.NewDate(1999, time.December, 31),
	}
	albums := make([]*model.Album, len(dates))
	for i, d := range dates {
		albums[i] = model.NewAlbum("date "+d.String(), d)
	}
	if err := persistAll(ctx, f, albums...); err != nil {
		return err
	}

	stored, err := queryAlbums(ctx, f)
	if err != nil {
		return err
	}
	for _, d := range dates {
		if got := stored["date "+d.String()]; got != d {
			return fmt.Errorf("release date %s came back as %s", d, got)
		}
	}
	return nil
}
