package persistence

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"github.com/stokaro/albumstore/dbschema"
)

const maxAlbumID = `SELECT MAX("album_id") FROM "albums"`

func openAlbumsTable(c *qt.C, rows ...int64) *dbschema.DatabaseConnection {
	ctx := context.Background()
	conn, err := dbschema.ConnectToDatabase(ctx, "sqlite://"+filepath.Join(c.TempDir(), "generator.db"))
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = conn.Close() })

	_, err = conn.DB().ExecContext(ctx, `CREATE TABLE "albums" ("album_id" INTEGER NOT NULL PRIMARY KEY)`)
	c.Assert(err, qt.IsNil)
	for _, id := range rows {
		_, err = conn.DB().ExecContext(ctx, `INSERT INTO "albums" ("album_id") VALUES (?)`, id)
		c.Assert(err, qt.IsNil)
	}
	return conn
}

func TestIncrementGenerator_SeedsFromLargestIdentifier(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	conn := openAlbumsTable(c, 3, 41, 7)

	g := newIncrementGenerator()
	id, err := g.Next(ctx, conn.DB(), "albums", maxAlbumID)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, int64(42))

	// later rows are not seen until the table is reset
	_, err = conn.DB().ExecContext(ctx, `INSERT INTO "albums" ("album_id") VALUES (100)`)
	c.Assert(err, qt.IsNil)
	id, err = g.Next(ctx, conn.DB(), "albums", maxAlbumID)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, int64(43))

	g.Reset("albums")
	id, err = g.Next(ctx, conn.DB(), "albums", maxAlbumID)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, int64(101))
}

func TestIncrementGenerator_EmptyTable(t *testing.T) {
	c := qt.New(t)
	conn := openAlbumsTable(c)

	id, err := newIncrementGenerator().Next(context.Background(), conn.DB(), "albums", maxAlbumID)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Equals, int64(1))
}

func TestIncrementGenerator_Concurrent(t *testing.T) {
	c := qt.New(t)
	conn := openAlbumsTable(c, 10)
	g := newIncrementGenerator()

	const workers = 32
	ids := make([]int64, workers)
	eg, ctx := errgroup.WithContext(context.Background())
	for i := range workers {
		eg.Go(func() error {
			id, err := g.Next(ctx, conn.DB(), "albums", maxAlbumID)
			ids[i] = id
			return err
		})
	}
	c.Assert(eg.Wait(), qt.IsNil)

	slices.Sort(ids)
	for i, id := range ids {
		c.Assert(id, qt.Equals, int64(11+i))
	}
}

func TestIncrementGenerator_SeedFailure(t *testing.T) {
	c := qt.New(t)
	conn := openAlbumsTable(c)

	_, err := newIncrementGenerator().Next(context.Background(), conn.DB(), "tracks", `SELECT MAX("track_id") FROM "tracks"`)
	c.Assert(err, qt.ErrorMatches, `failed to seed identifier generator for tracks: .*`)
}
