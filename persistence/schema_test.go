package persistence_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/dbschema"
	"github.com/stokaro/albumstore/model"
	"github.com/stokaro/albumstore/persistence"
)

func readTables(c *qt.C, url string) []string {
	ctx := context.Background()
	conn, err := dbschema.ConnectToDatabase(ctx, url)
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	schema, err := conn.Reader().ReadSchema(ctx)
	c.Assert(err, qt.IsNil)
	names := make([]string, 0, len(schema.Tables))
	for _, t := range schema.Tables {
		names = append(names, t.Name)
	}
	return names
}

func execSQL(c *qt.C, url string, statements ...string) {
	ctx := context.Background()
	conn, err := dbschema.ConnectToDatabase(ctx, url)
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	for _, stmt := range statements {
		_, err := conn.DB().ExecContext(ctx, stmt)
		c.Assert(err, qt.IsNil)
	}
}

func TestSchemaCreate_RecreatesTables(t *testing.T) {
	c := qt.New(t)
	unit := sqliteUnit(t, config.SchemaCreate)

	f := openFactory(t, unit)
	persistAlbums(t, f, model.NewAlbum("KIDS SEE GHOSTS", ghostsDate))
	c.Assert(f.Close(), qt.IsNil)

	f = openFactory(t, unit)
	c.Assert(queryAll(t, f), qt.HasLen, 0)
	c.Assert(f.logs.String(), qt.Contains, `DROP TABLE IF EXISTS \"albums\"`)

	// the generator starts over on the new table
	h := persistAlbums(t, f, model.NewAlbum("A Love Supreme", supremeDate))[0]
	c.Assert(*h.Entity().ID, qt.Equals, int64(1))
}

func TestSchemaUpdate_KeepsRows(t *testing.T) {
	c := qt.New(t)
	unit := sqliteUnit(t, config.SchemaUpdate)

	f := openFactory(t, unit)
	persistAlbums(t, f, model.NewAlbum("KIDS SEE GHOSTS", ghostsDate))
	c.Assert(f.Close(), qt.IsNil)

	f = openFactory(t, unit)
	c.Assert(titles(queryAll(t, f)), qt.DeepEquals, map[string]bool{"KIDS SEE GHOSTS": true})
	c.Assert(f.logs.String(), qt.Contains, `CREATE TABLE IF NOT EXISTS \"albums\"`)

	// identifiers continue after the stored ones
	h := persistAlbums(t, f, model.NewAlbum("A Love Supreme", supremeDate))[0]
	c.Assert(*h.Entity().ID, qt.Equals, int64(2))
}

func TestSchemaCreateDrop_DropsOnClose(t *testing.T) {
	c := qt.New(t)
	unit := sqliteUnit(t, config.SchemaCreateDrop)

	f := openFactory(t, unit)
	c.Assert(readTables(c, unit.URL), qt.DeepEquals, []string{"albums"})
	c.Assert(f.Close(), qt.IsNil)
	c.Assert(readTables(c, unit.URL), qt.HasLen, 0)
}

func TestSchemaCreateDrop_ClosesOpenSessions(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	unit := sqliteUnit(t, config.SchemaCreateDrop)
	f := openFactory(t, unit)

	s := openSession(t, f)
	c.Assert(s.Transaction().Begin(ctx), qt.IsNil)
	h := persistence.NewTransient(model.NewAlbum("KIDS SEE GHOSTS", ghostsDate))
	c.Assert(persistence.Persist(ctx, s, h), qt.IsNil)
	c.Assert(s.Flush(ctx), qt.IsNil)

	closed := make(chan error, 1)
	go func() { closed <- f.Close() }()
	select {
	case err := <-closed:
		c.Assert(err, qt.IsNil)
	case <-time.After(10 * time.Second):
		c.Fatal("factory close did not return while a session held a transaction")
	}

	c.Assert(s.IsOpen(), qt.IsFalse)
	c.Assert(s.Transaction().IsActive(), qt.IsFalse)
	c.Assert(h.State(), qt.Equals, persistence.Detached)
	c.Assert(s.Close(), qt.IsNil)
	c.Assert(metricValue(t, f.Gatherer(), "albumstore_open_sessions", nil), qt.Equals, 0.0)
	c.Assert(readTables(c, unit.URL), qt.HasLen, 0)
}

func TestSchemaNone_LeavesDatabaseAlone(t *testing.T) {
	c := qt.New(t)
	unit := sqliteUnit(t, config.SchemaNone)

	openFactory(t, unit)
	c.Assert(readTables(c, unit.URL), qt.HasLen, 0)
}

func TestSchemaValidate(t *testing.T) {
	c := qt.New(t)

	unit := sqliteUnit(t, config.SchemaValidate)
	cfg, err := config.New(unit)
	c.Assert(err, qt.IsNil)
	_, err = persistence.CreateFactory(context.Background(), unitName,
		persistence.WithConfig(cfg), persistence.WithLogger(discardLogger()))
	c.Assert(err, qt.ErrorIs, persistence.ErrSchemaValidation)
	c.Assert(err, qt.ErrorMatches, `schema validation failed: missing table albums`)

	execSQL(c, unit.URL, `CREATE TABLE albums (album_id INTEGER NOT NULL, title TEXT, release_date DATE, PRIMARY KEY (album_id))`)
	_, err = persistence.CreateFactory(context.Background(), unitName,
		persistence.WithConfig(cfg), persistence.WithLogger(discardLogger()))
	c.Assert(err, qt.ErrorIs, persistence.ErrSchemaValidation)
	c.Assert(err, qt.ErrorMatches, `schema validation failed: table albums: column release_date must be NOT NULL`)

	execSQL(c, unit.URL, `DROP TABLE albums`, `CREATE TABLE albums (album_id INTEGER NOT NULL, release_date DATE NOT NULL)`)
	_, err = persistence.CreateFactory(context.Background(), unitName,
		persistence.WithConfig(cfg), persistence.WithLogger(discardLogger()))
	c.Assert(err, qt.ErrorMatches, "schema validation failed: table albums: column album_id is not the primary key\ntable albums: missing column title")

	f := openFactory(t, unit, persistence.WithSchemaMode(config.SchemaCreate))
	c.Assert(f.Unit().Schema, qt.Equals, config.SchemaCreate)
	c.Assert(f.ValidateSchema(context.Background()), qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	f = openFactory(t, unit)
	c.Assert(f.ValidateSchema(context.Background()), qt.IsNil)
}

func TestCreateStatements(t *testing.T) {
	c := qt.New(t)
	f := newTestFactory(t)

	c.Assert(f.Dialect(), qt.Equals, "sqlite")
	c.Assert(f.CreateStatements(), qt.DeepEquals, []string{`CREATE TABLE "albums" (
  "album_id" INTEGER NOT NULL,
  "title" TEXT,
  "release_date" DATE NOT NULL,
  PRIMARY KEY ("album_id")
);`})
}

func TestCreateFactory_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		unit    func(t *testing.T) config.Unit
		unitArg string
		opts    []persistence.Option
		message string
	}{
		{
			name:    "unknown unit",
			unit:    func(t *testing.T) config.Unit { return sqliteUnit(t, config.SchemaCreate) },
			unitArg: "missing",
			message: `unknown persistence unit: missing`,
		},
		{
			name: "unknown entity",
			unit: func(t *testing.T) config.Unit {
				u := sqliteUnit(t, config.SchemaCreate)
				u.Entities = []string{"Album", "Track"}
				return u
			},
			message: `persistence unit me\.fevvelasquez\.mvn\.hibernate\.jpa\.em\.persistenceunit: unknown entity: Track`,
		},
		{
			name:    "invalid schema override",
			unit:    func(t *testing.T) config.Unit { return sqliteUnit(t, config.SchemaCreate) },
			opts:    []persistence.Option{persistence.WithSchemaMode("recreate")},
			message: `invalid schema mode "recreate"`,
		},
		{
			name: "unreachable database",
			unit: func(t *testing.T) config.Unit {
				u := sqliteUnit(t, config.SchemaCreate)
				u.URL = "sqlite:///nonexistent-dir/deeper/albums.db"
				return u
			},
			message: `failed to connect to .*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			cfg, err := config.New(tt.unit(t))
			c.Assert(err, qt.IsNil)

			name := tt.unitArg
			if name == "" {
				name = unitName
			}
			opts := append([]persistence.Option{persistence.WithConfig(cfg), persistence.WithLogger(discardLogger())}, tt.opts...)
			f, err := persistence.CreateFactory(ctx, name, opts...)
			c.Assert(f, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, tt.message)
		})
	}
}
