package integration_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/integration"
	"github.com/stokaro/albumstore/persistence"
)

const unitName = "me.fevvelasquez.mvn.hibernate.jpa.em.persistenceunit"

func TestGetAllScenarios(t *testing.T) {
	c := qt.New(t)

	names := map[string]bool{}
	for _, scenario := range integration.GetAllScenarios() {
		c.Assert(scenario.Name, qt.Not(qt.Equals), "")
		c.Assert(scenario.Description, qt.Not(qt.Equals), "", qt.Commentf("scenario %s", scenario.Name))
		c.Assert(scenario.TestFunc, qt.IsNotNil, qt.Commentf("scenario %s", scenario.Name))
		c.Assert(names[scenario.Name], qt.IsFalse, qt.Commentf("duplicate scenario %s", scenario.Name))
		names[scenario.Name] = true
	}
}

// runScenarios runs every scenario on its own freshly created schema.
func runScenarios(t *testing.T, url string) {
	t.Helper()

	for _, scenario := range integration.GetAllScenarios() {
		t.Run(scenario.Name, func(t *testing.T) {
			c := qt.New(t)
			ctx := context.Background()

			cfg, err := config.New(config.Unit{Name: unitName, URL: url, Schema: config.SchemaCreateDrop})
			c.Assert(err, qt.IsNil)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if os.Getenv("ALBUMSTORE_TEST_VERBOSE") != "" {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			f, err := persistence.CreateFactory(ctx, unitName, persistence.WithConfig(cfg), persistence.WithLogger(logger))
			c.Assert(err, qt.IsNil)
			defer func() {
				c.Assert(f.Close(), qt.IsNil)
			}()

			c.Assert(scenario.TestFunc(ctx, f), qt.IsNil)
		})
	}
}

func TestScenarios_SQLite(t *testing.T) {
	runScenarios(t, "sqlite://"+filepath.Join(t.TempDir(), "albums.db"))
}
