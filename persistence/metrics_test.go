package persistence_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stokaro/albumstore/model"
	"github.com/stokaro/albumstore/persistence"
)

func TestMetrics(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	f := newTestFactory(t)
	g := f.Gatherer()
	c.Assert(g, qt.IsNotNil)

	c.Assert(statements(t, f, "ddl"), qt.Equals, 2.0) // drop + create

	s := openSession(t, f)
	other := openSession(t, f)
	c.Assert(metricValue(t, g, "albumstore_open_sessions", nil), qt.Equals, 2.0)
	c.Assert(other.Close(), qt.IsNil)
	c.Assert(metricValue(t, g, "albumstore_open_sessions", nil), qt.Equals, 1.0)

	c.Assert(s.RunInTransaction(ctx, func(ctx context.Context) error {
		h := persistence.NewTransient(model.NewAlbum("KIDS SEE GHOSTS", ghostsDate))
		if err := persistence.Persist(ctx, s, h); err != nil {
			return err
		}
		if _, err := persistence.Query[model.Album](ctx, s, "FROM Album"); err != nil {
			return err
		}
		return persistence.Remove(ctx, s, h)
	}), qt.IsNil)

	for _, op := range []string{"persist", "query", "remove"} {
		c.Assert(metricValue(t, g, "albumstore_session_operations_total",
			map[string]string{"operation": op, "entity": "Album"}), qt.Equals, 1.0, qt.Commentf("operation %s", op))
	}
	c.Assert(statements(t, f, "insert"), qt.Equals, 1.0)
	c.Assert(statements(t, f, "delete"), qt.Equals, 1.0)
	c.Assert(metricValue(t, g, "albumstore_flush_duration_seconds", nil), qt.Equals, 2.0) // query + commit

	count, err := testutil.GatherAndCount(g, "albumstore_statements_total")
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 4) // ddl, insert, select, delete
}

func TestMetrics_SharedRegisterer(t *testing.T) {
	c := qt.New(t)
	reg := prometheus.NewRegistry()

	first := newTestFactory(t, persistence.WithRegisterer(reg))
	second := newTestFactory(t, persistence.WithRegisterer(reg))
	c.Assert(first.Gatherer(), qt.Equals, prometheus.Gatherer(reg))

	openSession(t, first)
	openSession(t, second)
	c.Assert(metricValue(t, reg, "albumstore_open_sessions", nil), qt.Equals, 2.0)
	c.Assert(metricValue(t, reg, "albumstore_statements_total", map[string]string{"kind": "ddl"}), qt.Equals, 4.0)

	lint, err := testutil.GatherAndLint(reg)
	c.Assert(err, qt.IsNil)
	c.Assert(lint, qt.HasLen, 0)
}

func TestMetrics_ConflictingRegistration(t *testing.T) {
	c := qt.New(t)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "albumstore_open_sessions",
		Help: "Something else entirely.",
	}))

	cfg := sqliteUnit(t, "create")
	_, err := persistence.CreateFactory(context.Background(), unitName,
		persistence.WithConfig(mustConfig(t, cfg)),
		persistence.WithRegisterer(reg),
		persistence.WithLogger(discardLogger()))
	c.Assert(err, qt.ErrorMatches, `failed to register metrics: .*`)
}
