package persistence_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/persistence"
)

// syncBuffer collects log output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testFactory struct {
	*persistence.Factory
	logs *syncBuffer
	path string
}

func sqliteUnit(t *testing.T, schema config.SchemaMode) config.Unit {
	return config.Unit{
		Name:    unitName,
		URL:     "sqlite://" + filepath.Join(t.TempDir(), "albums.db"),
		Schema:  schema,
		ShowSQL: true,
	}
}

func openFactory(t *testing.T, unit config.Unit, opts ...persistence.Option) *testFactory {
	t.Helper()

	cfg, err := config.New(unit)
	if err != nil {
		t.Fatalf("Failed to build configuration: %v", err)
	}
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts = append([]persistence.Option{persistence.WithConfig(cfg), persistence.WithLogger(logger)}, opts...)
	f, err := persistence.CreateFactory(context.Background(), unit.Name, opts...)
	if err != nil {
		t.Fatalf("Failed to create factory: %v", err)
	}
	t.Cleanup(func() {
		if f.IsOpen() {
			_ = f.Close()
		}
	})
	return &testFactory{Factory: f, logs: logs, path: unit.URL}
}

func newTestFactory(t *testing.T, opts ...persistence.Option) *testFactory {
	t.Helper()
	return openFactory(t, sqliteUnit(t, config.SchemaCreate), opts...)
}

func openSession(t *testing.T, f *testFactory) *persistence.Session {
	t.Helper()

	s, err := f.CreateSession()
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	t.Cleanup(func() {
		if s.IsOpen() {
			_ = s.Close()
		}
	})
	return s
}

// metricValue returns the value of the counter or gauge name with the given labels,
// or 0 when the series does not exist.
func metricValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if !hasLabels(m, labels) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func hasLabels(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range m.GetLabel() {
		if v, ok := labels[pair.GetName()]; ok {
			if v != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func statements(t *testing.T, f *testFactory, kind string) float64 {
	t.Helper()
	return metricValue(t, f.Gatherer(), "albumstore_statements_total", map[string]string{"kind": kind})
}
