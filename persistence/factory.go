// Package persistence is a small entity-manager style provider on top of database/sql.
//
// A Factory is opened once per persistence unit and hands out Sessions. A Session is a
// unit of work: entities wrapped in Handles are persisted, merged, removed and queried
// through it, and every change is written when the session flushes, at the latest on
// commit.
//
//	f, err := persistence.CreateFactory(ctx, "me.fevvelasquez.mvn.hibernate.jpa.em.persistenceunit")
//	...
//	s, err := f.CreateSession()
//	...
//	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
//		return persistence.Persist(ctx, s, persistence.NewTransient(model.NewAlbum("A Love Supreme", date)))
//	})
//
// Generic operations (Persist, Merge, Remove, Find, Query) are package functions,
// because methods cannot carry type parameters.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/renderer"
	"github.com/stokaro/albumstore/core/renderer/types"
	"github.com/stokaro/albumstore/dbschema"
)

// Factory is an open persistence unit. It is safe for concurrent use.
type Factory struct {
	unit      config.Unit
	conn      *dbschema.DatabaseConnection
	renderer  *renderer.Renderer
	mappings  *mapping.Set
	tables    map[string]types.TableSpec // by entity name
	generator *incrementGenerator
	metrics   *metrics
	gatherer  prometheus.Gatherer
	logger    *slog.Logger

	mu       sync.Mutex
	open     bool
	sessions map[*Session]struct{}
}

// CreateFactory resolves the named persistence unit, connects to its database,
// checks the mapped entities and applies the unit's schema mode.
func CreateFactory(ctx context.Context, unitName string, opts ...Option) (*Factory, error) {
	o := options{configFile: config.DefaultFile}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		cfg, err = config.Load(o.configFile)
		if err != nil {
			return nil, err
		}
	}
	unit, err := cfg.Unit(unitName)
	if err != nil {
		return nil, err
	}
	if o.schema != "" {
		if !o.schema.Valid() {
			return nil, fmt.Errorf("invalid schema mode %q", o.schema)
		}
		unit.Schema = o.schema
	}

	descriptors, err := resolveEntities(unit, o.entities)
	if err != nil {
		return nil, fmt.Errorf("persistence unit %s: %w", unit.Name, err)
	}

	f := &Factory{
		unit:      unit,
		mappings:  mapping.NewSet(descriptors...),
		tables:    map[string]types.TableSpec{},
		generator: newIncrementGenerator(),
		logger:    o.logger.With("unit", unit.Name),
		sessions:  map[*Session]struct{}{},
	}
	if err := f.indexTables(); err != nil {
		return nil, fmt.Errorf("persistence unit %s: %w", unit.Name, err)
	}

	registerer := o.registerer
	if registerer == nil {
		registry := prometheus.NewRegistry()
		registerer, f.gatherer = registry, registry
	} else if g, ok := registerer.(prometheus.Gatherer); ok {
		f.gatherer = g
	}
	if f.metrics, err = newMetrics(registerer); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	f.conn, err = dbschema.ConnectToDatabase(ctx, unit.URL)
	if err != nil {
		return nil, err
	}
	if unit.MaxOpenConns > 0 && f.conn.Info().Dialect != "sqlite" {
		f.conn.DB().SetMaxOpenConns(unit.MaxOpenConns)
	}
	f.renderer, err = renderer.New(f.conn.Info().Dialect)
	if err != nil {
		_ = f.conn.Close()
		return nil, err
	}

	if err := f.applySchema(ctx); err != nil {
		_ = f.conn.Close()
		return nil, err
	}

	f.open = true
	info := f.conn.Info()
	f.logger.Info("Persistence unit opened",
		"dialect", info.Dialect,
		"version", info.Version,
		"url", info.URL,
		"schema_mode", unit.Schema,
		"entities", len(descriptors))
	return f, nil
}

func resolveEntities(unit config.Unit, explicit []mapping.Descriptor) ([]mapping.Descriptor, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if len(unit.Entities) == 0 {
		registered := mapping.Registered()
		if len(registered) == 0 {
			return nil, fmt.Errorf("%w: no entity mappings are registered", ErrUnknownEntity)
		}
		return registered, nil
	}

	descriptors := make([]mapping.Descriptor, 0, len(unit.Entities))
	for _, name := range unit.Entities {
		d, ok := mapping.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (f *Factory) indexTables() error {
	owners := map[string]string{}
	for _, d := range f.mappings.All() {
		if other, taken := owners[d.TableName()]; taken {
			return fmt.Errorf("entities %s and %s are both mapped to table %s", other, d.EntityName(), d.TableName())
		}
		owners[d.TableName()] = d.EntityName()
		f.tables[d.EntityName()] = renderer.FromDescriptor(d)
	}
	return nil
}

// CreateSession opens a new session.
func (f *Factory) CreateSession() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return nil, ErrFactoryClosed
	}

	s := newSession(f)
	f.sessions[s] = struct{}{}
	f.metrics.openSessions.Inc()
	return s, nil
}

func (f *Factory) release(s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s]; ok {
		delete(f.sessions, s)
		f.metrics.openSessions.Dec()
	}
}

// Close closes the sessions still open, rolling back their transactions, then closes
// the database connection, dropping the schema first in create-drop mode.
// Closing a closed factory does nothing.
func (f *Factory) Close() error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return nil
	}
	f.open = false
	sessions := make([]*Session, 0, len(f.sessions))
	for s := range f.sessions {
		sessions = append(sessions, s)
	}
	f.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			f.logger.Warn("Failed to close session", "error", err)
		}
	}

	var dropErr error
	if f.unit.Schema == config.SchemaCreateDrop {
		dropErr = f.dropTables(context.Background(), f.dropOrder())
	}
	if err := f.conn.Close(); err != nil {
		return fmt.Errorf("failed to close persistence unit %s: %w", f.unit.Name, err)
	}
	f.logger.Info("Persistence unit closed")
	return dropErr
}

// IsOpen reports whether the factory has not been closed.
func (f *Factory) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Unit returns the resolved persistence unit.
func (f *Factory) Unit() config.Unit {
	return f.unit
}

// Dialect returns the dialect of the database behind the factory.
func (f *Factory) Dialect() string {
	return f.renderer.Dialect()
}

// Mappings returns the entity mappings managed by the factory.
func (f *Factory) Mappings() []mapping.Descriptor {
	return f.mappings.All()
}

// Gatherer returns the registry holding the factory metrics, or nil when the
// metrics were registered on a Registerer that cannot be gathered.
func (f *Factory) Gatherer() prometheus.Gatherer {
	return f.gatherer
}

func (f *Factory) logSQL(query string, args ...any) {
	level := slog.LevelDebug
	if f.unit.ShowSQL {
		level = slog.LevelInfo
	}
	f.logger.Log(context.Background(), level, "SQL", "statement", query, "args", args)
}
