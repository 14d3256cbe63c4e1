package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/stokaro/albumstore/core/mapping"
	"github.com/stokaro/albumstore/core/oql"
	"github.com/stokaro/albumstore/core/renderer/types"
)

// Persist makes a transient entity managed. Increment identifiers are assigned
// immediately; the row is inserted at the next flush.
//
// Persisting a handle the session already manages does nothing, and persisting a
// removed handle cancels the removal.
func Persist[E any](ctx context.Context, s *Session, h *Handle[E]) error {
	if err := s.requireTransaction(); err != nil {
		return err
	}
	m, table, err := mappingFor[E](s)
	if err != nil {
		return err
	}

	if h.managedBy(s) {
		if h.state == Removed {
			s.entries[keyOf(m, table, h)].removed = false
			h.transition(Managed, s)
		}
		return nil
	}
	if h.state != Transient {
		return fmt.Errorf("%w: %v", ErrDetachedEntity, h)
	}

	switch m.Strategy() {
	case mapping.Increment:
		if _, ok := m.ID(h.entity); ok {
			return fmt.Errorf("%w: %v already has an identifier", ErrDetachedEntity, h)
		}
		id, err := nextID(ctx, s, table)
		if err != nil {
			return err
		}
		m.SetID(h.entity, id)
	case mapping.Assigned:
		if _, ok := m.ID(h.entity); !ok {
			return fmt.Errorf("%w: %s", ErrMissingIdentifier, m.EntityName())
		}
	}

	key := keyOf(m, table, h)
	if _, exists := s.entries[key]; exists {
		return fmt.Errorf("%w: %s with id %d", ErrEntityExists, m.EntityName(), key.id)
	}
	attach(s, m, table, h, false)

	s.countOperation("persist", m.EntityName())
	s.logger.Debug("Entity persisted", "entity", m.EntityName(), "id", key.id)
	return nil
}

// Merge copies the state of a transient or detached entity onto a managed instance and
// returns that instance. The argument is never attached and keeps its state, so a
// transient argument stays Transient.
//
// The managed instance is, in order: the one already in the persistence context, the
// row loaded by identifier, or a new instance with a freshly generated identifier that
// is inserted at the next flush.
func Merge[E any](ctx context.Context, s *Session, h *Handle[E]) (*Handle[E], error) {
	if err := s.requireTransaction(); err != nil {
		return nil, err
	}
	m, table, err := mappingFor[E](s)
	if err != nil {
		return nil, err
	}

	if h.managedBy(s) {
		if h.state == Removed {
			return nil, fmt.Errorf("%w: %v", ErrRemovedEntity, h)
		}
		return h, nil
	}

	managed, err := mergeTarget(ctx, s, m, table, h)
	if err != nil {
		return nil, err
	}
	m.CopyState(managed.entity, h.entity)

	s.countOperation("merge", m.EntityName())
	id, _ := m.ID(managed.entity)
	s.logger.Debug("Entity merged", "entity", m.EntityName(), "id", id)
	return managed, nil
}

func mergeTarget[E any](ctx context.Context, s *Session, m *mapping.Entity[E], table types.TableSpec, h *Handle[E]) (*Handle[E], error) {
	if id, ok := m.ID(h.entity); ok {
		if e, found := s.entries[entityKey{table.Name, id}]; found {
			if e.removed {
				return nil, fmt.Errorf("%w: %s with id %d", ErrRemovedEntity, m.EntityName(), id)
			}
			return e.handle.(*Handle[E]), nil
		}

		loaded, err := load(ctx, s, m, table, id)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			managed := NewTransient(loaded)
			attach(s, m, table, managed, true)
			return managed, nil
		}
		if m.Strategy() == mapping.Assigned {
			instance := m.New()
			m.SetID(instance, id)
			managed := NewTransient(instance)
			attach(s, m, table, managed, false)
			return managed, nil
		}
	} else if m.Strategy() == mapping.Assigned {
		return nil, fmt.Errorf("%w: %s", ErrMissingIdentifier, m.EntityName())
	}

	id, err := nextID(ctx, s, table)
	if err != nil {
		return nil, err
	}
	instance := m.New()
	m.SetID(instance, id)
	managed := NewTransient(instance)
	attach(s, m, table, managed, false)
	return managed, nil
}

// Remove schedules a managed entity for deletion at the next flush. Removing an
// entity whose insert has not been flushed yet cancels the insert.
func Remove[E any](_ context.Context, s *Session, h *Handle[E]) error {
	if err := s.requireTransaction(); err != nil {
		return err
	}
	m, table, err := mappingFor[E](s)
	if err != nil {
		return err
	}
	if !h.managedBy(s) {
		return fmt.Errorf("%w: %v", ErrNotManaged, h)
	}
	if h.state == Removed {
		return nil
	}

	key := keyOf(m, table, h)
	s.entries[key].removed = true
	h.transition(Removed, s)

	s.countOperation("remove", m.EntityName())
	s.logger.Debug("Entity removed", "entity", m.EntityName(), "id", key.id)
	return nil
}

// Find returns the managed entity with the given identifier, loading it when the
// session does not hold it yet.
func Find[E any](ctx context.Context, s *Session, id int64) (*Handle[E], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	m, table, err := mappingFor[E](s)
	if err != nil {
		return nil, err
	}
	s.countOperation("find", m.EntityName())

	if e, found := s.entries[entityKey{table.Name, id}]; found {
		if e.removed {
			return nil, fmt.Errorf("%w: %s with id %d", ErrEntityNotFound, m.EntityName(), id)
		}
		return e.handle.(*Handle[E]), nil
	}

	loaded, err := load(ctx, s, m, table, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, fmt.Errorf("%w: %s with id %d", ErrEntityNotFound, m.EntityName(), id)
	}
	h := NewTransient(loaded)
	attach(s, m, table, h, true)
	return h, nil
}

// Query runs a full-entity query such as "FROM Album" and returns managed handles.
// Pending changes are flushed first when a transaction is active. Rows already in the
// persistence context are returned as the existing handles. Ordering is unspecified.
func Query[E any](ctx context.Context, s *Session, query string) ([]*Handle[E], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	q, err := oql.Parse(query)
	if err != nil {
		return nil, err
	}
	d, ok := s.factory.mappings.ByName(q.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, q.Entity)
	}
	m, ok := d.(*mapping.Entity[E])
	if !ok {
		return nil, fmt.Errorf("%w: %s is not mapped to %s", ErrUnknownEntity, q.Entity, reflect.TypeFor[E]())
	}
	table := s.factory.tables[m.EntityName()]

	if s.tx.IsActive() {
		if err := s.flush(ctx); err != nil {
			return nil, err
		}
	}

	loaded, err := loadAll(ctx, s, m, table)
	if err != nil {
		return nil, err
	}
	s.countOperation("query", m.EntityName())

	result := make([]*Handle[E], 0, len(loaded))
	for _, entity := range loaded {
		id, _ := m.ID(entity)
		if e, found := s.entries[entityKey{table.Name, id}]; found {
			if !e.removed {
				result = append(result, e.handle.(*Handle[E]))
			}
			continue
		}
		h := NewTransient(entity)
		attach(s, m, table, h, true)
		result = append(result, h)
	}
	return result, nil
}

// Detach removes a managed entity from the session. Its pending changes are discarded.
func Detach[E any](s *Session, h *Handle[E]) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	m, table, err := mappingFor[E](s)
	if err != nil {
		return err
	}
	if !h.managedBy(s) {
		return fmt.Errorf("%w: %v", ErrNotManaged, h)
	}

	delete(s.entries, keyOf(m, table, h))
	h.transition(Detached, nil)
	s.countOperation("detach", m.EntityName())
	return nil
}

// Contains reports whether h is managed, and not removed, by the session.
func Contains[E any](s *Session, h *Handle[E]) bool {
	return s.open && h.managedBy(s) && h.state == Managed
}

func mappingFor[E any](s *Session) (*mapping.Entity[E], types.TableSpec, error) {
	m, ok := mapping.For[E](s.factory.mappings)
	if !ok {
		return nil, types.TableSpec{}, fmt.Errorf("%w: %s", ErrUnknownEntity, reflect.TypeFor[E]())
	}
	return m, s.factory.tables[m.EntityName()], nil
}

func keyOf[E any](m *mapping.Entity[E], table types.TableSpec, h *Handle[E]) entityKey {
	id, _ := m.ID(h.entity)
	return entityKey{table: table.Name, id: id}
}

func attach[E any](s *Session, m *mapping.Entity[E], table types.TableSpec, h *Handle[E], persisted bool) {
	entity := h.entity
	e := &entry{
		key:       keyOf(m, table, h),
		entity:    m.EntityName(),
		table:     table,
		handle:    h,
		values:    func() []any { return m.Values(entity) },
		persisted: persisted,
	}
	if persisted {
		e.snapshot = e.values()
	}
	s.add(e)
	h.transition(Managed, s)
}

func nextID(ctx context.Context, s *Session, table types.TableSpec) (int64, error) {
	idColumn := table.Columns[0].Name
	return s.factory.generator.Next(ctx, s.executor(), table.Name, s.factory.renderer.MaxID(table.Name, idColumn))
}

func load[E any](ctx context.Context, s *Session, m *mapping.Entity[E], table types.TableSpec, id int64) (*E, error) {
	query := s.factory.renderer.SelectByID(table)
	s.factory.logSQL(query, id)
	s.factory.metrics.statements.WithLabelValues("select").Inc()

	entity := m.New()
	targets, apply := m.ScanTargets(entity)
	err := s.executor().QueryRowContext(ctx, query, id).Scan(targets...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s with id %d: %w", m.EntityName(), id, err)
	}
	apply()
	return entity, nil
}

func loadAll[E any](ctx context.Context, s *Session, m *mapping.Entity[E], table types.TableSpec) ([]*E, error) {
	query := s.factory.renderer.SelectAll(table)
	s.factory.logSQL(query)
	s.factory.metrics.statements.WithLabelValues("select").Inc()

	rows, err := s.executor().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.EntityName(), err)
	}
	defer rows.Close()

	var entities []*E
	for rows.Next() {
		entity := m.New()
		targets, apply := m.ScanTargets(entity)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", m.EntityName(), err)
		}
		apply()
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.EntityName(), err)
	}
	return entities, nil
}
