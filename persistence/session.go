package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"github.com/stokaro/albumstore/core/renderer/types"
)

type entityKey struct {
	table string
	id    int64
}

// entry is one entity instance in a session's persistence context.
type entry struct {
	key       entityKey
	entity    string
	table     types.TableSpec
	handle    lifecycle
	values    func() []any
	snapshot  []any // attribute values as last read from or written to the database
	persisted bool  // a row exists, or will once the transaction commits
	removed   bool
}

// changes returns the columns whose values differ from the snapshot, with their values.
func (e *entry) changes(values []any) ([]string, []any) {
	var columns []string
	var args []any
	for i, v := range values {
		if v != e.snapshot[i] {
			columns = append(columns, e.table.Columns[i+1].Name)
			args = append(args, v)
		}
	}
	return columns, args
}

func (e *entry) checkNotNull(values []any) error {
	for i, v := range values {
		col := e.table.Columns[i+1]
		if !col.Nullable && isNull(v) {
			return fmt.Errorf("%w: %s.%s (id %d)", ErrNotNullViolation, e.entity, col.Name, e.key.id)
		}
	}
	return nil
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	queryer
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Session is a unit of work over one factory. It tracks the entities it manages and
// writes their changes when flushed. A Session is not safe for concurrent use.
type Session struct {
	factory *Factory
	logger  *slog.Logger
	open    bool
	tx      *Transaction
	entries map[entityKey]*entry
	order   []*entry // flush order
}

func newSession(f *Factory) *Session {
	s := &Session{
		factory: f,
		logger:  f.logger,
		open:    true,
		entries: map[entityKey]*entry{},
	}
	s.tx = &Transaction{s: s}
	return s
}

// Transaction returns the session's transaction.
func (s *Session) Transaction() *Transaction {
	return s.tx
}

// IsOpen reports whether the session has not been closed.
func (s *Session) IsOpen() bool {
	return s.open
}

// Close ends the unit of work. An active transaction is rolled back and every managed
// entity becomes detached. Closing a closed session does nothing.
func (s *Session) Close() error {
	if !s.open {
		return nil
	}

	var err error
	if s.tx.IsActive() {
		err = s.tx.rollback()
	}
	s.detachAll()
	s.open = false
	s.factory.release(s)
	return err
}

// RunInTransaction runs fn inside a new transaction and commits it. The transaction is
// rolled back when fn returns an error or does not return at all (a panic, or
// runtime.Goexit as called by t.FailNow). fn must not end the transaction itself.
func (s *Session) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.tx.Begin(ctx); err != nil {
		return err
	}

	returned := false
	defer func() {
		if !returned {
			s.rollbackQuietly()
		}
	}()

	err := fn(ctx)
	returned = true
	if err != nil {
		s.rollbackQuietly()
		return err
	}
	return s.tx.Commit(ctx)
}

func (s *Session) rollbackQuietly() {
	if !s.tx.IsActive() {
		return
	}
	if err := s.tx.rollback(); err != nil {
		s.logger.Error("Rollback failed", "error", err)
	}
}

// Flush writes pending changes inside the active transaction.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.requireTransaction(); err != nil {
		return err
	}
	return s.flush(ctx)
}

// Clear detaches every managed entity. Pending changes are discarded.
func (s *Session) Clear() {
	s.detachAll()
}

func (s *Session) checkOpen() error {
	if !s.open {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) requireTransaction() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.tx.IsActive() {
		return ErrTransactionRequired
	}
	return nil
}

func (s *Session) executor() executor {
	if s.tx.IsActive() {
		return s.tx.tx
	}
	return s.factory.conn.DB()
}

func (s *Session) exec(ctx context.Context, kind, query string, args ...any) error {
	s.factory.logSQL(query, args...)
	s.factory.metrics.statements.WithLabelValues(kind).Inc()
	_, err := s.executor().ExecContext(ctx, query, args...)
	return err
}

func (s *Session) countOperation(operation, entity string) {
	s.factory.metrics.operations.WithLabelValues(operation, entity).Inc()
}

// flush writes inserts in persist order, then updates of changed columns, then deletes.
// NOT NULL attributes are checked before any statement is sent.
func (s *Session) flush(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.factory.metrics.flushDuration.Observe(time.Since(start).Seconds())
	}()

	entries := s.live()
	for _, e := range entries {
		if e.removed {
			continue
		}
		if err := e.checkNotNull(e.values()); err != nil {
			return err
		}
	}

	r := s.factory.renderer
	var inserted, updated, deleted int
	for _, e := range entries {
		if e.removed || e.persisted {
			continue
		}
		values := e.values()
		args := append([]any{e.key.id}, values...)
		if err := s.exec(ctx, "insert", r.Insert(e.table), args...); err != nil {
			return fmt.Errorf("failed to insert %s with id %d: %w", e.entity, e.key.id, err)
		}
		e.persisted = true
		e.snapshot = values
		inserted++
	}

	for _, e := range entries {
		if e.removed || !e.persisted {
			continue
		}
		values := e.values()
		columns, args := e.changes(values)
		if len(columns) == 0 {
			continue
		}
		args = append(args, e.key.id)
		if err := s.exec(ctx, "update", r.Update(e.table.Name, e.table.Columns[0].Name, columns), args...); err != nil {
			return fmt.Errorf("failed to update %s with id %d: %w", e.entity, e.key.id, err)
		}
		e.snapshot = values
		updated++
	}

	for _, e := range entries {
		if !e.removed {
			continue
		}
		if e.persisted {
			if err := s.exec(ctx, "delete", r.Delete(e.table.Name, e.table.Columns[0].Name), e.key.id); err != nil {
				return fmt.Errorf("failed to delete %s with id %d: %w", e.entity, e.key.id, err)
			}
			deleted++
		}
		delete(s.entries, e.key)
		e.handle.transition(Detached, nil)
	}
	s.order = s.live()

	if inserted+updated+deleted > 0 {
		s.logger.Debug("Session flushed", "inserted", inserted, "updated", updated, "deleted", deleted)
	}
	return nil
}

// live returns the entries still in the context, in flush order.
func (s *Session) live() []*entry {
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.order {
		if s.entries[e.key] == e {
			entries = append(entries, e)
		}
	}
	return entries
}

func (s *Session) add(e *entry) {
	s.entries[e.key] = e
	s.order = append(s.order, e)
}

func (s *Session) detachAll() {
	for _, e := range s.entries {
		e.handle.transition(Detached, nil)
	}
	s.entries = map[entityKey]*entry{}
	s.order = nil
}
