package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// incrementGenerator hands out identifiers for the increment strategy. Each table is
// seeded once from its largest stored identifier; later identifiers are computed in
// memory, so values are never reused for the lifetime of the factory even when the
// transaction that consumed them rolls back.
type incrementGenerator struct {
	mu   sync.Mutex
	last map[string]int64
}

func newIncrementGenerator() *incrementGenerator {
	return &incrementGenerator{last: map[string]int64{}}
}

// Next returns the next identifier of table. maxQuery is run through q the first time
// the table is seen; running it on the caller's transaction keeps single-connection
// pools from deadlocking.
func (g *incrementGenerator) Next(ctx context.Context, q queryer, table, maxQuery string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, seeded := g.last[table]
	if !seeded {
		var current sql.NullInt64
		if err := q.QueryRowContext(ctx, maxQuery).Scan(&current); err != nil {
			return 0, fmt.Errorf("failed to seed identifier generator for %s: %w", table, err)
		}
		last = current.Int64
	}

	last++
	g.last[table] = last
	return last, nil
}

// Reset forgets the seed of table, so the next identifier is read from the database again.
func (g *incrementGenerator) Reset(table string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, table)
}
