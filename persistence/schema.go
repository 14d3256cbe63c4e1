package persistence

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/stokaro/albumstore/config"
	"github.com/stokaro/albumstore/core/renderer/types"
)

// applySchema brings the database in line with the unit's schema mode.
func (f *Factory) applySchema(ctx context.Context) error {
	tables := f.createOrder()

	switch f.unit.Schema {
	case config.SchemaNone, "":
		return nil
	case config.SchemaCreate, config.SchemaCreateDrop:
		if err := f.dropTables(ctx, f.dropOrder()); err != nil {
			return err
		}
		if err := f.createTables(ctx, tables, false); err != nil {
			return err
		}
	case config.SchemaUpdate:
		if err := f.createTables(ctx, tables, true); err != nil {
			return err
		}
	case config.SchemaValidate:
		if err := f.validateSchema(ctx, tables); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid schema mode %q", f.unit.Schema)
	}

	for _, t := range tables {
		f.generator.Reset(t.Name)
	}
	f.logger.Info("Schema applied", "mode", f.unit.Schema, "tables", len(tables))
	return nil
}

// CreateStatements renders the CREATE TABLE statements of every mapped entity.
func (f *Factory) CreateStatements() []string {
	tables := f.createOrder()
	statements := make([]string, 0, len(tables))
	for _, t := range tables {
		statements = append(statements, f.renderer.CreateTable(t, false)+";")
	}
	return statements
}

// ValidateSchema compares the live tables against the mapped entities.
func (f *Factory) ValidateSchema(ctx context.Context) error {
	return f.validateSchema(ctx, f.createOrder())
}

func (f *Factory) createOrder() []types.TableSpec {
	tables := make([]types.TableSpec, 0, len(f.tables))
	for _, d := range f.mappings.All() {
		tables = append(tables, f.tables[d.EntityName()])
	}
	return tables
}

func (f *Factory) dropOrder() []types.TableSpec {
	tables := f.createOrder()
	slices.Reverse(tables)
	return tables
}

func (f *Factory) createTables(ctx context.Context, tables []types.TableSpec, ifNotExists bool) error {
	for _, t := range tables {
		stmt := f.renderer.CreateTable(t, ifNotExists)
		f.logSQL(stmt)
		if _, err := f.conn.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		f.metrics.statements.WithLabelValues("ddl").Inc()
	}
	return nil
}

func (f *Factory) dropTables(ctx context.Context, tables []types.TableSpec) error {
	for _, t := range tables {
		stmt := f.renderer.DropTable(t.Name, true)
		f.logSQL(stmt)
		if _, err := f.conn.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
		}
		f.metrics.statements.WithLabelValues("ddl").Inc()
	}
	return nil
}

func (f *Factory) validateSchema(ctx context.Context, tables []types.TableSpec) error {
	live, err := f.conn.Reader().ReadSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to read database schema: %w", err)
	}

	var errs []error
	for _, t := range tables {
		table, ok := live.Table(t.Name)
		if !ok {
			errs = append(errs, fmt.Errorf("missing table %s", t.Name))
			continue
		}
		for _, c := range t.Columns {
			col, ok := table.Column(c.Name)
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("table %s: missing column %s", t.Name, c.Name))
			case c.Primary && !col.IsPrimaryKey:
				errs = append(errs, fmt.Errorf("table %s: column %s is not the primary key", t.Name, c.Name))
			case !c.Nullable && col.Nullable():
				errs = append(errs, fmt.Errorf("table %s: column %s must be NOT NULL", t.Name, c.Name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSchemaValidation, errors.Join(errs...))
	}
	return nil
}
