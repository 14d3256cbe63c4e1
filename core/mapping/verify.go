package mapping

import (
	"errors"
	"fmt"

	"github.com/stokaro/albumstore/core/goschema"
)

// Verify checks that the annotations parsed from an entity's Go source agree with its
// mapping descriptor: same table, same identifier column, same columns and nullability.
func Verify(d Descriptor, db *goschema.Database) error {
	table, ok := db.TableByName(d.TableName())
	if !ok {
		return fmt.Errorf("entity %s: table %s is not declared in the annotated sources", d.EntityName(), d.TableName())
	}

	declared := map[string]goschema.Field{}
	for _, f := range db.FieldsOf(table.StructName) {
		declared[f.Name] = f
	}

	var errs []error
	id := d.IDColumn()
	if f, ok := declared[id.Name]; !ok {
		errs = append(errs, fmt.Errorf("identifier column %s is not declared", id.Name))
	} else {
		if !f.Primary {
			errs = append(errs, fmt.Errorf("identifier column %s is not declared primary", id.Name))
		}
		if f.Generator != "" && f.Generator != string(d.Strategy()) {
			errs = append(errs, fmt.Errorf("identifier column %s declares generator %q, mapping uses %q", id.Name, f.Generator, d.Strategy()))
		}
		delete(declared, id.Name)
	}

	for _, col := range d.Columns() {
		f, ok := declared[col.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("column %s is not declared", col.Name))
			continue
		}
		if f.Nullable != col.Nullable {
			errs = append(errs, fmt.Errorf("column %s: annotation nullable=%t, mapping nullable=%t", col.Name, f.Nullable, col.Nullable))
		}
		delete(declared, col.Name)
	}

	for name := range declared {
		errs = append(errs, fmt.Errorf("column %s is declared but not mapped", name))
	}

	if len(errs) > 0 {
		return fmt.Errorf("entity %s does not match its annotations: %w", d.EntityName(), errors.Join(errs...))
	}
	return nil
}
