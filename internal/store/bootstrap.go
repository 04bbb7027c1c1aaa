package store

import (
	"context"
	"fmt"
	"strings"

	"lims-backend/internal/metadata"
)

// EnsureEntityTables creates one table per entity descriptor if it does
// not yet exist. Field columns are TEXT; the integer id is assigned by
// the store. Safe to run on every startup.
//
// Table and column names come from the trusted registry only. Client
// values never reach DDL.
func (s *Store) EnsureEntityTables(ctx context.Context, entities []*metadata.Entity) error {
	for _, e := range entities {
		ddl := buildCreateTableSQL(s.Dialect, e)
		if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", e.Table, err)
		}
	}
	return nil
}

func buildCreateTableSQL(d Dialect, e *metadata.Entity) string {
	var cols []string
	cols = append(cols, "id "+d.PrimaryKeyDDL())
	for _, f := range e.Fields {
		// Unique columns stay nullable so a defaults-only insert
		// succeeds; both engines allow repeated NULLs under UNIQUE.
		col := f + " TEXT"
		if e.IsUnique(f) {
			col += " UNIQUE"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		e.Table, strings.Join(cols, ",\n    "))
}
