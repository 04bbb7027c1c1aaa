package engine

import (
	"context"
	"fmt"
	"strings"

	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
)

// writeSet is the intersection of a request body with an entity's
// allow-list, in field-list order. Unknown keys are dropped silently;
// the identity field can never appear because Fields never contains it.
type writeSet struct {
	cols []string
	vals []any
}

func (w writeSet) empty() bool { return len(w.cols) == 0 }

func (w writeSet) has(col string) bool {
	for _, c := range w.cols {
		if c == col {
			return true
		}
	}
	return false
}

func (w writeSet) set(col string, val any) {
	for i, c := range w.cols {
		if c == col {
			w.vals[i] = val
			return
		}
	}
}

func buildWriteSet(entity *metadata.Entity, body map[string]any) writeSet {
	var ws writeSet
	for _, f := range entity.Fields {
		if v, ok := body[f]; ok {
			ws.cols = append(ws.cols, f)
			ws.vals = append(ws.vals, v)
		}
	}
	return ws
}

// buildInsertSQL renders an INSERT for the write set. An empty write
// set inserts a defaults-only row rather than failing.
func buildInsertSQL(d store.Dialect, entity *metadata.Entity, ws writeSet) (string, []any) {
	if ws.empty() {
		return "INSERT INTO " + entity.Table + " DEFAULT VALUES" + d.ReturningClause("id"), nil
	}
	pb := d.NewParamBuilder()
	placeholders := make([]string, len(ws.vals))
	for i, v := range ws.vals {
		placeholders[i] = pb.Add(v)
	}
	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		entity.Table, strings.Join(ws.cols, ", "), strings.Join(placeholders, ", "),
		d.ReturningClause("id"))
	return sqlStr, pb.Params()
}

func buildUpdateSQL(d store.Dialect, entity *metadata.Entity, id int64, ws writeSet) (string, []any) {
	pb := d.NewParamBuilder()
	assignments := make([]string, len(ws.cols))
	for i, c := range ws.cols {
		assignments[i] = c + " = " + pb.Add(ws.vals[i])
	}
	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		entity.Table, strings.Join(assignments, ", "), pb.Add(id))
	return sqlStr, pb.Params()
}

func buildDeleteSQL(d store.Dialect, entity *metadata.Entity, id int64) (string, []any) {
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE id = %s", entity.Table, pb.Add(id))
	return sqlStr, pb.Params()
}

func selectColumns(entity *metadata.Entity) string {
	return "id, " + strings.Join(entity.Fields, ", ")
}

func fetchRecord(ctx context.Context, q store.Querier, d store.Dialect, entity *metadata.Entity, id int64) (map[string]any, error) {
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		selectColumns(entity), entity.Table, pb.Add(id))
	return store.QueryRow(ctx, q, sqlStr, pb.Params()...)
}

func fetchAll(ctx context.Context, q store.Querier, entity *metadata.Entity) ([]map[string]any, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM %s", selectColumns(entity), entity.Table)
	return store.QueryRows(ctx, q, sqlStr)
}
