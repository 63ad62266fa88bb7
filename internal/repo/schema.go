package repo

import (
	"context"
	"database/sql"
	"sort"
)

// ========================
// COLUMN DESCRIPTOR
// ========================

// ColumnSet is the set of columns a write may touch. Input fields that are
// not in the set are dropped, not rejected, so the store keeps working when
// the table gains or loses columns.
type ColumnSet map[string]struct{}

// NewColumnSet builds a ColumnSet from column names.
func NewColumnSet(names ...string) ColumnSet {
	cs := make(ColumnSet, len(names))
	for _, n := range names {
		cs[n] = struct{}{}
	}
	return cs
}

// Has reports whether the column is part of the set.
func (cs ColumnSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

// Filter returns the subset of fields whose keys are known columns.
// Unknown keys are silently dropped. The input map is not modified.
func (cs ColumnSet) Filter(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if cs.Has(k) {
			out[k] = v
		}
	}
	return out
}

// Names returns the column names in sorted order.
func (cs ColumnSet) Names() []string {
	names := make([]string, 0, len(cs))
	for n := range cs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Introspector computes the current ColumnSet for a table. The store calls
// it before every write so a schema change picked up mid-process is honored
// on the next mutation.
type Introspector func(ctx context.Context, table string) (ColumnSet, error)

// querier is the subset of *sql.DB / *sql.Tx used for introspection.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// IntrospectColumns reads the table's column names from
// information_schema. It is the default Introspector.
func IntrospectColumns(q querier) Introspector {
	return func(ctx context.Context, table string) (ColumnSet, error) {
		rows, err := q.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_name = $1`,
			table,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		cs := make(ColumnSet)
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			cs[name] = struct{}{}
		}
		return cs, rows.Err()
	}
}

// FixedColumns returns an Introspector that always yields the given set.
// For callers that want a pinned schema instead of live discovery.
func FixedColumns(cs ColumnSet) Introspector {
	return func(ctx context.Context, table string) (ColumnSet, error) {
		return cs, nil
	}
}
