package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"
	"go.opentelemetry.io/otel/attribute"
)

type filter func(*postgrest.FilterBuilder) *postgrest.FilterBuilder

type order struct {
	column    string
	ascending bool
}

// Query collects a PostgREST request against one table. Builders are not
// safe for concurrent use; create one per call via Client.Table.
type Query struct {
	client  *Client
	table   string
	columns []string
	filters []filter
	orders  []order
	limit   int
	offset  int
}

// Table starts a query against the named table or view.
func (c *Client) Table(name string) *Query {
	return &Query{client: c, table: name}
}

func (q *Query) add(f filter) *Query {
	q.filters = append(q.filters, f)
	return q
}

// Eq filters col = v.
func (q *Query) Eq(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Eq(col, s) })
}

// Neq filters col <> v.
func (q *Query) Neq(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Neq(col, s) })
}

// Gt filters col > v.
func (q *Query) Gt(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Gt(col, s) })
}

// Gte filters col >= v.
func (q *Query) Gte(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Gte(col, s) })
}

// Lt filters col < v.
func (q *Query) Lt(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Lt(col, s) })
}

// Lte filters col <= v.
func (q *Query) Lte(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Lte(col, s) })
}

// ILike filters col ILIKE pattern. PostgREST accepts * as well as % as wildcard.
func (q *Query) ILike(col, pattern string) *Query {
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Ilike(col, pattern) })
}

// Is filters col IS v, where v is nil, true or false.
func (q *Query) Is(col string, v any) *Query {
	s := formatValue(v)
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.Is(col, s) })
}

// In filters col IN (vs...). Values holding reserved characters are quoted.
func (q *Query) In(col string, vs ...any) *Query {
	values := make([]string, 0, len(vs))
	for _, v := range vs {
		values = append(values, formatValue(v))
	}
	return q.add(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder { return fb.In(col, values) })
}

// Select restricts the returned columns. Embedded resources use PostgREST syntax.
func (q *Query) Select(cols ...string) *Query {
	q.columns = cols
	return q
}

// Order appends an ORDER BY term. Nulls sort last.
func (q *Query) Order(col string, ascending bool) *Query {
	q.orders = append(q.orders, order{column: col, ascending: ascending})
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows of a limited query.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Get runs a SELECT and decodes the JSON array into dest (a pointer to a slice).
func (q *Query) Get(ctx context.Context, dest any) error {
	return q.run(ctx, "select", dest, func(qb *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		fb := qb.Select(strings.Join(q.columns, ","), "", false)
		for _, o := range q.orders {
			fb = fb.Order(o.column, &postgrest.OrderOpts{Ascending: o.ascending})
		}
		switch {
		case q.limit > 0 && q.offset > 0:
			fb = fb.Range(q.offset, q.offset+q.limit-1, "")
		case q.limit > 0:
			fb = fb.Limit(q.limit, "")
		}
		return fb
	})
}

// Insert inserts rows (a struct, map, or slice of them) and decodes the
// inserted representation into dest when dest is non-nil.
func (q *Query) Insert(ctx context.Context, rows any, dest any) error {
	if err := encodable(rows); err != nil {
		return fmt.Errorf("insert %s: %w", q.table, err)
	}
	return q.run(ctx, "insert", dest, func(qb *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return qb.Insert(rows, false, "", returning(dest), "")
	})
}

// Upsert inserts rows, merging on the onConflict column list.
func (q *Query) Upsert(ctx context.Context, rows any, onConflict string, dest any) error {
	if err := encodable(rows); err != nil {
		return fmt.Errorf("upsert %s: %w", q.table, err)
	}
	return q.run(ctx, "upsert", dest, func(qb *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return qb.Upsert(rows, onConflict, returning(dest), "")
	})
}

// Update patches every row matching the filters.
func (q *Query) Update(ctx context.Context, patch any, dest any) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("updating %s: refusing to update without filters", q.table)
	}
	if err := encodable(patch); err != nil {
		return fmt.Errorf("update %s: %w", q.table, err)
	}
	return q.run(ctx, "update", dest, func(qb *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return qb.Update(patch, returning(dest), "")
	})
}

// Delete removes every row matching the filters.
func (q *Query) Delete(ctx context.Context) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("deleting from %s: refusing to delete without filters", q.table)
	}
	return q.run(ctx, "delete", nil, func(qb *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return qb.Delete("minimal", "")
	})
}

func (q *Query) run(ctx context.Context, op string, dest any, build func(*postgrest.QueryBuilder) *postgrest.FilterBuilder) error {
	cl := q.client.start(ctx, "supabase."+op+" "+q.table, attribute.String("db.collection.name", q.table))

	fb := build(q.client.rest(cl).From(q.table))
	for _, f := range q.filters {
		fb = f(fb)
	}

	data, _, err := fb.Execute()
	if err != nil {
		return cl.end(fmt.Errorf("%s %s: %w", op, q.table, statusError(cl, err)))
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return cl.end(nil)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return cl.end(fmt.Errorf("%s %s: decoding response: %w", op, q.table, err))
	}
	return cl.end(nil)
}

func returning(dest any) string {
	if dest == nil {
		return "minimal"
	}
	return "representation"
}

// encodable reports marshal failures before the SDK sees the value; the SDK
// returns an unusable builder for them.
func encodable(v any) error {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
