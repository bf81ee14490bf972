// Package query defines the structured, dynamically-typed query and mutation
// documents consumed by the SQL generator. A document describes what to
// select, filter, sort and paginate independently of any SQL dialect.
package query

import zorm "github.com/satishbabariya/zorm"

// DefaultLimit bounds a query that does not set its own limit.
const DefaultLimit = 10

// Query describes one read or selection: a projection, a filter map, a sort
// order and pagination. It is constructed per request, consumed once by the
// SQL generator and never mutated by the driver.
type Query struct {
	// Fields is the projection. Empty means all declared columns.
	Fields []string

	// Filters maps field names to filter values. A filter value is a
	// scalar, a range-encoded string ("min,max"), a comparison-prefixed
	// string ("<", "<=", ">", ">="), the sentinels "null"/"notnull", or an
	// object keyed by $-operators ($eq, $ne, $lt, $lte, $gt, $gte, $in,
	// $nin, $all, $size).
	Filters zorm.Map

	// SortBy is the sort field. Empty means no ordering.
	SortBy string

	// Descending inverts the sort order.
	Descending bool

	// Offset skips rows before the first returned one.
	Offset uint64

	// Limit bounds the number of returned rows.
	Limit uint64

	// Strict makes filter compilation fail on malformed input instead of
	// degrading to best-effort predicates.
	Strict bool
}

// New creates a query with the default pagination.
func New() *Query {
	return &Query{
		Filters: zorm.Map{},
		Limit:   DefaultLimit,
	}
}

// AppendFilter merges the given filters into the query, overriding existing
// entries with the same field name.
func (q *Query) AppendFilter(filters zorm.Map) *Query {
	if q.Filters == nil {
		q.Filters = zorm.Map{}
	}
	for field, value := range filters {
		q.Filters[field] = value
	}
	return q
}

// SetFilter sets a single filter entry.
func (q *Query) SetFilter(field string, value any) *Query {
	if q.Filters == nil {
		q.Filters = zorm.Map{}
	}
	q.Filters[field] = value
	return q
}

// SetFields sets the projection.
func (q *Query) SetFields(fields ...string) *Query {
	q.Fields = fields
	return q
}

// OrderBy sets the sort field and order.
func (q *Query) OrderBy(field string, descending bool) *Query {
	q.SortBy = field
	q.Descending = descending
	return q
}

// Paginate sets the offset and limit.
func (q *Query) Paginate(offset, limit uint64) *Query {
	q.Offset = offset
	q.Limit = limit
	return q
}
