package orm

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/pool"
	"github.com/satishbabariya/zorm/query"
	"github.com/satishbabariya/zorm/schema"
	"github.com/satishbabariya/zorm/sqlgen"
)

// Executor runs the schema-driven operations for one table. Reads go to
// the table's reader pool and writes to its writer pool; both default to
// the main pool.
type Executor struct {
	table  *schema.Table
	engine *Engine
	gen    *sqlgen.Generator
}

// NewExecutor creates an executor for a table on an engine.
func NewExecutor(t *schema.Table, e *Engine) *Executor {
	return &Executor{table: t, engine: e, gen: sqlgen.New(t, e.enc)}
}

// Generator exposes the statement generator, mainly for inspection and
// migration tooling.
func (x *Executor) Generator() *sqlgen.Generator { return x.gen }

func (x *Executor) reader() (*pool.Pool, error) {
	name := x.table.ReaderName()
	if p := x.engine.pools.Get(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no reader pool named %q", zorm.ErrPoolUnavailable, name)
}

func (x *Executor) writer() (*pool.Pool, error) {
	name := x.table.WriterName()
	if p := x.engine.pools.Get(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no writer pool named %q", zorm.ErrPoolUnavailable, name)
}

func (x *Executor) fail(operation string, err error) error {
	return &zorm.QueryError{Operation: operation, Table: x.table.TableName(), Cause: err}
}

// CreateTable creates the table when it does not exist yet.
func (x *Executor) CreateTable(ctx context.Context) error {
	p, err := x.writer()
	if err != nil {
		return x.fail("create table", err)
	}
	if _, err := execute(ctx, p, x.gen.CreateTable()); err != nil {
		return x.fail("create table", err)
	}
	return nil
}

// CreateIndexes creates every declared index, counting the statements that
// succeeded. Index creation keeps going past individual failures since an
// already-existing index is not worth aborting a migration over; the
// failures come back aggregated.
func (x *Executor) CreateIndexes(ctx context.Context) (int, error) {
	p, err := x.writer()
	if err != nil {
		return 0, x.fail("create indexes", err)
	}
	created := 0
	var result *multierror.Error
	for _, stmt := range x.gen.CreateIndexes() {
		if _, err := execute(ctx, p, stmt); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		created++
	}
	if err := result.ErrorOrNil(); err != nil {
		return created, x.fail("create indexes", err)
	}
	return created, nil
}

// Insert writes one document.
func (x *Executor) Insert(ctx context.Context, doc zorm.Map) error {
	p, err := x.writer()
	if err != nil {
		return x.fail("insert", err)
	}
	if _, err := execute(ctx, p, x.gen.Insert(doc)); err != nil {
		return x.fail("insert", err)
	}
	return nil
}

// InsertMany writes a batch of documents in one statement.
func (x *Executor) InsertMany(ctx context.Context, docs []zorm.Map) error {
	if len(docs) == 0 {
		return nil
	}
	p, err := x.writer()
	if err != nil {
		return x.fail("insert many", err)
	}
	if _, err := execute(ctx, p, x.gen.InsertMany(docs)); err != nil {
		return x.fail("insert many", err)
	}
	return nil
}

// Update replaces the document identified by the primary key in doc.
func (x *Executor) Update(ctx context.Context, doc zorm.Map) error {
	p, err := x.writer()
	if err != nil {
		return x.fail("update", err)
	}
	affected, err := execute(ctx, p, x.gen.Update(doc))
	if err != nil {
		return x.fail("update", err)
	}
	if affected == 0 {
		return x.fail("update", zorm.ErrNotFound)
	}
	return nil
}

// UpdateOne applies the mutation to at most one document matching the
// query.
func (x *Executor) UpdateOne(ctx context.Context, q *query.Query, m *query.Mutation) error {
	stmt, err := x.gen.UpdateOne(q, m)
	if err != nil {
		return x.fail("update one", err)
	}
	p, err := x.writer()
	if err != nil {
		return x.fail("update one", err)
	}
	affected, err := execute(ctx, p, stmt)
	if err != nil {
		return x.fail("update one", err)
	}
	if affected == 0 {
		return x.fail("update one", zorm.ErrNotFound)
	}
	return nil
}

// UpdateMany applies the mutation to every document matching the query and
// returns the number of documents changed.
func (x *Executor) UpdateMany(ctx context.Context, q *query.Query, m *query.Mutation) (int64, error) {
	stmt, err := x.gen.UpdateMany(q, m)
	if err != nil {
		return 0, x.fail("update many", err)
	}
	p, err := x.writer()
	if err != nil {
		return 0, x.fail("update many", err)
	}
	affected, err := execute(ctx, p, stmt)
	if err != nil {
		return 0, x.fail("update many", err)
	}
	return affected, nil
}

// Upsert inserts the document or replaces the existing one with the same
// primary key.
func (x *Executor) Upsert(ctx context.Context, doc zorm.Map) error {
	p, err := x.writer()
	if err != nil {
		return x.fail("upsert", err)
	}
	if _, err := execute(ctx, p, x.gen.Upsert(doc)); err != nil {
		return x.fail("upsert", err)
	}
	return nil
}

// Delete removes the document with the primary key.
func (x *Executor) Delete(ctx context.Context, id any) error {
	p, err := x.writer()
	if err != nil {
		return x.fail("delete", err)
	}
	affected, err := execute(ctx, p, x.gen.Delete(id))
	if err != nil {
		return x.fail("delete", err)
	}
	if affected == 0 {
		return x.fail("delete", zorm.ErrNotFound)
	}
	return nil
}

// DeleteOne removes at most one document matching the query.
func (x *Executor) DeleteOne(ctx context.Context, q *query.Query) error {
	stmt, err := x.gen.DeleteOne(q)
	if err != nil {
		return x.fail("delete one", err)
	}
	p, err := x.writer()
	if err != nil {
		return x.fail("delete one", err)
	}
	affected, err := execute(ctx, p, stmt)
	if err != nil {
		return x.fail("delete one", err)
	}
	if affected == 0 {
		return x.fail("delete one", zorm.ErrNotFound)
	}
	return nil
}

// DeleteMany removes every document matching the query and returns the
// number removed.
func (x *Executor) DeleteMany(ctx context.Context, q *query.Query) (int64, error) {
	stmt, err := x.gen.DeleteMany(q)
	if err != nil {
		return 0, x.fail("delete many", err)
	}
	p, err := x.writer()
	if err != nil {
		return 0, x.fail("delete many", err)
	}
	affected, err := execute(ctx, p, stmt)
	if err != nil {
		return 0, x.fail("delete many", err)
	}
	return affected, nil
}

// Find returns every document matching the query.
func (x *Executor) Find(ctx context.Context, q *query.Query) ([]zorm.Map, error) {
	stmt, err := x.gen.Find(q)
	if err != nil {
		return nil, x.fail("find", err)
	}
	p, err := x.reader()
	if err != nil {
		return nil, x.fail("find", err)
	}
	docs, err := queryRows(ctx, p, x.engine.enc, stmt)
	if err != nil {
		return nil, x.fail("find", err)
	}
	return docs, nil
}

// FindOne returns the first document matching the query.
func (x *Executor) FindOne(ctx context.Context, q *query.Query) (zorm.Map, error) {
	stmt, err := x.gen.FindOne(q)
	if err != nil {
		return nil, x.fail("find one", err)
	}
	p, err := x.reader()
	if err != nil {
		return nil, x.fail("find one", err)
	}
	docs, err := queryRows(ctx, p, x.engine.enc, stmt)
	if err != nil {
		return nil, x.fail("find one", err)
	}
	if len(docs) == 0 {
		return nil, x.fail("find one", zorm.ErrNotFound)
	}
	return docs[0], nil
}

// FindByID returns the document with the primary key.
func (x *Executor) FindByID(ctx context.Context, id any) (zorm.Map, error) {
	p, err := x.reader()
	if err != nil {
		return nil, x.fail("find by id", err)
	}
	docs, err := queryRows(ctx, p, x.engine.enc, x.gen.FindByID(id))
	if err != nil {
		return nil, x.fail("find by id", err)
	}
	if len(docs) == 0 {
		return nil, x.fail("find by id", zorm.ErrNotFound)
	}
	return docs[0], nil
}

// Count returns the number of documents matching the query.
func (x *Executor) Count(ctx context.Context, q *query.Query) (int64, error) {
	stmt, err := x.gen.Count(q)
	if err != nil {
		return 0, x.fail("count", err)
	}
	p, err := x.reader()
	if err != nil {
		return 0, x.fail("count", err)
	}
	conn, err := p.Acquire(ctx)
	if err != nil {
		return 0, x.fail("count", err)
	}
	defer conn.Close()
	var count int64
	if err := conn.QueryRowContext(ctx, stmt).Scan(&count); err != nil {
		return 0, x.fail("count", err)
	}
	return count, nil
}

// Fetch runs Find and then populates the named reference columns: the
// foreign key values of all result documents are gathered into a single
// $in query per referenced entity, and each matching parent document is
// spliced back in place of the raw key. One extra query per populated
// column, independent of the result size.
func (x *Executor) Fetch(ctx context.Context, q *query.Query, populate ...string) ([]zorm.Map, error) {
	docs, err := x.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return docs, nil
	}
	for _, field := range populate {
		if err := x.populate(ctx, docs, field); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// FetchOne runs FindOne and populates the named reference columns of the
// single result.
func (x *Executor) FetchOne(ctx context.Context, q *query.Query, populate ...string) (zorm.Map, error) {
	doc, err := x.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, field := range populate {
		if err := x.populate(ctx, []zorm.Map{doc}, field); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (x *Executor) populate(ctx context.Context, docs []zorm.Map, field string) error {
	c := x.table.Column(field)
	if c == nil || c.Reference == nil {
		return x.fail("fetch", fmt.Errorf("field %q does not reference another entity", field))
	}
	parent, ok := x.engine.Table(c.Reference.Entity)
	if !ok {
		return x.fail("fetch", fmt.Errorf("referenced entity %q is not registered", c.Reference.Entity))
	}

	var keys []any
	seen := map[string]bool{}
	for _, doc := range docs {
		value := doc[field]
		if value == nil {
			continue
		}
		key := fmt.Sprint(value)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, value)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	pq := query.New()
	pq.SetFilter(c.Reference.Column, zorm.Map{"$in": keys})
	parentExec := NewExecutor(parent, x.engine)
	stmt, err := parentExec.gen.FetchQuery(pq)
	if err != nil {
		return x.fail("fetch", err)
	}
	p, err := parentExec.reader()
	if err != nil {
		return x.fail("fetch", err)
	}
	associated, err := queryRows(ctx, p, x.engine.enc, stmt)
	if err != nil {
		return x.fail("fetch", err)
	}

	byKey := make(map[string]zorm.Map, len(associated))
	for _, doc := range associated {
		byKey[fmt.Sprint(doc[c.Reference.Column])] = doc
	}
	for _, doc := range docs {
		value := doc[field]
		if value == nil {
			continue
		}
		if match, ok := byKey[fmt.Sprint(value)]; ok {
			doc[field] = match
		}
	}
	return nil
}
