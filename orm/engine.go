// Package orm executes schema-driven statements against registered
// connection pools and decodes the results into generic documents.
package orm

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/dialect"
	"github.com/satishbabariya/zorm/internal/debug"
	"github.com/satishbabariya/zorm/pool"
	"github.com/satishbabariya/zorm/schema"
)

// Engine ties one dialect to a pool registry and the set of registered
// table schemas. Executors for individual tables are created from it.
type Engine struct {
	enc   dialect.Encoder
	pools *pool.Registry

	mu     sync.RWMutex
	tables map[string]*schema.Table
}

// NewEngine creates an engine for the named dialect.
func NewEngine(name string, pools *pool.Registry) (*Engine, error) {
	enc, err := dialect.New(name)
	if err != nil {
		return nil, err
	}
	return &Engine{enc: enc, pools: pools, tables: map[string]*schema.Table{}}, nil
}

// Encoder returns the engine's dialect encoder.
func (e *Engine) Encoder() dialect.Encoder { return e.enc }

// Pools returns the engine's pool registry.
func (e *Engine) Pools() *pool.Registry { return e.pools }

// Register makes a table schema available to executors and to association
// fetching. Registering the same entity twice replaces the earlier schema.
func (e *Engine) Register(t *schema.Table) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tables[t.Name] = t
}

// Table looks a registered schema up by entity name.
func (e *Engine) Table(name string) (*schema.Table, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tables[name]
	return t, ok
}

// Model returns an executor for the registered entity.
func (e *Engine) Model(name string) (*Executor, error) {
	t, ok := e.Table(name)
	if !ok {
		return nil, fmt.Errorf("entity %q is not registered", name)
	}
	return NewExecutor(t, e), nil
}

// Execute runs a raw statement on the named pool and returns the number of
// affected rows.
func (e *Engine) Execute(ctx context.Context, poolName, statement string) (int64, error) {
	p := e.pools.Get(poolName)
	if p == nil {
		return 0, fmt.Errorf("%w: no pool named %q", zorm.ErrPoolUnavailable, poolName)
	}
	return execute(ctx, p, statement)
}

// QueryRows runs a raw query on the named pool and decodes every row.
func (e *Engine) QueryRows(ctx context.Context, poolName, statement string) ([]zorm.Map, error) {
	p := e.pools.Get(poolName)
	if p == nil {
		return nil, fmt.Errorf("%w: no pool named %q", zorm.ErrPoolUnavailable, poolName)
	}
	return queryRows(ctx, p, e.enc, statement)
}

// QueryRow runs a raw query on the named pool and decodes the first row.
func (e *Engine) QueryRow(ctx context.Context, poolName, statement string) (zorm.Map, error) {
	rows, err := e.QueryRows(ctx, poolName, statement)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, zorm.ErrNotFound
	}
	return rows[0], nil
}

func execute(ctx context.Context, p *pool.Pool, statement string) (int64, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	debug.Debug("executing statement", "pool", p.Name(), "sql", statement)
	result, err := conn.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func queryRows(ctx context.Context, p *pool.Pool, enc dialect.Encoder, statement string) ([]zorm.Map, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	debug.Debug("executing query", "pool", p.Name(), "sql", statement)
	rows, err := conn.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return decodeRows(rows, enc)
}

// decodeRows converts a result set into documents, mapping each value
// through the dialect decoder based on the driver-reported type name.
func decodeRows(rows *sql.Rows, enc dialect.Encoder) ([]zorm.Map, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	var docs []zorm.Map
	for rows.Next() {
		values := make([]any, len(columnTypes))
		pointers := make([]any, len(columnTypes))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		doc := make(zorm.Map, len(columnTypes))
		for i, ct := range columnTypes {
			decoded, err := enc.DecodeValue(ct.DatabaseTypeName(), values[i])
			if err != nil {
				return nil, &zorm.DecodeError{
					Column:   ct.Name(),
					TypeName: ct.DatabaseTypeName(),
					Cause:    err,
				}
			}
			doc[ct.Name()] = decoded
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
