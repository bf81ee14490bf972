package orm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/pool"
	"github.com/satishbabariya/zorm/query"
	"github.com/satishbabariya/zorm/schema"
)

func memberTable() *schema.Table {
	return &schema.Table{
		Name:       "member",
		Namespace:  "app",
		PrimaryKey: "id",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "name", Type: schema.TypeString},
			{Name: "age", Type: schema.TypeUint8, Default: "0"},
			{Name: "tags", Type: schema.TypeStrings},
		},
	}
}

// newSQLiteEngine opens a file-backed SQLite database in a temporary
// directory and prepares the member table.
func newSQLiteEngine(t *testing.T) *Engine {
	t.Helper()
	p, err := pool.Open(&pool.Config{
		Dialect:        "sqlite",
		Name:           "main",
		Database:       filepath.Join(t.TempDir(), "app.db"),
		AcquireTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	registry := pool.NewRegistry()
	registry.Add(p)

	e, err := NewEngine("sqlite", registry)
	require.NoError(t, err)
	e.Register(memberTable())

	x, err := e.Model("member")
	require.NoError(t, err)
	require.NoError(t, x.CreateTable(context.Background()))
	return e
}

func TestSQLiteInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteEngine(t)
	x, err := e.Model("member")
	require.NoError(t, err)

	doc := zorm.Map{
		"id":   "9bb1a1a2-0001-0000-0000-000000000000",
		"name": "Ada",
		"age":  30,
		"tags": []string{"go", "sql"},
	}
	require.NoError(t, x.Insert(ctx, doc))

	got, err := x.FindByID(ctx, "9bb1a1a2-0001-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, "9bb1a1a2-0001-0000-0000-000000000000", got["id"])
	assert.Equal(t, "Ada", got["name"])
	assert.Equal(t, int64(30), got["age"])
	assert.Equal(t, []any{"go", "sql"}, got["tags"])
}

func TestSQLiteUpdateOneMutatesFirstUnderSort(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteEngine(t)
	x, err := e.Model("member")
	require.NoError(t, err)

	docs := []zorm.Map{
		{"id": "9bb1a1a2-0001-0000-0000-000000000000", "name": "dup", "age": 31, "tags": []string{}},
		{"id": "9bb1a1a2-0002-0000-0000-000000000000", "name": "dup", "age": 45, "tags": []string{}},
		{"id": "9bb1a1a2-0003-0000-0000-000000000000", "name": "dup", "age": 52, "tags": []string{}},
		{"id": "9bb1a1a2-0004-0000-0000-000000000000", "name": "other", "age": 99, "tags": []string{}},
	}
	require.NoError(t, x.InsertMany(ctx, docs))

	// Three rows match; only the oldest one may change.
	q := query.New().SetFilter("name", "dup").OrderBy("age", true)
	m := query.NewMutation().Set("name", "picked")
	require.NoError(t, x.UpdateOne(ctx, q, m))

	picked, err := x.Count(ctx, query.New().SetFilter("name", "picked"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), picked)

	winner, err := x.FindOne(ctx, query.New().SetFilter("name", "picked"))
	require.NoError(t, err)
	assert.Equal(t, int64(52), winner["age"])

	remaining, err := x.Count(ctx, query.New().SetFilter("name", "dup"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}

func TestSQLiteDeleteOneRemovesFirstUnderSort(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteEngine(t)
	x, err := e.Model("member")
	require.NoError(t, err)

	docs := []zorm.Map{
		{"id": "9bb1a1a2-0001-0000-0000-000000000000", "name": "dup", "age": 31, "tags": []string{}},
		{"id": "9bb1a1a2-0002-0000-0000-000000000000", "name": "dup", "age": 45, "tags": []string{}},
		{"id": "9bb1a1a2-0003-0000-0000-000000000000", "name": "dup", "age": 52, "tags": []string{}},
	}
	require.NoError(t, x.InsertMany(ctx, docs))

	// Ascending sort puts the youngest row first; only that one may go.
	q := query.New().SetFilter("name", "dup").OrderBy("age", false)
	require.NoError(t, x.DeleteOne(ctx, q))

	remaining, err := x.Count(ctx, query.New().SetFilter("name", "dup"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	_, err = x.FindByID(ctx, "9bb1a1a2-0001-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, zorm.IsNotFound(err))
}
