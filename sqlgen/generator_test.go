package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/dialect"
	"github.com/satishbabariya/zorm/query"
	"github.com/satishbabariya/zorm/schema"
)

func userTable() *schema.Table {
	return &schema.Table{
		Name:       "user",
		Namespace:  "app",
		PrimaryKey: "id",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "name", Type: schema.TypeString},
			{Name: "age", Type: schema.TypeUint8, Default: "0"},
			{Name: "bio", Type: schema.TypeString, Nullable: true},
			{Name: "tags", Type: schema.TypeStrings},
			{Name: "created_at", Type: schema.TypeDateTime, Default: "now"},
		},
	}
}

func postgresGenerator(t *testing.T) *Generator {
	t.Helper()
	enc, err := dialect.New("postgres")
	require.NoError(t, err)
	return New(userTable(), enc)
}

func TestCreateTable(t *testing.T) {
	g := postgresGenerator(t)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS app_user ("+
			"id UUID NOT NULL, "+
			"name TEXT NOT NULL, "+
			"age SMALLINT DEFAULT 0, "+
			"bio TEXT, "+
			"tags TEXT[] NOT NULL, "+
			"created_at TIMESTAMPTZ DEFAULT now(), "+
			"CONSTRAINT app_user_pkey PRIMARY KEY (id));",
		g.CreateTable())
}

func TestCreateTableForeignKey(t *testing.T) {
	enc, err := dialect.New("postgres")
	require.NoError(t, err)
	table := &schema.Table{
		Name:       "order",
		Namespace:  "app",
		PrimaryKey: "id",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{
				Name:      "user_id",
				Type:      schema.TypeUUID,
				Reference: &schema.Reference{Entity: "user", Column: "id"},
				Extra:     map[string]string{"foreign_key": "true", "on_delete": "cascade"},
			},
		},
	}
	g := New(table, enc)
	assert.Contains(t, g.CreateTable(),
		"FOREIGN KEY (user_id) REFERENCES app_user(id) ON DELETE CASCADE")
}

func TestCreateIndexesGroupsTextColumnsByLanguage(t *testing.T) {
	enc, err := dialect.New("postgres")
	require.NoError(t, err)
	table := &schema.Table{
		Name:       "post",
		Namespace:  "app",
		PrimaryKey: "id",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "author", Type: schema.TypeUUID, Index: "hash"},
			{Name: "title", Type: schema.TypeString, Index: "text"},
			{Name: "body", Type: schema.TypeString, Index: "text"},
			{Name: "resumen", Type: schema.TypeString, Index: "text:spanish"},
		},
	}
	statements := New(table, enc).CreateIndexes()
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "USING hash")
	// title and body share english, resumen gets its own index.
	assert.Contains(t, statements[1], "to_tsvector('english'")
	assert.Contains(t, statements[1], `coalesce("title", '') || ' ' || coalesce("body", '')`)
	assert.Contains(t, statements[2], "to_tsvector('spanish'")
}

func TestInsertProjectsEveryColumn(t *testing.T) {
	g := postgresGenerator(t)
	doc := zorm.Map{
		"id":   "9bb1a1a2-0001-0000-0000-000000000000",
		"name": "Ada",
		"tags": []string{"go"},
	}
	assert.Equal(t,
		"INSERT INTO app_user (id,name,age,bio,tags,created_at) "+
			"VALUES ('9bb1a1a2-0001-0000-0000-000000000000','Ada',DEFAULT,NULL,ARRAY['go']::TEXT[],DEFAULT);",
		g.Insert(doc))
}

func TestInsertMany(t *testing.T) {
	g := postgresGenerator(t)
	docs := []zorm.Map{
		{"id": "u1", "name": "Ada"},
		{"id": "u2", "name": "Grace", "age": 36},
	}
	assert.Equal(t,
		"INSERT INTO app_user (id,name,age,bio,tags,created_at) VALUES "+
			"('u1','Ada',DEFAULT,NULL,NULL,DEFAULT),"+
			"('u2','Grace',36,NULL,NULL,DEFAULT);",
		g.InsertMany(docs))
}

func TestUpdateSnapshotsByPrimaryKey(t *testing.T) {
	g := postgresGenerator(t)
	doc := zorm.Map{"id": "u1", "name": "Ada", "age": 37}
	assert.Equal(t,
		"UPDATE app_user SET name = 'Ada',age = 37,bio = NULL,tags = NULL,created_at = DEFAULT "+
			"WHERE id = 'u1';",
		g.Update(doc))
}

func TestUpsert(t *testing.T) {
	g := postgresGenerator(t)
	doc := zorm.Map{"id": "u1", "name": "Ada"}
	stmt := g.Upsert(doc)
	assert.Contains(t, stmt, "INSERT INTO app_user (id,name,age,bio,tags,created_at)")
	assert.Contains(t, stmt, "ON CONFLICT (id) DO UPDATE SET name = 'Ada'")
}

func TestUpdateOneBoundsThroughSubquery(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New().SetFilter("name", "Ada").OrderBy("created_at", true)
	m := query.NewMutation().Set("age", 30)

	stmt, err := g.UpdateOne(q, m)
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE app_user SET age = 30 WHERE id IN "+
			`(SELECT id FROM app_user WHERE "name" = 'Ada' ORDER BY "created_at" DESC LIMIT 1);`,
		stmt)
}

func TestDeleteOneBoundsThroughSubquery(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New().SetFilter("name", "Ada")

	stmt, err := g.DeleteOne(q)
	require.NoError(t, err)
	assert.Equal(t,
		`DELETE FROM app_user WHERE id IN (SELECT id FROM app_user WHERE "name" = 'Ada' LIMIT 1);`,
		stmt)
}

func TestFind(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New().
		SetFields("id", "name").
		SetFilter("age", "18,65").
		OrderBy("created_at", true).
		Paginate(20, 10)

	stmt, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "name" FROM app_user WHERE "age" >= 18 AND "age" < 65 `+
			`ORDER BY "created_at" DESC LIMIT 10 OFFSET 20;`,
		stmt)
}

func TestFindPaginationDropsOffsetWhenSortFieldFiltered(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New().
		SetFilter("created_at", "<2024-05-01 00:00:00").
		OrderBy("created_at", true).
		Paginate(20, 10)

	stmt, err := g.Find(q)
	require.NoError(t, err)
	// The filter already bounds the scan, so only LIMIT is emitted.
	assert.Contains(t, stmt, "LIMIT 10;")
	assert.NotContains(t, stmt, "OFFSET")
}

func TestFindCompilesFiltersInLexicalOrder(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New()
	q.Filters = zorm.Map{"name": "Ada", "age": 30, "bio": "notnull"}
	q.Limit = 0

	first, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM app_user WHERE "age" = 30 AND ("bio" = '') IS FALSE AND "name" = 'Ada';`,
		first)
	for i := 0; i < 20; i++ {
		stmt, err := g.Find(q)
		require.NoError(t, err)
		assert.Equal(t, first, stmt)
	}
}

func TestFindTextSearch(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New()
	q.Limit = 0
	q.Filters = zorm.Map{
		"$search": "gopher",
		"$fields": "name,bio",
	}

	stmt, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM app_user WHERE to_tsvector('english', "name" || ' ' || "bio") `+
			`@@ websearch_to_tsquery('english', 'gopher');`,
		stmt)
}

func TestFindLenientSkipsUnknownFields(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New()
	q.Limit = 0
	q.Filters = zorm.Map{"nonexistent": 1, "name": "Ada"}

	stmt, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM app_user WHERE "name" = 'Ada';`, stmt)
}

func TestFindStrictRejectsUnknownFields(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New()
	q.Strict = true
	q.Filters = zorm.Map{"nonexistent": 1}

	_, err := g.Find(q)
	require.Error(t, err)
	assert.ErrorIs(t, err, zorm.ErrMalformedFilter)
}

func TestFindEmptyInFilterDropsCondition(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New()
	q.Limit = 0
	q.Filters = zorm.Map{"age": map[string]any{"$in": []any{}}}

	stmt, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM app_user;", stmt)
}

func TestCount(t *testing.T) {
	g := postgresGenerator(t)
	q := query.New().SetFilter("name", "Ada")

	stmt, err := g.Count(q)
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) FROM app_user WHERE "name" = 'Ada';`, stmt)
}

func TestFindByIDAndDelete(t *testing.T) {
	g := postgresGenerator(t)
	assert.Equal(t, "SELECT * FROM app_user WHERE id = 'u1';", g.FindByID("u1"))
	assert.Equal(t, "DELETE FROM app_user WHERE id = 'u1';", g.Delete("u1"))
}

func TestMySQLPaginationInFind(t *testing.T) {
	enc, err := dialect.New("mysql")
	require.NoError(t, err)
	g := New(userTable(), enc)
	q := query.New().OrderBy("created_at", false).Paginate(20, 10)

	stmt, err := g.Find(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM app_user ORDER BY `created_at` ASC LIMIT 20, 10;", stmt)
}
