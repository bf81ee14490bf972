package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/zorm/schema"
)

func TestPostgresColumnType(t *testing.T) {
	e := &PostgresEncoder{}

	tests := []struct {
		columnType string
		want       string
	}{
		{schema.TypeBool, "BOOLEAN"},
		{schema.TypeUint64, "BIGINT"},
		{schema.TypeInt32, "INT"},
		{schema.TypeFloat64, "DOUBLE PRECISION"},
		{schema.TypeString, "TEXT"},
		{schema.TypeDateTime, "TIMESTAMPTZ"},
		{schema.TypeUUID, "UUID"},
		{schema.TypeBytes, "BYTEA"},
		{schema.TypeStrings, "TEXT[]"},
		{schema.TypeUUIDs, "UUID[]"},
		{schema.TypeMap, "JSONB"},
		{"CIDR", "CIDR"}, // unknown tags pass through
	}
	for _, tt := range tests {
		t.Run(tt.columnType, func(t *testing.T) {
			c := &schema.Column{Name: "c", Type: tt.columnType}
			assert.Equal(t, tt.want, e.ColumnType(c))
		})
	}
}

func TestPostgresEncodeValue(t *testing.T) {
	e := &PostgresEncoder{}
	name := &schema.Column{Name: "name", Type: schema.TypeString}
	visits := &schema.Column{Name: "visits", Type: schema.TypeUint64}
	status := &schema.Column{Name: "status", Type: schema.TypeString, Default: "active"}
	tags := &schema.Column{Name: "tags", Type: schema.TypeStrings}
	extras := &schema.Column{Name: "extras", Type: schema.TypeMap}

	tests := []struct {
		name   string
		column *schema.Column
		value  any
		want   string
	}{
		{"nil is NULL", name, nil, "NULL"},
		{"bool renders keyword", name, true, "TRUE"},
		{"integer renders bare", visits, 42, "42"},
		{"string escapes quotes", name, "O'Brien", "'O''Brien'"},
		{"null sentinel", name, "null", "NULL"},
		{"empty without default", name, "", "''"},
		{"empty falls back to default", status, "", "'active'"},
		{"string slice renders typed array", tags, []string{"go", "sql"}, "ARRAY['go','sql']::TEXT[]"},
		{"map renders casted json", extras, map[string]any{"b": 2, "a": 1}, `'{"a":1,"b":2}'::JSONB`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.EncodeValue(tt.column, tt.value))
		})
	}
}

func TestPostgresFormatValueTemporalKeywords(t *testing.T) {
	e := &PostgresEncoder{}
	created := &schema.Column{Name: "created_at", Type: schema.TypeDateTime}
	birthday := &schema.Column{Name: "birthday", Type: schema.TypeDate}

	assert.Equal(t, "'epoch'", e.FormatValue(created, "epoch"))
	assert.Equal(t, "now()", e.FormatValue(created, "now"))
	assert.Equal(t, "date_trunc('day', now())", e.FormatValue(created, "today"))
	assert.Equal(t, "date_trunc('day', now()) + '1 day'::INTERVAL", e.FormatValue(created, "tomorrow"))
	assert.Equal(t, "current_date - 1", e.FormatValue(birthday, "yesterday"))
	assert.Equal(t, "'2024-05-01'", e.FormatValue(birthday, "2024-05-01"))
}

func TestPostgresFormatValueGracefulDegradation(t *testing.T) {
	e := &PostgresEncoder{}
	age := &schema.Column{Name: "age", Type: schema.TypeUint8}

	// Unparseable numerics degrade to NULL instead of injecting raw text.
	assert.Equal(t, "NULL", e.FormatValue(age, "18; DROP TABLE users"))
	assert.Equal(t, "18", e.FormatValue(age, "18"))
}

func TestPostgresFormatFilter(t *testing.T) {
	e := &PostgresEncoder{}
	age := &schema.Column{Name: "age", Type: schema.TypeUint8}
	bio := &schema.Column{Name: "bio", Type: schema.TypeString}
	id := &schema.Column{Name: "id", Type: schema.TypeUUID}
	tags := &schema.Column{Name: "tags", Type: schema.TypeStrings}
	extras := &schema.Column{Name: "extras", Type: schema.TypeMap}

	tests := []struct {
		name   string
		column *schema.Column
		value  any
		want   string
	}{
		{"range is half open", age, "18,65", `"age" >= 18 AND "age" < 65`},
		{"numeric prefix operator", age, ">=21", `"age" >= 21`},
		{"numeric equality", age, 30, `"age" = 30`},
		{"string null matches empty too", bio, "null", `("bio" = '') IS NOT FALSE`},
		{"string notnull", bio, "notnull", `("bio" = '') IS FALSE`},
		{"string like prefix", bio, "*gopher", `"bio" ILIKE 'gopher'`},
		{"string regex prefix", bio, "~*^go", `"bio" ~* '^go'`},
		{"uuid comma list becomes IN", id,
			"9bb1a1a2-0001-0000-0000-000000000000,9bb1a1a2-0002-0000-0000-000000000000",
			`"id" IN ('9bb1a1a2-0001-0000-0000-000000000000','9bb1a1a2-0002-0000-0000-000000000000')`},
		{"operator object sorts lexically", age,
			map[string]any{"$lt": 65, "$gte": 18}, `("age" >= 18 AND "age" < 65)`},
		{"empty in list drops silently", age,
			map[string]any{"$in": []any{}}, ""},
		{"in list renders literals", age,
			map[string]any{"$in": []any{18, 21}}, `"age" IN (18,21)`},
		{"array overlap", tags, "go", `"tags" && ARRAY['go']::TEXT[]`},
		{"array containment groups", tags, "go;sql", `"tags" @> ARRAY['go','sql']::TEXT[]`},
		{"array or of containments", tags, "go;sql,rust",
			`"tags" @> ARRAY['go','sql']::TEXT[] OR "tags" @> ARRAY['rust']::TEXT[]`},
		{"array size", tags, map[string]any{"$size": 3}, `(array_length("tags", 1) = 3)`},
		{"map path existence", extras, "$.settings.theme", `"extras" @? '$.settings.theme'`},
		{"map containment", extras, map[string]any{"plan": "pro"}, `"extras" @> '{"plan":"pro"}'::JSONB`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FormatFilter(tt.column, tt.column.Name, tt.value))
		})
	}
}

func TestPostgresFormatFilterDeterministic(t *testing.T) {
	e := &PostgresEncoder{}
	age := &schema.Column{Name: "age", Type: schema.TypeUint8}
	filter := map[string]any{"$gte": 18, "$lt": 65, "$ne": 40}

	first := e.FormatFilter(age, "age", filter)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.FormatFilter(age, "age", filter))
	}
}

func TestPostgresPaginationAndUpsert(t *testing.T) {
	e := &PostgresEncoder{}
	assert.Equal(t, "LIMIT 10 OFFSET 20", e.FormatPagination(10, 20))
	assert.Equal(t, "ON CONFLICT (id) DO UPDATE SET name = 'x'", e.UpsertClause("id", "name = 'x'"))
}

func TestPostgresIndexStatements(t *testing.T) {
	e := &PostgresEncoder{}
	visits := &schema.Column{Name: "visits", Type: schema.TypeUint64, Index: "btree"}
	assert.Equal(t,
		`CREATE INDEX CONCURRENTLY IF NOT EXISTS users_visits_index ON users USING btree("visits" DESC);`,
		e.IndexStatement("users", visits))

	stmt := e.TextSearchIndex("users", "english", []string{"name", "bio"})
	assert.Equal(t,
		`CREATE INDEX CONCURRENTLY IF NOT EXISTS users_text_search_english_index ON users USING gin(to_tsvector('english', coalesce("name", '') || ' ' || coalesce("bio", '')));`,
		stmt)
}

func TestPostgresTextSearchFilter(t *testing.T) {
	e := &PostgresEncoder{}
	assert.Equal(t,
		`to_tsvector('english', "bio") @@ websearch_to_tsquery('english', 'gopher')`,
		e.TextSearchFilter([]string{"bio"}, "gopher", ""))
}

func TestPostgresDecodeValue(t *testing.T) {
	e := &PostgresEncoder{}

	decoded, err := e.DecodeValue("INT8", []byte("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded)

	decoded, err = e.DecodeValue("UUID", "9bb1a1a2-0001-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, "9bb1a1a2-0001-0000-0000-000000000000", decoded)

	_, err = e.DecodeValue("UUID", "not-a-uuid")
	assert.Error(t, err)

	decoded, err = e.DecodeValue("_TEXT", []byte(`{go,sql}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, decoded)

	decoded, err = e.DecodeValue("JSONB", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, decoded)

	decoded, err = e.DecodeValue("BOOL", true)
	require.NoError(t, err)
	assert.Equal(t, true, decoded)

	// NULL stays nil whatever the declared type.
	decoded, err = e.DecodeValue("INT8", nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
