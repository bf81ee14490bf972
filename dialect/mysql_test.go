package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/zorm/schema"
)

func TestMySQLColumnType(t *testing.T) {
	e := &MySQLEncoder{}

	tests := []struct {
		name   string
		column *schema.Column
		want   string
	}{
		{"unsigned widens", &schema.Column{Name: "visits", Type: schema.TypeUint64}, "BIGINT UNSIGNED"},
		{"datetime keeps microseconds", &schema.Column{Name: "created_at", Type: schema.TypeDateTime}, "TIMESTAMP(6)"},
		{"uuid is bounded text", &schema.Column{Name: "id", Type: schema.TypeUUID}, "VARCHAR(36)"},
		{"plain string is TEXT", &schema.Column{Name: "bio", Type: schema.TypeString}, "TEXT"},
		{"indexed string is bounded", &schema.Column{Name: "name", Type: schema.TypeString, Index: "btree"}, "VARCHAR(255)"},
		{"defaulted string is bounded", &schema.Column{Name: "status", Type: schema.TypeString, Default: "active"}, "VARCHAR(255)"},
		{"arrays stored as JSON", &schema.Column{Name: "tags", Type: schema.TypeStrings}, "JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ColumnType(tt.column))
		})
	}
}

func TestMySQLFormatFilter(t *testing.T) {
	e := &MySQLEncoder{}
	age := &schema.Column{Name: "age", Type: schema.TypeUint8}
	bio := &schema.Column{Name: "bio", Type: schema.TypeString}
	tags := &schema.Column{Name: "tags", Type: schema.TypeStrings}

	tests := []struct {
		name   string
		column *schema.Column
		value  any
		want   string
	}{
		{"range is half open", age, "18,65", "`age` >= 18 AND `age` < 65"},
		{"string null matches empty too", bio, "null", "(`bio` = '') IS NOT FALSE"},
		{"regex prefix", bio, "~^go", "`bio` REGEXP '^go'"},
		{"negated like prefix", bio, "!*bot", "`bio` NOT LIKE 'bot'"},
		{"array overlap", tags, "go", "json_overlaps(`tags`, json_array('go'))"},
		{"array and groups", tags, "go;sql",
			"json_overlaps(`tags`, json_array('go')) AND json_overlaps(`tags`, json_array('sql'))"},
		{"array all", tags, map[string]any{"$all": []string{"go", "sql"}},
			"(json_contains(`tags`, json_array('go','sql')))"},
		{"array size", tags, map[string]any{"$size": 2}, "(json_length(`tags`) = 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FormatFilter(tt.column, tt.column.Name, tt.value))
		})
	}
}

func TestMySQLFormatValueTemporalKeywords(t *testing.T) {
	e := &MySQLEncoder{}
	created := &schema.Column{Name: "created_at", Type: schema.TypeDateTime}

	assert.Equal(t, "from_unixtime(0)", e.FormatValue(created, "epoch"))
	assert.Equal(t, "current_timestamp(6)", e.FormatValue(created, "now"))
	assert.Equal(t, "curdate() + INTERVAL 1 DAY", e.FormatValue(created, "tomorrow"))
}

func TestMySQLPaginationPutsOffsetFirst(t *testing.T) {
	e := &MySQLEncoder{}
	assert.Equal(t, "LIMIT 20, 10", e.FormatPagination(10, 20))
}

func TestMySQLUpsertClause(t *testing.T) {
	e := &MySQLEncoder{}
	assert.Equal(t, "ON DUPLICATE KEY UPDATE name = 'x'", e.UpsertClause("id", "name = 'x'"))
}

func TestMySQLTextSearch(t *testing.T) {
	e := &MySQLEncoder{}
	assert.Equal(t, "CREATE FULLTEXT INDEX users_text_search_english_index ON users (`name`, `bio`);",
		e.TextSearchIndex("users", "english", []string{"name", "bio"}))
	assert.Equal(t, "match(`name`,`bio`) against('gopher')",
		e.TextSearchFilter([]string{"name", "bio"}, "gopher", "english"))
}

func TestMySQLDecodeValue(t *testing.T) {
	e := &MySQLEncoder{}

	decoded, err := e.DecodeValue("BIGINT UNSIGNED", []byte("18446744073709551615"))
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), decoded)

	_, err = e.DecodeValue("BIGINT UNSIGNED", int64(-1))
	assert.Error(t, err)

	decoded, err = e.DecodeValue("JSON", []byte(`["go","sql"]`))
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "sql"}, decoded)

	// Types the engine does not know decode to nil rather than failing.
	decoded, err = e.DecodeValue("GEOMETRY", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
