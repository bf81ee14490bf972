package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mysql", MySQL},
		{"mariadb", MySQL},
		{"tidb", MySQL},
		{"postgres", Postgres},
		{"postgresql", Postgres},
		{"PostgreSQL", Postgres},
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := New(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, enc.Name())
		})
	}

	_, err := New("oracle")
	assert.Error(t, err)
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, "'plain'", EscapeString("plain"))
	assert.Equal(t, "'O''Brien'", EscapeString("O'Brien"))
	assert.Equal(t, "''''", EscapeString("'"))
}

func TestSplitPrefixOperator(t *testing.T) {
	tests := []struct {
		value    string
		ops      string
		operator string
		rest     string
	}{
		{">=18", "<>=", ">=", "18"},
		{"<100", "<>=", "<", "100"},
		{"18", "<>=", "", "18"},
		{"!*bot", "!~*", "!*", "bot"},
		{"~^go", "!~*", "~", "^go"},
		{"", "<>=", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			operator, rest := splitPrefixOperator(tt.value, tt.ops)
			assert.Equal(t, tt.operator, operator)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestFilterOperator(t *testing.T) {
	assert.Equal(t, "=", filterOperator("$eq"))
	assert.Equal(t, "<>", filterOperator("$ne"))
	assert.Equal(t, "NOT IN", filterOperator("$nin"))
	// Unknown operators degrade to equality.
	assert.Equal(t, "=", filterOperator("$mod"))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(m))
}

func TestParseTime(t *testing.T) {
	for _, value := range []string{
		"2024-05-01 12:30:00.000001+02:00",
		"2024-05-01 12:30:00",
		"2024-05-01T12:30:00Z",
		"2024-05-01",
	} {
		_, err := parseTime(value)
		assert.NoError(t, err, value)
	}
	_, err := parseTime("next thursday")
	assert.Error(t, err)
}
