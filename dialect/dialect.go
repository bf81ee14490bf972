// Package dialect implements the per-dialect encoding strategy of the ORM
// engine: rendering columns and dynamic values into SQL literals, DDL type
// tokens and filter-condition fragments, and decoding native result values
// back into document values.
//
// Two primary dialects are provided, the MySQL family and PostgreSQL, plus a
// SQLite encoder. Adding a dialect means implementing Encoder; the SQL
// generator stays dialect-agnostic.
package dialect

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/zorm/schema"
)

// Dialect name constants.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Encoder is the per-dialect strategy consumed by the SQL generator.
//
// Filter and value rendering never fails: malformed input degrades to SQL
// NULL or a best-effort equality predicate. Strictness, where wanted, is
// enforced upstream by the generator.
type Encoder interface {
	// Name returns the dialect name.
	Name() string

	// QuoteField quotes a field reference, splitting dotted paths.
	QuoteField(field string) string

	// Placeholder returns the n-th bind placeholder (1-based).
	Placeholder(n int) string

	// ColumnType maps a column's semantic type to the dialect DDL token.
	// Unknown semantic types pass through unchanged.
	ColumnType(c *schema.Column) string

	// EncodeValue renders a dynamic value as a SQL literal for the column.
	// A nil value renders as SQL NULL.
	EncodeValue(c *schema.Column, value any) string

	// FormatValue parses a string into the column's semantic type and
	// renders it as a SQL literal. Values that fail to parse render as SQL
	// NULL, except for string-like types which are always escaped.
	FormatValue(c *schema.Column, value string) string

	// FormatFilter compiles one field filter into a SQL boolean expression.
	// An empty result means no constraint.
	FormatFilter(c *schema.Column, field string, value any) string

	// FormatPagination renders the LIMIT/OFFSET clause.
	FormatPagination(limit, offset uint64) string

	// UpsertClause renders the conflict clause of an upsert statement.
	UpsertClause(primaryKey string, assignments string) string

	// IndexStatement renders one CREATE INDEX statement for an indexed
	// column, or "" if the dialect cannot index it.
	IndexStatement(table string, c *schema.Column) string

	// TextSearchIndex renders the combined full-text index statement for
	// the columns sharing one language, or "" if unsupported.
	TextSearchIndex(table, language string, columns []string) string

	// TextSearchFilter renders the full-text search predicate for the
	// $fields/$search special filter.
	TextSearchFilter(fields []string, search, language string) string

	// DecodeValue converts a scanned driver value into a document value
	// using the reported native column type name. Unknown native types
	// decode to nil.
	DecodeValue(typeName string, src any) (any, error)
}

// New returns the encoder for a dialect name. MySQL-compatible dialects
// (mariadb, tidb) share the MySQL encoder.
func New(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case MySQL, "mariadb", "tidb":
		return &MySQLEncoder{}, nil
	case Postgres, "postgresql":
		return &PostgresEncoder{}, nil
	case SQLite, "sqlite3":
		return &SQLiteEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
}

// EscapeString renders a string as a standard single-quoted SQL literal.
func EscapeString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// quoteFields applies quote to each part of a dotted field path.
func quoteFields(field string, quote func(string) string) string {
	if strings.Contains(field, ".") {
		parts := strings.Split(field, ".")
		for i, part := range parts {
			parts[i] = quote(part)
		}
		return strings.Join(parts, ".")
	}
	return quote(field)
}

// numericLiteral renders a Go number as SQL literal text.
func numericLiteral(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

// jsonLiteral marshals a value as canonical JSON text. encoding/json sorts
// object keys, so rendering is deterministic.
func jsonLiteral(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(data)
}

// splitPrefixOperator splits a leading operator run (characters from ops)
// off a filter value. It returns "" when the value carries no prefix.
func splitPrefixOperator(value, ops string) (operator, rest string) {
	idx := strings.IndexFunc(value, func(r rune) bool {
		return !strings.ContainsRune(ops, r)
	})
	if idx <= 0 {
		return "", value
	}
	return value[:idx], value[idx:]
}

// filterOperator maps a $-operator key to its comparison token. Unknown
// keys degrade to equality.
func filterOperator(name string) string {
	switch name {
	case "$eq":
		return "="
	case "$ne":
		return "<>"
	case "$lt":
		return "<"
	case "$lte":
		return "<="
	case "$gt":
		return ">"
	case "$gte":
		return ">="
	case "$in":
		return "IN"
	case "$nin":
		return "NOT IN"
	default:
		return "="
	}
}

// sortedKeys returns the map keys in lexical order so that compiled SQL is
// byte-identical across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// asArray coerces a dynamic value into a slice, if it is one.
func asArray(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// asString coerces a dynamic value into a string, if it is one.
func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// Scanned driver value conversions. The database/sql drivers hand back
// int64, uint64, float64, bool, string, []byte, time.Time or nil when
// scanning into any.

func toInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", src)
}

func toUint64(src any) (uint64, error) {
	switch v := src.(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned column", v)
		}
		return uint64(v), nil
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case string:
		return strconv.ParseUint(v, 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to uint64", src)
}

func toFloat64(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float64", src)
}

func toBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("cannot convert %T to bool", src)
}

func toString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", src)
}

func toBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("cannot convert %T to bytes", src)
}

// temporal layouts accepted when a driver hands timestamps back as text.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
	"15:04:05.999999999",
}

func toTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", src)
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", value)
}

func decodeJSON(src any) (any, error) {
	data, err := toBytes(src)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}
