package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/zorm/schema"
)

// SQLiteEncoder renders SQL for SQLite. SQLite stores arrays and maps as
// JSON text and queries them through the json1 functions.
type SQLiteEncoder struct{}

// sqliteColumnTypes maps semantic type tags to SQLite DDL tokens.
var sqliteColumnTypes = map[string]string{
	schema.TypeBool:     "BOOLEAN",
	schema.TypeUint64:   "INTEGER",
	schema.TypeInt64:    "INTEGER",
	schema.TypeUint32:   "INTEGER",
	schema.TypeInt32:    "INTEGER",
	schema.TypeUint16:   "INTEGER",
	schema.TypeInt16:    "INTEGER",
	schema.TypeUint8:    "INTEGER",
	schema.TypeInt8:     "INTEGER",
	schema.TypeFloat64:  "REAL",
	schema.TypeFloat32:  "REAL",
	schema.TypeString:   "TEXT",
	schema.TypeDateTime: "DATETIME",
	schema.TypeDate:     "DATE",
	schema.TypeTime:     "TIME",
	schema.TypeUUID:     "TEXT",
	schema.TypeBytes:    "BLOB",
	schema.TypeStrings:  "JSON",
	schema.TypeUUIDs:    "JSON",
	schema.TypeMap:      "JSON",
}

// sqliteStringOperators translates the string filter prefixes into SQLite
// comparison tokens.
var sqliteStringOperators = map[string]string{
	"!":  "<>",
	"~":  "REGEXP",
	"!~": "NOT REGEXP",
	"*":  "LIKE",
	"!*": "NOT LIKE",
}

// Name returns the dialect name.
func (e *SQLiteEncoder) Name() string { return SQLite }

// QuoteField quotes a field reference with double quotes.
func (e *SQLiteEncoder) QuoteField(field string) string {
	return quoteFields(field, func(s string) string { return `"` + s + `"` })
}

// Placeholder returns the SQLite bind placeholder.
func (e *SQLiteEncoder) Placeholder(int) string { return "?" }

// ColumnType maps a column's semantic type to its SQLite DDL token.
func (e *SQLiteEncoder) ColumnType(c *schema.Column) string {
	if token, ok := sqliteColumnTypes[c.Type]; ok {
		return token
	}
	return c.Type
}

// EncodeValue renders a dynamic value as a SQLite literal.
func (e *SQLiteEncoder) EncodeValue(c *schema.Column, value any) string {
	if value == nil {
		return "NULL"
	}
	if b, ok := value.(bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	if literal, ok := numericLiteral(value); ok {
		return literal
	}
	if s, ok := asString(value); ok {
		switch {
		case s == "":
			if c.HasDefault() {
				return e.FormatValue(c, c.Default)
			}
			return "''"
		case s == "null":
			return "NULL"
		default:
			return e.FormatValue(c, s)
		}
	}
	if values, ok := asArray(value); ok {
		entries := make([]string, len(values))
		for i, v := range values {
			if s, ok := asString(v); ok {
				entries[i] = EscapeString(s)
			} else {
				entries[i] = e.EncodeValue(c, v)
			}
		}
		return fmt.Sprintf("json_array(%s)", strings.Join(entries, ","))
	}
	return EscapeString(jsonLiteral(value))
}

// FormatValue parses a string into the column's semantic type and renders it
// as a SQLite literal.
func (e *SQLiteEncoder) FormatValue(c *schema.Column, value string) string {
	switch c.Type {
	case schema.TypeBool:
		if value == "true" {
			return "TRUE"
		}
		return "FALSE"
	case schema.TypeUint8, schema.TypeUint16, schema.TypeUint32, schema.TypeUint64:
		if _, err := strconv.ParseUint(value, 10, 64); err == nil {
			return value
		}
		return "NULL"
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			return value
		}
		return "NULL"
	case schema.TypeFloat32, schema.TypeFloat64:
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return value
		}
		return "NULL"
	case schema.TypeString, schema.TypeUUID:
		return EscapeString(value)
	case schema.TypeDateTime:
		switch value {
		case "epoch":
			return "datetime(0, 'unixepoch')"
		case "now":
			return "datetime('now')"
		case "today":
			return "date('now')"
		case "tomorrow":
			return "date('now', '+1 day')"
		case "yesterday":
			return "date('now', '-1 day')"
		default:
			return EscapeString(value)
		}
	case schema.TypeDate:
		switch value {
		case "epoch":
			return "'1970-01-01'"
		case "today":
			return "date('now')"
		case "tomorrow":
			return "date('now', '+1 day')"
		case "yesterday":
			return "date('now', '-1 day')"
		default:
			return EscapeString(value)
		}
	case schema.TypeTime:
		switch value {
		case "now":
			return "time('now')"
		case "midnight":
			return "'00:00:00'"
		default:
			return EscapeString(value)
		}
	case schema.TypeBytes:
		return fmt.Sprintf("X'%s'", value)
	case schema.TypeStrings, schema.TypeUUIDs:
		entries := strings.Split(value, ",")
		for i, entry := range entries {
			entries[i] = EscapeString(entry)
		}
		return fmt.Sprintf("json_array(%s)", strings.Join(entries, ","))
	case schema.TypeMap:
		return EscapeString(value)
	default:
		return "NULL"
	}
}

// jsonOverlaps renders the SQLite analog of an array-overlap predicate.
func (e *SQLiteEncoder) jsonOverlaps(field, value string) string {
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM json_each(%s) WHERE value IN (SELECT value FROM json_each(%s)))",
		field, value)
}

// FormatFilter compiles one field filter into a SQLite boolean expression.
func (e *SQLiteEncoder) FormatFilter(c *schema.Column, field string, value any) string {
	if filter, ok := value.(map[string]any); ok {
		if c.Type == schema.TypeMap {
			return fmt.Sprintf("json(%s) = json(%s)", e.QuoteField(field), e.EncodeValue(c, value))
		}
		return e.formatOperatorFilter(c, field, filter)
	}
	quoted := e.QuoteField(field)
	switch c.Type {
	case schema.TypeBool:
		if e.EncodeValue(c, value) == "TRUE" {
			return fmt.Sprintf("%s IS TRUE", quoted)
		}
		return fmt.Sprintf("%s IS NOT TRUE", quoted)
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64,
		schema.TypeUint8, schema.TypeUint16, schema.TypeUint32, schema.TypeUint64,
		schema.TypeFloat32, schema.TypeFloat64,
		schema.TypeDateTime, schema.TypeDate, schema.TypeTime:
		if s, ok := asString(value); ok {
			if min, max, ok := strings.Cut(s, ","); ok {
				return fmt.Sprintf("%s >= %s AND %s < %s",
					quoted, e.FormatValue(c, min), quoted, e.FormatValue(c, max))
			}
			if op, rest := splitPrefixOperator(s, "<>="); op != "" {
				return fmt.Sprintf("%s %s %s", quoted, op, e.FormatValue(c, rest))
			}
			return fmt.Sprintf("%s = %s", quoted, e.FormatValue(c, s))
		}
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	case schema.TypeString:
		if s, ok := asString(value); ok {
			switch s {
			case "null":
				return fmt.Sprintf("(%s = '') IS NOT FALSE", quoted)
			case "notnull":
				return fmt.Sprintf("(%s = '') IS FALSE", quoted)
			}
			if op, rest := splitPrefixOperator(s, "!~*"); op != "" {
				token, ok := sqliteStringOperators[op]
				if !ok {
					token = "="
				}
				return fmt.Sprintf("%s %s %s", quoted, token, EscapeString(rest))
			}
			return fmt.Sprintf("%s = %s", quoted, EscapeString(s))
		}
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	case schema.TypeUUID:
		if s, ok := asString(value); ok {
			switch {
			case s == "null":
				return fmt.Sprintf("%s IS NULL", quoted)
			case s == "notnull":
				return fmt.Sprintf("%s IS NOT NULL", quoted)
			case strings.Contains(s, ","):
				entries := strings.Split(s, ",")
				for i, entry := range entries {
					entries[i] = EscapeString(entry)
				}
				return fmt.Sprintf("%s IN (%s)", quoted, strings.Join(entries, ","))
			default:
				return fmt.Sprintf("%s = %s", quoted, EscapeString(s))
			}
		}
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	case schema.TypeStrings, schema.TypeUUIDs:
		if s, ok := asString(value); ok {
			return e.formatArrayFilter(c, quoted, s)
		}
		return e.jsonOverlaps(quoted, e.EncodeValue(c, value))
	case schema.TypeMap:
		return fmt.Sprintf("json(%s) = json(%s)", quoted, e.EncodeValue(c, value))
	default:
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	}
}

// formatOperatorFilter compiles the object form of a filter, one condition
// per $-operator pair, joined with AND.
func (e *SQLiteEncoder) formatOperatorFilter(c *schema.Column, field string, filter map[string]any) string {
	quoted := e.QuoteField(field)
	conditions := make([]string, 0, len(filter))
	for _, name := range sortedKeys(filter) {
		value := filter[name]
		switch name {
		case "$all":
			encoded := e.EncodeValue(c, value)
			conditions = append(conditions, fmt.Sprintf(
				"(SELECT count(*) FROM json_each(%s) WHERE value IN (SELECT value FROM json_each(%s))) = json_array_length(%s)",
				encoded, quoted, encoded))
			continue
		case "$size":
			conditions = append(conditions,
				fmt.Sprintf("json_array_length(%s) = %s", quoted, e.EncodeValue(c, value)))
			continue
		}
		operator := filterOperator(name)
		if operator == "IN" || operator == "NOT IN" {
			if values, ok := asArray(value); ok && len(values) > 0 {
				entries := make([]string, len(values))
				for i, v := range values {
					entries[i] = e.EncodeValue(c, v)
				}
				conditions = append(conditions,
					fmt.Sprintf("%s %s (%s)", quoted, operator, strings.Join(entries, ",")))
			}
			continue
		}
		conditions = append(conditions,
			fmt.Sprintf("%s %s %s", quoted, operator, e.EncodeValue(c, value)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return "(" + strings.Join(conditions, " AND ") + ")"
}

// formatArrayFilter compiles the string form of an array-column filter.
func (e *SQLiteEncoder) formatArrayFilter(c *schema.Column, quoted, value string) string {
	if strings.Contains(value, ";") {
		if strings.Contains(value, ",") {
			groups := strings.Split(value, ",")
			conditions := make([]string, len(groups))
			for i, group := range groups {
				v := e.FormatValue(c, strings.ReplaceAll(group, ";", ","))
				conditions[i] = e.jsonOverlaps(quoted, v)
			}
			return strings.Join(conditions, " OR ")
		}
		groups := strings.Split(value, ";")
		conditions := make([]string, len(groups))
		for i, group := range groups {
			conditions[i] = e.jsonOverlaps(quoted, e.FormatValue(c, group))
		}
		return strings.Join(conditions, " AND ")
	}
	return e.jsonOverlaps(quoted, e.FormatValue(c, value))
}

// FormatPagination renders the SQLite LIMIT/OFFSET clause.
func (e *SQLiteEncoder) FormatPagination(limit, offset uint64) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

// UpsertClause renders the SQLite conflict clause.
func (e *SQLiteEncoder) UpsertClause(primaryKey string, assignments string) string {
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", primaryKey, assignments)
}

// IndexStatement renders one CREATE INDEX statement. SQLite ignores the
// requested index kind.
func (e *SQLiteEncoder) IndexStatement(table string, c *schema.Column) string {
	name := c.ColumnName()
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s_index ON %s (%s);",
		table, name, table, e.QuoteField(name))
}

// TextSearchIndex returns "". Full-text search in SQLite needs an FTS5
// virtual table, which is outside plain index creation.
func (e *SQLiteEncoder) TextSearchIndex(string, string, []string) string {
	return ""
}

// TextSearchFilter renders a LIKE-based fallback predicate.
func (e *SQLiteEncoder) TextSearchFilter(fields []string, search, _ string) string {
	pattern := EscapeString("%" + search + "%")
	conditions := make([]string, len(fields))
	for i, field := range fields {
		conditions[i] = fmt.Sprintf("%s LIKE %s", e.QuoteField(field), pattern)
	}
	return "(" + strings.Join(conditions, " OR ") + ")"
}

// DecodeValue converts a scanned driver value per the declared SQLite
// column type.
func (e *SQLiteEncoder) DecodeValue(typeName string, src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	switch typeName {
	case "BOOLEAN", "BOOL":
		return toBool(src)
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT":
		return toInt64(src)
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC":
		return toFloat64(src)
	case "TEXT", "VARCHAR", "CHAR", "CLOB":
		return toString(src)
	case "DATETIME", "TIMESTAMP":
		t, err := toTime(src)
		if err != nil {
			return nil, err
		}
		return t.Format("2006-01-02 15:04:05.999999"), nil
	case "DATE":
		t, err := toTime(src)
		if err != nil {
			return nil, err
		}
		return t.Format("2006-01-02"), nil
	case "TIME":
		return toString(src)
	case "BLOB":
		return toBytes(src)
	case "JSON":
		return decodeJSON(src)
	default:
		return nil, nil
	}
}
