package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/satishbabariya/zorm/schema"
)

// PostgresEncoder renders SQL for PostgreSQL.
type PostgresEncoder struct{}

// postgresColumnTypes maps semantic type tags to PostgreSQL DDL tokens.
var postgresColumnTypes = map[string]string{
	schema.TypeBool:     "BOOLEAN",
	schema.TypeUint64:   "BIGINT",
	schema.TypeInt64:    "BIGINT",
	schema.TypeUint32:   "INT",
	schema.TypeInt32:    "INT",
	schema.TypeUint16:   "SMALLINT",
	schema.TypeInt16:    "SMALLINT",
	schema.TypeUint8:    "SMALLINT",
	schema.TypeInt8:     "SMALLINT",
	schema.TypeFloat64:  "DOUBLE PRECISION",
	schema.TypeFloat32:  "REAL",
	schema.TypeString:   "TEXT",
	schema.TypeDateTime: "TIMESTAMPTZ",
	schema.TypeDate:     "DATE",
	schema.TypeTime:     "TIME",
	schema.TypeUUID:     "UUID",
	schema.TypeBytes:    "BYTEA",
	schema.TypeStrings:  "TEXT[]",
	schema.TypeUUIDs:    "UUID[]",
	schema.TypeMap:      "JSONB",
}

// postgresStringOperators translates the string filter prefixes into
// PostgreSQL comparison tokens.
var postgresStringOperators = map[string]string{
	"!":  "<>",
	"~":  "~",
	"!~": "!~",
	"~*": "~*",
	"*":  "ILIKE",
	"!*": "NOT ILIKE",
}

// Name returns the dialect name.
func (e *PostgresEncoder) Name() string { return Postgres }

// QuoteField quotes a field reference with double quotes.
func (e *PostgresEncoder) QuoteField(field string) string {
	return quoteFields(field, func(s string) string { return `"` + s + `"` })
}

// Placeholder returns the n-th PostgreSQL bind placeholder.
func (e *PostgresEncoder) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// ColumnType maps a column's semantic type to its PostgreSQL DDL token.
func (e *PostgresEncoder) ColumnType(c *schema.Column) string {
	if token, ok := postgresColumnTypes[c.Type]; ok {
		return token
	}
	return c.Type
}

// EncodeValue renders a dynamic value as a PostgreSQL literal.
func (e *PostgresEncoder) EncodeValue(c *schema.Column, value any) string {
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
		return fmt.Sprintf("ARRAY[%s]::%s", strings.Join(entries, ","), e.ColumnType(c))
	}
	return fmt.Sprintf("%s::%s", EscapeString(jsonLiteral(value)), e.ColumnType(c))
}

// FormatValue parses a string into the column's semantic type and renders it
// as a PostgreSQL literal.
func (e *PostgresEncoder) FormatValue(c *schema.Column, value string) string {
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
			return "'epoch'"
		case "now":
			return "now()"
		case "today":
			return "date_trunc('day', now())"
		case "tomorrow":
			return "date_trunc('day', now()) + '1 day'::INTERVAL"
		case "yesterday":
			return "date_trunc('day', now()) - '1 day'::INTERVAL"
		default:
			return EscapeString(value)
		}
	case schema.TypeDate:
		switch value {
		case "epoch":
			return "'epoch'"
		case "today":
			return "current_date"
		case "tomorrow":
			return "current_date + 1"
		case "yesterday":
			return "current_date - 1"
		default:
			return EscapeString(value)
		}
	case schema.TypeTime:
		switch value {
		case "now":
			return "current_time"
		case "midnight":
			return "'allballs'"
		default:
			return EscapeString(value)
		}
	case schema.TypeBytes:
		return fmt.Sprintf(`'\x%s'`, value)
	case schema.TypeStrings, schema.TypeUUIDs:
		entries := strings.Split(value, ",")
		for i, entry := range entries {
			entries[i] = EscapeString(entry)
		}
		return fmt.Sprintf("ARRAY[%s]::%s", strings.Join(entries, ","), e.ColumnType(c))
	case schema.TypeMap:
		return EscapeString(value) + "::jsonb"
	default:
		return "NULL"
	}
}

// FormatFilter compiles one field filter into a PostgreSQL boolean
// expression.
func (e *PostgresEncoder) FormatFilter(c *schema.Column, field string, value any) string {
	if filter, ok := value.(map[string]any); ok {
		if c.Type == schema.TypeMap {
			return fmt.Sprintf("%s @> %s", e.QuoteField(field), e.EncodeValue(c, value))
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
				// Matches both SQL NULL and the empty string.
				return fmt.Sprintf("(%s = '') IS NOT FALSE", quoted)
			case "notnull":
				return fmt.Sprintf("(%s = '') IS FALSE", quoted)
			}
			if op, rest := splitPrefixOperator(s, "!~*"); op != "" {
				token, ok := postgresStringOperators[op]
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
		return fmt.Sprintf("%s && %s", quoted, e.EncodeValue(c, value))
	case schema.TypeMap:
		if s, ok := asString(value); ok {
			// JSON path existence, Postgres 12+.
			return fmt.Sprintf("%s @? %s", quoted, EscapeString(s))
		}
		return fmt.Sprintf("%s @> %s", quoted, e.EncodeValue(c, value))
	default:
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	}
}

// formatOperatorFilter compiles the object form of a filter, one condition
// per $-operator pair, joined with AND.
func (e *PostgresEncoder) formatOperatorFilter(c *schema.Column, field string, filter map[string]any) string {
	quoted := e.QuoteField(field)
	conditions := make([]string, 0, len(filter))
	for _, name := range sortedKeys(filter) {
		value := filter[name]
		switch name {
		case "$all":
			conditions = append(conditions,
				fmt.Sprintf("%s @> %s", quoted, e.EncodeValue(c, value)))
			continue
		case "$size":
			conditions = append(conditions,
				fmt.Sprintf("array_length(%s, 1) = %s", quoted, e.EncodeValue(c, value)))
			continue
		}
		operator := filterOperator(name)
		if operator == "IN" || operator == "NOT IN" {
			// An empty operand list produces no condition at all.
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

// formatArrayFilter compiles the string form of an array-column filter:
// ";"-joined groups demand containment of every group; a single value uses
// the overlap operator instead.
func (e *PostgresEncoder) formatArrayFilter(c *schema.Column, quoted, value string) string {
	if strings.Contains(value, ";") {
		if strings.Contains(value, ",") {
			groups := strings.Split(value, ",")
			conditions := make([]string, len(groups))
			for i, group := range groups {
				v := e.FormatValue(c, strings.ReplaceAll(group, ";", ","))
				conditions[i] = fmt.Sprintf("%s @> %s", quoted, v)
			}
			return strings.Join(conditions, " OR ")
		}
		v := e.FormatValue(c, strings.ReplaceAll(value, ";", ","))
		return fmt.Sprintf("%s @> %s", quoted, v)
	}
	return fmt.Sprintf("%s && %s", quoted, e.FormatValue(c, value))
}

// FormatPagination renders the PostgreSQL LIMIT/OFFSET clause.
func (e *PostgresEncoder) FormatPagination(limit, offset uint64) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

// UpsertClause renders the PostgreSQL conflict clause.
func (e *PostgresEncoder) UpsertClause(primaryKey string, assignments string) string {
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", primaryKey, assignments)
}

// IndexStatement renders one CREATE INDEX CONCURRENTLY statement.
func (e *PostgresEncoder) IndexStatement(table string, c *schema.Column) string {
	name := c.ColumnName()
	sortOrder := ""
	if c.Index == "btree" {
		sortOrder = " DESC"
	}
	return fmt.Sprintf(
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS %s_%s_index ON %s USING %s(%s%s);",
		table, name, table, c.Index, e.QuoteField(name), sortOrder)
}

// TextSearchIndex renders one combined to_tsvector GIN index over the
// columns sharing a language.
func (e *PostgresEncoder) TextSearchIndex(table, language string, columns []string) string {
	entries := make([]string, len(columns))
	for i, column := range columns {
		entries[i] = fmt.Sprintf("coalesce(%s, '')", e.QuoteField(column))
	}
	vector := fmt.Sprintf("to_tsvector('%s', %s)", language, strings.Join(entries, " || ' ' || "))
	return fmt.Sprintf(
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS %s_text_search_%s_index ON %s USING gin(%s);",
		table, language, table, vector)
}

// TextSearchFilter renders the PostgreSQL full-text search predicate.
func (e *PostgresEncoder) TextSearchFilter(fields []string, search, language string) string {
	if language == "" {
		language = "english"
	}
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = e.QuoteField(field)
	}
	text := strings.Join(quoted, " || ' ' || ")
	return fmt.Sprintf("to_tsvector('%s', %s) @@ websearch_to_tsquery('%s', %s)",
		language, text, language, EscapeString(search))
}

// DecodeValue converts a scanned driver value per PostgreSQL native type
// name. lib/pq reports array types with a leading underscore.
func (e *PostgresEncoder) DecodeValue(typeName string, src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	switch typeName {
	case "BOOL":
		return toBool(src)
	case "INT2", "INT4", "INT8":
		return toInt64(src)
	case "FLOAT4", "FLOAT8", "NUMERIC":
		return toFloat64(src)
	case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NAME":
		return toString(src)
	case "TIMESTAMPTZ":
		t, err := toTime(src)
		if err != nil {
			return nil, err
		}
		return t.Format("2006-01-02 15:04:05.999999-07:00"), nil
	case "TIMESTAMP":
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
	case "TIME", "TIMETZ":
		return toString(src)
	case "UUID":
		s, err := toString(src)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case "BYTEA":
		return toBytes(src)
	case "_TEXT", "TEXT[]", "_VARCHAR":
		return decodeStringArray(src)
	case "_UUID", "UUID[]":
		values, err := decodeStringArray(src)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, err
			}
			values[i] = id.String()
		}
		return values, nil
	case "JSONB", "JSON":
		return decodeJSON(src)
	default:
		return nil, nil
	}
}

// decodeStringArray parses a PostgreSQL array value via the pq scanner.
func decodeStringArray(src any) ([]string, error) {
	var values pq.StringArray
	if err := values.Scan(src); err != nil {
		return nil, err
	}
	return []string(values), nil
}
