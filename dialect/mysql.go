package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/zorm/schema"
)

// MySQLEncoder renders SQL for the MySQL family (MySQL, MariaDB, TiDB).
type MySQLEncoder struct{}

// mysqlColumnTypes maps semantic type tags to MySQL DDL tokens. The string
// type is handled separately because its token depends on the column.
var mysqlColumnTypes = map[string]string{
	schema.TypeBool:     "BOOLEAN",
	schema.TypeUint64:   "BIGINT UNSIGNED",
	schema.TypeInt64:    "BIGINT",
	schema.TypeUint32:   "INT UNSIGNED",
	schema.TypeInt32:    "INT",
	schema.TypeUint16:   "SMALLINT UNSIGNED",
	schema.TypeInt16:    "SMALLINT",
	schema.TypeUint8:    "TINYINT UNSIGNED",
	schema.TypeInt8:     "TINYINT",
	schema.TypeFloat64:  "DOUBLE",
	schema.TypeFloat32:  "FLOAT",
	schema.TypeDateTime: "TIMESTAMP(6)",
	schema.TypeDate:     "DATE",
	schema.TypeTime:     "TIME",
	schema.TypeUUID:     "VARCHAR(36)",
	schema.TypeBytes:    "BLOB",
	schema.TypeStrings:  "JSON",
	schema.TypeUUIDs:    "JSON",
	schema.TypeMap:      "JSON",
}

// mysqlStringOperators translates the string filter prefixes into MySQL
// comparison tokens.
var mysqlStringOperators = map[string]string{
	"!":  "<>",
	"~":  "REGEXP",
	"!~": "NOT REGEXP",
	"*":  "LIKE",
	"!*": "NOT LIKE",
}

// Name returns the dialect name.
func (e *MySQLEncoder) Name() string { return MySQL }

// QuoteField quotes a field reference with backticks.
func (e *MySQLEncoder) QuoteField(field string) string {
	return quoteFields(field, func(s string) string { return "`" + s + "`" })
}

// Placeholder returns the MySQL bind placeholder.
func (e *MySQLEncoder) Placeholder(int) string { return "?" }

// ColumnType maps a column's semantic type to its MySQL DDL token.
func (e *MySQLEncoder) ColumnType(c *schema.Column) string {
	if c.Type == schema.TypeString {
		// Indexed or defaulted strings need a bounded type.
		if c.HasDefault() || c.Index != "" {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
	if token, ok := mysqlColumnTypes[c.Type]; ok {
		return token
	}
	return c.Type
}

// EncodeValue renders a dynamic value as a MySQL literal.
func (e *MySQLEncoder) EncodeValue(c *schema.Column, value any) string {
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
// as a MySQL literal.
func (e *MySQLEncoder) FormatValue(c *schema.Column, value string) string {
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
			return "from_unixtime(0)"
		case "now":
			return "current_timestamp(6)"
		case "today":
			return "curdate()"
		case "tomorrow":
			return "curdate() + INTERVAL 1 DAY"
		case "yesterday":
			return "curdate() - INTERVAL 1 DAY"
		default:
			return EscapeString(value)
		}
	case schema.TypeDate:
		switch value {
		case "epoch":
			return "'1970-01-01'"
		case "today":
			return "curdate()"
		case "tomorrow":
			return "curdate() + INTERVAL 1 DAY"
		case "yesterday":
			return "curdate() - INTERVAL 1 DAY"
		default:
			return EscapeString(value)
		}
	case schema.TypeTime:
		switch value {
		case "now":
			return "curtime()"
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

// FormatFilter compiles one field filter into a MySQL boolean expression.
func (e *MySQLEncoder) FormatFilter(c *schema.Column, field string, value any) string {
	if filter, ok := value.(map[string]any); ok {
		if c.Type == schema.TypeMap {
			// json_overlaps() requires MySQL 8.0.17+.
			return fmt.Sprintf("json_overlaps(%s, %s)", e.QuoteField(field), e.EncodeValue(c, value))
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
				token, ok := mysqlStringOperators[op]
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
		return fmt.Sprintf("json_overlaps(%s, %s)", quoted, e.EncodeValue(c, value))
	case schema.TypeMap:
		return fmt.Sprintf("json_overlaps(%s, %s)", quoted, e.EncodeValue(c, value))
	default:
		return fmt.Sprintf("%s = %s", quoted, e.EncodeValue(c, value))
	}
}

// formatOperatorFilter compiles the object form of a filter, one condition
// per $-operator pair, joined with AND.
func (e *MySQLEncoder) formatOperatorFilter(c *schema.Column, field string, filter map[string]any) string {
	quoted := e.QuoteField(field)
	conditions := make([]string, 0, len(filter))
	for _, name := range sortedKeys(filter) {
		value := filter[name]
		switch name {
		case "$all":
			conditions = append(conditions,
				fmt.Sprintf("json_contains(%s, %s)", quoted, e.EncodeValue(c, value)))
			continue
		case "$size":
			conditions = append(conditions,
				fmt.Sprintf("json_length(%s) = %s", quoted, e.EncodeValue(c, value)))
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
// ";"-joined groups AND together; when the value also contains ",", the
// ","-joined groups OR together with each group's ";" read as ",".
func (e *MySQLEncoder) formatArrayFilter(c *schema.Column, quoted, value string) string {
	if strings.Contains(value, ";") {
		if strings.Contains(value, ",") {
			groups := strings.Split(value, ",")
			conditions := make([]string, len(groups))
			for i, group := range groups {
				v := e.FormatValue(c, strings.ReplaceAll(group, ";", ","))
				conditions[i] = fmt.Sprintf("json_overlaps(%s, %s)", quoted, v)
			}
			return strings.Join(conditions, " OR ")
		}
		groups := strings.Split(value, ";")
		conditions := make([]string, len(groups))
		for i, group := range groups {
			conditions[i] = fmt.Sprintf("json_overlaps(%s, %s)", quoted, e.FormatValue(c, group))
		}
		return strings.Join(conditions, " AND ")
	}
	return fmt.Sprintf("json_overlaps(%s, %s)", quoted, e.FormatValue(c, value))
}

// FormatPagination renders the MySQL LIMIT clause.
func (e *MySQLEncoder) FormatPagination(limit, offset uint64) string {
	return fmt.Sprintf("LIMIT %d, %d", offset, limit)
}

// UpsertClause renders the MySQL conflict clause.
func (e *MySQLEncoder) UpsertClause(_ string, assignments string) string {
	return "ON DUPLICATE KEY UPDATE " + assignments
}

// IndexStatement renders one CREATE INDEX statement.
func (e *MySQLEncoder) IndexStatement(table string, c *schema.Column) string {
	name := c.ColumnName()
	return fmt.Sprintf("CREATE INDEX %s_%s_index ON %s (%s);", table, name, table, e.QuoteField(name))
}

// TextSearchIndex renders one FULLTEXT index over the columns sharing a
// language.
func (e *MySQLEncoder) TextSearchIndex(table, language string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = e.QuoteField(column)
	}
	return fmt.Sprintf("CREATE FULLTEXT INDEX %s_text_search_%s_index ON %s (%s);",
		table, language, table, strings.Join(quoted, ", "))
}

// TextSearchFilter renders the MySQL full-text search predicate.
func (e *MySQLEncoder) TextSearchFilter(fields []string, search, _ string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = e.QuoteField(field)
	}
	return fmt.Sprintf("match(%s) against(%s)", strings.Join(quoted, ","), EscapeString(search))
}

// DecodeValue converts a scanned driver value per MySQL native type name.
func (e *MySQLEncoder) DecodeValue(typeName string, src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	switch typeName {
	case "BOOLEAN", "BOOL":
		return toBool(src)
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT":
		return toInt64(src)
	case "TINYINT UNSIGNED", "SMALLINT UNSIGNED", "MEDIUMINT UNSIGNED",
		"INT UNSIGNED", "BIGINT UNSIGNED":
		return toUint64(src)
	case "FLOAT", "DOUBLE", "DECIMAL":
		return toFloat64(src)
	case "TEXT", "VARCHAR", "CHAR", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return toString(src)
	case "TIMESTAMP", "DATETIME":
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
	case "BLOB", "VARBINARY", "BINARY", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return toBytes(src)
	case "JSON":
		return decodeJSON(src)
	default:
		return nil, nil
	}
}
