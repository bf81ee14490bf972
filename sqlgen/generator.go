// Package sqlgen compiles schema operations into dialect-specific SQL text.
// Each method is stateless: the same inputs always produce byte-identical
// SQL, so generation can be cached or replayed safely.
package sqlgen

import (
	"fmt"
	"slices"
	"strings"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/dialect"
	"github.com/satishbabariya/zorm/query"
	"github.com/satishbabariya/zorm/schema"
)

// Generator compiles statements for one table under one dialect.
type Generator struct {
	table *schema.Table
	enc   dialect.Encoder
}

// New creates a generator for the table and dialect encoder.
func New(table *schema.Table, enc dialect.Encoder) *Generator {
	return &Generator{table: table, enc: enc}
}

// Table returns the table schema the generator compiles for.
func (g *Generator) Table() *schema.Table { return g.table }

// Encoder returns the dialect encoder.
func (g *Generator) Encoder() dialect.Encoder { return g.enc }

// CreateTable builds the CREATE TABLE IF NOT EXISTS statement from the
// column list, with defaults, NOT NULL markers, foreign-key constraints and
// the primary-key constraint.
func (g *Generator) CreateTable() string {
	tableName := g.table.TableName()
	primaryKey := g.table.PrimaryKeyName()
	definitions := make([]string, 0, len(g.table.Columns)+1)
	for _, c := range g.table.Columns {
		definitions = append(definitions, g.columnDefinition(c))
	}
	for _, c := range g.table.Columns {
		if constraint := g.foreignKeyConstraint(c); constraint != "" {
			definitions = append(definitions, constraint)
		}
	}
	definitions = append(definitions,
		fmt.Sprintf("CONSTRAINT %s_pkey PRIMARY KEY (%s)", tableName, primaryKey))
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);",
		tableName, strings.Join(definitions, ", "))
}

// columnDefinition renders one column clause of a CREATE TABLE statement.
func (g *Generator) columnDefinition(c *schema.Column) string {
	definition := c.ColumnName() + " " + g.enc.ColumnType(c)
	switch {
	case c.AutoIncrement:
		// Postgres and SQLite auto-increment integer primary keys on
		// their own; only the MySQL family needs the marker.
		if g.enc.Name() == dialect.MySQL {
			definition += " AUTO_INCREMENT"
		}
	case c.HasDefault():
		definition += " DEFAULT " + g.enc.FormatValue(c, c.Default)
	case !c.Nullable:
		definition += " NOT NULL"
	}
	return definition
}

// foreignKeyConstraint renders the FOREIGN KEY clause for a referencing
// column, when the column opts in via the "foreign_key" extra.
func (g *Generator) foreignKeyConstraint(c *schema.Column) string {
	if c.Reference == nil {
		return ""
	}
	if _, ok := c.Extra["foreign_key"]; !ok {
		return ""
	}
	parent := &schema.Table{Name: c.Reference.Entity, Namespace: g.table.Namespace}
	constraint := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
		c.ColumnName(), parent.TableName(), c.Reference.Column)
	if action, ok := c.Extra["on_delete"]; ok {
		constraint += " ON DELETE " + strings.ToUpper(action)
	}
	if action, ok := c.Extra["on_update"]; ok {
		constraint += " ON UPDATE " + strings.ToUpper(action)
	}
	return constraint
}

// CreateIndexes builds one statement per indexed column. Columns with a
// "text" index kind are not indexed directly; they are grouped by language
// and combined into one full-text index per language.
func (g *Generator) CreateIndexes() []string {
	tableName := g.table.TableName()
	var statements []string
	var languages []string
	textColumns := map[string][]string{}
	for _, c := range g.table.Columns {
		if c.Index == "" {
			continue
		}
		if language, ok := c.TextSearchLanguage(); ok {
			if _, seen := textColumns[language]; !seen {
				languages = append(languages, language)
			}
			textColumns[language] = append(textColumns[language], c.ColumnName())
			continue
		}
		if stmt := g.enc.IndexStatement(tableName, c); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	for _, language := range languages {
		if stmt := g.enc.TextSearchIndex(tableName, language, textColumns[language]); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// encodeColumn renders the value expression for one column of a document:
// an absent field falls back to the declared default or SQL NULL.
func (g *Generator) encodeColumn(c *schema.Column, doc zorm.Map) string {
	value, ok := doc[c.Name]
	if !ok {
		if c.HasDefault() {
			return "DEFAULT"
		}
		return "NULL"
	}
	return g.enc.EncodeValue(c, value)
}

// Insert builds an INSERT projecting every declared column in declaration
// order, not just the provided fields.
func (g *Generator) Insert(doc zorm.Map) string {
	keys := make([]string, 0, len(g.table.Columns))
	values := make([]string, 0, len(g.table.Columns))
	for _, c := range g.table.Columns {
		keys = append(keys, c.ColumnName())
		values = append(values, g.encodeColumn(c, doc))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		g.table.TableName(), strings.Join(keys, ","), strings.Join(values, ","))
}

// InsertMany batches multiple documents into one multi-row INSERT.
func (g *Generator) InsertMany(docs []zorm.Map) string {
	keys := make([]string, 0, len(g.table.Columns))
	for _, c := range g.table.Columns {
		keys = append(keys, c.ColumnName())
	}
	tuples := make([]string, 0, len(docs))
	for _, doc := range docs {
		values := make([]string, 0, len(g.table.Columns))
		for _, c := range g.table.Columns {
			values = append(values, g.encodeColumn(c, doc))
		}
		tuples = append(tuples, "("+strings.Join(values, ",")+")")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		g.table.TableName(), strings.Join(keys, ","), strings.Join(tuples, ","))
}

// Update builds an UPDATE setting every non-primary-key column from the
// full document, keyed by primary key equality.
func (g *Generator) Update(doc zorm.Map) string {
	primaryKey := g.table.PrimaryKeyName()
	assignments := make([]string, 0, len(g.table.Columns))
	for _, c := range g.table.Columns {
		if c.Name == primaryKey {
			continue
		}
		assignments = append(assignments,
			fmt.Sprintf("%s = %s", c.ColumnName(), g.encodeColumn(c, doc)))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s;",
		g.table.TableName(), strings.Join(assignments, ","),
		primaryKey, g.primaryKeyValue(doc[primaryKey]))
}

// Upsert builds a single INSERT with a dialect-specific conflict clause on
// the primary key.
func (g *Generator) Upsert(doc zorm.Map) string {
	primaryKey := g.table.PrimaryKeyName()
	keys := make([]string, 0, len(g.table.Columns))
	values := make([]string, 0, len(g.table.Columns))
	assignments := make([]string, 0, len(g.table.Columns))
	for _, c := range g.table.Columns {
		value := g.encodeColumn(c, doc)
		keys = append(keys, c.ColumnName())
		values = append(values, value)
		if c.Name != primaryKey {
			assignments = append(assignments, fmt.Sprintf("%s = %s", c.ColumnName(), value))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s;",
		g.table.TableName(), strings.Join(keys, ","), strings.Join(values, ","),
		g.enc.UpsertClause(primaryKey, strings.Join(assignments, ",")))
}

// Delete builds a DELETE keyed by primary key equality.
func (g *Generator) Delete(id any) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s;",
		g.table.TableName(), g.table.PrimaryKeyName(), g.primaryKeyValue(id))
}

// UpdateOne compiles a Mutation plus Query into an UPDATE bounded to at most
// one row through a primary-key subquery, which avoids relying on LIMIT
// support inside UPDATE.
func (g *Generator) UpdateOne(q *query.Query, m *query.Mutation) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	tableName := g.table.TableName()
	primaryKey := g.table.PrimaryKeyName()
	subquery := joinClauses("SELECT "+primaryKey+" FROM "+tableName, filter, g.formatSort(q), "LIMIT 1")
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s IN (%s);",
		tableName, g.formatUpdates(m), primaryKey, subquery), nil
}

// UpdateMany compiles a Mutation plus Query into an UPDATE.
func (g *Generator) UpdateMany(q *query.Query, m *query.Mutation) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	return joinClauses("UPDATE "+g.table.TableName()+" SET "+g.formatUpdates(m), filter) + ";", nil
}

// DeleteOne compiles a Query into a DELETE bounded to at most one row
// through the same primary-key subquery as UpdateOne.
func (g *Generator) DeleteOne(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	tableName := g.table.TableName()
	primaryKey := g.table.PrimaryKeyName()
	subquery := joinClauses("SELECT "+primaryKey+" FROM "+tableName, filter, g.formatSort(q), "LIMIT 1")
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s);", tableName, primaryKey, subquery), nil
}

// DeleteMany compiles a Query into a DELETE.
func (g *Generator) DeleteMany(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	return joinClauses("DELETE FROM "+g.table.TableName(), filter) + ";", nil
}

// Find compiles a Query into a SELECT with sort and pagination.
func (g *Generator) Find(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	stmt := joinClauses(
		"SELECT "+g.formatProjection(q.Fields)+" FROM "+g.table.TableName(),
		filter, g.formatSort(q), g.formatPagination(q))
	return stmt + ";", nil
}

// FindOne compiles a Query into a SELECT bounded to one row.
func (g *Generator) FindOne(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	stmt := joinClauses(
		"SELECT "+g.formatProjection(q.Fields)+" FROM "+g.table.TableName(),
		filter, g.formatSort(q), "LIMIT 1")
	return stmt + ";", nil
}

// Count compiles a Query into a SELECT count(*), ignoring sort and
// pagination.
func (g *Generator) Count(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	return joinClauses("SELECT count(*) FROM "+g.table.TableName(), filter) + ";", nil
}

// FindByID builds a SELECT keyed by primary key equality.
func (g *Generator) FindByID(id any) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = %s;",
		g.table.TableName(), g.table.PrimaryKeyName(), g.primaryKeyValue(id))
}

// FetchQuery compiles the association query used for fetch splicing: a
// SELECT with the filter but neither sort nor pagination.
func (g *Generator) FetchQuery(q *query.Query) (string, error) {
	filter, err := g.formatFilter(q)
	if err != nil {
		return "", err
	}
	stmt := joinClauses(
		"SELECT "+g.formatProjection(q.Fields)+" FROM "+g.table.TableName(), filter)
	return stmt + ";", nil
}

// primaryKeyValue encodes a primary key value for equality comparison.
func (g *Generator) primaryKeyValue(id any) string {
	c := g.table.Column(g.table.PrimaryKeyName())
	if c == nil {
		c = &schema.Column{Name: g.table.PrimaryKeyName(), Type: schema.TypeString}
	}
	return g.enc.EncodeValue(c, id)
}

// formatUpdates renders the SET assignments of a mutation in lexical field
// order. Fields not declared in the schema are skipped.
func (g *Generator) formatUpdates(m *query.Mutation) string {
	fields := make([]string, 0, len(m.Updates))
	for field := range m.Updates {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	assignments := make([]string, 0, len(fields))
	for _, field := range fields {
		c := g.table.Column(field)
		if c == nil {
			continue
		}
		assignments = append(assignments,
			fmt.Sprintf("%s = %s", c.ColumnName(), g.enc.EncodeValue(c, m.Updates[field])))
	}
	return strings.Join(assignments, ",")
}

// formatFilter compiles the query filters into a WHERE clause. Filter keys
// compile in lexical order so that the same query always yields the same
// SQL text. An empty result means no constraint.
//
// In lenient mode malformed entries degrade per the dialect encoder rules
// and unknown fields are skipped; in strict mode unknown fields are an
// error.
func (g *Generator) formatFilter(q *query.Query) (string, error) {
	if len(q.Filters) == 0 {
		return "", nil
	}
	fields := make([]string, 0, len(q.Filters))
	for field := range q.Filters {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var conditions []string
	var searchFields []string
	var search, language string
	for _, field := range fields {
		value := q.Filters[field]
		switch field {
		case "$fields":
			searchFields = parseStringList(value)
			continue
		case "$search":
			search, _ = value.(string)
			continue
		case "$language":
			language, _ = value.(string)
			continue
		}
		if strings.HasPrefix(field, "$") {
			// Unknown top-level operators carry no field to constrain.
			continue
		}
		c := g.table.Column(field)
		if c == nil {
			if q.Strict {
				return "", fmt.Errorf("%w: unknown field %q", zorm.ErrMalformedFilter, field)
			}
			continue
		}
		if condition := g.enc.FormatFilter(c, field, value); condition != "" {
			conditions = append(conditions, condition)
		}
	}
	if search != "" && len(searchFields) > 0 {
		conditions = append(conditions, g.enc.TextSearchFilter(searchFields, search, language))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), nil
}

// formatSort renders the ORDER BY clause.
func (g *Generator) formatSort(q *query.Query) string {
	if q.SortBy == "" {
		return ""
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	return "ORDER BY " + g.enc.QuoteField(q.SortBy) + " " + direction
}

// formatProjection renders the SELECT projection: all columns when the
// query names no fields.
func (g *Generator) formatProjection(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = g.enc.QuoteField(field)
	}
	return strings.Join(quoted, ", ")
}

// formatPagination renders the pagination clause. A filter on the sort
// field already bounds the scan (cursor-style continuation), so only LIMIT
// is emitted; otherwise the dialect places LIMIT and OFFSET.
func (g *Generator) formatPagination(q *query.Query) string {
	if q.Limit == 0 {
		return ""
	}
	if q.SortBy != "" {
		if _, ok := q.Filters[q.SortBy]; ok {
			return fmt.Sprintf("LIMIT %d", q.Limit)
		}
	}
	return g.enc.FormatPagination(q.Limit, q.Offset)
}

// joinClauses joins the non-empty clauses with single spaces.
func joinClauses(clauses ...string) string {
	parts := clauses[:0]
	for _, clause := range clauses {
		if clause != "" {
			parts = append(parts, clause)
		}
	}
	return strings.Join(parts, " ")
}

// parseStringList reads a []string filter operand given either as a list or
// as a comma-joined string.
func parseStringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	}
	return nil
}
