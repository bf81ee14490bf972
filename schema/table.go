package schema

import "strings"

// DefaultPoolName is the pool used by a table that does not name its own
// reader or writer.
const DefaultPoolName = "main"

// Table is the static schema of one entity type: its column set, primary
// key, and the logical pools it reads from and writes to.
type Table struct {
	// Name is the entity name, e.g. "user".
	Name string

	// Namespace prefixes the physical table name and the model namespace,
	// e.g. "app:auth". Non-alphanumeric separators are normalized to "_"
	// in the table name.
	Namespace string

	// PrimaryKey is the primary key column name. Defaults to "id".
	PrimaryKey string

	// Columns is the ordered column set. Column names must be unique.
	Columns []*Column

	// Reader and Writer name the pools used for reads and writes.
	// Both default to "main".
	Reader string
	Writer string
}

// TableName returns the physical table name: "{namespace}_{entity}" with
// non-alphanumeric separators normalized to "_".
func (t *Table) TableName() string {
	if t.Namespace == "" {
		return t.Name
	}
	name := t.Namespace + "_" + t.Name
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// ModelNamespace returns the model namespace: "{namespace}:{entity}".
func (t *Table) ModelNamespace() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + ":" + t.Name
}

// PrimaryKeyName returns the primary key column name, defaulting to "id".
func (t *Table) PrimaryKeyName() string {
	if t.PrimaryKey == "" {
		return "id"
	}
	return t.PrimaryKey
}

// ReaderName returns the reader pool name, defaulting to "main".
func (t *Table) ReaderName() string {
	if t.Reader == "" {
		return DefaultPoolName
	}
	return t.Reader
}

// WriterName returns the writer pool name, defaulting to "main".
func (t *Table) WriterName() string {
	if t.Writer == "" {
		return DefaultPoolName
	}
	return t.Writer
}

// Column returns the column with the given field name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}
