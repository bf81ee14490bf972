// Package schema describes the static schema of persisted entities: one
// Column per field plus the table-level metadata used by the SQL generator.
package schema

// Semantic type tags for columns. A tag names the value domain of a field,
// not a concrete database type; each dialect encoder maps tags to its own
// DDL tokens. Unrecognized tags pass through to the DDL unchanged.
const (
	TypeBool     = "bool"
	TypeInt8     = "int8"
	TypeInt16    = "int16"
	TypeInt32    = "int32"
	TypeInt64    = "int64"
	TypeUint8    = "uint8"
	TypeUint16   = "uint16"
	TypeUint32   = "uint32"
	TypeUint64   = "uint64"
	TypeFloat32  = "float32"
	TypeFloat64  = "float64"
	TypeString   = "string"
	TypeDateTime = "datetime"
	TypeDate     = "date"
	TypeTime     = "time"
	TypeUUID     = "uuid"
	TypeBytes    = "bytes"
	TypeStrings  = "[]string"
	TypeUUIDs    = "[]uuid"
	TypeMap      = "map"
)

// Reference points a column at another entity's column, normally its
// primary key. It drives foreign-key constraints and fetch splicing.
type Reference struct {
	// Entity is the referenced entity name.
	Entity string

	// Column is the referenced column name, normally the primary key.
	Column string
}

// Column holds the schema metadata of one persisted field. A Column is
// immutable once constructed and owned by the entity's static schema.
type Column struct {
	// Name is the column name, unique within an entity's column set.
	Name string

	// Type is the semantic type tag (one of the Type* constants, or a raw
	// DDL token for types the engine does not know about).
	Type string

	// Nullable marks the column as accepting SQL NULL.
	Nullable bool

	// Default is the default value as a literal or keyword ("now", "epoch",
	// ...). Empty means no default.
	Default string

	// Index requests an index on the column: "hash", "btree", "gin",
	// "text" or "text:{language}" for full-text search. Empty means none.
	Index string

	// AutoIncrement marks an auto-incremented primary key.
	AutoIncrement bool

	// Reference optionally points at the referenced entity column.
	Reference *Reference

	// Extra carries dialect or application specific hints, e.g.
	// "column_name", "foreign_key", "on_delete", "on_update".
	Extra map[string]string
}

// HasDefault reports whether the column declares a default value.
func (c *Column) HasDefault() bool {
	return c.Default != ""
}

// ColumnName returns the physical column name, honoring the "column_name"
// extra when present.
func (c *Column) ColumnName() string {
	if name, ok := c.Extra["column_name"]; ok && name != "" {
		return name
	}
	return c.Name
}

// TextSearchLanguage returns the language of a full-text index request and
// whether the column requested one. A bare "text" index defaults to english.
func (c *Column) TextSearchLanguage() (string, bool) {
	if c.Index == "text" {
		return "english", true
	}
	if len(c.Index) > 5 && c.Index[:5] == "text:" {
		return c.Index[5:], true
	}
	return "", false
}

// IsNumeric reports whether the semantic type is an integer or float type.
func (c *Column) IsNumeric() bool {
	switch c.Type {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// IsUnsigned reports whether the semantic type is an unsigned integer type.
func (c *Column) IsUnsigned() bool {
	switch c.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return true
	}
	return false
}

// IsTemporal reports whether the semantic type is a date/time type.
func (c *Column) IsTemporal() bool {
	switch c.Type {
	case TypeDateTime, TypeDate, TypeTime:
		return true
	}
	return false
}
