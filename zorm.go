// Package zorm is a schema-driven ORM engine: declarative model schemas and
// structured query/mutation documents are compiled into dialect-specific SQL
// text, executed over lazily-connected, health-checked connection pools, and
// result rows are decoded back into dynamically-typed documents.
package zorm

// Map is the dynamically-typed document model. Rows decode into a Map, and
// models are encoded from a Map before being compiled into SQL.
type Map = map[string]any

// Version is the library version.
const Version = "0.1.0"
