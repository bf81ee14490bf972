package query

import zorm "github.com/satishbabariya/zorm"

// Mutation describes the field assignments of an update. Like a Query it is
// built per call and consumed once by the SQL generator.
type Mutation struct {
	// Updates maps field names to the values they are assigned.
	Updates zorm.Map
}

// NewMutation creates an empty mutation.
func NewMutation() *Mutation {
	return &Mutation{Updates: zorm.Map{}}
}

// Set assigns a value to a field.
func (m *Mutation) Set(field string, value any) *Mutation {
	if m.Updates == nil {
		m.Updates = zorm.Map{}
	}
	m.Updates[field] = value
	return m
}
