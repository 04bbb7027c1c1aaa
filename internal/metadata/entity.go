package metadata

// Entity describes one record type: its storage table and the ordered
// list of fields a client may set. The primary key ("id") is assigned
// by the store and is never part of Fields.
type Entity struct {
	Name   string   `json:"name"`
	Table  string   `json:"table"`
	Fields []string `json:"fields"`

	// Unique lists fields carrying a store-level uniqueness constraint.
	Unique []string `json:"unique,omitempty"`

	// SecretField names a field whose value is stored as a one-way
	// hash, never raw. Empty for entities without credentials.
	SecretField string `json:"secret_field,omitempty"`
}

// HasField returns true if the entity allows the given field.
func (e *Entity) HasField(name string) bool {
	for _, f := range e.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// IsUnique returns true if the field carries a uniqueness constraint.
func (e *Entity) IsUnique(name string) bool {
	for _, f := range e.Unique {
		if f == name {
			return true
		}
	}
	return false
}
